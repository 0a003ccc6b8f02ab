package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/digiko-labs/dex-price-service/internal/ai"
	"github.com/digiko-labs/dex-price-service/internal/cache"
	"github.com/digiko-labs/dex-price-service/internal/coingecko"
	"github.com/digiko-labs/dex-price-service/internal/config"
	"github.com/digiko-labs/dex-price-service/internal/constants"
	"github.com/digiko-labs/dex-price-service/internal/klever"
	"github.com/digiko-labs/dex-price-service/internal/pricer"
	"github.com/digiko-labs/dex-price-service/internal/server"
	"github.com/digiko-labs/dex-price-service/internal/tokens"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Initialize Redis client for caching and the token registry
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0, // Use default database for main application
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	// Initialize price cache and live channel publisher
	priceCache := cache.NewRedisCacheFromClient(rclient, cfg.PriceTTL, logger)
	publisher := cache.NewPubSubManager(rclient, logger)

	// Initialize token registry for listing control
	registry, err := tokens.NewRegistry(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create token registry")
	}

	// Pricing service backs the forced-refresh endpoint (optional: needs the
	// DEX contract address)
	var pricingService *pricer.Service
	if cfg.ContractAddress != "" {
		nodeClient := klever.NewClient(klever.ClientConfig{
			BaseURL:      cfg.NodeURL,
			Timeout:      cfg.HTTPTimeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			Logger:       logger,
		})
		poolSource, err := klever.NewPoolSource(klever.PoolSourceConfig{
			Client:          nodeClient,
			ContractAddress: cfg.ContractAddress,
			Logger:          logger,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to create pool source")
		}

		anchorSource := coingecko.NewAnchorSource(
			coingecko.NewClient(cfg.CoinGeckoBaseURL, cfg.CoinGeckoAPIKey),
			constants.AnchorCoinGeckoID,
		)

		pricingService, err = pricer.NewService(pricer.ServiceConfig{
			Pools:       poolSource,
			Anchor:      anchorSource,
			AnchorStore: priceCache,
			Logger:      logger,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to create pricing service")
		}
	} else {
		logger.Warn("DEX_CONTRACT_ADDRESS not set, /v1/refresh disabled")
	}

	// Initialize AI agent for natural language queries (optional)
	var agent *ai.Agent
	aiBase := ai.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Model:              "openai/gpt-4.1-mini", // Default model for NL→SQL translation
		Logger:             logger,
	}

	// Only initialize AI if OpenRouter API key is provided
	if cfg.OpenRouterAPIKey != "" {
		a, err := ai.NewAgent(ctx, aiBase)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize ai agent")
		} else {
			agent = a
			defer func() {
				_ = agent.Close() // Clean up AI resources on shutdown
			}()
		}
	}

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Cache:        priceCache,
		Publisher:    publisher,
		Tokens:       registry,
		Pricer:       pricingService, // Optional (can be nil)
		AI:           agent,          // Optional AI agent (can be nil)
		AIBaseConfig: aiBase,
		DevMode:      cfg.DevMode,
		Logger:       logger,
	}

	// Create HTTP server with configuration and handlers
	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()                               // Cancel context to stop ongoing operations
		_ = srv.Shutdown(context.Background()) // Gracefully shutdown HTTP server
	}()

	// Start the HTTP server
	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		// "http: Server closed" is expected during graceful shutdown
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
