package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/digiko-labs/dex-price-service/internal/cache"
	"github.com/digiko-labs/dex-price-service/internal/coingecko"
	"github.com/digiko-labs/dex-price-service/internal/config"
	"github.com/digiko-labs/dex-price-service/internal/constants"
	"github.com/digiko-labs/dex-price-service/internal/klever"
	"github.com/digiko-labs/dex-price-service/internal/pricer"
	"github.com/digiko-labs/dex-price-service/internal/storage"
)

func loadEnv(logger *logrus.Logger) {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	}
}

// sink fans one pricing outcome out to cache, live channels and history.
type sink struct {
	cache     storage.PriceCache
	publisher storage.PricePublisher
	history   storage.PriceHistory
	logger    *logrus.Logger
}

// handle persists a finished run. The cache write is the one that matters;
// publish and history failures are logged and the run still counts.
func (s *sink) handle(outcome *pricer.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.cache.SetPrices(ctx, outcome.Records); err != nil {
		s.logger.WithError(err).Error("failed to cache prices")
		return
	}
	if err := s.cache.SetSnapshot(ctx, outcome.Pools); err != nil {
		s.logger.WithError(err).Warn("failed to store pool snapshot")
	}

	if s.publisher != nil {
		if err := s.publisher.PublishPrices(ctx, outcome.Records); err != nil {
			s.logger.WithError(err).Warn("failed to publish prices")
		}
	}

	if s.history != nil {
		if err := s.history.InsertPrices(ctx, outcome.Records); err != nil {
			s.logger.WithError(err).Warn("failed to insert price history")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"priced":       len(outcome.Records),
		"unpriced":     len(outcome.Unpriced),
		"rounds":       outcome.Rounds,
		"anchor_stale": outcome.AnchorStale,
	}).Info("pricing run stored")
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.ContractAddress == "" {
		logger.Fatal("DEX_CONTRACT_ADDRESS is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0,
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	priceCache := cache.NewRedisCacheFromClient(rclient, cfg.PriceTTL, logger)
	publisher := cache.NewPubSubManager(rclient, logger)

	// History store is optional: the pricer keeps running on cache alone
	// when ClickHouse is down.
	var history storage.PriceHistory
	chStore, err := cache.NewClickHouseStore(cache.ClickHouseConfig{
		Addr:     cfg.ClickHouseAddr,
		Database: cfg.ClickHouseDatabase,
		Username: cfg.ClickHouseUsername,
		Password: cfg.ClickHousePassword,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Warn("clickhouse unavailable, price history disabled")
	} else {
		if err := chStore.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Warn("failed to ensure clickhouse schema, price history disabled")
			_ = chStore.Close()
		} else {
			history = chStore
			defer chStore.Close()
		}
	}

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

	service, err := pricer.NewService(pricer.ServiceConfig{
		Pools:       poolSource,
		Anchor:      anchorSource,
		AnchorStore: priceCache,
		Logger:      logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create pricing service")
	}

	out := &sink{
		cache:     priceCache,
		publisher: publisher,
		history:   history,
		logger:    logger,
	}

	poller := pricer.NewPoller(pricer.PollerConfig{
		Service:      service,
		PollInterval: cfg.PollInterval,
		Logger:       logger,
	})

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"contract": cfg.ContractAddress,
		"interval": cfg.PollInterval,
	}).Info("pricer starting")

	if err := poller.Start(ctx, out.handle); err != nil && err != context.Canceled {
		logger.WithError(err).Fatal("poller stopped")
	}
}
