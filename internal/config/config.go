package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/digiko-labs/dex-price-service/internal/constants"
)

type Config struct {
	// Klever node settings
	NodeURL         string
	ContractAddress string

	// CoinGecko settings
	CoinGeckoBaseURL string
	CoinGeckoAPIKey  string

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Pricer settings
	PollInterval time.Duration
	PriceTTL     time.Duration

	// API server settings
	APIAddr string
	APIKey  string
	DevMode bool

	// AI settings
	OpenRouterAPIKey string
}

func Load() *Config {
	return &Config{
		// Klever
		NodeURL:         getEnv("KLEVER_NODE_URL", "https://node.mainnet.klever.org"),
		ContractAddress: getEnv("DEX_CONTRACT_ADDRESS", ""),

		// CoinGecko
		CoinGeckoBaseURL: getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoAPIKey:  getEnv("COINGECKO_API_KEY", ""),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "digiko"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 5),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 2*time.Second),

		// Pricer
		PollInterval: getDurationEnv("POLL_INTERVAL", constants.DefaultPollInterval),
		PriceTTL:     getDurationEnv("PRICE_TTL", constants.DefaultPriceTTL),

		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// AI
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
	}
}

// Validate checks the settings every binary depends on.
func (c *Config) Validate() error {
	if c.NodeURL == "" {
		return fmt.Errorf("KLEVER_NODE_URL is required")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.PriceTTL <= 0 {
		return fmt.Errorf("PRICE_TTL must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
