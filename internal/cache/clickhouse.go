package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/digiko-labs/dex-price-service/internal/models"
)

// ClickHouseStore persists every resolution run into the price_history table
// so price movement can be charted and queried after the fact.
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

// ClickHouseConfig holds connection settings for the history store
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

func NewClickHouseStore(cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	cfg.Logger.WithField("addr", cfg.Addr).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: cfg.Logger}, nil
}

// EnsureSchema creates the price_history table when it does not exist yet.
// Kept in sync with the schema description in internal/ai.
func (c *ClickHouseStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS price_history (
			symbol     String,
			usd        Float64,
			via        String,
			iteration  UInt8,
			change_24h Float64,
			updated_at DateTime
		) ENGINE = MergeTree()
		ORDER BY (symbol, updated_at)
	`
	if err := c.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create price_history: %w", err)
	}
	return nil
}

// InsertPrices appends one resolution run's records as a single batch
func (c *ClickHouseStore) InsertPrices(ctx context.Context, records []models.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, `
		INSERT INTO price_history (symbol, usd, via, iteration, change_24h, updated_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, rec := range records {
		err := batch.Append(
			rec.Symbol,
			rec.USD,
			rec.Via,
			uint8(rec.Iteration),
			rec.Change24h,
			rec.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to append price row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert prices: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
