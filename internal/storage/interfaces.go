package storage

import (
	"context"
	"io"

	"github.com/digiko-labs/dex-price-service/internal/models"
)

// PriceCache defines the interface for the short-lived price cache.
// Reads report staleness instead of failing when the fresh entry expired:
// a stale last-good value is still better than no price at all.
type PriceCache interface {
	// SetPrices stores a full resolution result, refreshing both the
	// TTL-bound entries and the last-good fallbacks.
	SetPrices(ctx context.Context, records []models.PriceRecord) error

	// GetPrice retrieves one symbol's record. stale is true when the
	// fresh entry expired and the last-good fallback was served.
	GetPrice(ctx context.Context, symbol string) (rec *models.PriceRecord, stale bool, err error)

	// GetPrices retrieves every cached record.
	GetPrices(ctx context.Context) ([]models.PriceRecord, bool, error)

	// SetAnchor and GetAnchor persist the last usable anchor quote so a
	// failed CoinGecko fetch can fall back to it.
	SetAnchor(ctx context.Context, quote models.AnchorQuote) error
	GetAnchor(ctx context.Context) (*models.AnchorQuote, error)

	// SetSnapshot and GetSnapshot store the latest pool snapshot for the
	// API's pool listing.
	SetSnapshot(ctx context.Context, pools []models.Pool) error
	GetSnapshot(ctx context.Context) ([]models.Pool, error)

	// Ping checks if the cache is reachable.
	Ping(ctx context.Context) error

	// Close closes the cache connection.
	io.Closer
}

// PricePublisher fans resolved prices out to live subscribers.
type PricePublisher interface {
	PublishPrices(ctx context.Context, records []models.PriceRecord) error
}

// PriceHistory defines the interface for persistent price history storage.
type PriceHistory interface {
	// InsertPrices appends one resolution run's records.
	InsertPrices(ctx context.Context, records []models.PriceRecord) error

	// Ping checks if the store is reachable.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	io.Closer
}

// PoolSource supplies the current pool snapshot. Implementations must skip
// individually failing pools rather than abort the whole snapshot.
type PoolSource interface {
	FetchPools(ctx context.Context) ([]models.Pool, error)
}

// AnchorSource supplies the anchor asset's externally quoted USD price.
// A zero-price quote means the source considers the price unavailable.
type AnchorSource interface {
	FetchAnchor(ctx context.Context) (models.AnchorQuote, error)
}
