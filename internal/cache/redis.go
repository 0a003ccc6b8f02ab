package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/digiko-labs/dex-price-service/internal/constants"
	"github.com/digiko-labs/dex-price-service/internal/models"
)

// ErrNotFound is returned when a symbol has no cached price at all, fresh or
// stale. Callers should surface it as "no price available", not as zero.
var ErrNotFound = errors.New("price not found")

// RedisCache keeps two copies of every price: a TTL-bound fresh entry and a
// non-expiring last-good entry. When the fresh entry lapses between pricer
// runs, reads degrade to the last-good value and flag it stale.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRedisCacheFromClient wraps an existing Redis client
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	if ttl <= 0 {
		ttl = constants.DefaultPriceTTL
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (r *RedisCache) SetPrices(ctx context.Context, records []models.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal price record: %w", err)
		}
		pipe.Set(ctx, priceKey(rec.Symbol), b, r.ttl)
		pipe.Set(ctx, lastGoodKey(rec.Symbol), b, 0)
		pipe.SAdd(ctx, constants.RedisKeyPriceIndex, rec.Symbol)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set prices: %w", err)
	}
	return nil
}

func (r *RedisCache) GetPrice(ctx context.Context, symbol string) (*models.PriceRecord, bool, error) {
	rec, err := r.getRecord(ctx, priceKey(symbol))
	if err == nil {
		return rec, false, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, false, fmt.Errorf("get price: %w", err)
	}

	// Fresh entry expired; fall back to the last-good copy.
	rec, err = r.getRecord(ctx, lastGoodKey(symbol))
	if errors.Is(err, redis.Nil) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("get last-good price: %w", err)
	}
	return rec, true, nil
}

func (r *RedisCache) GetPrices(ctx context.Context) ([]models.PriceRecord, bool, error) {
	symbols, err := r.client.SMembers(ctx, constants.RedisKeyPriceIndex).Result()
	if err != nil {
		return nil, false, fmt.Errorf("list price index: %w", err)
	}
	if len(symbols) == 0 {
		return []models.PriceRecord{}, false, nil
	}

	out := make([]models.PriceRecord, 0, len(symbols))
	stale := false
	for _, sym := range symbols {
		rec, isStale, err := r.GetPrice(ctx, sym)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		stale = stale || isStale
		out = append(out, *rec)
	}
	return out, stale, nil
}

func (r *RedisCache) SetAnchor(ctx context.Context, quote models.AnchorQuote) error {
	b, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("marshal anchor quote: %w", err)
	}
	if err := r.client.Set(ctx, constants.RedisKeyAnchorLastGood, b, 0).Err(); err != nil {
		return fmt.Errorf("set anchor: %w", err)
	}
	return nil
}

func (r *RedisCache) GetAnchor(ctx context.Context) (*models.AnchorQuote, error) {
	val, err := r.client.Get(ctx, constants.RedisKeyAnchorLastGood).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get anchor: %w", err)
	}

	var q models.AnchorQuote
	if err := json.Unmarshal([]byte(val), &q); err != nil {
		return nil, fmt.Errorf("unmarshal anchor quote: %w", err)
	}
	return &q, nil
}

func (r *RedisCache) SetSnapshot(ctx context.Context, pools []models.Pool) error {
	b, err := json.Marshal(pools)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, constants.RedisKeySnapshot, b, 0).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}

func (r *RedisCache) GetSnapshot(ctx context.Context) ([]models.Pool, error) {
	val, err := r.client.Get(ctx, constants.RedisKeySnapshot).Result()
	if errors.Is(err, redis.Nil) {
		return []models.Pool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var pools []models.Pool
	if err := json.Unmarshal([]byte(val), &pools); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return pools, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) getRecord(ctx context.Context, key string) (*models.PriceRecord, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	var rec models.PriceRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal price record: %w", err)
	}
	return &rec, nil
}

func priceKey(symbol string) string {
	return constants.RedisKeyPricePrefix + symbol
}

func lastGoodKey(symbol string) string {
	return constants.RedisKeyLastGoodPrefix + symbol
}
