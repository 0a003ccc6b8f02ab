// ============================================================================
// cache/pubsub.go - Redis Pub/Sub Wrapper
// ============================================================================
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/digiko-labs/dex-price-service/internal/constants"
	"github.com/digiko-labs/dex-price-service/internal/models"
)

type PubSubManager struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewPubSubManager(client *redis.Client, logger *logrus.Logger) *PubSubManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSubManager{client: client, logger: logger}
}

// PublishPrices fans one resolution run out to the live channel and to the
// per-symbol channels.
func (p *PubSubManager) PublishPrices(ctx context.Context, records []models.PriceRecord) error {
	now := time.Now().UTC()

	pipe := p.client.Pipeline()
	for _, rec := range records {
		update := models.PriceUpdate{
			Symbol:    rec.Symbol,
			USD:       rec.USD,
			Via:       rec.Via,
			Iteration: rec.Iteration,
			Timestamp: now,
		}
		data, err := json.Marshal(update)
		if err != nil {
			return err
		}
		pipe.Publish(ctx, constants.PubSubChannelPrices, data)
		pipe.Publish(ctx, constants.PubSubChannelSymbolPrefix+rec.Symbol, data)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Subscribe consumes one channel until the context ends or the channel closes
func (p *PubSubManager) Subscribe(ctx context.Context, channel string, handler func(*models.PriceUpdate)) error {
	pubsub := p.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	p.logger.WithField("channel", channel).Info("subscribed")

	ch := pubsub.Channel()
	for msg := range ch {
		var update models.PriceUpdate
		if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
			p.logger.WithError(err).Warn("dropping malformed price update")
			continue
		}
		handler(&update)
	}

	return nil
}

// PSubscribe consumes a channel pattern (e.g. "prices:symbol:*")
func (p *PubSubManager) PSubscribe(ctx context.Context, pattern string, handler func(*models.PriceUpdate)) error {
	pubsub := p.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	p.logger.WithField("pattern", pattern).Info("subscribed")

	ch := pubsub.Channel()
	for msg := range ch {
		var update models.PriceUpdate
		if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
			p.logger.WithError(err).Warn("dropping malformed price update")
			continue
		}
		handler(&update)
	}

	return nil
}
