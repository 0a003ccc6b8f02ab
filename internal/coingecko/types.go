package coingecko

import (
	"context"
	"time"

	"github.com/digiko-labs/dex-price-service/internal/models"
)

// SimplePriceQuote mirrors one entry of the /simple/price response
type SimplePriceQuote struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
}

// AnchorSource adapts the client to the storage.AnchorSource interface for a
// fixed coin id.
type AnchorSource struct {
	client *Client
	coinID string
}

func NewAnchorSource(client *Client, coinID string) *AnchorSource {
	return &AnchorSource{client: client, coinID: coinID}
}

func (s *AnchorSource) FetchAnchor(ctx context.Context) (models.AnchorQuote, error) {
	quote, err := s.client.SimplePrice(ctx, s.coinID)
	if err != nil {
		return models.AnchorQuote{}, err
	}
	return models.AnchorQuote{
		USD:       quote.USD,
		Change24h: quote.USD24hChange,
		FetchedAt: time.Now().UTC(),
	}, nil
}
