// Package pricer orchestrates one pricing run: anchor quote in, pool
// snapshot in, resolved USD prices out. The resolution itself lives in
// internal/pricing; this package owns the I/O around it and the fallback
// policy when the anchor source is down.
package pricer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/digiko-labs/dex-price-service/internal/constants"
	"github.com/digiko-labs/dex-price-service/internal/models"
	"github.com/digiko-labs/dex-price-service/internal/pricing"
	"github.com/digiko-labs/dex-price-service/internal/storage"
)

// AnchorStore persists the last usable anchor quote between runs.
type AnchorStore interface {
	SetAnchor(ctx context.Context, quote models.AnchorQuote) error
	GetAnchor(ctx context.Context) (*models.AnchorQuote, error)
}

// Outcome is the result of one pricing run.
type Outcome struct {
	Records  []models.PriceRecord
	Unpriced []string
	Pools    []models.Pool
	Anchor   models.AnchorQuote

	// AnchorStale is true when the live anchor fetch failed and the run
	// used the last persisted quote instead.
	AnchorStale bool

	Rounds           int
	SkippedConverged int
}

// Service wires the two collaborators into the resolution engine.
type Service struct {
	pools  storage.PoolSource
	anchor storage.AnchorSource
	store  AnchorStore
	logger *logrus.Logger
}

// ServiceConfig holds dependencies for a pricing service
type ServiceConfig struct {
	Pools       storage.PoolSource
	Anchor      storage.AnchorSource
	AnchorStore AnchorStore
	Logger      *logrus.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Pools == nil {
		return nil, fmt.Errorf("pool source is nil")
	}
	if cfg.Anchor == nil {
		return nil, fmt.Errorf("anchor source is nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Service{
		pools:  cfg.Pools,
		anchor: cfg.Anchor,
		store:  cfg.AnchorStore,
		logger: cfg.Logger,
	}, nil
}

// RunOnce performs a full pricing run. A dead anchor source degrades to the
// last persisted quote, and a dead quote degrades to an empty result with
// every symbol unpriced; only a failed pool snapshot is an error.
func (s *Service) RunOnce(ctx context.Context) (*Outcome, error) {
	anchor, stale := s.fetchAnchor(ctx)

	pools, err := s.pools.FetchPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch pools: %w", err)
	}

	res := pricing.Resolve(constants.AnchorSymbol, anchor.USD, pools)

	now := time.Now().UTC()
	records := make([]models.PriceRecord, 0, len(res.Prices))
	for _, rec := range res.Prices {
		rec.UpdatedAt = now
		if rec.Symbol == constants.AnchorSymbol {
			// The 24h change is only known for the anchor; derived
			// tokens get theirs from history, not from this run.
			rec.Change24h = anchor.Change24h
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Symbol < records[j].Symbol })

	s.logger.WithFields(logrus.Fields{
		"priced":   len(records),
		"unpriced": len(res.Unpriced),
		"rounds":   res.Rounds,
	}).Info("pricing run complete")

	return &Outcome{
		Records:          records,
		Unpriced:         res.Unpriced,
		Pools:            pools,
		Anchor:           anchor,
		AnchorStale:      stale,
		Rounds:           res.Rounds,
		SkippedConverged: res.SkippedConverged,
	}, nil
}

// fetchAnchor returns the freshest usable anchor quote. The second return is
// true when the quote came from the fallback store.
func (s *Service) fetchAnchor(ctx context.Context) (models.AnchorQuote, bool) {
	quote, err := s.anchor.FetchAnchor(ctx)
	if err == nil && quote.USD > 0 {
		if s.store != nil {
			if err := s.store.SetAnchor(ctx, quote); err != nil {
				s.logger.WithError(err).Warn("failed to persist anchor quote")
			}
		}
		return quote, false
	}
	if err != nil {
		s.logger.WithError(err).Warn("anchor fetch failed")
	} else {
		s.logger.Warn("anchor source returned zero price")
	}

	if s.store == nil {
		return models.AnchorQuote{}, false
	}

	cached, err := s.store.GetAnchor(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.WithError(err).Warn("no cached anchor quote available")
		}
		return models.AnchorQuote{}, false
	}

	s.logger.WithField("fetched_at", cached.FetchedAt).Info("using cached anchor quote")
	return *cached, true
}
