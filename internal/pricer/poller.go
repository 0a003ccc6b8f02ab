package pricer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// OutcomeHandler receives the outcome of each completed pricing run.
type OutcomeHandler func(*Outcome)

// Poller drives the pricing service on a fixed interval.
type Poller struct {
	service      *Service
	pollInterval time.Duration
	logger       *logrus.Logger

	mu      sync.Mutex
	running bool
}

// PollerConfig holds configuration for the poller
type PollerConfig struct {
	Service      *Service
	PollInterval time.Duration
	Logger       *logrus.Logger
}

// NewPoller creates a new pricing poller
func NewPoller(cfg PollerConfig) *Poller {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Poller{
		service:      cfg.Service,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}
}

// Start runs pricing immediately and then on every tick until ctx ends
func (p *Poller) Start(ctx context.Context, handler OutcomeHandler) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	p.running = true
	p.mu.Unlock()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.logger.WithField("interval", p.pollInterval).Info("starting price polling")

	// First run straight away so the cache is warm before the first tick.
	if err := p.poll(ctx, handler); err != nil {
		p.logger.WithError(err).Error("poll error")
	}

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return ctx.Err()

		case <-ticker.C:
			if err := p.poll(ctx, handler); err != nil {
				p.logger.WithError(err).Error("poll error")
			}
		}
	}
}

// Stop stops the poller
func (p *Poller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	return nil
}

func (p *Poller) poll(ctx context.Context, handler OutcomeHandler) error {
	outcome, err := p.service.RunOnce(ctx)
	if err != nil {
		return err
	}

	if handler != nil {
		handler(outcome)
	}
	return nil
}
