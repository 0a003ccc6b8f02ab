package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/digiko-labs/dex-price-service/internal/ai"
	"github.com/digiko-labs/dex-price-service/internal/cache"
	"github.com/digiko-labs/dex-price-service/internal/models"
	"github.com/digiko-labs/dex-price-service/internal/pricer"
	"github.com/digiko-labs/dex-price-service/internal/storage"
	"github.com/digiko-labs/dex-price-service/internal/tokens"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Cache        storage.PriceCache       // Redis-backed price cache
	Publisher    storage.PricePublisher   // Live price fan-out (optional)
	Tokens       *tokens.Registry         // Redis-backed token registry
	Pricer       *pricer.Service          // On-demand pricing runs (optional)
	AI           *ai.Agent                // AI agent for natural language queries
	AIBaseConfig ai.AgentConfig           // Base configuration for AI agents
	DevMode      bool                     // Enable detailed error responses in development
	Logger       *logrus.Logger           // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Prices returns every resolved price, minus registry-hidden symbols
func (h *Handlers) Prices(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, stale, err := h.Cache.GetPrices(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get prices", nil)
	}

	hidden, err := h.Tokens.Hidden(ctx)
	if err != nil {
		// A broken registry should not take the whole listing down.
		h.Logger.WithError(err).Warn("failed to load hidden tokens")
		hidden = nil
	}

	out := make([]models.PriceRecord, 0, len(items))
	for _, rec := range items {
		if hidden[rec.Symbol] {
			continue
		}
		out = append(out, rec)
	}

	return c.JSON(http.StatusOK, PricesResponse{Items: out, Stale: stale})
}

// Price returns the resolved USD price for one symbol plus how it was derived
// Symbol parameter is case-insensitive and will be normalized to uppercase
func (h *Handlers) Price(c echo.Context) error {
	symbol := strings.TrimSpace(c.Param("symbol"))
	if symbol == "" {
		return h.err(c, http.StatusBadRequest, "invalid symbol", nil)
	}
	symbol = strings.ToUpper(symbol)

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	rec, stale, err := h.Cache.GetPrice(ctx, symbol)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			// Unpriced is a distinct state from a zero price.
			return h.err(c, http.StatusNotFound, "no price available", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get price", nil)
	}

	return c.JSON(http.StatusOK, PriceResponse{
		Symbol:    rec.Symbol,
		USD:       rec.USD,
		Via:       rec.Via,
		Iteration: rec.Iteration,
		Change24h: rec.Change24h,
		UpdatedAt: rec.UpdatedAt,
		Stale:     stale,
	})
}

// Pools returns the most recent pool snapshot
func (h *Handlers) Pools(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pools, err := h.Cache.GetSnapshot(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get pools", nil)
	}
	return c.JSON(http.StatusOK, PoolsResponse{Items: pools})
}

// Refresh forces a pricing run and stores the outcome before responding
func (h *Handlers) Refresh(c echo.Context) error {
	if h.Pricer == nil {
		return h.err(c, http.StatusBadRequest, "pricer is not configured", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	start := time.Now()

	outcome, err := h.Pricer.RunOnce(ctx)
	if err != nil {
		return h.err(c, http.StatusBadGateway, "pricing run failed", map[string]any{"err": err.Error()})
	}

	if err := h.Cache.SetPrices(ctx, outcome.Records); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to store prices", nil)
	}
	if err := h.Cache.SetSnapshot(ctx, outcome.Pools); err != nil {
		h.Logger.WithError(err).Warn("failed to store pool snapshot")
	}
	if h.Publisher != nil {
		if err := h.Publisher.PublishPrices(ctx, outcome.Records); err != nil {
			h.Logger.WithError(err).Warn("failed to publish price updates")
		}
	}

	return c.JSON(http.StatusOK, RefreshResponse{
		Priced:      len(outcome.Records),
		Unpriced:    outcome.Unpriced,
		Rounds:      outcome.Rounds,
		AnchorStale: outcome.AnchorStale,
		TookMs:      time.Since(start).Milliseconds(),
	})
}

// TokensUpsert creates or updates a registry entry for the given symbol
// Validates symbol format and returns the created/updated entry
func (h *Handlers) TokensUpsert(c echo.Context) error {
	var req TokenUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := tokens.ValidateSymbol(req.Symbol); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid symbol", map[string]any{"symbol": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Tokens.Upsert(ctx, req.Symbol, req.Name, req.Hidden)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert token", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// TokensUpdate updates an existing registry entry for the given symbol
func (h *Handlers) TokensUpdate(c echo.Context) error {
	symbol := c.Param("symbol")
	if err := tokens.ValidateSymbol(symbol); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid symbol", map[string]any{"symbol": "invalid format"})
	}
	var req TokenUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Tokens.Upsert(ctx, symbol, req.Name, req.Hidden)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update token", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// TokensGet retrieves a registry entry by symbol
// Returns 404 if the entry doesn't exist
func (h *Handlers) TokensGet(c echo.Context) error {
	symbol := c.Param("symbol")
	if err := tokens.ValidateSymbol(symbol); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid symbol", map[string]any{"symbol": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Tokens.Get(ctx, symbol)
	if err != nil {
		if errors.Is(err, tokens.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "token not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get token", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// TokensList returns all registry entries
func (h *Handlers) TokensList(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Tokens.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list tokens", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// TokensDelete removes a registry entry by symbol
// Returns 204 No Content on successful deletion
func (h *Handlers) TokensDelete(c echo.Context) error {
	symbol := c.Param("symbol")
	if err := tokens.ValidateSymbol(symbol); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid symbol", map[string]any{"symbol": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Tokens.Delete(ctx, symbol); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete token", nil)
	}
	return c.NoContent(http.StatusNoContent)
}

// AIAsk processes natural language questions about price history using AI
// Supports optional model override for one-off requests
// Returns SQL query and answer with execution time
func (h *Handlers) AIAsk(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	start := time.Now()

	// Use default AI agent or create temporary one with custom model
	agent := h.AI
	var tmp *ai.Agent
	if m := strings.TrimSpace(req.Model); m != "" {
		cfg := h.AIBaseConfig
		cfg.Model = m
		a, err := ai.NewAgent(ctx, cfg)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
		}
		tmp = a
		agent = a
		defer func() {
			_ = tmp.Close() // Clean up temporary agent
		}()
	}

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "ai ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}
