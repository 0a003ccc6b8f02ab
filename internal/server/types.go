package server

import (
	"time"

	"github.com/digiko-labs/dex-price-service/internal/models"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// PriceResponse represents one resolved token price with its provenance
type PriceResponse struct {
	Symbol    string    `json:"symbol"`
	USD       float64   `json:"usd"`
	Via       string    `json:"via,omitempty"`      // Neighboring symbol the price was derived through
	Iteration int       `json:"iteration"`          // Propagation round that established the price
	Change24h float64   `json:"change_24h"`         // 24h change, sourced externally
	UpdatedAt time.Time `json:"updated_at"`         // When the pricing run produced this record
	Stale     bool      `json:"stale"`              // True when served from the last-good fallback
}

// PricesResponse represents the full price listing
type PricesResponse struct {
	Items []models.PriceRecord `json:"items"`
	Stale bool                 `json:"stale"`
}

// PoolsResponse represents the latest pool snapshot
type PoolsResponse struct {
	Items []models.Pool `json:"items"`
}

// RefreshResponse summarizes a forced pricing run
type RefreshResponse struct {
	Priced      int      `json:"priced"`
	Unpriced    []string `json:"unpriced"`
	Rounds      int      `json:"rounds"`
	AnchorStale bool     `json:"anchor_stale"`
	TookMs      int64    `json:"took_ms"`
}

// TokenUpsertRequest represents a request to create or update a registry entry
type TokenUpsertRequest struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
}

// TokenUpdateRequest represents a request to update an existing registry entry
type TokenUpdateRequest struct {
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
}

// AIAskRequest represents a natural language query request
type AIAskRequest struct {
	Question string `json:"question"` // Natural language question about price history
	Model    string `json:"model"`    // Optional AI model override
}

// AIAskResponse represents the response from an AI query
type AIAskResponse struct {
	SQL    string `json:"sql"`     // Generated SQL query
	Answer string `json:"answer"`  // Natural language answer
	TookMs int64  `json:"took_ms"` // Execution time in milliseconds
}
