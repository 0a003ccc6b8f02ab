// ============================================================================
// models/price.go
// ============================================================================
package models

import "time"

// PriceRecord is the resolved USD valuation of one symbol, plus how it was
// derived: Via names the neighboring symbol whose price seeded this one and
// Iteration is the propagation round that first established it (0 = anchor).
type PriceRecord struct {
	Symbol    string    `json:"symbol"`
	USD       float64   `json:"usd"`
	Via       string    `json:"via,omitempty"`
	Iteration int       `json:"iteration"`
	Change24h float64   `json:"change_24h,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// AnchorQuote is the externally sourced USD price for the anchor asset.
// A zero USD value means the source was unavailable.
type AnchorQuote struct {
	USD       float64   `json:"usd"`
	Change24h float64   `json:"change_24h"`
	FetchedAt time.Time `json:"fetched_at"`
}

// PriceUpdate is the payload published on the live price channels.
type PriceUpdate struct {
	Symbol    string    `json:"symbol"`
	USD       float64   `json:"usd"`
	Via       string    `json:"via,omitempty"`
	Iteration int       `json:"iteration"`
	Timestamp time.Time `json:"timestamp"`
}
