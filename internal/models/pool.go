// ============================================================================
// models/pool.go
// ============================================================================
package models

import "strings"

// Pool is a snapshot of one Digiko liquidity pair at query time.
// Reserves are decimal-adjusted (natural units, not raw chain integers).
type Pool struct {
	ID         uint64  `json:"id"`
	TokenA     string  `json:"token_a"` // full asset id, e.g. "DGKO-3A1B"
	TokenB     string  `json:"token_b"`
	ReserveA   float64 `json:"reserve_a"`
	ReserveB   float64 `json:"reserve_b"`
	FeePercent uint64  `json:"fee_percent"`
	IsActive   bool    `json:"is_active"`
}

// Usable reports whether the pool contributes a valid pairwise price ratio.
func (p Pool) Usable() bool {
	return p.IsActive && p.ReserveA > 0 && p.ReserveB > 0
}

// SymbolA returns the symbol of token A (asset id prefix).
func (p Pool) SymbolA() string { return BaseSymbol(p.TokenA) }

// SymbolB returns the symbol of token B (asset id prefix).
func (p Pool) SymbolB() string { return BaseSymbol(p.TokenB) }

// SpotPrice returns how many units of the other token one unit of the given
// symbol's token buys, based on the current reserve ratio. Returns 0 when the
// pool is not usable or the symbol is not in the pool.
func (p Pool) SpotPrice(symbol string) float64 {
	if !p.Usable() {
		return 0
	}
	switch symbol {
	case p.SymbolA():
		return p.ReserveB / p.ReserveA
	case p.SymbolB():
		return p.ReserveA / p.ReserveB
	}
	return 0
}

// BaseSymbol extracts the display symbol from a Klever asset identifier.
// Asset ids carry a random suffix after the first dash ("DGKO-3A1B"); the
// native coin has no suffix ("KLV").
func BaseSymbol(assetID string) string {
	if i := strings.Index(assetID, "-"); i >= 0 {
		return assetID[:i]
	}
	return assetID
}
