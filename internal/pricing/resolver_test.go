package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digiko-labs/dex-price-service/internal/models"
)

func pool(id uint64, tokenA, tokenB string, reserveA, reserveB float64, active bool) models.Pool {
	return models.Pool{
		ID:       id,
		TokenA:   tokenA,
		TokenB:   tokenB,
		ReserveA: reserveA,
		ReserveB: reserveB,
		IsActive: active,
	}
}

func TestResolve_SinglePool(t *testing.T) {
	// KLV at $0.0045 and one KLV/DGKO pool with reserves 1,000,000 / 500,000
	// implies DGKO at $0.009.
	pools := []models.Pool{
		pool(1, "KLV", "DGKO-3A1B", 1_000_000, 500_000, true),
	}

	res := Resolve("KLV", 0.0045, pools)

	require.Len(t, res.Prices, 2)
	assert.Empty(t, res.Unpriced)

	anchor := res.Prices["KLV"]
	assert.Equal(t, 0.0045, anchor.USD)
	assert.Equal(t, 0, anchor.Iteration)
	assert.Empty(t, anchor.Via)

	dgko := res.Prices["DGKO"]
	assert.InDelta(t, 0.009, dgko.USD, 1e-12)
	assert.Equal(t, "KLV", dgko.Via)
	assert.Equal(t, 1, dgko.Iteration)
}

func TestResolve_AnchorUnavailable(t *testing.T) {
	pools := []models.Pool{
		pool(1, "KLV", "DGKO-3A1B", 1_000_000, 500_000, true),
		pool(2, "DGKO-3A1B", "WEN-9C2D", 10_000, 20_000, true),
	}

	res := Resolve("KLV", 0, pools)

	assert.Empty(t, res.Prices)
	assert.Equal(t, []string{"DGKO", "KLV", "WEN"}, res.Unpriced)
}

func TestResolve_CascadeWithinRound(t *testing.T) {
	// Prices written earlier in a round seed pools visited later in the
	// same round, so an ascending-id chain resolves fully in round 1.
	pools := []models.Pool{
		pool(1, "KLV", "DGKO-3A1B", 1_000_000, 500_000, true),
		pool(2, "DGKO-3A1B", "WEN-9C2D", 10_000, 40_000, true),
		pool(3, "WEN-9C2D", "PEPE-77AF", 5_000, 50_000, true),
	}

	res := Resolve("KLV", 0.0045, pools)

	require.Len(t, res.Prices, 4)
	assert.Equal(t, 1, res.Prices["DGKO"].Iteration)
	assert.Equal(t, 1, res.Prices["WEN"].Iteration)
	assert.Equal(t, 1, res.Prices["PEPE"].Iteration)
	assert.Equal(t, "WEN", res.Prices["PEPE"].Via)

	// DGKO = 0.009, WEN = 0.009 * (10000/40000) = 0.00225,
	// PEPE = 0.00225 * (5000/50000) = 0.000225
	assert.InDelta(t, 0.00225, res.Prices["WEN"].USD, 1e-12)
	assert.InDelta(t, 0.000225, res.Prices["PEPE"].USD, 1e-12)
}

func TestResolve_MultiHopAcrossRounds(t *testing.T) {
	// The same chain with ids reversed is visited leaf-first, so each hop
	// needs its own round.
	pools := []models.Pool{
		pool(3, "KLV", "DGKO-3A1B", 1_000_000, 500_000, true),
		pool(2, "DGKO-3A1B", "WEN-9C2D", 10_000, 40_000, true),
		pool(1, "WEN-9C2D", "PEPE-77AF", 5_000, 50_000, true),
	}

	res := Resolve("KLV", 0.0045, pools)

	require.Len(t, res.Prices, 4)
	assert.Equal(t, 1, res.Prices["DGKO"].Iteration)
	assert.Equal(t, 2, res.Prices["WEN"].Iteration)
	assert.Equal(t, 3, res.Prices["PEPE"].Iteration)
	assert.InDelta(t, 0.000225, res.Prices["PEPE"].USD, 1e-12)
}

func TestResolve_LaterRoundResolvesSkippedPool(t *testing.T) {
	// Pool 1 connects WEN/PEPE, neither priced in round 1. Pool 2 prices
	// WEN from KLV, so pool 1 becomes resolvable in round 2.
	pools := []models.Pool{
		pool(1, "WEN-9C2D", "PEPE-77AF", 1_000, 2_000, true),
		pool(2, "KLV", "WEN-9C2D", 100, 200, true),
	}

	res := Resolve("KLV", 1.0, pools)

	require.Len(t, res.Prices, 3)
	assert.Equal(t, 1, res.Prices["WEN"].Iteration)
	assert.Equal(t, 2, res.Prices["PEPE"].Iteration)
}

func TestResolve_InactivePoolExcluded(t *testing.T) {
	// Scenario C: A/B inactive, B/C active with B priced from the anchor.
	pools := []models.Pool{
		pool(1, "AAA-1111", "BBB-2222", 1_000, 1_000, false),
		pool(2, "KLV", "BBB-2222", 500, 500, true),
		pool(3, "BBB-2222", "CCC-3333", 100, 400, true),
	}

	res := Resolve("KLV", 2.0, pools)

	assert.Contains(t, res.Prices, "BBB")
	assert.Contains(t, res.Prices, "CCC")
	assert.NotContains(t, res.Prices, "AAA")
	assert.Equal(t, []string{"AAA"}, res.Unpriced)
}

func TestResolve_ZeroReserveExcluded(t *testing.T) {
	pools := []models.Pool{
		pool(1, "KLV", "DGKO-3A1B", 0, 500_000, true),
		pool(2, "KLV", "WEN-9C2D", 1_000, 0, true),
	}

	res := Resolve("KLV", 0.0045, pools)

	require.Len(t, res.Prices, 1)
	assert.Equal(t, []string{"DGKO", "WEN"}, res.Unpriced)
}

func TestResolve_FirstWriteWins(t *testing.T) {
	// Scenario D: two pools both connect KLV to XXX with different ratios.
	// The pool with the lower id is visited first and its price sticks.
	pools := []models.Pool{
		pool(2, "KLV", "XXX-4444", 1_000, 1_000, true), // implies $1
		pool(1, "KLV", "XXX-4444", 1_000, 2_000, true), // implies $0.50
	}

	res := Resolve("KLV", 1.0, pools)

	require.Contains(t, res.Prices, "XXX")
	assert.InDelta(t, 0.5, res.Prices["XXX"].USD, 1e-12)
	assert.Equal(t, 1, res.Prices["XXX"].Iteration)
	assert.Equal(t, 1, res.SkippedConverged)
}

func TestResolve_EarlierRoundWins(t *testing.T) {
	// A direct pool prices YYY in round 1; a two-hop path would imply a
	// different value in round 2 and must not overwrite it.
	pools := []models.Pool{
		pool(1, "KLV", "YYY-5555", 100, 100, true),   // YYY = $1
		pool(2, "KLV", "ZZZ-6666", 100, 200, true),   // ZZZ = $0.50
		pool(3, "ZZZ-6666", "YYY-5555", 100, 25, true), // would imply YYY = $2
	}

	res := Resolve("KLV", 1.0, pools)

	assert.InDelta(t, 1.0, res.Prices["YYY"].USD, 1e-12)
	assert.Equal(t, 1, res.Prices["YYY"].Iteration)
	assert.Positive(t, res.SkippedConverged)
}

func TestResolve_Deterministic(t *testing.T) {
	pools := []models.Pool{
		pool(3, "DGKO-3A1B", "WEN-9C2D", 10_000, 40_000, true),
		pool(1, "KLV", "DGKO-3A1B", 1_000_000, 500_000, true),
		pool(2, "KLV", "WEN-9C2D", 9_999, 333, true),
	}

	first := Resolve("KLV", 0.0045, pools)
	second := Resolve("KLV", 0.0045, pools)

	assert.Equal(t, first.Prices, second.Prices)
	assert.Equal(t, first.Unpriced, second.Unpriced)
}

func TestResolve_InputOrderIrrelevant(t *testing.T) {
	a := []models.Pool{
		pool(2, "KLV", "XXX-4444", 1_000, 1_000, true),
		pool(1, "KLV", "XXX-4444", 1_000, 2_000, true),
	}
	b := []models.Pool{a[1], a[0]}

	resA := Resolve("KLV", 1.0, a)
	resB := Resolve("KLV", 1.0, b)

	assert.Equal(t, resA.Prices, resB.Prices)
}

func TestResolveWithOptions_CustomOrder(t *testing.T) {
	// Reversing the comparator flips which duplicate pool wins.
	pools := []models.Pool{
		pool(1, "KLV", "XXX-4444", 1_000, 2_000, true), // implies $0.50
		pool(2, "KLV", "XXX-4444", 1_000, 1_000, true), // implies $1
	}

	res := ResolveWithOptions("KLV", 1.0, pools, Options{
		Less: func(a, b models.Pool) bool { return a.ID > b.ID },
	})

	assert.InDelta(t, 1.0, res.Prices["XXX"].USD, 1e-12)
}

func TestResolveWithOptions_RoundCap(t *testing.T) {
	// A leaf-first chain needs one round per hop, so a cap shorter than
	// the chain leaves the tail unpriced.
	pools := []models.Pool{
		pool(3, "KLV", "T1-0001", 100, 100, true),
		pool(2, "T1-0001", "T2-0002", 100, 100, true),
		pool(1, "T2-0002", "T3-0003", 100, 100, true),
	}

	res := ResolveWithOptions("KLV", 1.0, pools, Options{MaxRounds: 2})

	assert.Contains(t, res.Prices, "T2")
	assert.NotContains(t, res.Prices, "T3")
	assert.Equal(t, []string{"T3"}, res.Unpriced)
	assert.Equal(t, 2, res.Rounds)
}

func TestResolve_DisconnectedComponent(t *testing.T) {
	pools := []models.Pool{
		pool(1, "KLV", "DGKO-3A1B", 1_000, 1_000, true),
		pool(2, "FOO-1234", "BAR-5678", 1_000, 1_000, true),
	}

	res := Resolve("KLV", 1.0, pools)

	require.Len(t, res.Prices, 2)
	assert.Equal(t, []string{"BAR", "FOO"}, res.Unpriced)
}

func TestResolve_NoPools(t *testing.T) {
	res := Resolve("KLV", 0.0045, nil)

	require.Len(t, res.Prices, 1)
	assert.Empty(t, res.Unpriced)
	assert.Equal(t, 1, res.Rounds)
}

func TestBaseSymbol(t *testing.T) {
	assert.Equal(t, "KLV", models.BaseSymbol("KLV"))
	assert.Equal(t, "DGKO", models.BaseSymbol("DGKO-3A1B"))
	assert.Equal(t, "A", models.BaseSymbol("A-B-C"))
}
