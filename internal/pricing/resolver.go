// Package pricing implements the USD price resolution engine for the Digiko
// pool graph. Starting from the single externally anchored asset (KLV), it
// relaxes prices outward through active liquidity pools until every reachable
// symbol is valued or no pool can price anything new.
//
// The engine is pure: it performs no I/O, holds no state between calls, and
// is safe to run concurrently on independent inputs.
package pricing

import (
	"sort"

	"github.com/digiko-labs/dex-price-service/internal/constants"
	"github.com/digiko-labs/dex-price-service/internal/models"
)

// Result is the outcome of one resolution run.
type Result struct {
	// Prices maps every successfully valued symbol to its record. The
	// anchor entry has Iteration 0 and no Via. Empty when the anchor
	// price was unusable.
	Prices map[string]models.PriceRecord

	// Unpriced lists, sorted, every symbol that appears in some pool but
	// has no chain of usable pools back to the anchor.
	Unpriced []string

	// Rounds is the number of propagation rounds actually executed.
	Rounds int

	// SkippedConverged counts pool visits where both sides were already
	// priced. The engine never reconciles the two valuations; the count
	// is exposed so callers can observe potential path disagreement.
	SkippedConverged int
}

// Options tunes a resolution run. The zero value gives the defaults used by
// Resolve.
type Options struct {
	// MaxRounds bounds the outer relaxation loop. <= 0 means
	// constants.MaxPropagationRounds.
	MaxRounds int

	// Less orders pools before each run and thereby fixes the
	// first-write-wins tie-break. nil means ascending pool id.
	Less func(a, b models.Pool) bool
}

// ByID is the default pool ordering: ascending pool id.
func ByID(a, b models.Pool) bool { return a.ID < b.ID }

// Resolve computes a USD price for every symbol reachable from the anchor
// through usable pools, using default options.
func Resolve(anchorSymbol string, anchorPriceUSD float64, pools []models.Pool) Result {
	return ResolveWithOptions(anchorSymbol, anchorPriceUSD, pools, Options{})
}

// ResolveWithOptions is Resolve with an explicit round cap and pool ordering.
//
// Within a round, each usable pool with exactly one priced side prices the
// other side as knownUSD * (knownReserve / unknownReserve). Prices are never
// overwritten: the first path to reach a symbol wins, and ties within a round
// fall to whichever pool sorts first under opts.Less.
func ResolveWithOptions(anchorSymbol string, anchorPriceUSD float64, pools []models.Pool, opts Options) Result {
	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = constants.MaxPropagationRounds
	}
	less := opts.Less
	if less == nil {
		less = ByID
	}

	res := Result{Prices: make(map[string]models.PriceRecord)}

	// Unusable anchor: nothing can propagate, everything is unpriced.
	if anchorPriceUSD <= 0 {
		res.Unpriced = unpricedSymbols(pools, res.Prices)
		return res
	}

	res.Prices[anchorSymbol] = models.PriceRecord{
		Symbol:    anchorSymbol,
		USD:       anchorPriceUSD,
		Iteration: 0,
	}

	// Work on a sorted copy so the caller's slice order never leaks into
	// the tie-break.
	ordered := make([]models.Pool, len(pools))
	copy(ordered, pools)
	sort.SliceStable(ordered, func(i, j int) bool { return less(ordered[i], ordered[j]) })

	for round := 1; round <= maxRounds; round++ {
		changed := false
		for _, pool := range ordered {
			if !pool.Usable() {
				continue
			}

			symA, symB := pool.SymbolA(), pool.SymbolB()
			recA, okA := res.Prices[symA]
			recB, okB := res.Prices[symB]

			switch {
			case okA && okB:
				res.SkippedConverged++
			case okA:
				res.Prices[symB] = models.PriceRecord{
					Symbol:    symB,
					USD:       recA.USD * (pool.ReserveA / pool.ReserveB),
					Via:       symA,
					Iteration: round,
				}
				changed = true
			case okB:
				res.Prices[symA] = models.PriceRecord{
					Symbol:    symA,
					USD:       recB.USD * (pool.ReserveB / pool.ReserveA),
					Via:       symB,
					Iteration: round,
				}
				changed = true
			}
			// Neither side priced yet: revisit in a later round.
		}

		res.Rounds = round
		if !changed {
			break
		}
	}

	res.Unpriced = unpricedSymbols(pools, res.Prices)
	return res
}

// unpricedSymbols returns, sorted, every symbol referenced by any pool that
// did not receive a price. Inactive and illiquid pools still contribute
// symbols here: their assets exist, they just cannot be valued.
func unpricedSymbols(pools []models.Pool, prices map[string]models.PriceRecord) []string {
	seen := make(map[string]struct{})
	for _, p := range pools {
		seen[p.SymbolA()] = struct{}{}
		seen[p.SymbolB()] = struct{}{}
	}

	out := make([]string, 0)
	for sym := range seen {
		if _, ok := prices[sym]; !ok {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}
