package ai

// priceHistorySchemaDescription describes the ClickHouse schema used for NL→SQL prompting.
//
// Keeping it in sync with the actual table definition in internal/cache/clickhouse.go.
const priceHistorySchemaDescription = `
Database: digiko
Table: price_history

Columns:
  - symbol     String    -- Token symbol, e.g. "DGKO" ("KLV" is the anchor asset)
  - usd        Float64   -- Resolved USD price at this run
  - via        String    -- Neighboring symbol the price was derived through (empty for the anchor)
  - iteration  UInt8     -- Propagation round that established the price (0 for the anchor)
  - change_24h Float64   -- 24h price change percent (only populated for the anchor)
  - updated_at DateTime  -- When the pricing run produced this row (UTC)

Notes:
  - One row per symbol per pricing run; runs happen every poll interval.
  - For the latest price per symbol use ORDER BY updated_at DESC LIMIT 1 or argMax(usd, updated_at).
  - Time filters should use updated_at, e.g. updated_at >= now() - INTERVAL 24 HOUR.
`
