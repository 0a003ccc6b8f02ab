package constants

import "time"

// Redis keys
const (
	RedisKeyPricePrefix    = "price:"
	RedisKeyPriceIndex     = "price:index"
	RedisKeyLastGoodPrefix = "price:lastgood:"
	RedisKeyAnchorLastGood = "anchor:lastgood"
	RedisKeySnapshot       = "pools:snapshot"
)

// Redis Pub/Sub channels
const (
	PubSubChannelPrices       = "prices:live"
	PubSubChannelSymbolPrefix = "prices:symbol:"
)

// Anchor asset
const (
	AnchorSymbol      = "KLV"
	AnchorCoinGeckoID = "klever"
)

// Propagation
const (
	// MaxPropagationRounds bounds the relaxation loop so malformed or
	// cyclic pool graphs still terminate.
	MaxPropagationRounds = 10
)

// Klever asset precision: reserves come back in raw integer units and must
// be divided by 10^precision before any ratio is taken.
const (
	DefaultAssetPrecision = 6
)

// Defaults
const (
	DefaultPriceTTL     = 60 * time.Second
	DefaultPollInterval = 30 * time.Second
)
