// ============================================================================
// cmd/subscriber/main.go - Example Subscriber (Consumer)
// ============================================================================
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/digiko-labs/dex-price-service/internal/cache"
	"github.com/digiko-labs/dex-price-service/internal/constants"
	"github.com/digiko-labs/dex-price-service/internal/models"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rclient := redis.NewClient(&redis.Options{Addr: addr})
	pubsub := cache.NewPubSubManager(rclient, nil)

	log.Println("👂 Starting price subscriber...")

	// Subscribe to all price updates
	go pubsub.Subscribe(ctx, constants.PubSubChannelPrices, func(update *models.PriceUpdate) {
		log.Printf("📨 %s = $%.6f via %s (round %d)",
			update.Symbol, update.USD, update.Via, update.Iteration)
	})

	// Subscribe to the anchor symbol only
	go pubsub.Subscribe(ctx, constants.PubSubChannelSymbolPrefix+constants.AnchorSymbol, func(update *models.PriceUpdate) {
		log.Printf("💰 %s: $%.6f", update.Symbol, update.USD)
	})

	// Subscribe to pattern (all symbols)
	go pubsub.PSubscribe(ctx, constants.PubSubChannelSymbolPrefix+"*", func(update *models.PriceUpdate) {
		log.Printf("🔍 Pattern match: %s", update.Symbol)
	})

	log.Println("✅ Subscriber running. Press Ctrl+C to stop.")

	<-sigChan
	log.Println("🛑 Shutting down subscriber...")
}
