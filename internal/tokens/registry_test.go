package tokens

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Test connection
	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	// Clear test DB
	err = client.FlushDB(ctx).Err()
	require.NoError(t, err)

	return client
}

func cleanupTestRedis(client *redis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = client.FlushDB(ctx).Err()
	_ = client.Close()
}

func TestRegistry_Upsert(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	reg, err := NewRegistry(client)
	require.NoError(t, err)

	ctx := context.Background()

	tok, err := reg.Upsert(ctx, "DGKO", "Digiko", false)
	assert.NoError(t, err)
	assert.NotNil(t, tok)
	assert.Equal(t, "DGKO", tok.Symbol)
	assert.False(t, tok.Hidden)
	assert.NotZero(t, tok.UpdatedAt)

	// Verify the token is readable
	got, err := reg.Get(ctx, "DGKO")
	assert.NoError(t, err)
	assert.Equal(t, tok.Symbol, got.Symbol)
	assert.Equal(t, tok.Name, got.Name)
	assert.Equal(t, tok.UpdatedAt, got.UpdatedAt)

	// Update flips hidden
	time.Sleep(time.Millisecond) // Ensure different timestamp
	tok2, err := reg.Upsert(ctx, "DGKO", "Digiko", true)
	assert.NoError(t, err)
	assert.True(t, tok2.UpdatedAt.After(tok.UpdatedAt))

	got, err = reg.Get(ctx, "DGKO")
	assert.NoError(t, err)
	assert.True(t, got.Hidden)
}

func TestRegistry_Get(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	reg, err := NewRegistry(client)
	require.NoError(t, err)

	ctx := context.Background()

	tok, err := reg.Get(ctx, "MISSING")
	assert.Error(t, err)
	assert.Equal(t, ErrNotFound, err)
	assert.Nil(t, tok)

	_, err = reg.Upsert(ctx, "WEN", "", true)
	require.NoError(t, err)

	tok, err = reg.Get(ctx, "WEN")
	assert.NoError(t, err)
	assert.True(t, tok.Hidden)
}

func TestRegistry_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	reg, err := NewRegistry(client)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = reg.Upsert(ctx, "DGKO", "Digiko", false)
	require.NoError(t, err)

	err = reg.Delete(ctx, "DGKO")
	assert.NoError(t, err)

	_, err = reg.Get(ctx, "DGKO")
	assert.Equal(t, ErrNotFound, err)

	// Deleting a non-existent token should not error
	err = reg.Delete(ctx, "MISSING")
	assert.NoError(t, err)
}

func TestRegistry_ListAndHidden(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	reg, err := NewRegistry(client)
	require.NoError(t, err)

	ctx := context.Background()

	toks, err := reg.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, toks)

	entries := map[string]bool{
		"DGKO": false,
		"WEN":  true,
		"PEPE": true,
	}
	for sym, hidden := range entries {
		_, err := reg.Upsert(ctx, sym, "", hidden)
		require.NoError(t, err)
	}

	toks, err = reg.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, toks, 3)

	hidden, err := reg.Hidden(ctx)
	assert.NoError(t, err)
	assert.Equal(t, map[string]bool{"WEN": true, "PEPE": true}, hidden)
}

func TestRegistry_ConcurrentOperations(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	reg, err := NewRegistry(client)
	require.NoError(t, err)

	ctx := context.Background()

	const numGoroutines = 10
	const numOps = 50

	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer func() { done <- true }()
			for j := 0; j < numOps; j++ {
				symbol := fmt.Sprintf("TOK%d%d", id, j)
				hidden := (id+j)%2 == 0

				_, err := reg.Upsert(ctx, symbol, "", hidden)
				assert.NoError(t, err)

				got, err := reg.Get(ctx, symbol)
				assert.NoError(t, err)
				assert.Equal(t, hidden, got.Hidden)
			}
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	toks, err := reg.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, toks, numGoroutines*numOps)
}

func TestRegistry_SymbolValidation(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	reg, err := NewRegistry(client)
	require.NoError(t, err)

	ctx := context.Background()

	validSymbols := []string{"KLV", "DGKO", "TOK1", "A", "ABCDEFGHIJ1234567890"}
	for _, sym := range validSymbols {
		_, err := reg.Upsert(ctx, sym, "", false)
		assert.NoError(t, err, "Symbol %s should be valid", sym)
	}

	invalidSymbols := []string{
		"",
		" ",
		"dgko",
		"DGKO-3A1B",
		"TOO LONG SYMBOL WITH SPACES",
		"TOK:EN",
	}
	for _, sym := range invalidSymbols {
		_, err := reg.Upsert(ctx, sym, "", false)
		assert.Error(t, err, "Symbol %s should be invalid", sym)
	}
}
