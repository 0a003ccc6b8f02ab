package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	indexKey    = "tokens:index"
	valuePrefix = "tokens:"
)

// Symbols are the display prefix of an asset id, so plain upper-case
// alphanumerics.
var symbolRe = regexp.MustCompile(`^[A-Z0-9]{1,20}$`)

// Registry is the redis-backed admin registry of per-token listing metadata.
// The API uses it to hide delisted or spam tokens from the public price feed.
type Registry struct {
	client redis.Cmdable
}

func NewRegistry(client redis.Cmdable) (*Registry, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Registry{client: client}, nil
}

func ValidateSymbol(symbol string) error {
	if !symbolRe.MatchString(symbol) {
		return fmt.Errorf("invalid token symbol")
	}
	return nil
}

func (r *Registry) Upsert(ctx context.Context, symbol, name string, hidden bool) (*Token, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	token := &Token{Symbol: symbol, Name: name, Hidden: hidden, UpdatedAt: time.Now().UTC()}
	b, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("marshal token: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, tokenKey(symbol), b, 0)
	pipe.SAdd(ctx, indexKey, symbol)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("upsert token: %w", err)
	}

	return token, nil
}

func (r *Registry) Get(ctx context.Context, symbol string) (*Token, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	val, err := r.client.Get(ctx, tokenKey(symbol)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	var tok Token
	if err := json.Unmarshal([]byte(val), &tok); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	return &tok, nil
}

func (r *Registry) List(ctx context.Context) ([]*Token, error) {
	symbols, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list token index: %w", err)
	}
	if len(symbols) == 0 {
		return []*Token{}, nil
	}

	redisKeys := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if err := ValidateSymbol(s); err != nil {
			continue
		}
		redisKeys = append(redisKeys, tokenKey(s))
	}
	if len(redisKeys) == 0 {
		return []*Token{}, nil
	}

	vals, err := r.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget tokens: %w", err)
	}

	out := make([]*Token, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		var tok Token
		if err := json.Unmarshal([]byte(s), &tok); err != nil {
			continue
		}
		out = append(out, &tok)
	}

	return out, nil
}

func (r *Registry) Delete(ctx context.Context, symbol string) error {
	if err := ValidateSymbol(symbol); err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, tokenKey(symbol))
	pipe.SRem(ctx, indexKey, symbol)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}

	return nil
}

// Hidden returns the set of symbols flagged hidden, for filtering listings.
func (r *Registry) Hidden(ctx context.Context) (map[string]bool, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	hidden := make(map[string]bool)
	for _, tok := range all {
		if tok.Hidden {
			hidden[tok.Symbol] = true
		}
	}
	return hidden, nil
}

func tokenKey(symbol string) string {
	return valuePrefix + symbol
}
