package erc721

import (
	"context"
	"math/big"
	"sync"

	"github.com/metasports/market-indexer/internal/model"
)

// CachedResolver memoizes name, symbol, and token URI per address —
// those fields are immutable after contract deployment. Total supply is
// never cached; it must be refreshed on every relevant event. Fallback
// results are not cached so transient failures are retried.
type CachedResolver struct {
	inner Resolver

	mu      sync.RWMutex
	names   map[string]string
	symbols map[string]string
	uris    map[string]string // keyed by "{collection}-{tokenID}"
}

// NewCachedResolver wraps a resolver with a per-address metadata cache.
func NewCachedResolver(inner Resolver) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		names:   make(map[string]string),
		symbols: make(map[string]string),
		uris:    make(map[string]string),
	}
}

func (c *CachedResolver) Name(ctx context.Context, collection string) string {
	c.mu.RLock()
	v, ok := c.names[collection]
	c.mu.RUnlock()
	if ok {
		return v
	}

	v = c.inner.Name(ctx, collection)
	if v != FallbackName {
		c.mu.Lock()
		c.names[collection] = v
		c.mu.Unlock()
	}
	return v
}

func (c *CachedResolver) Symbol(ctx context.Context, collection string) string {
	c.mu.RLock()
	v, ok := c.symbols[collection]
	c.mu.RUnlock()
	if ok {
		return v
	}

	v = c.inner.Symbol(ctx, collection)
	if v != FallbackName {
		c.mu.Lock()
		c.symbols[collection] = v
		c.mu.Unlock()
	}
	return v
}

// TotalSupply always passes through to the inner resolver.
func (c *CachedResolver) TotalSupply(ctx context.Context, collection string) *big.Int {
	return c.inner.TotalSupply(ctx, collection)
}

func (c *CachedResolver) TokenURI(ctx context.Context, collection string, tokenID *big.Int) *string {
	key := model.NFTID(collection, tokenID)

	c.mu.RLock()
	v, ok := c.uris[key]
	c.mu.RUnlock()
	if ok {
		return &v
	}

	uri := c.inner.TokenURI(ctx, collection, tokenID)
	if uri != nil {
		c.mu.Lock()
		c.uris[key] = *uri
		c.mu.Unlock()
	}
	return uri
}
