// Package erc721 resolves read-only metadata (name, symbol, total
// supply, token URI) for collection contracts.
//
// Every lookup either returns a value or a documented fallback: strings
// fall back to "unknown", supply and URI fall back to nil. A fallback is
// legitimate persistable state — lookups never surface errors to the
// projection engine.
package erc721

import (
	"context"
	"math/big"
)

// FallbackName is stored when a name or symbol lookup fails.
const FallbackName = "unknown"

// Resolver answers the four read-only metadata queries against a token
// contract. Implementations must not return errors; on any failure
// (revert, missing method, network error) they return the fallback.
type Resolver interface {
	Name(ctx context.Context, collection string) string
	Symbol(ctx context.Context, collection string) string
	TotalSupply(ctx context.Context, collection string) *big.Int
	TokenURI(ctx context.Context, collection string, tokenID *big.Int) *string
}

// NullResolver always returns fallbacks. Used when no RPC endpoint is
// configured and as the zero-behavior stub in tests.
type NullResolver struct{}

func (NullResolver) Name(context.Context, string) string            { return FallbackName }
func (NullResolver) Symbol(context.Context, string) string          { return FallbackName }
func (NullResolver) TotalSupply(context.Context, string) *big.Int   { return nil }
func (NullResolver) TokenURI(context.Context, string, *big.Int) *string { return nil }
