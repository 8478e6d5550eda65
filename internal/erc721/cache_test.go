package erc721_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/metasports/market-indexer/internal/erc721"
)

// countingResolver tracks how often each method is hit.
type countingResolver struct {
	name    string
	nameHits, symbolHits, supplyHits, uriHits int
}

func (r *countingResolver) Name(context.Context, string) string {
	r.nameHits++
	return r.name
}

func (r *countingResolver) Symbol(context.Context, string) string {
	r.symbolHits++
	return "SYM"
}

func (r *countingResolver) TotalSupply(context.Context, string) *big.Int {
	r.supplyHits++
	return big.NewInt(int64(r.supplyHits))
}

func (r *countingResolver) TokenURI(context.Context, string, *big.Int) *string {
	r.uriHits++
	uri := "ipfs://uri"
	return &uri
}

func TestCachedResolverMemoizesName(t *testing.T) {
	inner := &countingResolver{name: "Cool Cats"}
	c := erc721.NewCachedResolver(inner)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if got := c.Name(ctx, testCollection); got != "Cool Cats" {
			t.Fatalf("Name = %q", got)
		}
	}
	if inner.nameHits != 1 {
		t.Errorf("inner name hits = %d, want 1", inner.nameHits)
	}
}

func TestCachedResolverDoesNotCacheFallback(t *testing.T) {
	inner := &countingResolver{name: erc721.FallbackName}
	c := erc721.NewCachedResolver(inner)
	ctx := context.Background()

	c.Name(ctx, testCollection)
	c.Name(ctx, testCollection)
	if inner.nameHits != 2 {
		t.Errorf("inner name hits = %d, want 2 (fallback not cached)", inner.nameHits)
	}
}

func TestCachedResolverNeverCachesTotalSupply(t *testing.T) {
	inner := &countingResolver{name: "x"}
	c := erc721.NewCachedResolver(inner)
	ctx := context.Background()

	first := c.TotalSupply(ctx, testCollection)
	second := c.TotalSupply(ctx, testCollection)
	if inner.supplyHits != 2 {
		t.Errorf("inner supply hits = %d, want 2", inner.supplyHits)
	}
	if first.Cmp(second) == 0 {
		t.Error("expected fresh supply per call")
	}
}

func TestCachedResolverTokenURIPerToken(t *testing.T) {
	inner := &countingResolver{name: "x"}
	c := erc721.NewCachedResolver(inner)
	ctx := context.Background()

	c.TokenURI(ctx, testCollection, big.NewInt(1))
	c.TokenURI(ctx, testCollection, big.NewInt(1))
	c.TokenURI(ctx, testCollection, big.NewInt(2))
	if inner.uriHits != 2 {
		t.Errorf("inner uri hits = %d, want 2 (one per token)", inner.uriHits)
	}
}
