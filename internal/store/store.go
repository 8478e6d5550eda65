// Package store defines the persistence interface for the indexer's
// derived entities. Implementations include PostgreSQL (source of
// truth), Redis (read-through cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/metasports/market-indexer/internal/model"
)

// ErrNotFound is returned by Get* methods when no record exists for the
// key. Projection handlers treat it as "create with zero defaults" or a
// documented no-op, never as a fault.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface. Mutable entities (Collection,
// NFT, User, day data) use get/put upsert semantics; log entities
// (AskOrder, Transaction) are append-only.
type Store interface {
	// --- Collections ---

	GetCollection(ctx context.Context, id string) (*model.Collection, error)
	PutCollection(ctx context.Context, c *model.Collection) error
	ListCollections(ctx context.Context) ([]model.Collection, error)

	// --- NFTs ---

	GetNFT(ctx context.Context, id string) (*model.NFT, error)
	PutNFT(ctx context.Context, n *model.NFT) error
	ListNFTsByCollection(ctx context.Context, collection string) ([]model.NFT, error)

	// --- Users ---

	GetUser(ctx context.Context, id string) (*model.User, error)
	PutUser(ctx context.Context, u *model.User) error

	// --- Immutable logs ---

	InsertAskOrder(ctx context.Context, o *model.AskOrder) error
	InsertTransaction(ctx context.Context, t *model.Transaction) error
	ListTransactions(ctx context.Context, limit int) ([]model.Transaction, error)

	// --- Daily rollups ---

	GetCollectionDayData(ctx context.Context, id string) (*model.CollectionDayData, error)
	PutCollectionDayData(ctx context.Context, d *model.CollectionDayData) error
	ListCollectionDayData(ctx context.Context, collection string) ([]model.CollectionDayData, error)

	GetMarketPlaceDayData(ctx context.Context, id string) (*model.MarketPlaceDayData, error)
	PutMarketPlaceDayData(ctx context.Context, d *model.MarketPlaceDayData) error
	ListMarketPlaceDayData(ctx context.Context) ([]model.MarketPlaceDayData, error)
}
