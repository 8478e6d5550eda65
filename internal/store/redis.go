package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/metasports/market-indexer/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis
// read-through cache for the hot upsert entities: collections, NFTs,
// and users. Puts go to the primary store and refresh the cache; reads
// check Redis first then fall back to the primary. Logs and daily
// rollups pass through uncached — rollups are read-modify-write on
// every trade and a stale cached copy would corrupt the accumulation.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Collections ---

func (s *CachedStore) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	if data, err := s.rdb.Get(ctx, collectionKey(id)).Bytes(); err == nil {
		var c model.Collection
		if json.Unmarshal(data, &c) == nil {
			return &c, nil
		}
	}

	c, err := s.primary.GetCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, collectionKey(id), c)
	return c, nil
}

func (s *CachedStore) PutCollection(ctx context.Context, c *model.Collection) error {
	if err := s.primary.PutCollection(ctx, c); err != nil {
		return err
	}
	s.cache(ctx, collectionKey(c.ID), c)
	return nil
}

func (s *CachedStore) ListCollections(ctx context.Context) ([]model.Collection, error) {
	return s.primary.ListCollections(ctx)
}

// --- NFTs ---

func (s *CachedStore) GetNFT(ctx context.Context, id string) (*model.NFT, error) {
	if data, err := s.rdb.Get(ctx, nftKey(id)).Bytes(); err == nil {
		var n model.NFT
		if json.Unmarshal(data, &n) == nil {
			return &n, nil
		}
	}

	n, err := s.primary.GetNFT(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, nftKey(id), n)
	return n, nil
}

func (s *CachedStore) PutNFT(ctx context.Context, n *model.NFT) error {
	if err := s.primary.PutNFT(ctx, n); err != nil {
		return err
	}
	s.cache(ctx, nftKey(n.ID), n)
	return nil
}

func (s *CachedStore) ListNFTsByCollection(ctx context.Context, collection string) ([]model.NFT, error) {
	return s.primary.ListNFTsByCollection(ctx, collection)
}

// --- Users ---

func (s *CachedStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	if data, err := s.rdb.Get(ctx, userKey(id)).Bytes(); err == nil {
		var u model.User
		if json.Unmarshal(data, &u) == nil {
			return &u, nil
		}
	}

	u, err := s.primary.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, userKey(id), u)
	return u, nil
}

func (s *CachedStore) PutUser(ctx context.Context, u *model.User) error {
	if err := s.primary.PutUser(ctx, u); err != nil {
		return err
	}
	s.cache(ctx, userKey(u.ID), u)
	return nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) InsertAskOrder(ctx context.Context, o *model.AskOrder) error {
	return s.primary.InsertAskOrder(ctx, o)
}

func (s *CachedStore) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	return s.primary.InsertTransaction(ctx, t)
}

func (s *CachedStore) ListTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	return s.primary.ListTransactions(ctx, limit)
}

func (s *CachedStore) GetCollectionDayData(ctx context.Context, id string) (*model.CollectionDayData, error) {
	return s.primary.GetCollectionDayData(ctx, id)
}

func (s *CachedStore) PutCollectionDayData(ctx context.Context, d *model.CollectionDayData) error {
	return s.primary.PutCollectionDayData(ctx, d)
}

func (s *CachedStore) ListCollectionDayData(ctx context.Context, collection string) ([]model.CollectionDayData, error) {
	return s.primary.ListCollectionDayData(ctx, collection)
}

func (s *CachedStore) GetMarketPlaceDayData(ctx context.Context, id string) (*model.MarketPlaceDayData, error) {
	return s.primary.GetMarketPlaceDayData(ctx, id)
}

func (s *CachedStore) PutMarketPlaceDayData(ctx context.Context, d *model.MarketPlaceDayData) error {
	return s.primary.PutMarketPlaceDayData(ctx, d)
}

func (s *CachedStore) ListMarketPlaceDayData(ctx context.Context) ([]model.MarketPlaceDayData, error) {
	return s.primary.ListMarketPlaceDayData(ctx)
}

// --- Cache helpers ---

func (s *CachedStore) cache(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func collectionKey(id string) string { return fmt.Sprintf("collection:%s", id) }
func nftKey(id string) string        { return fmt.Sprintf("nft:%s", id) }
func userKey(id string) string       { return fmt.Sprintf("user:%s", id) }
