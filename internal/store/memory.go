package store

import (
	"context"
	"sort"
	"sync"

	"github.com/metasports/market-indexer/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu                sync.RWMutex
	collections       map[string]*model.Collection
	nfts              map[string]*model.NFT
	users             map[string]*model.User
	askOrders         []model.AskOrder
	transactions      []model.Transaction
	collectionDayData map[string]*model.CollectionDayData
	marketDayData     map[string]*model.MarketPlaceDayData
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections:       make(map[string]*model.Collection),
		nfts:              make(map[string]*model.NFT),
		users:             make(map[string]*model.User),
		collectionDayData: make(map[string]*model.CollectionDayData),
		marketDayData:     make(map[string]*model.MarketPlaceDayData),
	}
}

// --- Collections ---

func (s *MemoryStore) GetCollection(_ context.Context, id string) (*model.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *c
	return &copy, nil
}

func (s *MemoryStore) PutCollection(_ context.Context, c *model.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to avoid external mutation.
	copy := *c
	s.collections[c.ID] = &copy
	return nil
}

func (s *MemoryStore) ListCollections(_ context.Context) ([]model.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- NFTs ---

func (s *MemoryStore) GetNFT(_ context.Context, id string) (*model.NFT, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nfts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *n
	return &copy, nil
}

func (s *MemoryStore) PutNFT(_ context.Context, n *model.NFT) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *n
	s.nfts[n.ID] = &copy
	return nil
}

func (s *MemoryStore) ListNFTsByCollection(_ context.Context, collection string) ([]model.NFT, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.NFT
	for _, n := range s.nfts {
		if n.Collection == collection {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Users ---

func (s *MemoryStore) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (s *MemoryStore) PutUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *u
	s.users[u.ID] = &copy
	return nil
}

// --- Immutable logs ---

func (s *MemoryStore) InsertAskOrder(_ context.Context, o *model.AskOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.askOrders = append(s.askOrders, *o)
	return nil
}

func (s *MemoryStore) InsertTransaction(_ context.Context, t *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, *t)
	return nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, limit int) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest first.
	n := len(s.transactions)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]model.Transaction, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.transactions[i])
	}
	return out, nil
}

// AskOrders returns all recorded ask orders, oldest first. Test helper.
func (s *MemoryStore) AskOrders() []model.AskOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.AskOrder, len(s.askOrders))
	copy(out, s.askOrders)
	return out
}

// --- Daily rollups ---

func (s *MemoryStore) GetCollectionDayData(_ context.Context, id string) (*model.CollectionDayData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.collectionDayData[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *d
	return &copy, nil
}

func (s *MemoryStore) PutCollectionDayData(_ context.Context, d *model.CollectionDayData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *d
	s.collectionDayData[d.ID] = &copy
	return nil
}

func (s *MemoryStore) ListCollectionDayData(_ context.Context, collection string) ([]model.CollectionDayData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.CollectionDayData
	for _, d := range s.collectionDayData {
		if d.Collection == collection {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *MemoryStore) GetMarketPlaceDayData(_ context.Context, id string) (*model.MarketPlaceDayData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.marketDayData[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *d
	return &copy, nil
}

func (s *MemoryStore) PutMarketPlaceDayData(_ context.Context, d *model.MarketPlaceDayData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *d
	s.marketDayData[d.ID] = &copy
	return nil
}

func (s *MemoryStore) ListMarketPlaceDayData(_ context.Context) ([]model.MarketPlaceDayData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.MarketPlaceDayData, 0, len(s.marketDayData))
	for _, d := range s.marketDayData {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
