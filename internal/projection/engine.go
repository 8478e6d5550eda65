// Package projection is the event-to-state projection engine: one
// handler per marketplace event kind, each an at-least-once-safe upsert
// over the entity store.
//
// Handlers read every entity they touch before writing any of them, so
// a failed event leaves no partial state behind. Running averages are
// always recomputed as volume/count from the two persisted totals.
package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/metasports/market-indexer/internal/daydata"
	"github.com/metasports/market-indexer/internal/erc721"
	"github.com/metasports/market-indexer/internal/event"
	"github.com/metasports/market-indexer/internal/metrics"
	"github.com/metasports/market-indexer/internal/model"
	"github.com/metasports/market-indexer/internal/numeric"
	"github.com/metasports/market-indexer/internal/store"
)

var (
	// ErrUnknownCollection: an AskNew arrived for a collection that was
	// never registered. The listing cannot be attributed; fatal to this
	// event only.
	ErrUnknownCollection = errors.New("projection: unknown collection")

	// ErrUnknownSeller: a Trade arrived for a seller with no prior
	// listing state. The sold/listed counters cannot be maintained.
	ErrUnknownSeller = errors.New("projection: unknown seller")

	// ErrUnknownToken: a Trade arrived for a token that was never listed.
	ErrUnknownToken = errors.New("projection: unknown token")

	// ErrUnknownEventType is returned by Apply for an unrecognized event.
	ErrUnknownEventType = errors.New("projection: unknown event type")
)

// TradeFeed receives every recorded trade for real-time broadcasting.
type TradeFeed interface {
	BroadcastTrade(t *model.Transaction)
}

// Engine applies decoded events to the entity store. Uses a mutex for
// serialized application (single-instance): one event is fully applied,
// including all its store writes, before the next begins.
type Engine struct {
	mu       sync.Mutex
	store    store.Store
	resolver erc721.Resolver
	days     *daydata.Aggregator
	feed     TradeFeed // optional; nil disables broadcasting
}

// NewEngine creates a projection engine.
// Pass nil for feed if trade broadcasting is not needed.
func NewEngine(st store.Store, resolver erc721.Resolver, feed TradeFeed) *Engine {
	return &Engine{
		store:    st,
		resolver: resolver,
		days:     daydata.NewAggregator(st),
		feed:     feed,
	}
}

// Apply dispatches one decoded event to its handler under the engine
// lock and records metrics. Events must be presented in chain order.
func (e *Engine) Apply(ctx context.Context, ev event.Event) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	var outcome Outcome
	var err error

	switch ev := ev.(type) {
	case event.CollectionNew:
		outcome, err = e.HandleCollectionNew(ctx, ev)
	case event.CollectionClose:
		outcome, err = e.HandleCollectionClose(ctx, ev)
	case event.CollectionUpdate:
		outcome, err = e.HandleCollectionUpdate(ctx, ev)
	case event.AskNew:
		outcome, err = e.HandleAskNew(ctx, ev)
	case event.AskCancel:
		outcome, err = e.HandleAskCancel(ctx, ev)
	case event.AskUpdate:
		outcome, err = e.HandleAskUpdate(ctx, ev)
	case event.Trade:
		outcome, err = e.HandleTrade(ctx, ev)
	case event.RevenueClaim:
		outcome, err = e.HandleRevenueClaim(ctx, ev)
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnknownEventType, ev)
	}

	kind := ev.Type()
	metrics.EventApplyDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EventErrors.WithLabelValues(kind).Inc()
		slog.Error("event apply failed", "type", kind, "tx", ev.Hash(), "err", err)
		return outcome, err
	}
	metrics.EventsTotal.WithLabelValues(kind, outcome.String()).Inc()

	return outcome, nil
}

// HandleCollectionNew registers a collection, fetching its metadata on
// first sight. A repeat CollectionNew re-registers: terms are
// overwritten from the event while accumulated totals are preserved.
func (e *Engine) HandleCollectionNew(ctx context.Context, ev event.CollectionNew) (Outcome, error) {
	collection, err := e.loadCollection(ctx, ev.Collection)
	if err != nil {
		return 0, err
	}

	created := false
	if collection == nil {
		collection = &model.Collection{
			ID:               ev.Collection,
			Name:             e.resolver.Name(ctx, ev.Collection),
			Symbol:           e.resolver.Symbol(ctx, ev.Collection),
			TotalSupply:      e.resolver.TotalSupply(ctx, ev.Collection),
			TotalVolumeToken: decimal.Zero,
		}
		created = true
	}

	collection.Active = true
	collection.CreatorAddress = ev.Creator
	collection.TradingFee = numeric.FromRaw(ev.TradingFee, numeric.FeeScale)
	collection.CreatorFee = numeric.FromRaw(ev.CreatorFee, numeric.FeeScale)
	collection.WhitelistChecker = ev.WhitelistChecker

	if err := e.store.PutCollection(ctx, collection); err != nil {
		return 0, err
	}
	if created {
		return OutcomeCreated, nil
	}
	return OutcomeApplied, nil
}

// HandleCollectionClose deactivates a collection. No-op when the
// collection predates the indexer's start block.
func (e *Engine) HandleCollectionClose(ctx context.Context, ev event.CollectionClose) (Outcome, error) {
	collection, err := e.loadCollection(ctx, ev.Collection)
	if err != nil {
		return 0, err
	}
	if collection == nil {
		return OutcomeSkippedUnknownCollection, nil
	}

	collection.Active = false
	if err := e.store.PutCollection(ctx, collection); err != nil {
		return 0, err
	}
	return OutcomeApplied, nil
}

// HandleCollectionUpdate overwrites a collection's terms and refreshes
// its total supply. No-op when the collection is unknown.
func (e *Engine) HandleCollectionUpdate(ctx context.Context, ev event.CollectionUpdate) (Outcome, error) {
	collection, err := e.loadCollection(ctx, ev.Collection)
	if err != nil {
		return 0, err
	}
	if collection == nil {
		return OutcomeSkippedUnknownCollection, nil
	}

	collection.CreatorAddress = ev.Creator
	collection.TradingFee = numeric.FromRaw(ev.TradingFee, numeric.FeeScale)
	collection.CreatorFee = numeric.FromRaw(ev.CreatorFee, numeric.FeeScale)
	collection.TotalSupply = e.resolver.TotalSupply(ctx, ev.Collection)
	collection.WhitelistChecker = ev.WhitelistChecker

	if err := e.store.PutCollection(ctx, collection); err != nil {
		return 0, err
	}
	return OutcomeApplied, nil
}

// HandleAskNew lists a token: the seller's and collection's listed
// counts increment, the token's ask is set, and an order log record of
// type "New" is appended. The collection must already be registered.
func (e *Engine) HandleAskNew(ctx context.Context, ev event.AskNew) (Outcome, error) {
	collection, err := e.loadCollection(ctx, ev.Collection)
	if err != nil {
		return 0, err
	}
	if collection == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCollection, ev.Collection)
	}

	user, err := e.loadUser(ctx, ev.Seller)
	if err != nil {
		return 0, err
	}
	if user == nil {
		user = newUser(ev.Seller, ev.TokenAddress)
	}
	user.NumberTokensListed++

	collection.NumberTokensListed++
	collection.TotalSupply = e.resolver.TotalSupply(ctx, ev.Collection)

	nftID := model.NFTID(ev.Collection, ev.TokenID)
	token, err := e.loadNFT(ctx, nftID)
	if err != nil {
		return 0, err
	}

	created := false
	if token == nil {
		token = &model.NFT{
			ID:                       nftID,
			TokenID:                  ev.TokenID,
			Collection:               collection.ID,
			MetadataURL:              e.resolver.TokenURI(ctx, ev.Collection, ev.TokenID),
			LatestTradedPriceInToken: decimal.Zero,
			TradeVolumeToken:         decimal.Zero,
		}
		created = true
	}

	askPrice := numeric.FromRaw(ev.AskPrice, numeric.AmountScale)
	token.TokenAddress = ev.TokenAddress
	token.UpdatedAt = ev.Timestamp
	token.CurrentAskPrice = askPrice
	token.CurrentSeller = ev.Seller
	token.IsTradable = true

	order := &model.AskOrder{
		ID:           ev.TxHash,
		Block:        ev.Block,
		Timestamp:    ev.Timestamp,
		Collection:   collection.ID,
		NFT:          token.ID,
		OrderType:    model.OrderTypeNew,
		AskPrice:     askPrice,
		TokenAddress: ev.TokenAddress,
		Seller:       user.ID,
	}

	if err := e.store.PutUser(ctx, user); err != nil {
		return 0, err
	}
	if err := e.store.PutCollection(ctx, collection); err != nil {
		return 0, err
	}
	if err := e.store.PutNFT(ctx, token); err != nil {
		return 0, err
	}
	if err := e.store.InsertAskOrder(ctx, order); err != nil {
		return 0, err
	}

	if created {
		return OutcomeCreated, nil
	}
	return OutcomeApplied, nil
}

// HandleAskCancel withdraws a listing. Updates whichever of
// {user, collection, token} are found; the order log record is appended
// only when both the token and the collection were found. That
// asymmetry matches the contract's historical indexer and is preserved
// deliberately rather than "fixed".
func (e *Engine) HandleAskCancel(ctx context.Context, ev event.AskCancel) (Outcome, error) {
	user, err := e.loadUser(ctx, ev.Seller)
	if err != nil {
		return 0, err
	}
	collection, err := e.loadCollection(ctx, ev.Collection)
	if err != nil {
		return 0, err
	}
	token, err := e.loadNFT(ctx, model.NFTID(ev.Collection, ev.TokenID))
	if err != nil {
		return 0, err
	}

	if user != nil {
		user.NumberTokensListed--
		if err := e.store.PutUser(ctx, user); err != nil {
			return 0, err
		}
	}

	if collection != nil {
		collection.NumberTokensListed--
		if err := e.store.PutCollection(ctx, collection); err != nil {
			return 0, err
		}
	}

	if token != nil {
		token.CurrentSeller = model.ZeroAddress
		token.UpdatedAt = ev.Timestamp
		token.CurrentAskPrice = decimal.Zero
		token.IsTradable = false
		if err := e.store.PutNFT(ctx, token); err != nil {
			return 0, err
		}
	}

	if token == nil || collection == nil {
		return OutcomeAppliedWithoutOrderLog, nil
	}

	order := &model.AskOrder{
		ID:         ev.TxHash,
		Block:      ev.Block,
		Timestamp:  ev.Timestamp,
		Collection: collection.ID,
		NFT:        token.ID,
		OrderType:  model.OrderTypeCancel,
		AskPrice:   decimal.Zero,
		Seller:     ev.Seller,
	}
	if err := e.store.InsertAskOrder(ctx, order); err != nil {
		return 0, err
	}
	return OutcomeApplied, nil
}

// HandleAskUpdate reprices a standing listing and appends an order log
// record of type "Modify". No-op when the token is unknown.
func (e *Engine) HandleAskUpdate(ctx context.Context, ev event.AskUpdate) (Outcome, error) {
	token, err := e.loadNFT(ctx, model.NFTID(ev.Collection, ev.TokenID))
	if err != nil {
		return 0, err
	}
	if token == nil {
		return OutcomeSkippedUnknownToken, nil
	}

	askPrice := numeric.FromRaw(ev.AskPrice, numeric.AmountScale)
	token.UpdatedAt = ev.Timestamp
	token.CurrentAskPrice = askPrice
	token.TokenAddress = ev.TokenAddress

	if err := e.store.PutNFT(ctx, token); err != nil {
		return 0, err
	}

	order := &model.AskOrder{
		ID:           ev.TxHash,
		Block:        ev.Block,
		Timestamp:    ev.Timestamp,
		Collection:   token.Collection,
		NFT:          token.ID,
		OrderType:    model.OrderTypeModify,
		AskPrice:     askPrice,
		TokenAddress: ev.TokenAddress,
		Seller:       ev.Seller,
	}
	if err := e.store.InsertAskOrder(ctx, order); err != nil {
		return 0, err
	}
	return OutcomeApplied, nil
}

// HandleTrade executes a listing: buyer and seller statistics, the
// collection's totals, and the token's state all move in lockstep, an
// immutable Transaction record is appended, and both daily rollups
// accumulate the gross ask price.
//
// The seller and the token must already exist (the listing created
// them); the buyer may be first-seen. All entities are read and the new
// states computed before any write, so a malformed event corrupts
// nothing.
func (e *Engine) HandleTrade(ctx context.Context, ev event.Trade) (Outcome, error) {
	askPrice := numeric.FromRaw(ev.AskPrice, numeric.AmountScale)
	netPrice := numeric.FromRaw(ev.NetPrice, numeric.AmountScale)

	seller, err := e.loadUser(ctx, ev.Seller)
	if err != nil {
		return 0, err
	}
	if seller == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSeller, ev.Seller)
	}

	nftID := model.NFTID(ev.Collection, ev.TokenID)
	token, err := e.loadNFT(ctx, nftID)
	if err != nil {
		return 0, err
	}
	if token == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownToken, nftID)
	}

	buyer, err := e.loadUser(ctx, ev.Buyer)
	if err != nil {
		return 0, err
	}
	collection, err := e.loadCollection(ctx, ev.Collection)
	if err != nil {
		return 0, err
	}

	// Buyer may not exist yet.
	if buyer == nil {
		buyer = newUser(ev.Buyer, ev.TokenAddress)
		buyer.NumberTokensPurchased = 1
		buyer.TotalVolumeInTokensPurchased = askPrice
		buyer.AverageTokenPriceInTokenPurchased = askPrice
	} else {
		buyer.NumberTokensPurchased++
		buyer.TotalVolumeInTokensPurchased = buyer.TotalVolumeInTokensPurchased.Add(askPrice)
		buyer.AverageTokenPriceInTokenPurchased = runningAverage(
			buyer.TotalVolumeInTokensPurchased, buyer.NumberTokensPurchased)
	}

	seller.NumberTokensSold++
	seller.NumberTokensListed--
	seller.TotalVolumeInTokensSold = seller.TotalVolumeInTokensSold.Add(netPrice)
	seller.AverageTokenPriceInTokenSold = runningAverage(
		seller.TotalVolumeInTokensSold, seller.NumberTokensSold)

	if collection != nil {
		collection.TotalTrades++
		collection.TotalVolumeToken = collection.TotalVolumeToken.Add(askPrice)
		collection.NumberTokensListed--
	}

	token.LatestTradedPriceInToken = askPrice
	token.TradeVolumeToken = token.TradeVolumeToken.Add(askPrice)
	token.TokenAddress = ev.TokenAddress
	token.UpdatedAt = ev.Timestamp
	token.TotalTrades++
	token.CurrentAskPrice = decimal.Zero
	token.CurrentSeller = model.ZeroAddress
	token.IsTradable = false

	tx := &model.Transaction{
		ID:           ev.TxHash,
		Block:        ev.Block,
		Timestamp:    ev.Timestamp,
		Collection:   ev.Collection,
		NFT:          nftID,
		AskPrice:     askPrice,
		NetPrice:     netPrice,
		Buyer:        ev.Buyer,
		Seller:       ev.Seller,
		TokenAddress: ev.TokenAddress,
	}

	if err := e.store.InsertTransaction(ctx, tx); err != nil {
		return 0, err
	}
	if err := e.store.PutUser(ctx, buyer); err != nil {
		return 0, err
	}
	if err := e.store.PutUser(ctx, seller); err != nil {
		return 0, err
	}
	if collection != nil {
		if err := e.store.PutCollection(ctx, collection); err != nil {
			return 0, err
		}
	}
	if err := e.store.PutNFT(ctx, token); err != nil {
		return 0, err
	}

	// One rollup update each, per trade — never batched or deduplicated.
	if err := e.days.UpdateCollectionDayData(ctx, ev.Collection, ev.Timestamp, askPrice); err != nil {
		return 0, err
	}
	if err := e.days.UpdateMarketPlaceDayData(ctx, ev.Timestamp, askPrice); err != nil {
		return 0, err
	}

	if e.feed != nil {
		e.feed.BroadcastTrade(tx)
	}
	return OutcomeApplied, nil
}

// HandleRevenueClaim accumulates claimed fees on the claimer's user
// record, creating it with zero defaults when first seen.
func (e *Engine) HandleRevenueClaim(ctx context.Context, ev event.RevenueClaim) (Outcome, error) {
	user, err := e.loadUser(ctx, ev.Claimer)
	if err != nil {
		return 0, err
	}

	created := false
	if user == nil {
		user = newUser(ev.Claimer, ev.TokenAddress)
		created = true
	}

	amount := numeric.FromRaw(ev.Amount, numeric.AmountScale)
	user.TotalFeesCollectedInToken = user.TotalFeesCollectedInToken.Add(amount)

	if err := e.store.PutUser(ctx, user); err != nil {
		return 0, err
	}
	if created {
		return OutcomeCreated, nil
	}
	return OutcomeApplied, nil
}

// --- Helpers ---

// averagePrecision is the decimal precision for running averages.
const averagePrecision = 18

// runningAverage recomputes an average from its persisted totals. Never
// accumulate the average itself — it would drift as counts change in
// both directions.
func runningAverage(volume decimal.Decimal, count int64) decimal.Decimal {
	return volume.DivRound(decimal.NewFromInt(count), averagePrecision)
}

// newUser constructs a first-seen user with the complete set of zero
// defaults.
func newUser(id, tokenAddress string) *model.User {
	return &model.User{
		ID:                                id,
		TokenAddress:                      tokenAddress,
		TotalVolumeInTokensPurchased:      decimal.Zero,
		TotalVolumeInTokensSold:           decimal.Zero,
		TotalFeesCollectedInToken:         decimal.Zero,
		AverageTokenPriceInTokenPurchased: decimal.Zero,
		AverageTokenPriceInTokenSold:      decimal.Zero,
	}
}

// loadCollection returns nil (no error) for an absent collection.
func (e *Engine) loadCollection(ctx context.Context, id string) (*model.Collection, error) {
	c, err := e.store.GetCollection(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

// loadNFT returns nil (no error) for an absent token.
func (e *Engine) loadNFT(ctx context.Context, id string) (*model.NFT, error) {
	n, err := e.store.GetNFT(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return n, err
}

// loadUser returns nil (no error) for an absent user.
func (e *Engine) loadUser(ctx context.Context, id string) (*model.User, error) {
	u, err := e.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return u, err
}
