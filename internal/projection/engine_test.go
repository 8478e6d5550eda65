package projection_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/metasports/market-indexer/internal/daydata"
	"github.com/metasports/market-indexer/internal/event"
	"github.com/metasports/market-indexer/internal/model"
	"github.com/metasports/market-indexer/internal/projection"
	"github.com/metasports/market-indexer/internal/store"
)

const (
	collAddr    = "0x1f9840a85d5af5bf1d1762f925bdaddc4201f984"
	sellerAddr  = "0x5aeda56215b167893e80b4fe645ba6d5bab767de"
	buyerAddr   = "0x9965507d1a55bcc2695c58ba16fb37d819b0a4dc"
	creatorAddr = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
	payToken    = "0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// stubResolver returns fixed metadata so tests can assert the lookup
// results land on the created entities.
type stubResolver struct {
	name   string
	symbol string
	supply int64
	uri    string
}

func (r stubResolver) Name(context.Context, string) string   { return r.name }
func (r stubResolver) Symbol(context.Context, string) string { return r.symbol }
func (r stubResolver) TotalSupply(context.Context, string) *big.Int {
	return big.NewInt(r.supply)
}
func (r stubResolver) TokenURI(context.Context, string, *big.Int) *string {
	uri := r.uri
	return &uri
}

// recordingFeed captures broadcast trades.
type recordingFeed struct {
	trades []*model.Transaction
}

func (f *recordingFeed) BroadcastTrade(t *model.Transaction) {
	f.trades = append(f.trades, t)
}

func newTestEngine(t *testing.T) (*projection.Engine, *store.MemoryStore) {
	t.Helper()
	ms := store.NewMemoryStore()
	eng := projection.NewEngine(ms, stubResolver{
		name:   "Cool Cats",
		symbol: "COOL",
		supply: 10000,
		uri:    "ipfs://QmMeta/1.json",
	}, nil)
	return eng, ms
}

func meta(ts int64, n int) event.Meta {
	return event.Meta{
		Collection: collAddr,
		Block:      int64(1000 + n),
		Timestamp:  ts,
		TxHash:     fmt.Sprintf("0x%064x", n),
	}
}

func collectionNew(ts int64, n int) event.CollectionNew {
	return event.CollectionNew{
		Meta:             meta(ts, n),
		Creator:          creatorAddr,
		TradingFee:       big.NewInt(250), // 2.50%
		CreatorFee:       big.NewInt(50),  // 0.50%
		WhitelistChecker: model.ZeroAddress,
	}
}

func askNew(ts int64, n int, tokenID, price int64) event.AskNew {
	return event.AskNew{
		Meta:         meta(ts, n),
		Seller:       sellerAddr,
		TokenID:      big.NewInt(tokenID),
		AskPrice:     big.NewInt(price),
		TokenAddress: payToken,
	}
}

func trade(ts int64, n int, tokenID, askPrice, netPrice int64) event.Trade {
	return event.Trade{
		Meta:         meta(ts, n),
		Buyer:        buyerAddr,
		Seller:       sellerAddr,
		TokenID:      big.NewInt(tokenID),
		AskPrice:     big.NewInt(askPrice),
		NetPrice:     big.NewInt(netPrice),
		TokenAddress: payToken,
	}
}

func mustApply(t *testing.T, eng *projection.Engine, ev event.Event, want projection.Outcome) {
	t.Helper()
	got, err := eng.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("apply %s: %v", ev.Type(), err)
	}
	if got != want {
		t.Fatalf("apply %s: outcome = %s, want %s", ev.Type(), got, want)
	}
}

// --- CollectionNew ---

func TestCollectionNew_CreatesWithMetadata(t *testing.T) {
	eng, ms := newTestEngine(t)

	mustApply(t, eng, collectionNew(1000, 1), projection.OutcomeCreated)

	c, err := ms.GetCollection(context.Background(), collAddr)
	if err != nil {
		t.Fatalf("get collection: %v", err)
	}
	if c.Name != "Cool Cats" || c.Symbol != "COOL" {
		t.Errorf("metadata = %q/%q, want Cool Cats/COOL", c.Name, c.Symbol)
	}
	if c.TotalSupply == nil || c.TotalSupply.Int64() != 10000 {
		t.Errorf("total supply = %v, want 10000", c.TotalSupply)
	}
	if !c.Active {
		t.Error("collection should be active")
	}
	if c.CreatorAddress != creatorAddr {
		t.Errorf("creator = %s, want %s", c.CreatorAddress, creatorAddr)
	}
	if !c.TradingFee.Equal(d("2.5")) {
		t.Errorf("trading fee = %s, want 2.5", c.TradingFee)
	}
	if !c.CreatorFee.Equal(d("0.5")) {
		t.Errorf("creator fee = %s, want 0.5", c.CreatorFee)
	}
}

func TestCollectionNew_RepeatOverwritesTermsKeepsTotals(t *testing.T) {
	eng, ms := newTestEngine(t)

	mustApply(t, eng, collectionNew(1000, 1), projection.OutcomeCreated)
	mustApply(t, eng, askNew(1001, 2, 7, 1_500_000_000_000_000_000), projection.OutcomeCreated)
	mustApply(t, eng, trade(1002, 3, 7, 1_500_000_000_000_000_000, 1_425_000_000_000_000_000), projection.OutcomeApplied)

	// Re-register with different terms.
	ev := collectionNew(1003, 4)
	ev.TradingFee = big.NewInt(100)
	mustApply(t, eng, ev, projection.OutcomeApplied)

	c, _ := ms.GetCollection(context.Background(), collAddr)
	if !c.TradingFee.Equal(d("1")) {
		t.Errorf("trading fee = %s, want 1", c.TradingFee)
	}
	if c.TotalTrades != 1 {
		t.Errorf("total trades = %d, want 1 (preserved)", c.TotalTrades)
	}
	if !c.TotalVolumeToken.Equal(d("1.5")) {
		t.Errorf("total volume = %s, want 1.5 (preserved)", c.TotalVolumeToken)
	}
}

// --- CollectionClose / CollectionUpdate ---

func TestCollectionClose(t *testing.T) {
	eng, ms := newTestEngine(t)

	// Unknown collection is silently skipped.
	mustApply(t, eng, event.CollectionClose{Meta: meta(1000, 1)}, projection.OutcomeSkippedUnknownCollection)

	mustApply(t, eng, collectionNew(1001, 2), projection.OutcomeCreated)
	mustApply(t, eng, event.CollectionClose{Meta: meta(1002, 3)}, projection.OutcomeApplied)

	c, _ := ms.GetCollection(context.Background(), collAddr)
	if c.Active {
		t.Error("collection should be inactive after close")
	}
}

func TestCollectionUpdate(t *testing.T) {
	eng, ms := newTestEngine(t)

	upd := event.CollectionUpdate{
		Meta:             meta(1000, 1),
		Creator:          creatorAddr,
		TradingFee:       big.NewInt(300),
		CreatorFee:       big.NewInt(75),
		WhitelistChecker: model.ZeroAddress,
	}
	mustApply(t, eng, upd, projection.OutcomeSkippedUnknownCollection)

	mustApply(t, eng, collectionNew(1001, 2), projection.OutcomeCreated)
	upd.Meta = meta(1002, 3)
	mustApply(t, eng, upd, projection.OutcomeApplied)

	c, _ := ms.GetCollection(context.Background(), collAddr)
	if !c.TradingFee.Equal(d("3")) {
		t.Errorf("trading fee = %s, want 3", c.TradingFee)
	}
	if !c.CreatorFee.Equal(d("0.75")) {
		t.Errorf("creator fee = %s, want 0.75", c.CreatorFee)
	}
}

// --- AskNew ---

func TestAskNew_UnknownCollectionFails(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Apply(context.Background(), askNew(1000, 1, 7, 1_000_000_000_000_000_000))
	if !errors.Is(err, projection.ErrUnknownCollection) {
		t.Fatalf("err = %v, want ErrUnknownCollection", err)
	}
}

func TestAskNew_ListsToken(t *testing.T) {
	eng, ms := newTestEngine(t)
	ctx := context.Background()

	mustApply(t, eng, collectionNew(1000, 1), projection.OutcomeCreated)
	mustApply(t, eng, askNew(1001, 2, 7, 1_500_000_000_000_000_000), projection.OutcomeCreated)

	u, err := ms.GetUser(ctx, sellerAddr)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.NumberTokensListed != 1 {
		t.Errorf("user listed = %d, want 1", u.NumberTokensListed)
	}

	c, _ := ms.GetCollection(ctx, collAddr)
	if c.NumberTokensListed != 1 {
		t.Errorf("collection listed = %d, want 1", c.NumberTokensListed)
	}

	n, err := ms.GetNFT(ctx, collAddr+"-7")
	if err != nil {
		t.Fatalf("get nft: %v", err)
	}
	if !n.CurrentAskPrice.Equal(d("1.5")) {
		t.Errorf("ask price = %s, want 1.5", n.CurrentAskPrice)
	}
	if n.CurrentSeller != sellerAddr {
		t.Errorf("seller = %s, want %s", n.CurrentSeller, sellerAddr)
	}
	if !n.IsTradable {
		t.Error("token should be tradable")
	}
	if n.MetadataURL == nil || *n.MetadataURL != "ipfs://QmMeta/1.json" {
		t.Errorf("metadata url = %v, want ipfs://QmMeta/1.json", n.MetadataURL)
	}

	orders := ms.AskOrders()
	if len(orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(orders))
	}
	if orders[0].OrderType != model.OrderTypeNew {
		t.Errorf("order type = %s, want New", orders[0].OrderType)
	}
	if !orders[0].AskPrice.Equal(d("1.5")) {
		t.Errorf("order price = %s, want 1.5", orders[0].AskPrice)
	}
}

func TestAskNew_RelistKnownToken(t *testing.T) {
	eng, ms := newTestEngine(t)
	ctx := context.Background()

	mustApply(t, eng, collectionNew(1000, 1), projection.OutcomeCreated)
	mustApply(t, eng, askNew(1001, 2, 7, 1_500_000_000_000_000_000), projection.OutcomeCreated)
	mustApply(t, eng, event.AskCancel{Meta: meta(1002, 3), Seller: sellerAddr, TokenID: big.NewInt(7)}, projection.OutcomeApplied)

	// Token entity already exists, so relisting reports Applied.
	mustApply(t, eng, askNew(1003, 4, 7, 2_000_000_000_000_000_000), projection.OutcomeApplied)

	n, _ := ms.GetNFT(ctx, collAddr+"-7")
	if !n.CurrentAskPrice.Equal(d("2")) {
		t.Errorf("ask price = %s, want 2", n.CurrentAskPrice)
	}
	if !n.IsTradable {
		t.Error("relisted token should be tradable")
	}
}

// --- AskCancel ---

func TestAskCancel_FinalState(t *testing.T) {
	eng, ms := newTestEngine(t)
	ctx := context.Background()

	mustApply(t, eng, collectionNew(1000, 1), projection.OutcomeCreated)
	mustApply(t, eng, askNew(1001, 2, 7, 1_500_000_000_000_000_000), projection.OutcomeCreated)
	mustApply(t, eng, event.AskCancel{Meta: meta(1002, 3), Seller: sellerAddr, TokenID: big.NewInt(7)}, projection.OutcomeApplied)

	u, _ := ms.GetUser(ctx, sellerAddr)
	if u.NumberTokensListed != 0 {
		t.Errorf("user listed = %d, want 0", u.NumberTokensListed)
	}
	c, _ := ms.GetCollection(ctx, collAddr)
	if c.NumberTokensListed != 0 {
		t.Errorf("collection listed = %d, want 0", c.NumberTokensListed)
	}

	n, _ := ms.GetNFT(ctx, collAddr+"-7")
	if n.CurrentSeller != model.ZeroAddress {
		t.Errorf("seller = %s, want zero address", n.CurrentSeller)
	}
	if !n.CurrentAskPrice.IsZero() {
		t.Errorf("ask price = %s, want 0", n.CurrentAskPrice)
	}
	if n.IsTradable {
		t.Error("token should not be tradable after cancel")
	}

	orders := ms.AskOrders()
	if len(orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(orders))
	}
	cancel := orders[1]
	if cancel.OrderType != model.OrderTypeCancel {
		t.Errorf("order type = %s, want Cancel", cancel.OrderType)
	}
	if !cancel.AskPrice.IsZero() {
		t.Errorf("cancel order price = %s, want 0", cancel.AskPrice)
	}
}

func TestAskCancel_UnknownTokenDropsOrderLog(t *testing.T) {
	eng, ms := newTestEngine(t)
	ctx := context.Background()

	mustApply(t, eng, collectionNew(1000, 1), projection.OutcomeCreated)
	mustApply(t, eng, askNew(1001, 2, 7, 1_500_000_000_000_000_000), projection.OutcomeCreated)

	// Cancel a token id that was never listed. The user and collection
	// counters still move, but no order record is appended.
	cancel := event.AskCancel{Meta: meta(1002, 3), Seller: sellerAddr, TokenID: big.NewInt(99)}
	mustApply(t, eng, cancel, projection.OutcomeAppliedWithoutOrderLog)

	u, _ := ms.GetUser(ctx, sellerAddr)
	if u.NumberTokensListed != 0 {
		t.Errorf("user listed = %d, want 0", u.NumberTokensListed)
	}
	c, _ := ms.GetCollection(ctx, collAddr)
	if c.NumberTokensListed != 0 {
		t.Errorf("collection listed = %d, want 0", c.NumberTokensListed)
	}
	if got := len(ms.AskOrders()); got != 1 {
		t.Errorf("orders = %d, want 1 (no Cancel record)", got)
	}
}

// --- AskUpdate ---

func TestAskUpdate(t *testing.T) {
	eng, ms := newTestEngine(t)
	ctx := context.Background()

	upd := event.AskUpdate{
		Meta:         meta(1000, 1),
		Seller:       sellerAddr,
		TokenID:      big.NewInt(7),
		AskPrice:     big.NewInt(2_000_000_000_000_000_000),
		TokenAddress: payToken,
	}
	mustApply(t, eng, upd, projection.OutcomeSkippedUnknownToken)

	mustApply(t, eng, collectionNew(1001, 2), projection.OutcomeCreated)
	mustApply(t, eng, askNew(1002, 3, 7, 1_500_000_000_000_000_000), projection.OutcomeCreated)
	upd.Meta = meta(1003, 4)
	mustApply(t, eng, upd, projection.OutcomeApplied)

	n, _ := ms.GetNFT(ctx, collAddr+"-7")
	if !n.CurrentAskPrice.Equal(d("2")) {
		t.Errorf("ask price = %s, want 2", n.CurrentAskPrice)
	}
	if n.UpdatedAt != 1003 {
		t.Errorf("updated at = %d, want 1003", n.UpdatedAt)
	}

	orders := ms.AskOrders()
	if len(orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(orders))
	}
	if orders[1].OrderType != model.OrderTypeModify {
		t.Errorf("order type = %s, want Modify", orders[1].OrderType)
	}
}

// --- Trade ---

func TestTrade_UnknownSellerFails(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Apply(context.Background(), trade(1000, 1, 7, 1_500_000_000_000_000_000, 1_425_000_000_000_000_000))
	if !errors.Is(err, projection.ErrUnknownSeller) {
		t.Fatalf("err = %v, want ErrUnknownSeller", err)
	}
}

func TestTrade_UnknownTokenFails(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	mustApply(t, eng, collectionNew(1000, 1), projection.OutcomeCreated)
	mustApply(t, eng, askNew(1001, 2, 7, 1_500_000_000_000_000_000), projection.OutcomeCreated)

	_, err := eng.Apply(ctx, trade(1002, 3, 99, 1_500_000_000_000_000_000, 1_425_000_000_000_000_000))
	if !errors.Is(err, projection.ErrUnknownToken) {
		t.Fatalf("err = %v, want ErrUnknownToken", err)
	}
}

func TestTrade_FullStateTransition(t *testing.T) {
	eng, ms := newTestEngine(t)
	ctx := context.Background()

	mustApply(t, eng, collectionNew(1000, 1), projection.OutcomeCreated)
	mustApply(t, eng, askNew(1001, 2, 7, 1_500_000_000_000_000_000), projection.OutcomeCreated)
	mustApply(t, eng, trade(1002, 3, 7, 1_500_000_000_000_000_000, 1_425_000_000_000_000_000), projection.OutcomeApplied)

	buyer, err := ms.GetUser(ctx, buyerAddr)
	if err != nil {
		t.Fatalf("get buyer: %v", err)
	}
	if buyer.NumberTokensPurchased != 1 {
		t.Errorf("buyer purchased = %d, want 1", buyer.NumberTokensPurchased)
	}
	if !buyer.TotalVolumeInTokensPurchased.Equal(d("1.5")) {
		t.Errorf("buyer volume = %s, want 1.5", buyer.TotalVolumeInTokensPurchased)
	}
	if !buyer.AverageTokenPriceInTokenPurchased.Equal(d("1.5")) {
		t.Errorf("buyer avg = %s, want 1.5", buyer.AverageTokenPriceInTokenPurchased)
	}

	seller, _ := ms.GetUser(ctx, sellerAddr)
	if seller.NumberTokensSold != 1 {
		t.Errorf("seller sold = %d, want 1", seller.NumberTokensSold)
	}
	if seller.NumberTokensListed != 0 {
		t.Errorf("seller listed = %d, want 0", seller.NumberTokensListed)
	}
	if !seller.TotalVolumeInTokensSold.Equal(d("1.425")) {
		t.Errorf("seller volume = %s, want 1.425 (net)", seller.TotalVolumeInTokensSold)
	}
	if !seller.AverageTokenPriceInTokenSold.Equal(d("1.425")) {
		t.Errorf("seller avg = %s, want 1.425", seller.AverageTokenPriceInTokenSold)
	}

	c, _ := ms.GetCollection(ctx, collAddr)
	if c.TotalTrades != 1 {
		t.Errorf("collection trades = %d, want 1", c.TotalTrades)
	}
	if !c.TotalVolumeToken.Equal(d("1.5")) {
		t.Errorf("collection volume = %s, want 1.5 (gross)", c.TotalVolumeToken)
	}
	if c.NumberTokensListed != 0 {
		t.Errorf("collection listed = %d, want 0", c.NumberTokensListed)
	}

	n, _ := ms.GetNFT(ctx, collAddr+"-7")
	if !n.LatestTradedPriceInToken.Equal(d("1.5")) {
		t.Errorf("latest price = %s, want 1.5", n.LatestTradedPriceInToken)
	}
	if !n.TradeVolumeToken.Equal(d("1.5")) {
		t.Errorf("token volume = %s, want 1.5", n.TradeVolumeToken)
	}
	if n.TotalTrades != 1 {
		t.Errorf("token trades = %d, want 1", n.TotalTrades)
	}
	if n.IsTradable || n.CurrentSeller != model.ZeroAddress || !n.CurrentAskPrice.IsZero() {
		t.Error("token listing state should be cleared after trade")
	}

	txs, _ := ms.ListTransactions(ctx, 10)
	if len(txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txs))
	}
	if !txs[0].AskPrice.Equal(d("1.5")) || !txs[0].NetPrice.Equal(d("1.425")) {
		t.Errorf("transaction prices = %s/%s, want 1.5/1.425", txs[0].AskPrice, txs[0].NetPrice)
	}

	day, err := ms.GetMarketPlaceDayData(ctx, fmt.Sprintf("%d", int64(1002)/daydata.SecondsPerDay))
	if err != nil {
		t.Fatalf("get marketplace day data: %v", err)
	}
	if day.DailyTrades != 1 || !day.DailyVolumeToken.Equal(d("1.5")) {
		t.Errorf("marketplace day = %d trades / %s volume, want 1 / 1.5", day.DailyTrades, day.DailyVolumeToken)
	}

	cday, err := ms.GetCollectionDayData(ctx, model.CollectionDayID(int64(1002)/daydata.SecondsPerDay, collAddr))
	if err != nil {
		t.Fatalf("get collection day data: %v", err)
	}
	if cday.DailyTrades != 1 || !cday.DailyVolumeToken.Equal(d("1.5")) {
		t.Errorf("collection day = %d trades / %s volume, want 1 / 1.5", cday.DailyTrades, cday.DailyVolumeToken)
	}
}

func TestTrade_RunningAverageExactness(t *testing.T) {
	eng, ms := newTestEngine(t)
	ctx := context.Background()

	mustApply(t, eng, collectionNew(1000, 1), projection.OutcomeCreated)

	// Three purchases at 1, 2, and 2 tokens. The average is recomputed
	// from totals each time, never accumulated.
	prices := []int64{
		1_000_000_000_000_000_000,
		2_000_000_000_000_000_000,
		2_000_000_000_000_000_000,
	}
	n := 2
	for i, p := range prices {
		tokenID := int64(10 + i)
		mustApply(t, eng, askNew(1001, n, tokenID, p), projection.OutcomeCreated)
		n++
		mustApply(t, eng, trade(1002, n, tokenID, p, p), projection.OutcomeApplied)
		n++
	}

	buyer, _ := ms.GetUser(ctx, buyerAddr)
	if buyer.NumberTokensPurchased != 3 {
		t.Fatalf("purchased = %d, want 3", buyer.NumberTokensPurchased)
	}
	if !buyer.TotalVolumeInTokensPurchased.Equal(d("5")) {
		t.Errorf("volume = %s, want 5", buyer.TotalVolumeInTokensPurchased)
	}
	// 5/3 rounded at 18 decimal places.
	want := d("1.666666666666666667")
	if !buyer.AverageTokenPriceInTokenPurchased.Equal(want) {
		t.Errorf("avg = %s, want %s", buyer.AverageTokenPriceInTokenPurchased, want)
	}
}

func TestTrade_DayBucketing(t *testing.T) {
	eng, ms := newTestEngine(t)
	ctx := context.Background()

	mustApply(t, eng, collectionNew(1000, 1), projection.OutcomeCreated)

	price := int64(1_000_000_000_000_000_000)
	day0 := int64(1000)
	day1 := day0 + daydata.SecondsPerDay

	mustApply(t, eng, askNew(day0, 2, 7, price), projection.OutcomeCreated)
	mustApply(t, eng, trade(day0+10, 3, 7, price, price), projection.OutcomeApplied)
	mustApply(t, eng, askNew(day0+20, 4, 7, price), projection.OutcomeApplied)
	mustApply(t, eng, trade(day0+30, 5, 7, price, price), projection.OutcomeApplied)

	mustApply(t, eng, askNew(day1, 6, 7, price), projection.OutcomeApplied)
	mustApply(t, eng, trade(day1+10, 7, 7, price, price), projection.OutcomeApplied)

	first, err := ms.GetMarketPlaceDayData(ctx, "0")
	if err != nil {
		t.Fatalf("get day 0: %v", err)
	}
	if first.DailyTrades != 2 || !first.DailyVolumeToken.Equal(d("2")) {
		t.Errorf("day 0 = %d trades / %s, want 2 / 2", first.DailyTrades, first.DailyVolumeToken)
	}

	second, err := ms.GetMarketPlaceDayData(ctx, "1")
	if err != nil {
		t.Fatalf("get day 1: %v", err)
	}
	if second.DailyTrades != 1 || !second.DailyVolumeToken.Equal(d("1")) {
		t.Errorf("day 1 = %d trades / %s, want 1 / 1", second.DailyTrades, second.DailyVolumeToken)
	}
	if second.Date != daydata.SecondsPerDay {
		t.Errorf("day 1 start = %d, want %d", second.Date, daydata.SecondsPerDay)
	}
}

func TestTrade_BroadcastsToFeed(t *testing.T) {
	ms := store.NewMemoryStore()
	feed := &recordingFeed{}
	eng := projection.NewEngine(ms, stubResolver{name: "x", symbol: "x"}, feed)

	mustApply(t, eng, collectionNew(1000, 1), projection.OutcomeCreated)
	mustApply(t, eng, askNew(1001, 2, 7, 1_500_000_000_000_000_000), projection.OutcomeCreated)
	mustApply(t, eng, trade(1002, 3, 7, 1_500_000_000_000_000_000, 1_425_000_000_000_000_000), projection.OutcomeApplied)

	if len(feed.trades) != 1 {
		t.Fatalf("broadcast trades = %d, want 1", len(feed.trades))
	}
	if feed.trades[0].NFT != collAddr+"-7" {
		t.Errorf("broadcast nft = %s, want %s-7", feed.trades[0].NFT, collAddr)
	}
}

// --- RevenueClaim ---

func TestRevenueClaim(t *testing.T) {
	eng, ms := newTestEngine(t)
	ctx := context.Background()

	claim := event.RevenueClaim{
		Meta:         meta(1000, 1),
		Claimer:      creatorAddr,
		Amount:       big.NewInt(500_000_000_000_000_000),
		TokenAddress: payToken,
	}
	mustApply(t, eng, claim, projection.OutcomeCreated)

	claim.Meta = meta(1001, 2)
	mustApply(t, eng, claim, projection.OutcomeApplied)

	u, err := ms.GetUser(ctx, creatorAddr)
	if err != nil {
		t.Fatalf("get claimer: %v", err)
	}
	if !u.TotalFeesCollectedInToken.Equal(d("1")) {
		t.Errorf("fees collected = %s, want 1", u.TotalFeesCollectedInToken)
	}
	if u.NumberTokensListed != 0 || u.NumberTokensPurchased != 0 {
		t.Error("claim should not touch listing or purchase counters")
	}
}
