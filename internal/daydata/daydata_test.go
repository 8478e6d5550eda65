package daydata_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/metasports/market-indexer/internal/daydata"
	"github.com/metasports/market-indexer/internal/store"
)

func TestDayID(t *testing.T) {
	tests := []struct {
		ts   int64
		want int64
	}{
		{0, 0},
		{86399, 0},
		{86400, 1},
		{86401, 1},
		{1659398400, 19206}, // 2022-08-02 00:00 UTC
		{1659484799, 19206}, // last second of the same day
	}
	for _, tt := range tests {
		if got := daydata.DayID(tt.ts); got != tt.want {
			t.Errorf("DayID(%d) = %d, want %d", tt.ts, got, tt.want)
		}
	}
}

func TestDayStart(t *testing.T) {
	if got := daydata.DayStart(19206); got != 1659398400 {
		t.Errorf("DayStart(19206) = %d, want 1659398400", got)
	}
}

func TestMarketPlaceDayDataAccumulates(t *testing.T) {
	ms := store.NewMemoryStore()
	agg := daydata.NewAggregator(ms)
	ctx := context.Background()

	one := decimal.NewFromInt(1)
	two := decimal.NewFromInt(2)

	if err := agg.UpdateMarketPlaceDayData(ctx, 100, one); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := agg.UpdateMarketPlaceDayData(ctx, 200, two); err != nil {
		t.Fatalf("update: %v", err)
	}

	d, err := ms.GetMarketPlaceDayData(ctx, "0")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.DailyTrades != 2 {
		t.Errorf("trades = %d, want 2", d.DailyTrades)
	}
	if !d.DailyVolumeToken.Equal(decimal.NewFromInt(3)) {
		t.Errorf("volume = %s, want 3", d.DailyVolumeToken)
	}
	if d.Date != 0 {
		t.Errorf("date = %d, want 0", d.Date)
	}
}

func TestCollectionDayDataKeyedPerCollection(t *testing.T) {
	ms := store.NewMemoryStore()
	agg := daydata.NewAggregator(ms)
	ctx := context.Background()

	collA := "0x1f9840a85d5af5bf1d1762f925bdaddc4201f984"
	collB := "0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82"
	one := decimal.NewFromInt(1)

	if err := agg.UpdateCollectionDayData(ctx, collA, 100, one); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := agg.UpdateCollectionDayData(ctx, collB, 100, one); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := agg.UpdateCollectionDayData(ctx, collA, 200, one); err != nil {
		t.Fatalf("update: %v", err)
	}

	a, err := ms.GetCollectionDayData(ctx, "0-"+collA)
	if err != nil {
		t.Fatalf("get A: %v", err)
	}
	if a.DailyTrades != 2 {
		t.Errorf("A trades = %d, want 2", a.DailyTrades)
	}
	if a.Collection != collA {
		t.Errorf("A collection = %s, want %s", a.Collection, collA)
	}

	b, err := ms.GetCollectionDayData(ctx, "0-"+collB)
	if err != nil {
		t.Fatalf("get B: %v", err)
	}
	if b.DailyTrades != 1 {
		t.Errorf("B trades = %d, want 1", b.DailyTrades)
	}
}
