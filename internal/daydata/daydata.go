// Package daydata maintains the time-bucketed rollup aggregates: one
// daily bucket for the marketplace as a whole and one per collection.
package daydata

import (
	"context"
	"errors"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/metasports/market-indexer/internal/model"
	"github.com/metasports/market-indexer/internal/store"
)

// SecondsPerDay is the UTC day-bucket width.
const SecondsPerDay = 86400

// DayID computes the deterministic day identifier for a timestamp. Two
// events in the same calendar day always resolve to the same id.
func DayID(timestamp int64) int64 {
	return timestamp / SecondsPerDay
}

// DayStart computes the bucket start timestamp for a day id.
func DayStart(dayID int64) int64 {
	return dayID * SecondsPerDay
}

// Aggregator updates daily rollup records through the entity store.
type Aggregator struct {
	store store.Store
}

// NewAggregator creates a day-bucket aggregator over the given store.
func NewAggregator(st store.Store) *Aggregator {
	return &Aggregator{store: st}
}

// UpdateMarketPlaceDayData adds one trade's volume to the marketplace
// bucket for the event's day, creating the bucket on first reference.
func (a *Aggregator) UpdateMarketPlaceDayData(ctx context.Context, timestamp int64, volume decimal.Decimal) error {
	dayID := DayID(timestamp)
	id := strconv.FormatInt(dayID, 10)

	d, err := a.store.GetMarketPlaceDayData(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		d = &model.MarketPlaceDayData{
			ID:               id,
			Date:             DayStart(dayID),
			DailyVolumeToken: decimal.Zero,
		}
	} else if err != nil {
		return err
	}

	d.DailyVolumeToken = d.DailyVolumeToken.Add(volume)
	d.DailyTrades++
	return a.store.PutMarketPlaceDayData(ctx, d)
}

// UpdateCollectionDayData adds one trade's volume to the collection's
// bucket for the event's day, creating the bucket on first reference.
func (a *Aggregator) UpdateCollectionDayData(ctx context.Context, collection string, timestamp int64, volume decimal.Decimal) error {
	dayID := DayID(timestamp)
	id := model.CollectionDayID(dayID, collection)

	d, err := a.store.GetCollectionDayData(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		d = &model.CollectionDayData{
			ID:               id,
			Date:             DayStart(dayID),
			Collection:       collection,
			DailyVolumeToken: decimal.Zero,
		}
	} else if err != nil {
		return err
	}

	d.DailyVolumeToken = d.DailyVolumeToken.Add(volume)
	d.DailyTrades++
	return a.store.PutCollectionDayData(ctx, d)
}
