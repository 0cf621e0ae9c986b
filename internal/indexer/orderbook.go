package indexer

import (
	"context"

	fp "PerpIndexer/internal/fixedpoint"
)

// addOrderRow adds resting volume at an exact price level, creating the
// row on first touch.
func (db *StateDB) addOrderRow(ctx context.Context, market, side string, priceX96, volume fp.Int) error {
	row, err := db.GetOrCreateOrderRow(ctx, market, side, priceX96)
	if err != nil {
		return err
	}
	row.Volume = row.Volume.Plus(volume)
	return db.Save(ctx, row)
}

// excludeOrderRow subtracts resting volume at an exact price level. The
// row is kept even at zero or negative volume so a replayed create can
// bring it back into balance.
func (db *StateDB) excludeOrderRow(ctx context.Context, market, side string, priceX96, volume fp.Int) error {
	row, err := db.GetOrCreateOrderRow(ctx, market, side, priceX96)
	if err != nil {
		return err
	}
	row.Volume = row.Volume.Minus(volume)
	return db.Save(ctx, row)
}

// touchOrderBook bumps the per-market order book marker.
func (db *StateDB) touchOrderBook(ctx context.Context, market string, timestamp int64) error {
	book, err := db.GetOrCreateOrderBook(ctx, market)
	if err != nil {
		return err
	}
	book.Timestamp = timestamp
	return db.Save(ctx, book)
}
