package indexer

import (
	"context"

	"PerpIndexer/internal/entity"
	fp "PerpIndexer/internal/fixedpoint"
)

// createCandle folds one price sample into the candle of every interval.
// The sample price converts share price into balance terms:
// priceX96 = sharePriceX96 * Q96 / baseBalancePerShareX96, and the base
// amount converts the other way, baseShare * baseBalancePerShareX96 / Q96.
// Both divisions yield zero when the denominator is zero.
func (db *StateDB) createCandle(ctx context.Context, market string, timestamp int64, sharePriceX96, baseBalancePerShareX96, baseShare, quoteAmount fp.Int) error {
	priceX96 := sharePriceX96.MulDivOrZero(fp.Q96, baseBalancePerShareX96)
	baseAmount := baseShare.MulDiv(baseBalancePerShareX96, fp.Q96)

	for _, interval := range entity.CandleIntervals {
		bucket := entity.RoundTime(timestamp, interval)
		if err := db.updateCandle(ctx, market, interval, bucket, timestamp, priceX96, baseAmount, quoteAmount); err != nil {
			return err
		}
	}
	return nil
}

func (db *StateDB) updateCandle(ctx context.Context, market string, interval, bucket, timestamp int64, priceX96, baseAmount, quoteAmount fp.Int) error {
	c := &entity.Candle{}
	key := entity.Join(market, formatInt64(interval), formatInt64(bucket))
	found, err := db.load(ctx, entity.KindCandle, key, c)
	if err != nil {
		return err
	}
	if !found {
		c.Market = market
		c.TimeFormat = interval
		c.Timestamp = bucket
		c.OpenX96 = priceX96
		c.HighX96 = priceX96
		c.LowX96 = priceX96
	}

	if c.HighX96.Cmp(priceX96) < 0 {
		c.HighX96 = priceX96
	} else if c.LowX96.Cmp(priceX96) > 0 {
		c.LowX96 = priceX96
	}
	c.CloseX96 = priceX96
	c.BaseAmount = c.BaseAmount.Plus(baseAmount.Abs())
	c.QuoteAmount = c.QuoteAmount.Plus(quoteAmount.Abs())
	c.UpdatedAt = timestamp

	if err := db.Save(ctx, c); err != nil {
		return err
	}
	if db.archiver != nil {
		db.archiver.ArchiveCandle(ctx, c)
	}
	return nil
}
