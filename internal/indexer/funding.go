package indexer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"PerpIndexer/internal/event"
	fp "PerpIndexer/internal/fixedpoint"
)

// handleFundingPaid deleverages the pool by the funding rate. The share
// conversion shrinks first, then one reserve side: a positive rate takes
// quote out of the pool, a negative rate takes base, with the base branch
// dividing by Q96 plus the rate magnitude because the base side is priced
// after the share shrink. The per-liquidity deltas accumulate only while
// the pool has liquidity, and the event's own cumulative indices win over
// the locally accumulated ones.
func (d *Dispatcher) handleFundingPaid(ctx context.Context, e *event.FundingPaid) error {
	market, err := d.db.GetOrCreateMarket(ctx, e.Address)
	if err != nil {
		return err
	}

	market.BaseBalancePerShareX96 = market.BaseBalancePerShareX96.MulDiv(fp.Q96.Minus(e.FundingRateX96), fp.Q96)

	if e.FundingRateX96.Sign() > 0 {
		deleveratedQuote := market.QuoteAmount.MulDiv(e.FundingRateX96, fp.Q96)
		market.QuoteAmount = market.QuoteAmount.Minus(deleveratedQuote)
		market.CumQuotePerLiquidityX96 = market.CumQuotePerLiquidityX96.Plus(
			deleveratedQuote.MulDivOrZero(fp.Q96, market.Liquidity))
	} else {
		rate := e.FundingRateX96.Abs()
		deleveratedBase := market.BaseAmount.MulDiv(rate, fp.Q96.Plus(rate))
		market.BaseAmount = market.BaseAmount.Minus(deleveratedBase)
		market.CumBasePerLiquidityX96 = market.CumBasePerLiquidityX96.Plus(
			deleveratedBase.MulDivOrZero(fp.Q96, market.Liquidity))
	}

	market.CumBasePerLiquidityX96 = e.CumBasePerLiquidityX96
	market.CumQuotePerLiquidityX96 = e.CumQuotePerLiquidityX96
	market.Timestamp = e.Timestamp

	return d.db.Save(ctx, market)
}

// fundingUpdatedRecord is the enriched log row for FundingUpdated: the raw
// event plus the derived daily funding rate.
type fundingUpdatedRecord struct {
	BlockNumberLogIndex int64                 `json:"blockNumberLogIndex"`
	Timestamp           int64                 `json:"timestamp"`
	Event               *event.FundingUpdated `json:"event"`
	MarkTwap            decimal.Decimal       `json:"markTwap"`
	IndexTwap           decimal.Decimal       `json:"indexTwap"`
	DailyFundingRate    decimal.Decimal       `json:"dailyFundingRate"`
}

// handleFundingUpdated derives dailyFundingRate = (mark - index) / index
// from the wei-denominated TWAPs and overwrites the generic log row with
// the enriched record. Zero index yields a zero rate.
func (d *Dispatcher) handleFundingUpdated(ctx context.Context, e *event.FundingUpdated) error {
	mark := fromWei(e.MarkTwap)
	index := fromWei(e.IndexTwap)

	rate := decimal.Zero
	if diff := mark.Sub(index); !diff.IsZero() && !index.IsZero() {
		rate = diff.Div(index)
	}

	rec := fundingUpdatedRecord{
		BlockNumberLogIndex: e.BlockNumberLogIndex(),
		Timestamp:           e.Timestamp,
		Event:               e,
		MarkTwap:            mark,
		IndexTwap:           index,
		DailyFundingRate:    rate,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode funding update: %w", err)
	}
	return d.db.store.Save(ctx, LogKind(e.Kind()), e.Meta.ID(), data)
}

// fromWei converts an 18-decimal fixed integer to a decimal value.
func fromWei(v fp.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v.Big(), -18)
}
