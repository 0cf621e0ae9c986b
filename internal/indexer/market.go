package indexer

import (
	"context"

	"PerpIndexer/internal/entity"
	"PerpIndexer/internal/event"
)

// Market-scope reducers. The emitting contract address identifies the
// market; liquidity deltas here adjust pool reserves, while the
// exchange-scope twins handle the per-trader bookkeeping.

func (d *Dispatcher) handleLiquidityAddedMarket(ctx context.Context, e *event.LiquidityAddedMarket) error {
	protocol, err := d.db.GetOrCreateProtocol(ctx)
	if err != nil {
		return err
	}
	protocol.MakerVolume = protocol.MakerVolume.Plus(e.Liquidity)
	protocol.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, protocol); err != nil {
		return err
	}

	market, err := d.db.GetOrCreateMarket(ctx, e.Address)
	if err != nil {
		return err
	}
	market.BaseAmount = market.BaseAmount.Plus(e.Base)
	market.QuoteAmount = market.QuoteAmount.Plus(e.Quote)
	market.Liquidity = market.Liquidity.Plus(e.Liquidity)
	market.MakerVolume = market.MakerVolume.Plus(e.Liquidity)
	market.TimestampAdded = e.Timestamp
	market.Timestamp = e.Timestamp
	return d.db.Save(ctx, market)
}

func (d *Dispatcher) handleLiquidityRemovedMarket(ctx context.Context, e *event.LiquidityRemovedMarket) error {
	// Maker volume counts removal liquidity too: it measures turnover,
	// not the pool balance.
	protocol, err := d.db.GetOrCreateProtocol(ctx)
	if err != nil {
		return err
	}
	protocol.MakerVolume = protocol.MakerVolume.Plus(e.Liquidity)
	protocol.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, protocol); err != nil {
		return err
	}

	market, err := d.db.GetOrCreateMarket(ctx, e.Address)
	if err != nil {
		return err
	}
	market.BaseAmount = market.BaseAmount.Minus(e.Base)
	market.QuoteAmount = market.QuoteAmount.Minus(e.Quote)
	market.Liquidity = market.Liquidity.Minus(e.Liquidity)
	market.MakerVolume = market.MakerVolume.Plus(e.Liquidity)
	market.TimestampAdded = e.Timestamp
	market.Timestamp = e.Timestamp
	return d.db.Save(ctx, market)
}

func (d *Dispatcher) handleSwapped(ctx context.Context, e *event.Swapped) error {
	protocol, err := d.db.GetOrCreateProtocol(ctx)
	if err != nil {
		return err
	}
	protocol.TakerVolume = protocol.TakerVolume.Plus(e.Amount)
	protocol.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, protocol); err != nil {
		return err
	}

	market, err := d.db.GetOrCreateMarket(ctx, e.Address)
	if err != nil {
		return err
	}
	if e.IsExactInput {
		if e.IsBaseToQuote {
			market.BaseAmount = market.BaseAmount.Plus(e.Amount)
			market.QuoteAmount = market.QuoteAmount.Minus(e.OppositeAmount)
		} else {
			market.BaseAmount = market.BaseAmount.Minus(e.OppositeAmount)
			market.QuoteAmount = market.QuoteAmount.Plus(e.Amount)
		}
	} else {
		if e.IsBaseToQuote {
			market.BaseAmount = market.BaseAmount.Plus(e.OppositeAmount)
			market.QuoteAmount = market.QuoteAmount.Minus(e.Amount)
		} else {
			market.BaseAmount = market.BaseAmount.Minus(e.Amount)
			market.QuoteAmount = market.QuoteAmount.Plus(e.OppositeAmount)
		}
	}
	market.TakerVolume = market.TakerVolume.Plus(e.Amount)
	market.Timestamp = e.Timestamp
	return d.db.Save(ctx, market)
}

func (d *Dispatcher) handlePoolFeeRatioChanged(ctx context.Context, e *event.PoolFeeRatioChanged) error {
	return d.updateMarket(ctx, e.Address, e.Timestamp, func(m *entity.Market) {
		m.PoolFeeRatio = e.Value
	})
}

func (d *Dispatcher) handleFundingMaxPremiumRatioChanged(ctx context.Context, e *event.FundingMaxPremiumRatioChanged) error {
	return d.updateMarket(ctx, e.Address, e.Timestamp, func(m *entity.Market) {
		m.FundingMaxPremiumRatio = e.Value
	})
}

func (d *Dispatcher) handleFundingMaxElapsedSecChanged(ctx context.Context, e *event.FundingMaxElapsedSecChanged) error {
	return d.updateMarket(ctx, e.Address, e.Timestamp, func(m *entity.Market) {
		m.FundingMaxElapsedSec = e.Value
	})
}

func (d *Dispatcher) handleFundingRolloverSecChanged(ctx context.Context, e *event.FundingRolloverSecChanged) error {
	return d.updateMarket(ctx, e.Address, e.Timestamp, func(m *entity.Market) {
		m.FundingRolloverSec = e.Value
	})
}

func (d *Dispatcher) handlePriceLimitConfigChanged(ctx context.Context, e *event.PriceLimitConfigChanged) error {
	return d.updateMarket(ctx, e.Address, e.Timestamp, func(m *entity.Market) {
		m.NormalOrderRatio = e.NormalOrderRatio
		m.LiquidationRatio = e.LiquidationRatio
		m.EmaNormalOrderRatio = e.EmaNormalOrderRatio
		m.EmaLiquidationRatio = e.EmaLiquidationRatio
		m.EmaSec = e.EmaSec
	})
}

func (d *Dispatcher) updateMarket(ctx context.Context, address string, timestamp int64, mutate func(*entity.Market)) error {
	market, err := d.db.GetOrCreateMarket(ctx, address)
	if err != nil {
		return err
	}
	mutate(market)
	market.Timestamp = timestamp
	return d.db.Save(ctx, market)
}
