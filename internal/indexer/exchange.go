package indexer

import (
	"context"

	"PerpIndexer/internal/entity"
	"PerpIndexer/internal/event"
	fp "PerpIndexer/internal/fixedpoint"
)

// addCompetitionDeposit credits the trader's competition deposit when the
// event falls inside the window.
func (d *Dispatcher) addCompetitionDeposit(ctx context.Context, trader string, timestamp int64, delta fp.Int) error {
	if !d.inCompetition(timestamp) {
		return nil
	}
	pr, err := d.db.GetOrCreateProfitRatio(ctx, trader, d.window.StartedAt, d.window.FinishedAt)
	if err != nil {
		return err
	}
	pr.Deposit = pr.Deposit.Plus(delta)
	pr.Recompute()
	pr.Timestamp = timestamp
	if d.metrics != nil {
		d.metrics.ProfitRatios.Inc()
	}
	return d.db.Save(ctx, pr)
}

// addCompetitionProfit credits realized profit inside the window.
func (d *Dispatcher) addCompetitionProfit(ctx context.Context, trader string, timestamp int64, delta fp.Int) error {
	if !d.inCompetition(timestamp) {
		return nil
	}
	pr, err := d.db.GetOrCreateProfitRatio(ctx, trader, d.window.StartedAt, d.window.FinishedAt)
	if err != nil {
		return err
	}
	pr.Profit = pr.Profit.Plus(delta)
	pr.Recompute()
	pr.Timestamp = timestamp
	if d.metrics != nil {
		d.metrics.ProfitRatios.Inc()
	}
	return d.db.Save(ctx, pr)
}

func (d *Dispatcher) handleDeposited(ctx context.Context, e *event.Deposited) error {
	trader, err := d.db.GetOrCreateTrader(ctx, e.Trader)
	if err != nil {
		return err
	}
	trader.CollateralBalance = trader.CollateralBalance.Plus(e.Amount)
	trader.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, trader); err != nil {
		return err
	}

	return d.addCompetitionDeposit(ctx, e.Trader, e.Timestamp, e.Amount)
}

func (d *Dispatcher) handleWithdrawn(ctx context.Context, e *event.Withdrawn) error {
	trader, err := d.db.GetOrCreateTrader(ctx, e.Trader)
	if err != nil {
		return err
	}
	trader.CollateralBalance = trader.CollateralBalance.Minus(e.Amount)
	trader.Timestamp = e.Timestamp
	return d.db.Save(ctx, trader)
}

func (d *Dispatcher) handleCollateralBalanceSet(ctx context.Context, e *event.CollateralBalanceSet) error {
	delta := e.AfterBalance.Minus(e.BeforeBalance)

	trader, err := d.db.GetOrCreateTrader(ctx, e.Trader)
	if err != nil {
		return err
	}
	trader.CollateralBalance = trader.CollateralBalance.Plus(delta)
	trader.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, trader); err != nil {
		return err
	}

	return d.addCompetitionDeposit(ctx, e.Trader, e.Timestamp, delta)
}

func (d *Dispatcher) handleCollateralCompensated(ctx context.Context, e *event.CollateralCompensated) error {
	protocol, err := d.db.GetOrCreateProtocol(ctx)
	if err != nil {
		return err
	}
	protocol.InsuranceFundBalance = protocol.InsuranceFundBalance.Minus(e.Amount)
	protocol.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, protocol); err != nil {
		return err
	}

	trader, err := d.db.GetOrCreateTrader(ctx, e.Trader)
	if err != nil {
		return err
	}
	trader.CollateralBalance = trader.CollateralBalance.Plus(e.Amount)
	trader.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, trader); err != nil {
		return err
	}

	return d.addCompetitionDeposit(ctx, e.Trader, e.Timestamp, e.Amount)
}

func (d *Dispatcher) handleProtocolFeeTransferred(ctx context.Context, e *event.ProtocolFeeTransferred) error {
	protocol, err := d.db.GetOrCreateProtocol(ctx)
	if err != nil {
		return err
	}
	protocol.ProtocolFee = protocol.ProtocolFee.Minus(e.Amount)
	protocol.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, protocol); err != nil {
		return err
	}

	trader, err := d.db.GetOrCreateTrader(ctx, e.Trader)
	if err != nil {
		return err
	}
	trader.CollateralBalance = trader.CollateralBalance.Plus(e.Amount)
	trader.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, trader); err != nil {
		return err
	}

	return d.addCompetitionProfit(ctx, e.Trader, e.Timestamp, e.Amount)
}

func (d *Dispatcher) handleLiquidityAddedExchange(ctx context.Context, e *event.LiquidityAddedExchange) error {
	trader, err := d.db.GetOrCreateTrader(ctx, e.Trader)
	if err != nil {
		return err
	}
	trader.PushMarket(e.Market)
	trader.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, trader); err != nil {
		return err
	}

	makerInfo, err := d.db.GetOrCreateTraderMakerInfo(ctx, e.Trader, e.Market)
	if err != nil {
		return err
	}
	makerInfo.Liquidity = makerInfo.Liquidity.Plus(e.Liquidity)
	makerInfo.CumBaseSharePerLiquidityX96 = e.CumBasePerLiquidityX96
	makerInfo.CumQuotePerLiquidityX96 = e.CumQuotePerLiquidityX96
	makerInfo.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, makerInfo); err != nil {
		return err
	}

	return d.db.createLiquidityHistory(ctx, e.Trader, e.Market, e.Timestamp, e.Base, e.Quote, e.Liquidity)
}

func (d *Dispatcher) handleLiquidityRemovedExchange(ctx context.Context, e *event.LiquidityRemovedExchange) error {
	trader, err := d.db.GetOrCreateTrader(ctx, e.Trader)
	if err != nil {
		return err
	}
	trader.PushMarket(e.Market)
	trader.CollateralBalance = trader.CollateralBalance.Plus(e.RealizedPnl)
	trader.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, trader); err != nil {
		return err
	}

	market, err := d.db.GetOrCreateMarket(ctx, e.Market)
	if err != nil {
		return err
	}

	takerInfo, err := d.db.GetOrCreateTraderTakerInfo(ctx, e.Trader, e.Market)
	if err != nil {
		return err
	}
	takerInfo.BaseBalanceShare = takerInfo.BaseBalanceShare.Plus(e.TakerBase)
	takerInfo.BaseBalance = takerInfo.BaseBalanceShare.MulDiv(market.BaseBalancePerShareX96, fp.Q96)
	takerInfo.QuoteBalance = takerInfo.QuoteBalance.Plus(e.TakerQuote).Minus(e.RealizedPnl)
	takerInfo.EntryPrice = takerInfo.QuoteBalance.DivOrZero(takerInfo.BaseBalance)
	takerInfo.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, takerInfo); err != nil {
		return err
	}

	makerInfo, err := d.db.GetOrCreateTraderMakerInfo(ctx, e.Trader, e.Market)
	if err != nil {
		return err
	}
	makerInfo.Liquidity = makerInfo.Liquidity.Minus(e.Liquidity)
	makerInfo.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, makerInfo); err != nil {
		return err
	}

	if err := d.addDayPnl(ctx, e.Trader, e.Timestamp, e.RealizedPnl); err != nil {
		return err
	}
	if err := d.addCompetitionProfit(ctx, e.Trader, e.Timestamp, e.RealizedPnl); err != nil {
		return err
	}

	// Removal deltas are recorded negated.
	return d.db.createLiquidityHistory(ctx, e.Trader, e.Market, e.Timestamp, e.Base.Neg(), e.Quote.Neg(), e.Liquidity.Neg())
}

// addDayPnl folds realized PnL into the trader's calendar-day summary.
func (d *Dispatcher) addDayPnl(ctx context.Context, trader string, timestamp int64, pnl fp.Int) error {
	day, err := d.db.GetOrCreateDaySummary(ctx, trader, timestamp)
	if err != nil {
		return err
	}
	day.RealizedPnl = day.RealizedPnl.Plus(pnl)
	day.Timestamp = timestamp
	return d.db.Save(ctx, day)
}

func (d *Dispatcher) handlePositionChanged(ctx context.Context, e *event.PositionChanged) error {
	return d.applyTakerFill(ctx, takerFill{
		trader:                 e.Trader,
		market:                 e.Market,
		timestamp:              e.Timestamp,
		base:                   e.Base,
		quote:                  e.Quote,
		realizedPnl:            e.RealizedPnl,
		protocolFee:            e.ProtocolFee,
		baseBalancePerShareX96: e.BaseBalancePerShareX96,
		sharePriceAfterX96:     e.SharePriceAfterX96,
	})
}

// takerFill is the shared shape of a position-changing fill.
type takerFill struct {
	trader                 string
	market                 string
	timestamp              int64
	base                   fp.Int
	quote                  fp.Int
	realizedPnl            fp.Int
	protocolFee            fp.Int
	baseBalancePerShareX96 fp.Int
	sharePriceAfterX96     fp.Int

	// liquidation extras, zero for plain fills
	liquidator          string
	liquidationPenalty  fp.Int
	liquidationReward   fp.Int
	insuranceFundReward fp.Int
}

func (d *Dispatcher) applyTakerFill(ctx context.Context, f takerFill) error {
	protocol, err := d.db.GetOrCreateProtocol(ctx)
	if err != nil {
		return err
	}
	protocol.ProtocolFee = protocol.ProtocolFee.Plus(f.protocolFee)
	protocol.InsuranceFundBalance = protocol.InsuranceFundBalance.Plus(f.insuranceFundReward)
	protocol.Timestamp = f.timestamp
	if err := d.db.Save(ctx, protocol); err != nil {
		return err
	}

	market, err := d.db.GetOrCreateMarket(ctx, f.market)
	if err != nil {
		return err
	}
	market.BaseBalancePerShareX96 = f.baseBalancePerShareX96
	market.SharePriceAfterX96 = f.sharePriceAfterX96
	market.Timestamp = f.timestamp
	if err := d.db.Save(ctx, market); err != nil {
		return err
	}

	trader, err := d.db.GetOrCreateTrader(ctx, f.trader)
	if err != nil {
		return err
	}
	trader.PushMarket(f.market)
	trader.CollateralBalance = trader.CollateralBalance.Plus(f.realizedPnl).Minus(f.liquidationPenalty)
	trader.Timestamp = f.timestamp
	if err := d.db.Save(ctx, trader); err != nil {
		return err
	}

	if f.liquidator != "" {
		liquidator, err := d.db.GetOrCreateTrader(ctx, f.liquidator)
		if err != nil {
			return err
		}
		liquidator.PushMarket(f.market)
		liquidator.CollateralBalance = liquidator.CollateralBalance.Plus(f.liquidationReward)
		liquidator.Timestamp = f.timestamp
		if err := d.db.Save(ctx, liquidator); err != nil {
			return err
		}
	}

	takerInfo, err := d.db.GetOrCreateTraderTakerInfo(ctx, f.trader, f.market)
	if err != nil {
		return err
	}
	takerInfo.BaseBalanceShare = takerInfo.BaseBalanceShare.Plus(f.base)
	takerInfo.BaseBalance = takerInfo.BaseBalanceShare.MulDiv(f.baseBalancePerShareX96, fp.Q96)
	takerInfo.QuoteBalance = takerInfo.QuoteBalance.Plus(f.quote).Minus(f.realizedPnl)
	takerInfo.EntryPrice = takerInfo.QuoteBalance.DivOrZero(takerInfo.BaseBalance)
	takerInfo.Timestamp = f.timestamp
	if err := d.db.Save(ctx, takerInfo); err != nil {
		return err
	}

	traderPnl := f.realizedPnl.Minus(f.liquidationPenalty)
	if err := d.addDayPnl(ctx, f.trader, f.timestamp, traderPnl); err != nil {
		return err
	}
	if err := d.addCompetitionProfit(ctx, f.trader, f.timestamp, traderPnl); err != nil {
		return err
	}

	if f.liquidator != "" {
		if err := d.addDayPnl(ctx, f.liquidator, f.timestamp, f.liquidationReward); err != nil {
			return err
		}
		if err := d.addCompetitionProfit(ctx, f.liquidator, f.timestamp, f.liquidationReward); err != nil {
			return err
		}
	}

	if err := d.db.createPositionHistory(ctx, f.trader, f.market, f.timestamp,
		f.base, f.baseBalancePerShareX96, f.quote, traderPnl, f.protocolFee); err != nil {
		return err
	}

	if err := d.db.createCandle(ctx, f.market, f.timestamp,
		f.sharePriceAfterX96, f.baseBalancePerShareX96, f.base, f.quote); err != nil {
		return err
	}
	if d.metrics != nil {
		for _, interval := range entity.CandleIntervals {
			d.metrics.CandlesWritten.WithLabelValues(formatInt64(interval)).Inc()
		}
	}
	return nil
}

func (d *Dispatcher) handlePositionLiquidated(ctx context.Context, e *event.PositionLiquidated) error {
	return d.applyTakerFill(ctx, takerFill{
		trader:                 e.Trader,
		market:                 e.Market,
		timestamp:              e.Timestamp,
		base:                   e.Base,
		quote:                  e.Quote,
		realizedPnl:            e.RealizedPnl,
		protocolFee:            e.ProtocolFee,
		baseBalancePerShareX96: e.BaseBalancePerShareX96,
		sharePriceAfterX96:     e.SharePriceAfterX96,
		liquidator:             e.Liquidator,
		liquidationPenalty:     e.LiquidationPenalty,
		liquidationReward:      e.LiquidationReward,
		insuranceFundReward:    e.InsuranceFundReward,
	})
}

func (d *Dispatcher) handlePartiallyExecuted(ctx context.Context, e *event.PartiallyExecuted) error {
	trader, err := d.db.GetOrCreateTrader(ctx, e.Maker)
	if err != nil {
		return err
	}
	trader.PushMarket(e.Market)
	trader.CollateralBalance = trader.CollateralBalance.Plus(e.PartialRealizedPnl)
	trader.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, trader); err != nil {
		return err
	}

	market, err := d.db.GetOrCreateMarket(ctx, e.Market)
	if err != nil {
		return err
	}

	takerInfo, err := d.db.GetOrCreateTraderTakerInfo(ctx, e.Maker, e.Market)
	if err != nil {
		return err
	}
	// The maker takes the opposite side of the partial fill.
	if e.IsBid {
		takerInfo.BaseBalanceShare = takerInfo.BaseBalanceShare.Plus(e.BasePartial)
		takerInfo.QuoteBalance = takerInfo.QuoteBalance.Minus(e.QuotePartial).Minus(e.PartialRealizedPnl)
	} else {
		takerInfo.BaseBalanceShare = takerInfo.BaseBalanceShare.Minus(e.BasePartial)
		takerInfo.QuoteBalance = takerInfo.QuoteBalance.Plus(e.QuotePartial).Minus(e.PartialRealizedPnl)
	}
	takerInfo.BaseBalance = takerInfo.BaseBalanceShare.MulDiv(market.BaseBalancePerShareX96, fp.Q96)
	takerInfo.EntryPrice = takerInfo.QuoteBalance.DivOrZero(takerInfo.BaseBalance)
	takerInfo.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, takerInfo); err != nil {
		return err
	}

	if err := d.addDayPnl(ctx, e.Maker, e.Timestamp, e.PartialRealizedPnl); err != nil {
		return err
	}
	if err := d.addCompetitionProfit(ctx, e.Maker, e.Timestamp, e.PartialRealizedPnl); err != nil {
		return err
	}

	return d.db.createPositionHistory(ctx, e.Maker, e.Market, e.Timestamp,
		e.BasePartial, market.BaseBalancePerShareX96, e.QuotePartial, e.PartialRealizedPnl, fp.Zero)
}

func (d *Dispatcher) handleLimitOrderCreatedExchange(ctx context.Context, e *event.LimitOrderCreatedExchange) error {
	side := entity.SideString(e.IsBid)
	restingVolume := e.Base.Minus(e.BaseTaker)

	order, err := d.db.GetOrCreateOrder(ctx, e.Trader, e.Market, side, e.OrderID)
	if err != nil {
		return err
	}
	order.PriceX96 = e.PriceX96
	order.Volume = restingVolume
	order.LimitOrderType = e.LimitOrderType
	order.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, order); err != nil {
		return err
	}

	if err := d.db.addOrderRow(ctx, e.Market, side, e.PriceX96, restingVolume); err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.OrderRowsTouched.WithLabelValues(side).Inc()
	}

	return d.db.touchOrderBook(ctx, e.Market, e.Timestamp)
}

func (d *Dispatcher) handleLimitOrderCanceledExchange(ctx context.Context, e *event.LimitOrderCanceledExchange) error {
	side := entity.SideString(e.IsBid)

	order, err := d.db.GetOrCreateOrder(ctx, e.Trader, e.Market, side, e.OrderID)
	if err != nil {
		return err
	}

	// Unknown orders carry zero volume and price, so the row math is a
	// no-op at that level.
	if err := d.db.excludeOrderRow(ctx, e.Market, side, order.PriceX96, order.Volume); err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.OrderRowsTouched.WithLabelValues(side).Inc()
	}

	if err := d.db.DeleteOrder(ctx, order); err != nil {
		return err
	}

	return d.db.touchOrderBook(ctx, e.Market, e.Timestamp)
}

func (d *Dispatcher) handleLimitOrderSettled(ctx context.Context, e *event.LimitOrderSettled) error {
	trader, err := d.db.GetOrCreateTrader(ctx, e.Trader)
	if err != nil {
		return err
	}
	trader.PushMarket(e.Market)
	trader.CollateralBalance = trader.CollateralBalance.Plus(e.RealizedPnl)
	trader.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, trader); err != nil {
		return err
	}

	market, err := d.db.GetOrCreateMarket(ctx, e.Market)
	if err != nil {
		return err
	}

	takerInfo, err := d.db.GetOrCreateTraderTakerInfo(ctx, e.Trader, e.Market)
	if err != nil {
		return err
	}
	takerInfo.BaseBalanceShare = takerInfo.BaseBalanceShare.Plus(e.Base)
	takerInfo.BaseBalance = takerInfo.BaseBalanceShare.MulDiv(market.BaseBalancePerShareX96, fp.Q96)
	takerInfo.QuoteBalance = takerInfo.QuoteBalance.Plus(e.Quote).Minus(e.RealizedPnl)
	takerInfo.EntryPrice = takerInfo.QuoteBalance.DivOrZero(takerInfo.BaseBalance)
	takerInfo.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, takerInfo); err != nil {
		return err
	}

	if err := d.addDayPnl(ctx, e.Trader, e.Timestamp, e.RealizedPnl); err != nil {
		return err
	}
	return d.addCompetitionProfit(ctx, e.Trader, e.Timestamp, e.RealizedPnl)
}

func (d *Dispatcher) handleMarketClosed(ctx context.Context, e *event.MarketClosed) error {
	trader, err := d.db.GetOrCreateTrader(ctx, e.Trader)
	if err != nil {
		return err
	}
	trader.CollateralBalance = trader.CollateralBalance.Plus(e.RealizedPnl)
	trader.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, trader); err != nil {
		return err
	}

	return d.addCompetitionProfit(ctx, e.Trader, e.Timestamp, e.RealizedPnl)
}

func (d *Dispatcher) handleMaxMarketsPerAccountChanged(ctx context.Context, e *event.MaxMarketsPerAccountChanged) error {
	return d.updateProtocol(ctx, e.Timestamp, func(p *entity.Protocol) {
		p.MaxMarketsPerAccount = e.Value
	})
}

func (d *Dispatcher) handleMaxOrdersPerAccountChanged(ctx context.Context, e *event.MaxOrdersPerAccountChanged) error {
	return d.updateProtocol(ctx, e.Timestamp, func(p *entity.Protocol) {
		p.MaxOrdersPerAccount = e.Value
	})
}

func (d *Dispatcher) handleImRatioChanged(ctx context.Context, e *event.ImRatioChanged) error {
	return d.updateProtocol(ctx, e.Timestamp, func(p *entity.Protocol) {
		p.ImRatio = e.Value
	})
}

func (d *Dispatcher) handleMmRatioChanged(ctx context.Context, e *event.MmRatioChanged) error {
	return d.updateProtocol(ctx, e.Timestamp, func(p *entity.Protocol) {
		p.MmRatio = e.Value
	})
}

func (d *Dispatcher) handleLiquidationRewardConfigChanged(ctx context.Context, e *event.LiquidationRewardConfigChanged) error {
	return d.updateProtocol(ctx, e.Timestamp, func(p *entity.Protocol) {
		p.RewardRatio = e.RewardRatio
		p.SmoothEmaTime = e.SmoothEmaTime
	})
}

func (d *Dispatcher) handleProtocolFeeRatioChanged(ctx context.Context, e *event.ProtocolFeeRatioChanged) error {
	return d.updateProtocol(ctx, e.Timestamp, func(p *entity.Protocol) {
		p.ProtocolFeeRatio = e.Value
	})
}

func (d *Dispatcher) updateProtocol(ctx context.Context, timestamp int64, mutate func(*entity.Protocol)) error {
	protocol, err := d.db.GetOrCreateProtocol(ctx)
	if err != nil {
		return err
	}
	mutate(protocol)
	protocol.Timestamp = timestamp
	return d.db.Save(ctx, protocol)
}

func (d *Dispatcher) handleMarketStatusChanged(ctx context.Context, e *event.MarketStatusChanged) error {
	market, err := d.db.GetOrCreateMarket(ctx, e.Market)
	if err != nil {
		return err
	}
	market.Status = e.Status
	market.Timestamp = e.Timestamp
	if err := d.db.Save(ctx, market); err != nil {
		return err
	}

	if d.registrar != nil {
		if err := d.registrar.RegisterMarket(ctx, e.Market); err != nil {
			return err
		}
	}
	return nil
}
