package indexer

import (
	"context"

	fp "PerpIndexer/internal/fixedpoint"
)

// createPositionHistory folds a taker fill into the per-second snapshot of
// the trader's position. The entry price is quote over base with a zero
// base yielding zero; the fee is the latest value, not a sum.
func (db *StateDB) createPositionHistory(ctx context.Context, trader, market string, timestamp int64, base, baseBalancePerShareX96, quote, realizedPnl, protocolFee fp.Int) error {
	h, err := db.GetOrCreatePositionHistory(ctx, trader, market, timestamp)
	if err != nil {
		return err
	}

	h.BaseBalanceShare = h.BaseBalanceShare.Plus(base)
	h.BaseBalancePerShareX96 = baseBalancePerShareX96
	h.BaseBalance = h.BaseBalanceShare.MulDiv(h.BaseBalancePerShareX96, fp.Q96)
	h.QuoteBalance = h.QuoteBalance.Plus(quote)
	h.EntryPrice = h.QuoteBalance.DivOrZero(h.BaseBalance)
	h.RealizedPnl = h.RealizedPnl.Plus(realizedPnl)
	h.ProtocolFee = protocolFee

	return db.Save(ctx, h)
}

// createLiquidityHistory folds a liquidity delta into the per-second
// record. Removals pass negated amounts.
func (db *StateDB) createLiquidityHistory(ctx context.Context, trader, market string, timestamp int64, base, quote, liquidity fp.Int) error {
	h, err := db.GetOrCreateLiquidityHistory(ctx, trader, market, timestamp)
	if err != nil {
		return err
	}

	h.Base = h.Base.Plus(base)
	h.Quote = h.Quote.Plus(quote)
	h.Liquidity = h.Liquidity.Plus(liquidity)

	return db.Save(ctx, h)
}
