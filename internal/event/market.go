package event

import (
	fp "PerpIndexer/internal/fixedpoint"
)

// Market-scope events. Meta.Address is the market contract; reducers
// resolve the market entity from it.

type FundingPaid struct {
	Meta                    `json:"meta"`
	FundingRateX96          fp.Int `json:"fundingRateX96"`
	ElapsedSec              int64  `json:"elapsedSec"`
	PremiumX96              fp.Int `json:"premiumX96"`
	MarkPriceX96            fp.Int `json:"markPriceX96"`
	CumBasePerLiquidityX96  fp.Int `json:"cumBasePerLiquidityX96"`
	CumQuotePerLiquidityX96 fp.Int `json:"cumQuotePerLiquidityX96"`
}

func (e *FundingPaid) Kind() Kind      { return KindFundingPaid }
func (e *FundingPaid) EventMeta() Meta { return e.Meta }

type LiquidityAddedMarket struct {
	Meta      `json:"meta"`
	Base      fp.Int `json:"base"`
	Quote     fp.Int `json:"quote"`
	Liquidity fp.Int `json:"liquidity"`
}

func (e *LiquidityAddedMarket) Kind() Kind      { return KindLiquidityAddedMarket }
func (e *LiquidityAddedMarket) EventMeta() Meta { return e.Meta }

type LiquidityRemovedMarket struct {
	Meta      `json:"meta"`
	Base      fp.Int `json:"base"`
	Quote     fp.Int `json:"quote"`
	Liquidity fp.Int `json:"liquidity"`
}

func (e *LiquidityRemovedMarket) Kind() Kind      { return KindLiquidityRemovedMarket }
func (e *LiquidityRemovedMarket) EventMeta() Meta { return e.Meta }

type Swapped struct {
	Meta            `json:"meta"`
	IsBaseToQuote   bool   `json:"isBaseToQuote"`
	IsExactInput    bool   `json:"isExactInput"`
	Amount          fp.Int `json:"amount"`
	OppositeAmount  fp.Int `json:"oppositeAmount"`
	FullLastOrderID fp.Int `json:"fullLastOrderId"`
	PartialOrderID  fp.Int `json:"partialOrderId"`
	BasePartial     fp.Int `json:"basePartial"`
	QuotePartial    fp.Int `json:"quotePartial"`
}

func (e *Swapped) Kind() Kind      { return KindSwapped }
func (e *Swapped) EventMeta() Meta { return e.Meta }

type LimitOrderCreatedMarket struct {
	Meta     `json:"meta"`
	IsBid    bool   `json:"isBid"`
	Base     fp.Int `json:"base"`
	PriceX96 fp.Int `json:"priceX96"`
	OrderID  fp.Int `json:"orderId"`
}

func (e *LimitOrderCreatedMarket) Kind() Kind      { return KindLimitOrderCreatedMarket }
func (e *LimitOrderCreatedMarket) EventMeta() Meta { return e.Meta }

type LimitOrderCanceledMarket struct {
	Meta    `json:"meta"`
	IsBid   bool   `json:"isBid"`
	OrderID fp.Int `json:"orderId"`
}

func (e *LimitOrderCanceledMarket) Kind() Kind      { return KindLimitOrderCanceledMarket }
func (e *LimitOrderCanceledMarket) EventMeta() Meta { return e.Meta }

type PoolFeeRatioChanged struct {
	Meta  `json:"meta"`
	Value int64 `json:"value"`
}

func (e *PoolFeeRatioChanged) Kind() Kind      { return KindPoolFeeRatioChanged }
func (e *PoolFeeRatioChanged) EventMeta() Meta { return e.Meta }

type FundingMaxPremiumRatioChanged struct {
	Meta  `json:"meta"`
	Value int64 `json:"value"`
}

func (e *FundingMaxPremiumRatioChanged) Kind() Kind      { return KindFundingMaxPremiumRatioChanged }
func (e *FundingMaxPremiumRatioChanged) EventMeta() Meta { return e.Meta }

type FundingMaxElapsedSecChanged struct {
	Meta  `json:"meta"`
	Value int64 `json:"value"`
}

func (e *FundingMaxElapsedSecChanged) Kind() Kind      { return KindFundingMaxElapsedSecChanged }
func (e *FundingMaxElapsedSecChanged) EventMeta() Meta { return e.Meta }

type FundingRolloverSecChanged struct {
	Meta  `json:"meta"`
	Value int64 `json:"value"`
}

func (e *FundingRolloverSecChanged) Kind() Kind      { return KindFundingRolloverSecChanged }
func (e *FundingRolloverSecChanged) EventMeta() Meta { return e.Meta }

type PriceLimitConfigChanged struct {
	Meta                `json:"meta"`
	NormalOrderRatio    int64 `json:"normalOrderRatio"`
	LiquidationRatio    int64 `json:"liquidationRatio"`
	EmaNormalOrderRatio int64 `json:"emaNormalOrderRatio"`
	EmaLiquidationRatio int64 `json:"emaLiquidationRatio"`
	EmaSec              int64 `json:"emaSec"`
}

func (e *PriceLimitConfigChanged) Kind() Kind      { return KindPriceLimitConfigChanged }
func (e *PriceLimitConfigChanged) EventMeta() Meta { return e.Meta }

// FundingUpdated predates the per-market funding events but still feeds the
// daily funding rate shown on market summaries.
type FundingUpdated struct {
	Meta      `json:"meta"`
	BaseToken string `json:"baseToken"`
	MarkTwap  fp.Int `json:"markTwap"`
	IndexTwap fp.Int `json:"indexTwap"`
}

func (e *FundingUpdated) Kind() Kind      { return KindFundingUpdated }
func (e *FundingUpdated) EventMeta() Meta { return e.Meta }
