package event

import (
	fp "PerpIndexer/internal/fixedpoint"
)

// Exchange-scope events. Meta.Address is the exchange contract.

type Deposited struct {
	Meta   `json:"meta"`
	Trader string `json:"trader"`
	Amount fp.Int `json:"amount"`
}

func (e *Deposited) Kind() Kind      { return KindDeposited }
func (e *Deposited) EventMeta() Meta { return e.Meta }

type Withdrawn struct {
	Meta   `json:"meta"`
	Trader string `json:"trader"`
	Amount fp.Int `json:"amount"`
}

func (e *Withdrawn) Kind() Kind      { return KindWithdrawn }
func (e *Withdrawn) EventMeta() Meta { return e.Meta }

type CollateralBalanceSet struct {
	Meta          `json:"meta"`
	Trader        string `json:"trader"`
	BeforeBalance fp.Int `json:"beforeBalance"`
	AfterBalance  fp.Int `json:"afterBalance"`
}

func (e *CollateralBalanceSet) Kind() Kind      { return KindCollateralBalanceSet }
func (e *CollateralBalanceSet) EventMeta() Meta { return e.Meta }

type CollateralCompensated struct {
	Meta   `json:"meta"`
	Trader string `json:"trader"`
	Amount fp.Int `json:"amount"`
}

func (e *CollateralCompensated) Kind() Kind      { return KindCollateralCompensated }
func (e *CollateralCompensated) EventMeta() Meta { return e.Meta }

type ProtocolFeeTransferred struct {
	Meta   `json:"meta"`
	Trader string `json:"trader"`
	Amount fp.Int `json:"amount"`
}

func (e *ProtocolFeeTransferred) Kind() Kind      { return KindProtocolFeeTransferred }
func (e *ProtocolFeeTransferred) EventMeta() Meta { return e.Meta }

type LiquidityAddedExchange struct {
	Meta                    `json:"meta"`
	Trader                  string `json:"trader"`
	Market                  string `json:"market"`
	Base                    fp.Int `json:"base"`
	Quote                   fp.Int `json:"quote"`
	Liquidity               fp.Int `json:"liquidity"`
	CumBasePerLiquidityX96  fp.Int `json:"cumBasePerLiquidityX96"`
	CumQuotePerLiquidityX96 fp.Int `json:"cumQuotePerLiquidityX96"`
}

func (e *LiquidityAddedExchange) Kind() Kind      { return KindLiquidityAddedExchange }
func (e *LiquidityAddedExchange) EventMeta() Meta { return e.Meta }

type LiquidityRemovedExchange struct {
	Meta        `json:"meta"`
	Trader      string `json:"trader"`
	Market      string `json:"market"`
	Liquidator  string `json:"liquidator"`
	Base        fp.Int `json:"base"`
	Quote       fp.Int `json:"quote"`
	Liquidity   fp.Int `json:"liquidity"`
	TakerBase   fp.Int `json:"takerBase"`
	TakerQuote  fp.Int `json:"takerQuote"`
	RealizedPnl fp.Int `json:"realizedPnl"`
}

func (e *LiquidityRemovedExchange) Kind() Kind      { return KindLiquidityRemovedExchange }
func (e *LiquidityRemovedExchange) EventMeta() Meta { return e.Meta }

type PositionChanged struct {
	Meta                   `json:"meta"`
	Trader                 string `json:"trader"`
	Market                 string `json:"market"`
	Base                   fp.Int `json:"base"`
	Quote                  fp.Int `json:"quote"`
	RealizedPnl            fp.Int `json:"realizedPnl"`
	ProtocolFee            fp.Int `json:"protocolFee"`
	BaseBalancePerShareX96 fp.Int `json:"baseBalancePerShareX96"`
	SharePriceAfterX96     fp.Int `json:"sharePriceAfterX96"`
}

func (e *PositionChanged) Kind() Kind      { return KindPositionChanged }
func (e *PositionChanged) EventMeta() Meta { return e.Meta }

// PositionLiquidated carries the liquidator fields in addition to the
// standard position-change payload. The upstream encoding guarantees they
// are present whenever this event is emitted.
type PositionLiquidated struct {
	Meta                   `json:"meta"`
	Trader                 string `json:"trader"`
	Market                 string `json:"market"`
	Liquidator             string `json:"liquidator"`
	Base                   fp.Int `json:"base"`
	Quote                  fp.Int `json:"quote"`
	RealizedPnl            fp.Int `json:"realizedPnl"`
	ProtocolFee            fp.Int `json:"protocolFee"`
	BaseBalancePerShareX96 fp.Int `json:"baseBalancePerShareX96"`
	SharePriceAfterX96     fp.Int `json:"sharePriceAfterX96"`
	LiquidationPenalty     fp.Int `json:"liquidationPenalty"`
	LiquidationReward      fp.Int `json:"liquidationReward"`
	InsuranceFundReward    fp.Int `json:"insuranceFundReward"`
}

func (e *PositionLiquidated) Kind() Kind      { return KindPositionLiquidated }
func (e *PositionLiquidated) EventMeta() Meta { return e.Meta }

type PartiallyExecuted struct {
	Meta               `json:"meta"`
	Maker              string `json:"maker"`
	Market             string `json:"market"`
	IsBid              bool   `json:"isBid"`
	BasePartial        fp.Int `json:"basePartial"`
	QuotePartial       fp.Int `json:"quotePartial"`
	PartialRealizedPnl fp.Int `json:"partialRealizedPnl"`
}

func (e *PartiallyExecuted) Kind() Kind      { return KindPartiallyExecuted }
func (e *PartiallyExecuted) EventMeta() Meta { return e.Meta }

type LimitOrderCreatedExchange struct {
	Meta           `json:"meta"`
	Trader         string `json:"trader"`
	Market         string `json:"market"`
	IsBid          bool   `json:"isBid"`
	Base           fp.Int `json:"base"`
	PriceX96       fp.Int `json:"priceX96"`
	LimitOrderType int32  `json:"limitOrderType"`
	OrderID        fp.Int `json:"orderId"`
	BaseTaker      fp.Int `json:"baseTaker"`
}

func (e *LimitOrderCreatedExchange) Kind() Kind      { return KindLimitOrderCreatedExchange }
func (e *LimitOrderCreatedExchange) EventMeta() Meta { return e.Meta }

type LimitOrderCanceledExchange struct {
	Meta       `json:"meta"`
	Trader     string `json:"trader"`
	Market     string `json:"market"`
	Liquidator string `json:"liquidator"`
	IsBid      bool   `json:"isBid"`
	OrderID    fp.Int `json:"orderId"`
}

func (e *LimitOrderCanceledExchange) Kind() Kind      { return KindLimitOrderCanceledExchange }
func (e *LimitOrderCanceledExchange) EventMeta() Meta { return e.Meta }

type LimitOrderSettled struct {
	Meta        `json:"meta"`
	Trader      string `json:"trader"`
	Market      string `json:"market"`
	Base        fp.Int `json:"base"`
	Quote       fp.Int `json:"quote"`
	RealizedPnl fp.Int `json:"realizedPnl"`
}

func (e *LimitOrderSettled) Kind() Kind      { return KindLimitOrderSettled }
func (e *LimitOrderSettled) EventMeta() Meta { return e.Meta }

type MarketClosed struct {
	Meta        `json:"meta"`
	Trader      string `json:"trader"`
	Market      string `json:"market"`
	RealizedPnl fp.Int `json:"realizedPnl"`
}

func (e *MarketClosed) Kind() Kind      { return KindMarketClosed }
func (e *MarketClosed) EventMeta() Meta { return e.Meta }

type MaxMarketsPerAccountChanged struct {
	Meta  `json:"meta"`
	Value int64 `json:"value"`
}

func (e *MaxMarketsPerAccountChanged) Kind() Kind      { return KindMaxMarketsPerAccountChanged }
func (e *MaxMarketsPerAccountChanged) EventMeta() Meta { return e.Meta }

type MaxOrdersPerAccountChanged struct {
	Meta  `json:"meta"`
	Value int64 `json:"value"`
}

func (e *MaxOrdersPerAccountChanged) Kind() Kind      { return KindMaxOrdersPerAccountChanged }
func (e *MaxOrdersPerAccountChanged) EventMeta() Meta { return e.Meta }

type ImRatioChanged struct {
	Meta  `json:"meta"`
	Value int64 `json:"value"`
}

func (e *ImRatioChanged) Kind() Kind      { return KindImRatioChanged }
func (e *ImRatioChanged) EventMeta() Meta { return e.Meta }

type MmRatioChanged struct {
	Meta  `json:"meta"`
	Value int64 `json:"value"`
}

func (e *MmRatioChanged) Kind() Kind      { return KindMmRatioChanged }
func (e *MmRatioChanged) EventMeta() Meta { return e.Meta }

type LiquidationRewardConfigChanged struct {
	Meta          `json:"meta"`
	RewardRatio   int64 `json:"rewardRatio"`
	SmoothEmaTime int64 `json:"smoothEmaTime"`
}

func (e *LiquidationRewardConfigChanged) Kind() Kind      { return KindLiquidationRewardConfigChanged }
func (e *LiquidationRewardConfigChanged) EventMeta() Meta { return e.Meta }

type ProtocolFeeRatioChanged struct {
	Meta  `json:"meta"`
	Value int64 `json:"value"`
}

func (e *ProtocolFeeRatioChanged) Kind() Kind      { return KindProtocolFeeRatioChanged }
func (e *ProtocolFeeRatioChanged) EventMeta() Meta { return e.Meta }

type MarketStatusChanged struct {
	Meta   `json:"meta"`
	Market string `json:"market"`
	Status int32  `json:"status"`
}

func (e *MarketStatusChanged) Kind() Kind      { return KindMarketStatusChanged }
func (e *MarketStatusChanged) EventMeta() Meta { return e.Meta }
