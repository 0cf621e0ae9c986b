// Package entity defines the derived aggregate entities the indexer
// maintains, their store kinds, and the composite-key helpers used to
// address them. Field defaults on first creation live in the statedb
// facade, not here.
package entity

import (
	fp "PerpIndexer/internal/fixedpoint"
)

// Kind identifies one logical entity table in the store.
type Kind string

const (
	KindProtocol         Kind = "protocol"
	KindTrader           Kind = "trader"
	KindTraderTakerInfo  Kind = "trader_taker_info"
	KindTraderMakerInfo  Kind = "trader_maker_info"
	KindMarket           Kind = "market"
	KindDaySummary       Kind = "day_summary"
	KindPositionHistory  Kind = "position_history"
	KindLiquidityHistory Kind = "liquidity_history"
	KindCandle           Kind = "candle"
	KindOrder            Kind = "order"
	KindOrderBook        Kind = "order_book"
	KindBidOrderRow      Kind = "bid_order_row"
	KindAskOrderRow      Kind = "ask_order_row"
	KindProfitRatio      Kind = "profit_ratio"
)

// AggregateKinds lists every mutable aggregate kind, in schema order.
func AggregateKinds() []Kind {
	return []Kind{
		KindProtocol, KindTrader, KindTraderTakerInfo, KindTraderMakerInfo,
		KindMarket, KindDaySummary, KindPositionHistory, KindLiquidityHistory,
		KindCandle, KindOrder, KindOrderBook, KindBidOrderRow,
		KindAskOrderRow, KindProfitRatio,
	}
}

// Record is implemented by every entity so the store facade can persist it
// without knowing its concrete type.
type Record interface {
	EntityKind() Kind
	EntityKey() string
}

// ProtocolID is the fixed key of the protocol singleton.
const ProtocolID = "perpdex"

// Protocol is the protocol-wide singleton aggregate. Created on first
// reference, mutated by nearly every reducer, never deleted.
type Protocol struct {
	ID                   string `json:"id"`
	Network              string `json:"network"`
	ChainID              string `json:"chainId"`
	ContractVersion      string `json:"contractVersion"`
	TakerVolume          fp.Int `json:"takerVolume"`
	MakerVolume          fp.Int `json:"makerVolume"`
	PublicMarketCount    fp.Int `json:"publicMarketCount"`
	ProtocolFee          fp.Int `json:"protocolFee"`
	InsuranceFundBalance fp.Int `json:"insuranceFundBalance"`
	MaxMarketsPerAccount int64  `json:"maxMarketsPerAccount"`
	MaxOrdersPerAccount  int64  `json:"maxOrdersPerAccount"`
	ImRatio              int64  `json:"imRatio"`
	MmRatio              int64  `json:"mmRatio"`
	RewardRatio          int64  `json:"rewardRatio"`
	SmoothEmaTime        int64  `json:"smoothEmaTime"`
	ProtocolFeeRatio     int64  `json:"protocolFeeRatio"`
	Timestamp            int64  `json:"timestamp"`
}

func (p *Protocol) EntityKind() Kind  { return KindProtocol }
func (p *Protocol) EntityKey() string { return p.ID }

// Trader holds per-address collateral and the set of markets ever touched.
// Markets is insertion-ordered and de-duplicated; PushMarket maintains it.
type Trader struct {
	Address           string   `json:"address"`
	CollateralBalance fp.Int   `json:"collateralBalance"`
	Markets           []string `json:"markets"`
	Timestamp         int64    `json:"timestamp"`
}

func (t *Trader) EntityKind() Kind  { return KindTrader }
func (t *Trader) EntityKey() string { return t.Address }

// PushMarket appends market if not already present. Linear scan is fine for
// the small per-trader market counts the protocol allows.
func (t *Trader) PushMarket(market string) {
	for _, m := range t.Markets {
		if m == market {
			return
		}
	}
	t.Markets = append(t.Markets, market)
}

// TraderTakerInfo is the taker position state for one trader in one market.
type TraderTakerInfo struct {
	Trader           string `json:"trader"`
	Market           string `json:"market"`
	BaseBalanceShare fp.Int `json:"baseBalanceShare"`
	BaseBalance      fp.Int `json:"baseBalance"`
	QuoteBalance     fp.Int `json:"quoteBalance"`
	EntryPrice       fp.Int `json:"entryPrice"`
	Timestamp        int64  `json:"timestamp"`
}

func (t *TraderTakerInfo) EntityKind() Kind  { return KindTraderTakerInfo }
func (t *TraderTakerInfo) EntityKey() string { return Join(t.Trader, t.Market) }

// TraderMakerInfo is the maker liquidity state for one trader in one market.
type TraderMakerInfo struct {
	Trader                      string `json:"trader"`
	Market                      string `json:"market"`
	Liquidity                   fp.Int `json:"liquidity"`
	CumBaseSharePerLiquidityX96 fp.Int `json:"cumBaseSharePerLiquidityX96"`
	CumQuotePerLiquidityX96     fp.Int `json:"cumQuotePerLiquidityX96"`
	Timestamp                   int64  `json:"timestamp"`
}

func (t *TraderMakerInfo) EntityKind() Kind  { return KindTraderMakerInfo }
func (t *TraderMakerInfo) EntityKey() string { return Join(t.Trader, t.Market) }

// Market is the per-market pool aggregate. BaseBalancePerShareX96 only ever
// decreases: funding deleverages in one direction per event.
type Market struct {
	Address                 string `json:"address"`
	BaseToken               string `json:"baseToken"`
	QuoteToken              string `json:"quoteToken"`
	BaseAmount              fp.Int `json:"baseAmount"`
	QuoteAmount             fp.Int `json:"quoteAmount"`
	Liquidity               fp.Int `json:"liquidity"`
	TakerVolume             fp.Int `json:"takerVolume"`
	MakerVolume             fp.Int `json:"makerVolume"`
	BaseBalancePerShareX96  fp.Int `json:"baseBalancePerShareX96"`
	SharePriceAfterX96      fp.Int `json:"sharePriceAfterX96"`
	CumBasePerLiquidityX96  fp.Int `json:"cumBasePerLiquidityX96"`
	CumQuotePerLiquidityX96 fp.Int `json:"cumQuotePerLiquidityX96"`
	PoolFeeRatio            int64  `json:"poolFeeRatio"`
	FundingMaxPremiumRatio  int64  `json:"fundingMaxPremiumRatio"`
	FundingMaxElapsedSec    int64  `json:"fundingMaxElapsedSec"`
	FundingRolloverSec      int64  `json:"fundingRolloverSec"`
	NormalOrderRatio        int64  `json:"normalOrderRatio"`
	LiquidationRatio        int64  `json:"liquidationRatio"`
	EmaNormalOrderRatio     int64  `json:"emaNormalOrderRatio"`
	EmaLiquidationRatio     int64  `json:"emaLiquidationRatio"`
	EmaSec                  int64  `json:"emaSec"`
	Status                  int32  `json:"status"`
	TimestampAdded          int64  `json:"timestampAdded"`
	Timestamp               int64  `json:"timestamp"`
}

func (m *Market) EntityKind() Kind  { return KindMarket }
func (m *Market) EntityKey() string { return m.Address }

// DaySummary accumulates realized PnL per trader per calendar day.
type DaySummary struct {
	Trader      string `json:"trader"`
	DayID       int64  `json:"dayID"`
	RealizedPnl fp.Int `json:"realizedPnl"`
	Timestamp   int64  `json:"timestamp"`
}

func (d *DaySummary) EntityKind() Kind  { return KindDaySummary }
func (d *DaySummary) EntityKey() string { return Join(d.Trader, formatInt(d.DayID)) }

// PositionHistory is a point-in-time snapshot of a trader's taker position.
// Events sharing a timestamp coalesce into one record by exact-key lookup.
type PositionHistory struct {
	Trader                 string `json:"trader"`
	Market                 string `json:"market"`
	Timestamp              int64  `json:"timestamp"`
	BaseBalanceShare       fp.Int `json:"baseBalanceShare"`
	BaseBalancePerShareX96 fp.Int `json:"baseBalancePerShareX96"`
	BaseBalance            fp.Int `json:"baseBalance"`
	QuoteBalance           fp.Int `json:"quoteBalance"`
	EntryPrice             fp.Int `json:"entryPrice"`
	RealizedPnl            fp.Int `json:"realizedPnl"`
	ProtocolFee            fp.Int `json:"protocolFee"`
}

func (p *PositionHistory) EntityKind() Kind { return KindPositionHistory }
func (p *PositionHistory) EntityKey() string {
	return Join(p.Trader, p.Market, formatInt(p.Timestamp))
}

// LiquidityHistory coalesces liquidity add/remove deltas per timestamp;
// removals carry negative deltas.
type LiquidityHistory struct {
	Trader    string `json:"trader"`
	Market    string `json:"market"`
	Timestamp int64  `json:"timestamp"`
	Base      fp.Int `json:"base"`
	Quote     fp.Int `json:"quote"`
	Liquidity fp.Int `json:"liquidity"`
}

func (l *LiquidityHistory) EntityKind() Kind { return KindLiquidityHistory }
func (l *LiquidityHistory) EntityKey() string {
	return Join(l.Trader, l.Market, formatInt(l.Timestamp))
}

// Candle is one OHLC bar. Open is fixed at first touch of the bucket,
// high/low are running extrema, close always tracks the latest sample.
type Candle struct {
	Market      string `json:"market"`
	TimeFormat  int64  `json:"timeFormat"`
	Timestamp   int64  `json:"timestamp"`
	OpenX96     fp.Int `json:"openX96"`
	HighX96     fp.Int `json:"highX96"`
	LowX96      fp.Int `json:"lowX96"`
	CloseX96    fp.Int `json:"closeX96"`
	BaseAmount  fp.Int `json:"baseAmount"`
	QuoteAmount fp.Int `json:"quoteAmount"`
	UpdatedAt   int64  `json:"updatedAt"`
}

func (c *Candle) EntityKind() Kind { return KindCandle }
func (c *Candle) EntityKey() string {
	return Join(c.Market, formatInt(c.TimeFormat), formatInt(c.Timestamp))
}

// Order side markers used in composite keys.
const (
	SideBid = "bid"
	SideAsk = "ask"
)

// SideString maps the wire isBid flag to the key marker.
func SideString(isBid bool) string {
	if isBid {
		return SideBid
	}
	return SideAsk
}

// Order is a resting limit order. Deleted entirely on cancellation.
type Order struct {
	Trader         string `json:"trader"`
	Market         string `json:"market"`
	Side           string `json:"side"`
	OrderID        fp.Int `json:"orderId"`
	PriceX96       fp.Int `json:"priceX96"`
	Volume         fp.Int `json:"volume"`
	LimitOrderType int32  `json:"limitOrderType"`
	Timestamp      int64  `json:"timestamp"`
}

func (o *Order) EntityKind() Kind { return KindOrder }
func (o *Order) EntityKey() string {
	return Join(o.Trader, o.Market, o.Side, o.OrderID.String())
}

// OrderBook is the per-market marker entity referenced by row entities.
type OrderBook struct {
	Market    string `json:"market"`
	Timestamp int64  `json:"timestamp"`
}

func (o *OrderBook) EntityKind() Kind  { return KindOrderBook }
func (o *OrderBook) EntityKey() string { return o.Market }

// OrderRow aggregates resting volume at one exact price level. Rows are
// never deleted; volume may transiently go negative when a cancel replays
// before its create is observed.
type OrderRow struct {
	Market    string `json:"market"`
	Side      string `json:"side"`
	PriceX96  fp.Int `json:"priceX96"`
	Volume    fp.Int `json:"volume"`
	OrderBook string `json:"orderBook"`
}

func (r *OrderRow) EntityKind() Kind {
	if r.Side == SideBid {
		return KindBidOrderRow
	}
	return KindAskOrderRow
}

func (r *OrderRow) EntityKey() string {
	return Join(r.Market, r.Side, r.PriceX96.String())
}

// ProfitRatio accumulates deposits and profit for one trader within one
// competition window. ProfitRatio is profit/deposit, zero when deposit is.
type ProfitRatio struct {
	Trader      string `json:"trader"`
	StartedAt   int64  `json:"startedAt"`
	FinishedAt  int64  `json:"finishedAt"`
	Deposit     fp.Int `json:"deposit"`
	Profit      fp.Int `json:"profit"`
	ProfitRatio fp.Int `json:"profitRatio"`
	Timestamp   int64  `json:"timestamp"`
}

func (p *ProfitRatio) EntityKind() Kind { return KindProfitRatio }
func (p *ProfitRatio) EntityKey() string {
	return Join(p.Trader, formatInt(p.StartedAt), formatInt(p.FinishedAt))
}

// Recompute sets ProfitRatio from the current profit and deposit.
func (p *ProfitRatio) Recompute() {
	p.ProfitRatio = p.Profit.DivOrZero(p.Deposit)
}
