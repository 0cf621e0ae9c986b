// Package event defines the typed on-chain events the indexer consumes and
// the chain metadata every event carries. Events are trusted inputs,
// delivered in a single global total order: ascending block number, then
// ascending log index within a block.
package event

import (
	"fmt"
)

// Kind is the event discriminant. Values double as NATS subject tokens and
// as the suffix of the write-once log-entity table for that event.
type Kind string

const (
	// Exchange-scope events.
	KindDeposited                      Kind = "Deposited"
	KindWithdrawn                      Kind = "Withdrawn"
	KindCollateralBalanceSet           Kind = "CollateralBalanceSet"
	KindCollateralCompensated          Kind = "CollateralCompensated"
	KindProtocolFeeTransferred         Kind = "ProtocolFeeTransferred"
	KindLiquidityAddedExchange         Kind = "LiquidityAddedExchange"
	KindLiquidityRemovedExchange       Kind = "LiquidityRemovedExchange"
	KindPositionChanged                Kind = "PositionChanged"
	KindPositionLiquidated             Kind = "PositionLiquidated"
	KindPartiallyExecuted              Kind = "PartiallyExecuted"
	KindLimitOrderCreatedExchange      Kind = "LimitOrderCreatedExchange"
	KindLimitOrderCanceledExchange     Kind = "LimitOrderCanceledExchange"
	KindLimitOrderSettled              Kind = "LimitOrderSettled"
	KindMarketClosed                   Kind = "MarketClosed"
	KindMaxMarketsPerAccountChanged    Kind = "MaxMarketsPerAccountChanged"
	KindMaxOrdersPerAccountChanged     Kind = "MaxOrdersPerAccountChanged"
	KindImRatioChanged                 Kind = "ImRatioChanged"
	KindMmRatioChanged                 Kind = "MmRatioChanged"
	KindLiquidationRewardConfigChanged Kind = "LiquidationRewardConfigChanged"
	KindProtocolFeeRatioChanged        Kind = "ProtocolFeeRatioChanged"
	KindMarketStatusChanged            Kind = "MarketStatusChanged"

	// Market-scope events, emitted by individual market contracts.
	KindFundingPaid                   Kind = "FundingPaid"
	KindLiquidityAddedMarket          Kind = "LiquidityAddedMarket"
	KindLiquidityRemovedMarket        Kind = "LiquidityRemovedMarket"
	KindSwapped                       Kind = "Swapped"
	KindLimitOrderCreatedMarket       Kind = "LimitOrderCreatedMarket"
	KindLimitOrderCanceledMarket      Kind = "LimitOrderCanceledMarket"
	KindPoolFeeRatioChanged           Kind = "PoolFeeRatioChanged"
	KindFundingMaxPremiumRatioChanged Kind = "FundingMaxPremiumRatioChanged"
	KindFundingMaxElapsedSecChanged   Kind = "FundingMaxElapsedSecChanged"
	KindFundingRolloverSecChanged     Kind = "FundingRolloverSecChanged"
	KindPriceLimitConfigChanged       Kind = "PriceLimitConfigChanged"

	// Legacy exchange event retained for the funding-rate audit trail.
	KindFundingUpdated Kind = "FundingUpdated"
)

// AllKinds lists every event kind, exchange scope first. Used to
// provision the per-kind log tables.
func AllKinds() []Kind {
	return []Kind{
		KindDeposited, KindWithdrawn, KindCollateralBalanceSet,
		KindCollateralCompensated, KindProtocolFeeTransferred,
		KindLiquidityAddedExchange, KindLiquidityRemovedExchange,
		KindPositionChanged, KindPositionLiquidated, KindPartiallyExecuted,
		KindLimitOrderCreatedExchange, KindLimitOrderCanceledExchange,
		KindLimitOrderSettled, KindMarketClosed,
		KindMaxMarketsPerAccountChanged, KindMaxOrdersPerAccountChanged,
		KindImRatioChanged, KindMmRatioChanged,
		KindLiquidationRewardConfigChanged, KindProtocolFeeRatioChanged,
		KindMarketStatusChanged,
		KindFundingPaid, KindLiquidityAddedMarket, KindLiquidityRemovedMarket,
		KindSwapped, KindLimitOrderCreatedMarket, KindLimitOrderCanceledMarket,
		KindPoolFeeRatioChanged, KindFundingMaxPremiumRatioChanged,
		KindFundingMaxElapsedSecChanged, KindFundingRolloverSecChanged,
		KindPriceLimitConfigChanged,
		KindFundingUpdated,
	}
}

// MaxLogCount bounds log indexes per block for the blockNumberLogIndex
// sort key. Overflow beyond this bound is out of contract.
const MaxLogCount = 10000

// Meta is the chain metadata common to every event.
type Meta struct {
	BlockNumber int64  `json:"blockNumber"`
	LogIndex    int64  `json:"logIndex"`
	TxHash      string `json:"txHash"`
	Timestamp   int64  `json:"timestamp"`
	Address     string `json:"address"`
}

// ID is the write-once log-entity key: txHash-logIndex.
func (m Meta) ID() string {
	return fmt.Sprintf("%s-%d", m.TxHash, m.LogIndex)
}

// BlockNumberLogIndex is the monotonic chronological sort key across blocks.
func (m Meta) BlockNumberLogIndex() int64 {
	return m.BlockNumber*MaxLogCount + m.LogIndex
}

// Validate rejects events missing the metadata every reducer relies on.
func (m Meta) Validate() error {
	if m.TxHash == "" {
		return fmt.Errorf("event meta: empty txHash")
	}
	if m.BlockNumber < 0 {
		return fmt.Errorf("event meta: negative block number %d", m.BlockNumber)
	}
	if m.LogIndex < 0 || m.LogIndex >= MaxLogCount {
		return fmt.Errorf("event meta: log index %d out of range", m.LogIndex)
	}
	return nil
}

// Event is implemented by every typed event payload.
type Event interface {
	Kind() Kind
	EventMeta() Meta
}
