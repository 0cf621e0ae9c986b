package ingestion

import (
	"encoding/json"
	"fmt"
	"strings"

	"PerpIndexer/internal/event"
)

// Subjects carry the event kind as their last token:
//
//	perp.exchange.<Kind>
//	perp.market.<address>.<Kind>
//
// Payloads are JSON with chain metadata under "meta" and the event fields
// alongside it, big integers encoded as decimal strings.

// KindFromSubject extracts the event kind token from a NATS subject.
func KindFromSubject(subject string) (event.Kind, error) {
	i := strings.LastIndexByte(subject, '.')
	if i < 0 || i == len(subject)-1 {
		return "", fmt.Errorf("subject %q has no event kind token", subject)
	}
	return event.Kind(subject[i+1:]), nil
}

// ParseRaw converts a raw NATS message into a typed, validated event.
func ParseRaw(raw RawEvent) (event.Event, error) {
	kind, err := KindFromSubject(raw.Subject)
	if err != nil {
		return nil, err
	}

	ev := newEvent(kind)
	if ev == nil {
		return nil, fmt.Errorf("unknown event kind: %s", kind)
	}
	if err := json.Unmarshal(raw.Data, ev); err != nil {
		return nil, fmt.Errorf("parse %s: %w", kind, err)
	}
	if err := ev.EventMeta().Validate(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", kind, err)
	}
	return ev, nil
}

func newEvent(kind event.Kind) event.Event {
	switch kind {
	case event.KindDeposited:
		return &event.Deposited{}
	case event.KindWithdrawn:
		return &event.Withdrawn{}
	case event.KindCollateralBalanceSet:
		return &event.CollateralBalanceSet{}
	case event.KindCollateralCompensated:
		return &event.CollateralCompensated{}
	case event.KindProtocolFeeTransferred:
		return &event.ProtocolFeeTransferred{}
	case event.KindLiquidityAddedExchange:
		return &event.LiquidityAddedExchange{}
	case event.KindLiquidityRemovedExchange:
		return &event.LiquidityRemovedExchange{}
	case event.KindPositionChanged:
		return &event.PositionChanged{}
	case event.KindPositionLiquidated:
		return &event.PositionLiquidated{}
	case event.KindPartiallyExecuted:
		return &event.PartiallyExecuted{}
	case event.KindLimitOrderCreatedExchange:
		return &event.LimitOrderCreatedExchange{}
	case event.KindLimitOrderCanceledExchange:
		return &event.LimitOrderCanceledExchange{}
	case event.KindLimitOrderSettled:
		return &event.LimitOrderSettled{}
	case event.KindMarketClosed:
		return &event.MarketClosed{}
	case event.KindMaxMarketsPerAccountChanged:
		return &event.MaxMarketsPerAccountChanged{}
	case event.KindMaxOrdersPerAccountChanged:
		return &event.MaxOrdersPerAccountChanged{}
	case event.KindImRatioChanged:
		return &event.ImRatioChanged{}
	case event.KindMmRatioChanged:
		return &event.MmRatioChanged{}
	case event.KindLiquidationRewardConfigChanged:
		return &event.LiquidationRewardConfigChanged{}
	case event.KindProtocolFeeRatioChanged:
		return &event.ProtocolFeeRatioChanged{}
	case event.KindMarketStatusChanged:
		return &event.MarketStatusChanged{}
	case event.KindFundingPaid:
		return &event.FundingPaid{}
	case event.KindLiquidityAddedMarket:
		return &event.LiquidityAddedMarket{}
	case event.KindLiquidityRemovedMarket:
		return &event.LiquidityRemovedMarket{}
	case event.KindSwapped:
		return &event.Swapped{}
	case event.KindLimitOrderCreatedMarket:
		return &event.LimitOrderCreatedMarket{}
	case event.KindLimitOrderCanceledMarket:
		return &event.LimitOrderCanceledMarket{}
	case event.KindPoolFeeRatioChanged:
		return &event.PoolFeeRatioChanged{}
	case event.KindFundingMaxPremiumRatioChanged:
		return &event.FundingMaxPremiumRatioChanged{}
	case event.KindFundingMaxElapsedSecChanged:
		return &event.FundingMaxElapsedSecChanged{}
	case event.KindFundingRolloverSecChanged:
		return &event.FundingRolloverSecChanged{}
	case event.KindPriceLimitConfigChanged:
		return &event.PriceLimitConfigChanged{}
	case event.KindFundingUpdated:
		return &event.FundingUpdated{}
	default:
		return nil
	}
}
