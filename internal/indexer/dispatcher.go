package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"PerpIndexer/internal/entity"
	"PerpIndexer/internal/event"
	"PerpIndexer/internal/observability"
)

// MarketRegistrar is notified when a market contract first appears so the
// ingestion layer can start consuming its event stream. Registration must
// be idempotent.
type MarketRegistrar interface {
	RegisterMarket(ctx context.Context, address string) error
}

// CompetitionWindow bounds the trading-competition profit tracking. A zero
// window disables it.
type CompetitionWindow struct {
	StartedAt  int64
	FinishedAt int64
}

// Dispatcher applies events to derived state, one event at a time. The
// caller guarantees delivery in ascending blockNumberLogIndex order;
// replaying an already applied event converges to the same state for
// every entity except additive aggregates, which the event log keys guard.
type Dispatcher struct {
	db        *StateDB
	registrar MarketRegistrar
	window    CompetitionWindow
	log       zerolog.Logger
	metrics   *observability.Metrics
}

func NewDispatcher(db *StateDB, registrar MarketRegistrar, window CompetitionWindow, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		db:        db,
		registrar: registrar,
		window:    window,
		log:       observability.NewLogger("dispatcher"),
		metrics:   metrics,
	}
}

// Apply validates, logs, and fully processes one event before returning.
func (d *Dispatcher) Apply(ctx context.Context, ev event.Event) error {
	meta := ev.EventMeta()
	if err := meta.Validate(); err != nil {
		if d.metrics != nil {
			d.metrics.EventsRejected.WithLabelValues(string(ev.Kind()), "validation").Inc()
		}
		return err
	}

	start := time.Now()

	if err := d.db.AppendLog(ctx, ev); err != nil {
		return fmt.Errorf("append %s log: %w", ev.Kind(), err)
	}

	if err := d.dispatch(ctx, ev); err != nil {
		return fmt.Errorf("apply %s %s: %w", ev.Kind(), meta.ID(), err)
	}

	if d.metrics != nil {
		d.metrics.EventsApplied.WithLabelValues(string(ev.Kind())).Inc()
		d.metrics.ApplyDuration.WithLabelValues(string(ev.Kind())).Observe(time.Since(start).Seconds())
		d.metrics.LastBlock.Set(float64(meta.BlockNumber))
		d.metrics.LastBlockLogIndex.Set(float64(meta.BlockNumberLogIndex()))
	}

	d.log.Debug().
		Str("event", string(ev.Kind())).
		Int64("block", meta.BlockNumber).
		Int64("log_index", meta.LogIndex).
		Msg("event applied")
	return nil
}

func (d *Dispatcher) dispatch(ctx context.Context, ev event.Event) error {
	switch e := ev.(type) {
	// Exchange scope.
	case *event.Deposited:
		return d.handleDeposited(ctx, e)
	case *event.Withdrawn:
		return d.handleWithdrawn(ctx, e)
	case *event.CollateralBalanceSet:
		return d.handleCollateralBalanceSet(ctx, e)
	case *event.CollateralCompensated:
		return d.handleCollateralCompensated(ctx, e)
	case *event.ProtocolFeeTransferred:
		return d.handleProtocolFeeTransferred(ctx, e)
	case *event.LiquidityAddedExchange:
		return d.handleLiquidityAddedExchange(ctx, e)
	case *event.LiquidityRemovedExchange:
		return d.handleLiquidityRemovedExchange(ctx, e)
	case *event.PositionChanged:
		return d.handlePositionChanged(ctx, e)
	case *event.PositionLiquidated:
		return d.handlePositionLiquidated(ctx, e)
	case *event.PartiallyExecuted:
		return d.handlePartiallyExecuted(ctx, e)
	case *event.LimitOrderCreatedExchange:
		return d.handleLimitOrderCreatedExchange(ctx, e)
	case *event.LimitOrderCanceledExchange:
		return d.handleLimitOrderCanceledExchange(ctx, e)
	case *event.LimitOrderSettled:
		return d.handleLimitOrderSettled(ctx, e)
	case *event.MarketClosed:
		return d.handleMarketClosed(ctx, e)
	case *event.MaxMarketsPerAccountChanged:
		return d.handleMaxMarketsPerAccountChanged(ctx, e)
	case *event.MaxOrdersPerAccountChanged:
		return d.handleMaxOrdersPerAccountChanged(ctx, e)
	case *event.ImRatioChanged:
		return d.handleImRatioChanged(ctx, e)
	case *event.MmRatioChanged:
		return d.handleMmRatioChanged(ctx, e)
	case *event.LiquidationRewardConfigChanged:
		return d.handleLiquidationRewardConfigChanged(ctx, e)
	case *event.ProtocolFeeRatioChanged:
		return d.handleProtocolFeeRatioChanged(ctx, e)
	case *event.MarketStatusChanged:
		return d.handleMarketStatusChanged(ctx, e)

	// Market scope.
	case *event.FundingPaid:
		return d.handleFundingPaid(ctx, e)
	case *event.LiquidityAddedMarket:
		return d.handleLiquidityAddedMarket(ctx, e)
	case *event.LiquidityRemovedMarket:
		return d.handleLiquidityRemovedMarket(ctx, e)
	case *event.Swapped:
		return d.handleSwapped(ctx, e)
	case *event.LimitOrderCreatedMarket, *event.LimitOrderCanceledMarket:
		// Log-only: the exchange-scope twin carries the state change.
		return nil
	case *event.PoolFeeRatioChanged:
		return d.handlePoolFeeRatioChanged(ctx, e)
	case *event.FundingMaxPremiumRatioChanged:
		return d.handleFundingMaxPremiumRatioChanged(ctx, e)
	case *event.FundingMaxElapsedSecChanged:
		return d.handleFundingMaxElapsedSecChanged(ctx, e)
	case *event.FundingRolloverSecChanged:
		return d.handleFundingRolloverSecChanged(ctx, e)
	case *event.PriceLimitConfigChanged:
		return d.handlePriceLimitConfigChanged(ctx, e)

	case *event.FundingUpdated:
		return d.handleFundingUpdated(ctx, e)

	default:
		return fmt.Errorf("unhandled event kind %s", ev.Kind())
	}
}

// inCompetition reports whether a timestamp falls inside the configured
// competition window.
func (d *Dispatcher) inCompetition(timestamp int64) bool {
	return entity.WithinPeriod(timestamp, d.window.StartedAt, d.window.FinishedAt)
}
