package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the indexer.
type Metrics struct {
	// --- Event processing ---
	EventsApplied     *prometheus.CounterVec
	EventsRejected    *prometheus.CounterVec
	ApplyDuration     *prometheus.HistogramVec
	LastBlock         prometheus.Gauge
	LastBlockLogIndex prometheus.Gauge

	// --- Ingestion ---
	NATSMessages   *prometheus.CounterVec
	ParseErrors    *prometheus.CounterVec
	MarketsTracked prometheus.Gauge

	// --- Store ---
	StoreOps      *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec
	StoreErrors   *prometheus.CounterVec

	// --- Derived state ---
	CandlesWritten   *prometheus.CounterVec
	OrderRowsTouched *prometheus.CounterVec
	ProfitRatios     prometheus.Counter

	// --- Archive ---
	ArchiveCandles prometheus.Counter
	ArchiveErrors  prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	applyBuckets := []float64{
		0.00005, 0.0001, 0.00025, 0.0005, 0.001,
		0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
	}

	storeBuckets := []float64{
		0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25,
	}

	return &Metrics{
		EventsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perpidx_events_applied_total",
			Help: "Events fully applied to derived state",
		}, []string{"event_type"}),

		EventsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perpidx_events_rejected_total",
			Help: "Events rejected before apply (parse, validation)",
		}, []string{"event_type", "reason"}),

		ApplyDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "perpidx_event_apply_duration_seconds",
			Help:    "Time to apply a single event including store writes",
			Buckets: applyBuckets,
		}, []string{"event_type"}),

		LastBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "perpidx_last_block",
			Help: "Block number of the last applied event",
		}),

		LastBlockLogIndex: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "perpidx_last_block_log_index",
			Help: "blockNumberLogIndex of the last applied event",
		}),

		NATSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perpidx_nats_messages_total",
			Help: "Messages received per stream",
		}, []string{"stream"}),

		ParseErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perpidx_parse_errors_total",
			Help: "Messages that failed to parse into a typed event",
		}, []string{"event_type"}),

		MarketsTracked: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "perpidx_markets_tracked",
			Help: "Market contracts with a live consumer",
		}),

		StoreOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perpidx_store_ops_total",
			Help: "Store operations by kind",
		}, []string{"op", "entity_kind"}),

		StoreDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "perpidx_store_op_duration_seconds",
			Help:    "Store operation latency",
			Buckets: storeBuckets,
		}, []string{"op"}),

		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perpidx_store_errors_total",
			Help: "Store operation errors",
		}, []string{"op"}),

		CandlesWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perpidx_candles_written_total",
			Help: "Candle upserts by interval",
		}, []string{"interval"}),

		OrderRowsTouched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "perpidx_order_rows_touched_total",
			Help: "Order book row updates by side",
		}, []string{"side"}),

		ProfitRatios: promauto.NewCounter(prometheus.CounterOpts{
			Name: "perpidx_profit_ratios_recomputed_total",
			Help: "Competition profit ratio recomputations",
		}),

		ArchiveCandles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "perpidx_archive_candles_total",
			Help: "Candles shipped to the ClickHouse archive",
		}),

		ArchiveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "perpidx_archive_errors_total",
			Help: "ClickHouse archive write errors",
		}),
	}
}
