// Package archive ships candle upserts to ClickHouse for analytical
// retention. The archive is a best-effort sink: failures are counted and
// logged but never block event application, since the Postgres entity
// store remains the source of truth.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog"

	"PerpIndexer/internal/entity"
	"PerpIndexer/internal/observability"
)

type Config struct {
	Addr     string
	Username string
	Password string
	Database string
}

// ClickHouseArchiver writes every candle upsert into a ReplacingMergeTree
// keyed by (market, time_format, timestamp, updated_at), so replayed
// upserts collapse to the latest version at merge time.
type ClickHouseArchiver struct {
	conn    driver.Conn
	log     zerolog.Logger
	metrics *observability.Metrics
}

func NewClickHouseArchiver(ctx context.Context, cfg Config, metrics *observability.Metrics) (*ClickHouseArchiver, error) {
	if cfg.Database == "" {
		cfg.Database = "default"
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	a := &ClickHouseArchiver{
		conn:    conn,
		log:     observability.NewLogger("archive"),
		metrics: metrics,
	}
	if err := a.ensureTable(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create candles table: %w", err)
	}
	return a, nil
}

func (a *ClickHouseArchiver) ensureTable(ctx context.Context) error {
	return a.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS candles (
			market String,
			time_format Int64,
			timestamp Int64,
			open_x96 String,
			high_x96 String,
			low_x96 String,
			close_x96 String,
			base_amount String,
			quote_amount String,
			updated_at Int64,
			archived_at DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY (market, time_format, timestamp)
	`)
}

// ArchiveCandle queues one candle version for insertion. Prices stay in
// X96 string form; downstream queries divide by 2^96.
func (a *ClickHouseArchiver) ArchiveCandle(ctx context.Context, c *entity.Candle) {
	err := a.conn.AsyncInsert(ctx, `
		INSERT INTO candles (
			market, time_format, timestamp,
			open_x96, high_x96, low_x96, close_x96,
			base_amount, quote_amount, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, false,
		c.Market, c.TimeFormat, c.Timestamp,
		c.OpenX96.String(), c.HighX96.String(), c.LowX96.String(), c.CloseX96.String(),
		c.BaseAmount.String(), c.QuoteAmount.String(), c.UpdatedAt,
	)
	if err != nil {
		a.metrics.ArchiveErrors.Inc()
		a.log.Warn().Err(err).Str("market", c.Market).Int64("bucket", c.Timestamp).Msg("candle archive failed")
		return
	}
	a.metrics.ArchiveCandles.Inc()
}

func (a *ClickHouseArchiver) Close() error {
	return a.conn.Close()
}
