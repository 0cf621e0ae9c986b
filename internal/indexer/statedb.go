// Package indexer derives aggregate entity state from the ordered
// on-chain event feed. The dispatcher applies one event at a time; the
// StateDB facade supplies get-or-create access to entities with their
// documented creation defaults.
package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"PerpIndexer/internal/entity"
	"PerpIndexer/internal/event"
	fp "PerpIndexer/internal/fixedpoint"
	"PerpIndexer/internal/store"
)

// CandleArchiver receives every candle upsert. Implementations must not
// block event application on archive failures; the entity store stays the
// source of truth.
type CandleArchiver interface {
	ArchiveCandle(ctx context.Context, c *entity.Candle)
}

// StateDB wraps a Store with typed get-or-create accessors. Every accessor
// returns a detached value; mutations only persist through Save.
type StateDB struct {
	store    store.Store
	archiver CandleArchiver
}

func NewStateDB(s store.Store) *StateDB {
	return &StateDB{store: s}
}

// SetArchiver attaches an optional analytical sink for candle upserts.
func (db *StateDB) SetArchiver(a CandleArchiver) {
	db.archiver = a
}

func (db *StateDB) load(ctx context.Context, kind entity.Kind, key string, dst interface{}) (bool, error) {
	data, err := db.store.Load(ctx, kind, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s %s: %w", kind, key, err)
	}
	return true, nil
}

// Save persists an entity under its own kind and key.
func (db *StateDB) Save(ctx context.Context, rec entity.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", rec.EntityKind(), rec.EntityKey(), err)
	}
	return db.store.Save(ctx, rec.EntityKind(), rec.EntityKey(), data)
}

// GetOrCreateProtocol returns the protocol singleton, creating it with all
// counters at zero on first reference.
func (db *StateDB) GetOrCreateProtocol(ctx context.Context) (*entity.Protocol, error) {
	p := &entity.Protocol{}
	if _, err := db.load(ctx, entity.KindProtocol, entity.ProtocolID, p); err != nil {
		return nil, err
	}
	p.ID = entity.ProtocolID
	return p, nil
}

// GetOrCreateTrader returns the trader, creating it with zero collateral
// and an empty market list.
func (db *StateDB) GetOrCreateTrader(ctx context.Context, address string) (*entity.Trader, error) {
	t := &entity.Trader{}
	if _, err := db.load(ctx, entity.KindTrader, address, t); err != nil {
		return nil, err
	}
	t.Address = address
	return t, nil
}

func (db *StateDB) GetOrCreateTraderTakerInfo(ctx context.Context, trader, market string) (*entity.TraderTakerInfo, error) {
	t := &entity.TraderTakerInfo{}
	key := entity.Join(trader, market)
	if _, err := db.load(ctx, entity.KindTraderTakerInfo, key, t); err != nil {
		return nil, err
	}
	t.Trader = trader
	t.Market = market
	return t, nil
}

func (db *StateDB) GetOrCreateTraderMakerInfo(ctx context.Context, trader, market string) (*entity.TraderMakerInfo, error) {
	t := &entity.TraderMakerInfo{}
	key := entity.Join(trader, market)
	if _, err := db.load(ctx, entity.KindTraderMakerInfo, key, t); err != nil {
		return nil, err
	}
	t.Trader = trader
	t.Market = market
	return t, nil
}

// GetOrCreateMarket returns the market aggregate for a contract address,
// creating it with every balance and config field at zero.
func (db *StateDB) GetOrCreateMarket(ctx context.Context, address string) (*entity.Market, error) {
	m := &entity.Market{}
	if _, err := db.load(ctx, entity.KindMarket, address, m); err != nil {
		return nil, err
	}
	m.Address = address
	return m, nil
}

func (db *StateDB) GetOrCreateDaySummary(ctx context.Context, trader string, timestamp int64) (*entity.DaySummary, error) {
	d := &entity.DaySummary{}
	dayID := entity.DayID(timestamp)
	key := entity.Join(trader, formatInt64(dayID))
	if _, err := db.load(ctx, entity.KindDaySummary, key, d); err != nil {
		return nil, err
	}
	d.Trader = trader
	d.DayID = dayID
	return d, nil
}

// GetOrCreatePositionHistory coalesces by exact timestamp: a second event
// in the same second folds into the existing record.
func (db *StateDB) GetOrCreatePositionHistory(ctx context.Context, trader, market string, timestamp int64) (*entity.PositionHistory, error) {
	p := &entity.PositionHistory{}
	key := entity.Join(trader, market, formatInt64(timestamp))
	if _, err := db.load(ctx, entity.KindPositionHistory, key, p); err != nil {
		return nil, err
	}
	p.Trader = trader
	p.Market = market
	p.Timestamp = timestamp
	return p, nil
}

func (db *StateDB) GetOrCreateLiquidityHistory(ctx context.Context, trader, market string, timestamp int64) (*entity.LiquidityHistory, error) {
	l := &entity.LiquidityHistory{}
	key := entity.Join(trader, market, formatInt64(timestamp))
	if _, err := db.load(ctx, entity.KindLiquidityHistory, key, l); err != nil {
		return nil, err
	}
	l.Trader = trader
	l.Market = market
	l.Timestamp = timestamp
	return l, nil
}

func (db *StateDB) GetOrCreateOrder(ctx context.Context, trader, market, side string, orderID fp.Int) (*entity.Order, error) {
	o := &entity.Order{}
	key := entity.Join(trader, market, side, orderID.String())
	if _, err := db.load(ctx, entity.KindOrder, key, o); err != nil {
		return nil, err
	}
	o.Trader = trader
	o.Market = market
	o.Side = side
	o.OrderID = orderID
	return o, nil
}

// DeleteOrder removes a resting order. Absent orders are a no-op.
func (db *StateDB) DeleteOrder(ctx context.Context, o *entity.Order) error {
	return db.store.Remove(ctx, o.EntityKind(), o.EntityKey())
}

func (db *StateDB) GetOrCreateOrderBook(ctx context.Context, market string) (*entity.OrderBook, error) {
	b := &entity.OrderBook{}
	if _, err := db.load(ctx, entity.KindOrderBook, market, b); err != nil {
		return nil, err
	}
	b.Market = market
	return b, nil
}

func (db *StateDB) GetOrCreateOrderRow(ctx context.Context, market, side string, priceX96 fp.Int) (*entity.OrderRow, error) {
	r := &entity.OrderRow{Side: side}
	key := entity.Join(market, side, priceX96.String())
	if _, err := db.load(ctx, r.EntityKind(), key, r); err != nil {
		return nil, err
	}
	r.Market = market
	r.Side = side
	r.PriceX96 = priceX96
	r.OrderBook = market
	return r, nil
}

func (db *StateDB) GetOrCreateProfitRatio(ctx context.Context, trader string, startedAt, finishedAt int64) (*entity.ProfitRatio, error) {
	p := &entity.ProfitRatio{}
	key := entity.Join(trader, formatInt64(startedAt), formatInt64(finishedAt))
	if _, err := db.load(ctx, entity.KindProfitRatio, key, p); err != nil {
		return nil, err
	}
	p.Trader = trader
	p.StartedAt = startedAt
	p.FinishedAt = finishedAt
	return p, nil
}

// logRecord is the stored shape of one event-log row.
type logRecord struct {
	BlockNumberLogIndex int64       `json:"blockNumberLogIndex"`
	Timestamp           int64       `json:"timestamp"`
	Event               event.Event `json:"event"`
}

// AppendLog writes the event to its write-once log table, keyed by
// txHash-logIndex so replays overwrite rather than duplicate.
func (db *StateDB) AppendLog(ctx context.Context, ev event.Event) error {
	meta := ev.EventMeta()
	rec := logRecord{
		BlockNumberLogIndex: meta.BlockNumberLogIndex(),
		Timestamp:           meta.Timestamp,
		Event:               ev,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode log %s: %w", ev.Kind(), err)
	}
	return db.store.Save(ctx, LogKind(ev.Kind()), meta.ID(), data)
}

func formatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}

// LogKind maps an event kind to its log-table entity kind,
// e.g. LiquidityAddedExchange becomes log_liquidity_added_exchange.
func LogKind(k event.Kind) entity.Kind {
	var b strings.Builder
	b.WriteString("log")
	for _, c := range string(k) {
		if c >= 'A' && c <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(c - 'A' + 'a')
		} else {
			b.WriteRune(c)
		}
	}
	return entity.Kind(b.String())
}
