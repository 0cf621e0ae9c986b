package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"PerpIndexer/internal/entity"
	"PerpIndexer/internal/observability"
	"PerpIndexer/internal/store"
)

// registryKind persists the set of registered market contracts so
// consumers re-attach after a restart.
const registryKind = entity.Kind("market_registry")

const registryKey = "markets"

type registryRecord struct {
	Addresses []string `json:"addresses"`
}

// Registrar attaches a per-market JetStream consumer the first time a
// market contract is announced. Registration is idempotent per address
// and survives restarts through the entity store.
type Registrar struct {
	sub     *Subscriber
	store   store.Store
	mu      sync.Mutex
	markets map[string]struct{}
	log     zerolog.Logger
	metrics *observability.Metrics
}

func NewRegistrar(sub *Subscriber, st store.Store, metrics *observability.Metrics) *Registrar {
	return &Registrar{
		sub:     sub,
		store:   st,
		markets: make(map[string]struct{}),
		log:     observability.NewLogger("registrar"),
		metrics: metrics,
	}
}

// RegisterMarket subscribes to the market's subjects. Repeat calls for a
// known address are no-ops.
func (r *Registrar) RegisterMarket(ctx context.Context, address string) error {
	if address == "" {
		return errors.New("register market: empty address")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.markets[address]; ok {
		return nil
	}

	if err := r.sub.SubscribeMarket(ctx, address); err != nil {
		return fmt.Errorf("register market %s: %w", address, err)
	}
	r.markets[address] = struct{}{}
	r.metrics.MarketsTracked.Set(float64(len(r.markets)))

	if err := r.persist(ctx); err != nil {
		return fmt.Errorf("register market %s: %w", address, err)
	}

	r.log.Info().Str("market", address).Int("tracked", len(r.markets)).Msg("market registered")
	return nil
}

// Restore re-attaches consumers for every market registered before the
// last shutdown.
func (r *Registrar) Restore(ctx context.Context) error {
	data, err := r.store.Load(ctx, registryKind, registryKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore markets: %w", err)
	}

	var rec registryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("restore markets: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, addr := range rec.Addresses {
		if _, ok := r.markets[addr]; ok {
			continue
		}
		if err := r.sub.SubscribeMarket(ctx, addr); err != nil {
			return fmt.Errorf("restore market %s: %w", addr, err)
		}
		r.markets[addr] = struct{}{}
	}
	r.metrics.MarketsTracked.Set(float64(len(r.markets)))
	r.log.Info().Int("tracked", len(r.markets)).Msg("market consumers restored")
	return nil
}

// persist is called with r.mu held.
func (r *Registrar) persist(ctx context.Context) error {
	rec := registryRecord{Addresses: make([]string, 0, len(r.markets))}
	for addr := range r.markets {
		rec.Addresses = append(rec.Addresses, addr)
	}
	sort.Strings(rec.Addresses)

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.store.Save(ctx, registryKind, registryKey, data)
}

// RegistryKind exposes the registry's store kind for table provisioning.
func RegistryKind() entity.Kind {
	return registryKind
}
