// Package ingestion receives raw chain events from NATS JetStream and
// converts them into typed events for the single-threaded dispatch loop.
// Exchange-scope events arrive on a fixed subject tree; market-scope
// events arrive on per-market subjects whose consumers are registered
// dynamically when a MarketStatusChanged event announces the market.
package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"PerpIndexer/internal/observability"
)

const (
	// StreamExchange carries every exchange-contract event.
	StreamExchange = "PERP_EXCHANGE"
	// StreamMarkets carries events from all market contracts; each
	// registered market gets its own filtered durable consumer.
	StreamMarkets = "PERP_MARKETS"

	subjectExchange     = "perp.exchange.>"
	subjectMarketPrefix = "perp.market."
)

// RawEvent is a received-but-untyped message, ready for ParseRaw.
type RawEvent struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	AckFunc   func() // ACK after the event is applied and persisted
	NakFunc   func() // NAK on failure so JetStream redelivers
}

// Subscriber owns the JetStream consumers feeding the dispatch loop.
type Subscriber struct {
	js         jetstream.JetStream
	eventChan  chan<- RawEvent
	consumers  []jetstream.ConsumeContext
	instanceID string
	log        zerolog.Logger
	metrics    *observability.Metrics
}

func NewSubscriber(js jetstream.JetStream, eventChan chan<- RawEvent, metrics *observability.Metrics) *Subscriber {
	return &Subscriber{
		js:         js,
		eventChan:  eventChan,
		instanceID: uuid.NewString(),
		log:        observability.NewLogger("ingestion"),
		metrics:    metrics,
	}
}

// InstanceID tags this subscriber's consumers in logs. Durable consumer
// names stay stable across restarts; the instance id does not.
func (s *Subscriber) InstanceID() string {
	return s.instanceID
}

// SubscribeExchange attaches the durable consumer for exchange-scope
// subjects. Explicit ACK, max_deliver=5, ack_wait=30s.
func (s *Subscriber) SubscribeExchange(ctx context.Context) error {
	return s.subscribe(ctx, StreamExchange, jetstream.ConsumerConfig{
		Durable:       "indexer-exchange",
		FilterSubject: subjectExchange,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
}

// SubscribeMarket attaches a durable consumer filtered to one market
// contract's subjects.
func (s *Subscriber) SubscribeMarket(ctx context.Context, address string) error {
	return s.subscribe(ctx, StreamMarkets, jetstream.ConsumerConfig{
		Durable:       "indexer-market-" + address,
		FilterSubject: subjectMarketPrefix + address + ".>",
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
}

func (s *Subscriber) subscribe(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, stream, cfg)
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", cfg.Durable, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		s.metrics.NATSMessages.WithLabelValues(stream).Inc()
		raw := RawEvent{
			Subject:   msg.Subject(),
			Data:      msg.Data(),
			Timestamp: time.Now(),
			AckFunc:   func() { msg.Ack() },
			NakFunc:   func() { msg.Nak() },
		}

		select {
		case s.eventChan <- raw:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", cfg.Durable, err)
	}

	s.consumers = append(s.consumers, cc)
	s.log.Info().
		Str("stream", stream).
		Str("consumer", cfg.Durable).
		Str("filter", cfg.FilterSubject).
		Str("instance_id", s.instanceID).
		Msg("subscribed")
	return nil
}

// Stop drains all consumers.
func (s *Subscriber) Stop() {
	for _, cc := range s.consumers {
		cc.Stop()
	}
	s.log.Info().Msg("NATS consumers stopped")
}

// EnsureStreams creates the JetStream streams if they don't exist.
// FileStorage, limits retention, 72h max age.
func EnsureStreams(ctx context.Context, js jetstream.JetStream) error {
	log := observability.NewLogger("ingestion")
	streams := []jetstream.StreamConfig{
		{
			Name:      StreamExchange,
			Subjects:  []string{subjectExchange},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      StreamMarkets,
			Subjects:  []string{subjectMarketPrefix + ">"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
	}

	for _, cfg := range streams {
		if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
			return fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		log.Info().Str("stream", cfg.Name).Msg("stream ensured")
	}
	return nil
}

// ConnectNATS establishes a NATS connection and returns a JetStream context.
func ConnectNATS(url string) (*nats.Conn, jetstream.JetStream, error) {
	log := observability.NewLogger("nats")
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
