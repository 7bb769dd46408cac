package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/fulfillment"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/quote"
)

// Sequencer hands out per-partition sequence numbers for enveloped events.
type Sequencer interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

type amqpChannel interface {
	exchangeDeclarer
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	mu                 sync.Mutex
	ch                 amqpChannel
	seq                Sequencer
	publishEnveloped   bool
	producerIdentifier string
	now                func() time.Time
}

type PublisherOptions struct {
	PublishEnveloped bool
	Producer         string
}

func NewPublisher(conn *amqp.Connection, seq Sequencer, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return newPublisher(ch, seq, opts)
}

func newPublisher(ch amqpChannel, seq Sequencer, opts PublisherOptions) (*Publisher, error) {
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	producer := opts.Producer
	if producer == "" {
		producer = rentalServiceName
	}

	return &Publisher{
		ch:                 ch,
		seq:                seq,
		publishEnveloped:   opts.PublishEnveloped,
		producerIdentifier: producer,
		now:                func() time.Time { return time.Now().UTC() },
	}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

type EventMeta struct {
	CorrelationID string
	CausationID   string
	PartitionKey  string
}

func metaFrom(ctx context.Context, partitionKey string) EventMeta {
	correlationID := CorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	return EventMeta{CorrelationID: correlationID, PartitionKey: partitionKey}
}

// PublishQuoteCreated announces a stored quote, partitioned by quote id.
func (p *Publisher) PublishQuoteCreated(ctx context.Context, q quote.Quote) error {
	timestamp := p.now()
	payload := quoteCreatedPayload(q, timestamp)

	if !p.publishEnveloped {
		body, err := json.Marshal(LegacyQuoteCreated{EventType: EventTypeQuoteCreated, QuoteCreatedPayload: payload})
		if err != nil {
			return fmt.Errorf("marshal QuoteCreated: %w", err)
		}
		return p.publishJSON(ctx, QuoteCreatedRoutingKey, body)
	}

	envelope, err := p.sequencedEnvelope(ctx, metaFrom(ctx, q.ID), EventTypeQuoteCreated, quoteCreatedSchema, timestamp)
	if err != nil {
		return err
	}

	env := QuoteCreatedEvent{EventEnvelope: envelope, Payload: payload}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal QuoteCreated envelope: %w", err)
	}
	return p.publishJSON(ctx, QuoteCreatedRoutingKey, body)
}

// PublishFulfillmentPlanned announces a generated pull/partner plan. Plans
// are not stored, so each one gets a fresh id that doubles as partition key.
func (p *Publisher) PublishFulfillmentPlanned(ctx context.Context, res fulfillment.AllocationResult) error {
	timestamp := p.now()
	planID := uuid.NewString()
	payload := fulfillmentPlannedPayload(planID, res, timestamp)

	if !p.publishEnveloped {
		body, err := json.Marshal(LegacyFulfillmentPlanned{EventType: EventTypeFulfillmentPlanned, FulfillmentPlannedPayload: payload})
		if err != nil {
			return fmt.Errorf("marshal FulfillmentPlanned: %w", err)
		}
		return p.publishJSON(ctx, FulfillmentPlannedRoutingKey, body)
	}

	envelope, err := p.sequencedEnvelope(ctx, metaFrom(ctx, planID), EventTypeFulfillmentPlanned, fulfillmentPlannedSchema, timestamp)
	if err != nil {
		return err
	}

	env := FulfillmentPlannedEvent{EventEnvelope: envelope, Payload: payload}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal FulfillmentPlanned envelope: %w", err)
	}
	return p.publishJSON(ctx, FulfillmentPlannedRoutingKey, body)
}

// sequencedEnvelope validates the envelope before reserving a sequence so an
// event that will never be sent does not consume one.
func (p *Publisher) sequencedEnvelope(ctx context.Context, meta EventMeta, name, schema string, occurredAt time.Time) (EventEnvelope, error) {
	env := newEnvelope(meta, 0, p.producerIdentifier, name, schema, occurredAt)
	if err := env.Validate(name, 1); err != nil {
		return EventEnvelope{}, fmt.Errorf("%s envelope: %w", name, err)
	}
	seq, err := p.seq.NextSequence(ctx, meta.PartitionKey)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("reserve sequence: %w", err)
	}
	env.Sequence = seq
	return env, nil
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func newEnvelope(meta EventMeta, seq int64, producer, name, schema string, occurredAt time.Time) EventEnvelope {
	return EventEnvelope{
		EventName:     name,
		EventVersion:  1,
		EventID:       uuid.NewString(),
		CorrelationID: meta.CorrelationID,
		CausationID:   meta.CausationID,
		Producer:      producer,
		PartitionKey:  meta.PartitionKey,
		Sequence:      seq,
		OccurredAt:    occurredAt,
		Schema:        schema,
	}
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishQuoteCreated(context.Context, quote.Quote) error { return nil }

func (NopPublisher) PublishFulfillmentPlanned(context.Context, fulfillment.AllocationResult) error {
	return nil
}
