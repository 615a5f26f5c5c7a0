package event

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const envelopeVersion = 1

// Publisher writes transition events to kafka. A nil Publisher is a
// valid no-op, so callers never branch on whether a broker is
// configured, and publish failures are logged, never returned: a missed
// notification must not roll back a settled transition.
type Publisher struct {
	w        *kafka.Writer
	producer string
}

func NewPublisher(brokers []string, topic, producer string) *Publisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
		producer: producer,
	}
}

func (p *Publisher) Publish(ctx context.Context, eventType, correlationID string, payload interface{}) {
	if p == nil || p.w == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("event: marshal %s payload: %v", eventType, err)
		return
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  envelopeVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}
	body, err := json.Marshal(env)
	if err != nil {
		log.Printf("event: marshal %s envelope: %v", eventType, err)
		return
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(correlationID),
		Value: body,
		Time:  env.OccurredAt,
	}); err != nil {
		log.Printf("event: publish %s: %v", eventType, err)
	}
}

func (p *Publisher) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}
