// Package journal publishes committed transitions to Kafka for fleet-side
// bookkeeping. With no brokers configured the journal is a no-op.
package journal

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
)

// Record is one committed transition.
type Record struct {
	Sequence uint64          `json:"sequence"`
	Event    model.EventType `json:"event"`
	From     model.State     `json:"from"`
	To       model.State     `json:"to"`
	Balance  int64           `json:"balance"`
	Epoch    uint64          `json:"epoch"`
}

// Journal receives committed transitions. Publishing is best-effort:
// failures are logged and never fail the transition itself.
type Journal interface {
	Publish(ctx context.Context, rec Record)
	Close() error
}

// Nop discards records.
type Nop struct{}

func (Nop) Publish(context.Context, Record) {}
func (Nop) Close() error                    { return nil }

// Kafka writes records as JSON messages, keyed by sequence ordering via a
// single partition-agnostic writer.
type Kafka struct {
	w *kafka.Writer
}

// NewKafka builds a journal for the given brokers and topic.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}}
}

func (k *Kafka) Publish(ctx context.Context, rec Record) {
	b, err := json.Marshal(rec)
	if err != nil {
		obs.Logger.Error("journal_marshal_error", "error", err)
		return
	}
	if err := k.w.WriteMessages(ctx, kafka.Message{Value: b}); err != nil {
		obs.Logger.Error("journal_publish_error", "error", err)
	}
}

func (k *Kafka) Close() error { return k.w.Close() }
