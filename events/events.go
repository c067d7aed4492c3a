// Package events publishes the transactions recorded by an account to a
// message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/etnz/brokerage"
	"github.com/segmentio/kafka-go"
)

// DefaultTopic is the topic transactions are published to when none is set.
const DefaultTopic = "brokerage.transactions"

// Event is the message published for every recorded transaction.
type Event struct {
	UserID      string                `json:"user_id"`
	Currency    string                `json:"currency"`
	Transaction brokerage.Transaction `json:"transaction"`
}

// Publisher publishes account events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) error { return nil }
func (discard) Close() error                         { return nil }

// messageWriter is the part of kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes events as JSON messages keyed by user id, so that
// the events of one account stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher returns a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

// Publish writes e synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := Message(e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("cannot publish transaction %s: %w", e.Transaction.ID(), err)
	}
	return nil
}

// Close flushes pending messages and releases the connections.
func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// Message returns the kafka message carrying e.
func Message(e Event) (kafka.Message, error) {
	if e.Transaction == nil {
		return kafka.Message{}, fmt.Errorf("event of %q has no transaction", e.UserID)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("cannot encode transaction %s: %w", e.Transaction.ID(), err)
	}
	return kafka.Message{
		Key:   []byte(e.UserID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Transaction.What())},
		},
	}, nil
}
