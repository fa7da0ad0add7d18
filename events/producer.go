// Package events publishes prediction events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"bikebuyers/monitoring"
)

// messageWriter is the subset of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer sends prediction events to a topic, keyed by event id.
type Producer struct {
	writer messageWriter
}

// NewProducer creates an async producer; delivery errors surface in the
// writer's logs, not on the request path.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			Async:        true,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *Producer) Name() string { return "kafka" }

// ObservePrediction publishes event.
func (p *Producer) ObservePrediction(ctx context.Context, event monitoring.PredictionEvent) error {
	msg, err := eventMessage(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func eventMessage(event monitoring.PredictionEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(event.ID),
		Value: data,
		Time:  event.Timestamp,
	}, nil
}

// Close flushes pending messages.
func (p *Producer) Close() error {
	return p.writer.Close()
}
