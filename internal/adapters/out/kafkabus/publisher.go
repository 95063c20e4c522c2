// Package kafkabus publishes order lifecycle events to Kafka. Events are
// keyed by order ID so all transitions of one order land on the same
// partition and consumers see them in order.
package kafkabus

import (
	"context"
	"encoding/json"

	"marketplace/internal/core/ports"
	"marketplace/internal/pkg/errs"

	"github.com/segmentio/kafka-go"
)

// Publisher writes order events to a single Kafka topic.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for the given broker and topic.
func NewPublisher(brokerAddress, topic string) (*Publisher, error) {
	if brokerAddress == "" {
		return nil, errs.NewValueIsRequiredError("broker address")
	}
	if topic == "" {
		return nil, errs.NewValueIsRequiredError("topic")
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokerAddress),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}, nil
}

// PublishOrderStatusChanged emits one transition event keyed by order ID.
func (p *Publisher) PublishOrderStatusChanged(ctx context.Context, event ports.OrderStatusChanged) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
	})
	if err != nil {
		return errs.NewUpstreamUnavailableError("kafka", err)
	}

	return nil
}

// Close flushes buffered messages and releases the connection.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
