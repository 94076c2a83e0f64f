package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"p2p-ramp.backend/internal/domain/repositories"
	"p2p-ramp.backend/pkg/logger"
)

// DefaultTopic carries transaction lifecycle events.
const DefaultTopic = "p2p.transactions"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per lifecycle transition, keyed by
// transaction id so a transaction's events stay in partition order.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher builds a synchronous producer for brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
	}
	logger.Info(context.Background(), "Kafka publisher created", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return &KafkaPublisher{writer: writer, topic: topic}
}

func (p *KafkaPublisher) PublishTransactionEvent(ctx context.Context, event repositories.TransactionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.TransactionID.String()),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("transaction." + string(event.Status))},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write to %s: %w", p.topic, err)
	}

	logger.Debug(ctx, "Transaction event published",
		zap.String("topic", p.topic),
		zap.String("transaction_id", event.TransactionID.String()),
		zap.String("status", string(event.Status)),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher stands in when no brokers are configured; events only reach
// the log.
type LogPublisher struct{}

func (LogPublisher) PublishTransactionEvent(ctx context.Context, event repositories.TransactionEvent) error {
	logger.Info(ctx, "Transaction event",
		zap.String("transaction_id", event.TransactionID.String()),
		zap.String("status", string(event.Status)),
		zap.String("cancel_reason", string(event.CancelReason)),
	)
	return nil
}
