package event_publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"
	"whitelabel/apps/backend/internal/events"
	"whitelabel/apps/backend/internal/model"
)

// ResolutionPublisher announces backfilled order ids to downstream consumers.
type ResolutionPublisher interface {
	PublishResolved(ctx context.Context, resolved model.ResolvedOrder) error
}

// producer is the subset of *kafka.Producer used for publishing.
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

type EventPublisher struct {
	logger        *zap.Logger
	kafkaProducer producer
	kafkaTopic    string
	now           func() time.Time
}

var _ ResolutionPublisher = (*EventPublisher)(nil)

func NewEventPublisher(kafkaBroker, kafkaTopic string, logger *zap.Logger) (*EventPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": kafkaBroker,
		"acks":              "all",
		"retries":           3,
		"retry.backoff.ms":  100,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return newEventPublisher(p, kafkaTopic, logger), nil
}

func newEventPublisher(p producer, kafkaTopic string, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{
		logger:        logger,
		kafkaProducer: p,
		kafkaTopic:    kafkaTopic,
		now:           time.Now,
	}
}

// PublishResolved sends an OrderIDResolvedEvent and waits for the broker to
// acknowledge it or for ctx to end.
func (ep *EventPublisher) PublishResolved(ctx context.Context, resolved model.ResolvedOrder) error {
	msg, err := ep.buildMessage(resolved)
	if err != nil {
		return err
	}

	// buffered so a late delivery report never blocks the producer after ctx ends
	deliveryChan := make(chan kafka.Event, 1)
	if err := ep.kafkaProducer.Produce(msg, deliveryChan); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryChan:
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				return fmt.Errorf("delivery failed: %w", ev.TopicPartition.Error)
			}
			ep.logger.Debug("Published order id resolution",
				zap.String("order_id", resolved.OrderID),
				zap.Uint64("blockchain_order_id", resolved.BlockchainOrderID))
			return nil
		default:
			return fmt.Errorf("unexpected kafka event type: %T", e)
		}
	}
}

func (ep *EventPublisher) buildMessage(resolved model.ResolvedOrder) (*kafka.Message, error) {
	payload := events.OrderIDResolvedEvent{
		EventType:         events.EventTypeOrderIDResolved,
		OrderID:           resolved.OrderID,
		BlockchainOrderID: resolved.BlockchainOrderID,
		ContractEvent:     resolved.Event,
		TxHash:            resolved.TxHash,
		BlockNumber:       resolved.BlockNumber,
		WalletAddress:     resolved.WalletAddress,
		ResolvedAt:        resolved.ResolvedAt,
		Timestamp:         ep.now().UTC(),
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resolution event: %w", err)
	}

	// Key by wallet so a wallet's events stay on one partition
	key := resolved.WalletAddress
	if key == "" {
		key = resolved.OrderID
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &ep.kafkaTopic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          value,
	}, nil
}

func (ep *EventPublisher) Close() error {
	if ep.kafkaProducer != nil {
		if remaining := ep.kafkaProducer.Flush(5000); remaining > 0 {
			ep.logger.Warn("Kafka producer closed with undelivered messages", zap.Int("remaining", remaining))
		}
		ep.kafkaProducer.Close()
	}
	return nil
}
