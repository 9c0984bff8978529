package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Writer is the subset of kafka.Writer the forwarder needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder streams dispatched events to a Kafka topic, keyed by subject
// id so every event for one application lands on the same partition.
type KafkaForwarder struct {
	writer Writer
	logger *zap.Logger
}

// writeBatchTimeout bounds how long a synchronous write waits for more
// messages to fill a batch. kafka-go defaults to one second, which would be
// added to every request that publishes an event.
const writeBatchTimeout = 10 * time.Millisecond

// NewKafkaForwarder builds a forwarder writing to topic on brokers.
func NewKafkaForwarder(brokers []string, topic string, logger *zap.Logger) *KafkaForwarder {
	return NewKafkaForwarderWithWriter(newKafkaWriter(brokers, topic), logger)
}

func newKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           writeBatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaForwarderWithWriter allows injecting a test writer.
func NewKafkaForwarderWithWriter(w Writer, logger *zap.Logger) *KafkaForwarder {
	return &KafkaForwarder{writer: w, logger: logger}
}

// Register subscribes the forwarder to the given event types, or to every
// event when none are given.
func (f *KafkaForwarder) Register(dispatcher Dispatcher, types ...EventType) {
	if len(types) == 0 {
		types = AllEventTypes
	}
	for _, eventType := range types {
		dispatcher.Subscribe(eventType, f.Forward)
	}
}

// Forward writes a single event as a JSON message.
func (f *KafkaForwarder) Forward(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.SubjectID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		f.logger.Warn("kafka write failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		return err
	}
	return nil
}

// Close flushes and closes the writer.
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}
