package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/gram-portal/internal/domain"
)

// fakeWriter is a test writer that records messages written.
type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaForwarderPublishesDispatchedEvents(t *testing.T) {
	fw := &fakeWriter{}
	forwarder := NewKafkaForwarderWithWriter(fw, zap.NewNop())
	dispatcher := NewInMemoryDispatcher()
	forwarder.Register(dispatcher)

	event := New(EventApplicationStatusChanged, "app-42", Actor{UserID: "staff-1", Role: domain.RoleStaff},
		ApplicationStatusChangedPayload{
			ApplicantID: "u1",
			OldStatus:   domain.ApplicationStatusPending,
			NewStatus:   domain.ApplicationStatusUnderReview,
		})
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	require.Len(t, fw.msgs, 1)
	msg := fw.msgs[0]
	assert.Equal(t, "app-42", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, string(EventApplicationStatusChanged), string(msg.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	payload := decoded["payload"].(map[string]any)
	assert.Equal(t, "under_review", payload["new_status"])
}

func TestKafkaWriterFlushesPromptly(t *testing.T) {
	w := newKafkaWriter([]string{"localhost:9092"}, "gram.events")
	assert.Equal(t, "gram.events", w.Topic)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	assert.Positive(t, w.BatchTimeout)
	assert.LessOrEqual(t, w.BatchTimeout, 50*time.Millisecond)
	assert.False(t, w.Async, "writes stay synchronous so failures reach the logger")
}

func TestKafkaForwarderRegisterSubset(t *testing.T) {
	fw := &fakeWriter{}
	dispatcher := NewInMemoryDispatcher()
	NewKafkaForwarderWithWriter(fw, zap.NewNop()).Register(dispatcher, EventApplicationSubmitted)

	require.NoError(t, dispatcher.Publish(context.Background(), New(EventServiceCreated, "svc", Actor{}, nil)))
	assert.Empty(t, fw.msgs)
}

func TestKafkaForwarderSurfacesWriteErrors(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	forwarder := NewKafkaForwarderWithWriter(fw, zap.NewNop())

	err := forwarder.Forward(context.Background(), New(EventUserRegistered, "u1", Actor{}, nil))
	assert.EqualError(t, err, "broker down")
}
