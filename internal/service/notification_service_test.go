package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/gram-portal/internal/config"
	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/events"
)

type capturedWebhook struct {
	url   string
	event events.Event
}

func TestNotificationServiceQueuesWebhooks(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	received := make(chan capturedWebhook, 4)
	svc := NewNotificationService(dispatcher, nil, config.NotificationConfig{
		EmailFrom:  "noreply@example.com",
		WebhookURL: "http://hooks.local/egram",
	}).WithSender(func(_ context.Context, url string, body any) error {
		received <- capturedWebhook{url: url, event: body.(events.Event)}
		return nil
	})
	svc.RegisterHandlers()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	event := events.New(events.EventApplicationStatusChanged, "app-1", events.Actor{UserID: "staff-1", Role: domain.RoleStaff},
		events.ApplicationStatusChangedPayload{ApplicantID: "user-1", OldStatus: domain.ApplicationStatusPending, NewStatus: domain.ApplicationStatusUnderReview})
	require.NoError(t, dispatcher.Publish(ctx, event))
	require.NoError(t, dispatcher.Publish(ctx, events.New(events.EventUserRegistered, "user-2", events.Actor{}, nil)))

	select {
	case got := <-received:
		assert.Equal(t, "http://hooks.local/egram", got.url)
		assert.Equal(t, event.ID, got.event.ID)
	case <-time.After(time.Second):
		t.Fatal("webhook not delivered")
	}

	select {
	case got := <-received:
		t.Fatalf("registration should not be forwarded, got %s", got.event.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotificationServiceSkipsWebhookWithoutURL(t *testing.T) {
	svc := NewNotificationService(events.NewInMemoryDispatcher(), nil, config.NotificationConfig{})
	svc.enqueueWebhook(events.New(events.EventServiceCreated, "svc-1", events.Actor{}, nil))
	assert.Zero(t, len(svc.queue))
}

func TestNotificationServiceDropsWhenQueueFull(t *testing.T) {
	svc := NewNotificationService(nil, nil, config.NotificationConfig{WebhookURL: "http://hooks.local"})
	for i := 0; i < webhookQueueSize+10; i++ {
		svc.enqueueWebhook(events.New(events.EventServiceUpdated, "svc-1", events.Actor{}, nil))
	}
	assert.Equal(t, webhookQueueSize, len(svc.queue))
}

func TestPostJSONDeliversEvent(t *testing.T) {
	var (
		mu   sync.Mutex
		body map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		_ = json.Unmarshal(raw, &body)
		mu.Unlock()
		if r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	send := postJSON(time.Second)
	err := send(context.Background(), server.URL, events.New(events.EventServiceCreated, "svc-9", events.Actor{}, nil))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "svc-9", body["subject_id"])
}

func TestPostJSONReportsFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := postJSON(time.Second)(context.Background(), server.URL, map[string]string{"ok": "no"})
	assert.Error(t, err)
}

func TestPostJSONHonoursContext(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err := postJSON(time.Minute)(cancelled, server.URL, map[string]string{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, hits.Load(), "cancelled context sends nothing")

	short, cancelShort := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelShort()
	start := time.Now()
	err = postJSON(time.Minute)(short, server.URL, map[string]string{})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "deadline caps the client timeout")

	inFlight, cancelInFlight := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancelInFlight()
	}()
	start = time.Now()
	err = postJSON(time.Minute)(inFlight, server.URL, map[string]string{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second, "shutdown does not wait for a slow webhook")
}
