package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/gram-portal/internal/config"
	"github.com/spec-kit/gram-portal/internal/events"
)

const webhookQueueSize = 256

// WebhookSender posts a JSON body to url.
type WebhookSender func(ctx context.Context, url string, body any) error

// NotificationService handles emitting notifications for domain events.
// Email delivery is a logging stub; webhooks are queued and delivered by Run
// at the configured rate.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	limiter    *rate.Limiter
	queue      chan events.Event
	send       WebhookSender
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	limit := rate.Inf
	if cfg.WebhookPerSecond > 0 {
		limit = rate.Limit(cfg.WebhookPerSecond)
	}
	timeout := time.Duration(cfg.WebhookTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     loggerOrNop(logger),
		cfg:        cfg,
		limiter:    rate.NewLimiter(limit, 1),
		queue:      make(chan events.Event, webhookQueueSize),
		send:       postJSON(timeout),
	}
}

// WithSender replaces the webhook transport.
func (n *NotificationService) WithSender(send WebhookSender) *NotificationService {
	n.send = send
	return n
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventApplicationSubmitted, n.handleApplicationSubmitted)
	n.dispatcher.Subscribe(events.EventApplicationStatusChanged, n.handleApplicationStatusChanged)
	n.dispatcher.Subscribe(events.EventServiceCreated, n.handleServiceChanged)
	n.dispatcher.Subscribe(events.EventServiceUpdated, n.handleServiceChanged)
	n.dispatcher.Subscribe(events.EventServiceDeleted, n.handleServiceChanged)
}

// Run delivers queued webhooks until ctx is cancelled.
func (n *NotificationService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-n.queue:
			if err := n.limiter.Wait(ctx); err != nil {
				return
			}
			if err := n.send(ctx, n.cfg.WebhookURL, event); err != nil {
				n.logger.Warn("webhook delivery failed",
					zap.String("event_type", string(event.Type)),
					zap.String("subject_id", event.SubjectID),
					zap.Error(err))
				continue
			}
			n.logger.Debug("webhook delivered", zap.String("event_type", string(event.Type)))
		}
	}
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("UserRegistered", zap.String("user_id", event.SubjectID))
	n.sendEmailNotificationStub(ctx, event, "Welcome to the e-Gram Panchayat portal")
	return nil
}

func (n *NotificationService) handleApplicationSubmitted(ctx context.Context, event events.Event) error {
	n.logger.Info("ApplicationSubmitted", zap.String("application_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event, "Your application has been received")
	n.enqueueWebhook(event)
	return nil
}

func (n *NotificationService) handleApplicationStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("ApplicationStatusChanged", zap.String("application_id", event.SubjectID), zap.Any("payload", event.Payload))
	subject := "Your application was updated"
	if payload, ok := event.Payload.(events.ApplicationStatusChangedPayload); ok {
		subject = fmt.Sprintf("Your application is now %s", payload.NewStatus.Label())
	}
	n.sendEmailNotificationStub(ctx, event, subject)
	n.enqueueWebhook(event)
	return nil
}

func (n *NotificationService) handleServiceChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("ServiceChanged", zap.String("event_type", string(event.Type)), zap.String("service_id", event.SubjectID))
	n.enqueueWebhook(event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, subject string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject", subject),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) enqueueWebhook(event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	select {
	case n.queue <- event:
	default:
		n.logger.Warn("webhook queue full; dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID))
	}
}

// postJSON delivers body with fiber's client. The client has no context
// support, so the timeout is capped at the context deadline and a cancelled
// context abandons the request instead of waiting for it.
func postJSON(timeout time.Duration) WebhookSender {
	return func(ctx context.Context, url string, body any) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		limit := timeout
		if deadline, ok := ctx.Deadline(); ok {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return context.DeadlineExceeded
			}
			if limit <= 0 || remaining < limit {
				limit = remaining
			}
		}

		done := make(chan error, 1)
		go func() {
			done <- postWebhook(url, body, limit)
		}()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return err
		}
	}
}

func postWebhook(url string, body any, timeout time.Duration) error {
	agent := fiber.Post(url).JSON(body).Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return err
	}
	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if code >= fiber.StatusBadRequest {
		return fmt.Errorf("webhook responded with status %d", code)
	}
	return nil
}
