package worker

import (
	"context"

	"github.com/spec-kit/gram-portal/internal/service"
)

// StartNotificationWorker registers notification handlers and starts webhook
// delivery in the background until ctx is cancelled.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	go notificationService.Run(ctx)
}
