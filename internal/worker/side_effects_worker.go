package worker

import (
	"github.com/spec-kit/personnel-service/internal/service"
)

// StartSideEffectWorkers subscribes the notification fan-out and audit log
// handlers to the event dispatcher. Handlers are fire-and-forget: failures
// are logged by the services and never propagate to the publishing call.
func StartSideEffectWorkers(notifications *service.NotificationService, activities *service.ActivityService) {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	if activities != nil {
		activities.RegisterHandlers()
	}
}
