package notifications

import (
	"context"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/tasks"
)

// NotificationController turns task lifecycle events into pushed notifications
type NotificationController struct {
	Notifier   Notifier
	Recipients RecipientResolver
	Logger     logger.Interface
	renderer   tasks.TaskTextRenderer
}

// NewNotificationController construct a NotificationController
func NewNotificationController(notifier Notifier, recipients RecipientResolver, logger logger.Interface) *NotificationController {
	return &NotificationController{
		Notifier:   notifier,
		Recipients: recipients,
		Logger:     logger,
	}
}

// TaskAssigned tells the assignee about a new task
func (n *NotificationController) TaskAssigned(ctx context.Context, task *tasks.Task) {
	if task.AssignedTo.IsZero() {
		return
	}

	n.Notifier.Notify(ctx, []string{task.AssignedTo.Hex()}, n.renderer.RenderAssignedMessage(task), KindInfo)
}

// TaskCompleted tells every Senior and Manager that a task was finished
func (n *NotificationController) TaskCompleted(ctx context.Context, task *tasks.Task) {
	admins, err := n.Recipients.Admins(ctx)
	if err != nil {
		n.Logger.Error("Could not resolve notification recipients", err)
		return
	}

	n.Notifier.Notify(ctx, admins, n.renderer.RenderCompletedMessage(task), KindSuccess)
}
