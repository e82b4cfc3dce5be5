package jobs

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

type ExpiredNotificationDeleter interface {
	DeleteExpiredNotifications(ctx context.Context) (int64, error)
}

// NotificationCleanup deletes notifications past their expiry.
type NotificationCleanup struct {
	Notifications ExpiredNotificationDeleter
}

func NewNotificationCleanup(notifications ExpiredNotificationDeleter) *NotificationCleanup {
	return &NotificationCleanup{Notifications: notifications}
}

func (j *NotificationCleanup) Name() string { return "notification_cleanup" }

func (j *NotificationCleanup) Run(ctx context.Context) error {
	n, err := j.Notifications.DeleteExpiredNotifications(ctx)
	if err != nil {
		return fmt.Errorf("delete expired notifications: %w", err)
	}
	logrus.WithField("deleted", n).Info("Expired notifications cleaned up")
	return nil
}
