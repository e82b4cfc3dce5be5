package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type ReminderSender interface {
	SendReminders(ctx context.Context, lead time.Duration) (int, error)
}

// SessionReminder notifies members of sessions starting within Lead.
type SessionReminder struct {
	Sessions ReminderSender
	Lead     time.Duration
}

func NewSessionReminder(sessions ReminderSender, lead time.Duration) *SessionReminder {
	return &SessionReminder{Sessions: sessions, Lead: lead}
}

func (j *SessionReminder) Name() string { return "session_reminders" }

func (j *SessionReminder) Run(ctx context.Context) error {
	n, err := j.Sessions.SendReminders(ctx, j.Lead)
	if err != nil {
		return fmt.Errorf("send session reminders: %w", err)
	}
	if n > 0 {
		logrus.WithField("sessions", n).Info("Session reminders sent")
	}
	return nil
}
