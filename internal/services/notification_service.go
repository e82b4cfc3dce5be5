package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/metrics"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/pkg/email"
	"github.com/Dias221467/Saviya_Learn/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventNewNotification is the realtime event carrying a fresh notification.
const EventNewNotification = "new-notification"

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID primitive.ObjectID, f models.NotificationFilter, p models.Pagination) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id, userID primitive.ObjectID) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkEmailSent(ctx context.Context, id primitive.ObjectID, at time.Time) error
	MarkDelivered(ctx context.Context, id primitive.ObjectID, at time.Time) error
	DeleteNotification(ctx context.Context, id, userID primitive.ObjectID) error
	DeleteRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	DeleteExpiredNotifications(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*models.NotificationStats, error)
}

type PreferenceStore interface {
	GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.UserPreferences, error)
	Save(ctx context.Context, prefs *models.UserPreferences) error
}

type RecipientStore interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ListActiveUserIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// NotifyInput describes one notification. Priority defaults to medium.
type NotifyInput struct {
	UserID   primitive.ObjectID
	Type     string
	Title    string
	Message  string
	Data     models.NotificationData
	Priority string
}

// NotificationPage is the list response with the caller's unread count.
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	UnreadCount   int64                 `json:"unreadCount"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

// NotificationService persists notifications and fans them out to the
// realtime and email channels according to each user's preferences.
type NotificationService struct {
	store       NotificationStore
	prefs       PreferenceStore
	users       RecipientStore
	publisher   Publisher
	mailer      email.Mailer
	frontendURL string
	now         func() time.Time
}

func NewNotificationService(store NotificationStore, prefs PreferenceStore, users RecipientStore, publisher Publisher, mailer email.Mailer, frontendURL string) *NotificationService {
	return &NotificationService{
		store:       store,
		prefs:       prefs,
		users:       users,
		publisher:   publisher,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

// Notify persists a notification and then, best effort, publishes it in-app
// and emails it. Only a failure to persist is returned.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (*models.Notification, error) {
	if !models.ValidNotificationType(in.Type) {
		return nil, apperr.Validation("Invalid notification type.")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !models.ValidPriority(in.Priority) {
		return nil, apperr.Validation("Invalid priority.")
	}

	n := &models.Notification{
		UserID:   in.UserID,
		Type:     in.Type,
		Title:    in.Title,
		Message:  in.Message,
		Data:     in.Data,
		Priority: in.Priority,
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to create notification: %w", err))
	}
	metrics.NotificationsCreated.WithLabelValues(n.Type).Inc()

	prefs, err := s.prefs.GetOrCreate(ctx, in.UserID)
	if err != nil {
		logrus.WithError(err).WithField("userID", in.UserID.Hex()).Warn("Falling back to default notification preferences")
		prefs = models.DefaultPreferences(in.UserID)
	}

	if prefs.WantsInApp() {
		s.publish(ctx, n)
	}
	if prefs.WantsEmail(n.Type) {
		s.sendEmail(ctx, n)
	}
	return n, nil
}

func (s *NotificationService) publish(ctx context.Context, n *models.Notification) {
	if err := s.publisher.ToUser(n.UserID, EventNewNotification, n); err != nil {
		metrics.NotificationDispatch.WithLabelValues("in_app", "error").Inc()
		logrus.WithError(err).WithField("notificationID", n.ID.Hex()).Warn("Failed to publish notification")
		return
	}
	metrics.NotificationDispatch.WithLabelValues("in_app", "ok").Inc()

	at := s.now()
	if err := s.store.MarkDelivered(ctx, n.ID, at); err != nil {
		logrus.WithError(err).Warn("Failed to mark notification delivered")
		return
	}
	n.Delivered = true
	n.DeliveredAt = &at
}

func (s *NotificationService) link(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return s.frontendURL + "/" + strings.TrimLeft(path, "/")
}

func (s *NotificationService) sendEmail(ctx context.Context, n *models.Notification) {
	user, err := s.users.GetUserByID(ctx, n.UserID)
	if err != nil {
		metrics.NotificationDispatch.WithLabelValues("email", "error").Inc()
		logrus.WithError(err).WithField("userID", n.UserID.Hex()).Warn("Cannot email notification: user lookup failed")
		return
	}

	msg, err := email.NotificationMessage(user.Email, n.Title, n.Message, s.link(n.Data.Link))
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		metrics.NotificationDispatch.WithLabelValues("email", "error").Inc()
		logrus.WithError(err).WithFields(logrus.Fields{
			"notificationID": n.ID.Hex(),
			"type":           n.Type,
		}).Warn("Failed to email notification")
		return
	}
	metrics.NotificationDispatch.WithLabelValues("email", "ok").Inc()

	at := s.now()
	if err := s.store.MarkEmailSent(ctx, n.ID, at); err != nil {
		logrus.WithError(err).Warn("Failed to mark notification email sent")
		return
	}
	n.EmailSent = true
	n.EmailSentAt = &at
}

// SendToUsers notifies every user in userIDs with the same content and
// returns the number of attempts. Individual failures are logged.
func (s *NotificationService) SendToUsers(ctx context.Context, userIDs []primitive.ObjectID, in NotifyInput) int {
	for _, id := range userIDs {
		in.UserID = id
		notifyQuietly(ctx, s, in)
	}
	return len(userIDs)
}

// BroadcastToAll notifies every active user.
func (s *NotificationService) BroadcastToAll(ctx context.Context, in NotifyInput) (int, error) {
	ids, err := s.users.ListActiveUserIDs(ctx)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	count := s.SendToUsers(ctx, ids, in)
	logrus.WithFields(logrus.Fields{
		"type":       in.Type,
		"recipients": count,
	}).Info("Broadcast notification sent")
	return count, nil
}

// AdminSendInput is the body of an admin send or broadcast.
type AdminSendInput struct {
	UserIDs  []string                `json:"userIds"`
	Type     string                  `json:"type"`
	Title    string                  `json:"title" validate:"required"`
	Message  string                  `json:"message" validate:"required"`
	Priority string                  `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Data     models.NotificationData `json:"data"`
}

func (in *AdminSendInput) notifyInput() (NotifyInput, error) {
	if err := validation.Struct(in); err != nil {
		return NotifyInput{}, err
	}
	if in.Type == "" {
		in.Type = models.NotificationAdminAnnouncement
	}
	if !models.ValidNotificationType(in.Type) {
		return NotifyInput{}, apperr.Validation("Invalid notification type.")
	}
	return NotifyInput{Type: in.Type, Title: in.Title, Message: in.Message, Data: in.Data, Priority: in.Priority}, nil
}

// AdminSend notifies the listed users and returns the number of attempts.
func (s *NotificationService) AdminSend(ctx context.Context, in AdminSendInput) (int, error) {
	if len(in.UserIDs) == 0 {
		return 0, apperr.Validation("userIds is required.")
	}
	ids := make([]primitive.ObjectID, 0, len(in.UserIDs))
	for _, raw := range in.UserIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return 0, apperr.Validation("Invalid user id: " + raw)
		}
		ids = append(ids, id)
	}
	base, err := in.notifyInput()
	if err != nil {
		return 0, err
	}
	return s.SendToUsers(ctx, ids, base), nil
}

func (s *NotificationService) AdminBroadcast(ctx context.Context, in AdminSendInput) (int, error) {
	base, err := in.notifyInput()
	if err != nil {
		return 0, err
	}
	return s.BroadcastToAll(ctx, base)
}

func (s *NotificationService) List(ctx context.Context, userID primitive.ObjectID, f models.NotificationFilter, p models.Pagination) (*NotificationPage, error) {
	items, total, err := s.store.ListForUser(ctx, userID, f, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	unread, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if items == nil {
		items = []models.Notification{}
	}
	return &NotificationPage{Notifications: items, Total: total, UnreadCount: unread, Page: p.Page, Limit: p.Limit}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id primitive.ObjectID) (*models.Notification, error) {
	n, err := s.store.MarkAsRead(ctx, id, userID)
	if err != nil {
		return nil, storeErr(err, "Notification not found.")
	}
	return n, nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := s.store.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id primitive.ObjectID) error {
	return storeErr(s.store.DeleteNotification(ctx, id, userID), "Notification not found.")
}

func (s *NotificationService) DeleteAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := s.store.DeleteRead(ctx, userID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

func (s *NotificationService) GetPreferences(ctx context.Context, userID primitive.ObjectID) (*models.UserPreferences, error) {
	prefs, err := s.prefs.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return prefs, nil
}

// UpdatePreferences stores prefs for userID. Callers merge the request onto
// the current preferences first, so prefs is always a complete document.
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID primitive.ObjectID, prefs *models.UserPreferences) (*models.UserPreferences, error) {
	if err := validation.Var("quietHours.startTime", prefs.QuietHours.StartTime, "omitempty,datetime=15:04"); err != nil {
		return nil, err
	}
	if err := validation.Var("quietHours.endTime", prefs.QuietHours.EndTime, "omitempty,datetime=15:04"); err != nil {
		return nil, err
	}
	if err := validation.Var("language", prefs.Language, "omitempty,min=2,max=8"); err != nil {
		return nil, err
	}

	prefs.UserID = userID
	prefs.UpdatedAt = s.now()
	if err := s.prefs.Save(ctx, prefs); err != nil {
		return nil, apperr.Internal(err)
	}
	return prefs, nil
}

func (s *NotificationService) Stats(ctx context.Context) (*models.NotificationStats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return stats, nil
}

// DeleteExpiredNotifications removes notifications past their expiry. The
// TTL index does the same lazily; this keeps counts exact between sweeps.
func (s *NotificationService) DeleteExpiredNotifications(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredNotifications(ctx)
}
