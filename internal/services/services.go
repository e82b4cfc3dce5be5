package services

import (
	"context"
	"errors"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/authz"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   primitive.ObjectID
	Role string
}

func (a Actor) Can(c authz.Capability) bool {
	return authz.Can(a.Role, c)
}

// Publisher pushes realtime events. Delivery is best effort.
type Publisher interface {
	ToUser(userID primitive.ObjectID, event string, data interface{}) error
	ToGroup(groupID primitive.ObjectID, event string, data interface{}) error
	ToAdmins(event string, data interface{}) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) ToUser(primitive.ObjectID, string, interface{}) error  { return nil }
func (NopPublisher) ToGroup(primitive.ObjectID, string, interface{}) error { return nil }
func (NopPublisher) ToAdmins(string, interface{}) error                    { return nil }

// Notifier is the notification entry point used by the other services.
type Notifier interface {
	Notify(ctx context.Context, in NotifyInput) (*models.Notification, error)
	SendToUsers(ctx context.Context, userIDs []primitive.ObjectID, in NotifyInput) int
}

// ActivityLogger records audit entries. Implementations never fail the
// caller.
type ActivityLogger interface {
	Log(ctx context.Context, userID primitive.ObjectID, action string, details map[string]interface{})
}

type UserLookup interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type GroupGetter interface {
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.LearningGroup, error)
}

type ReputationStore interface {
	IncrementReputation(ctx context.Context, id primitive.ObjectID, counter string, delta int) error
}

// storeErr maps a repository error onto the service error taxonomy.
func storeErr(err error, notFound string) error {
	var ae *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(notFound)
	}
	return apperr.Internal(err)
}

func publishQuietly(err error, event string) {
	if err != nil {
		logrus.WithError(err).WithField("event", event).Warn("Realtime publish failed")
	}
}

// notifyQuietly sends one notification and only logs a failure.
func notifyQuietly(ctx context.Context, n Notifier, in NotifyInput) {
	if _, err := n.Notify(ctx, in); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"userID": in.UserID.Hex(),
			"type":   in.Type,
		}).Warn("Failed to send notification")
	}
}

func idPtr(id primitive.ObjectID) *primitive.ObjectID {
	return &id
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func pageOf[T any](items []T, total int64, p models.Pagination) *models.Page[T] {
	if items == nil {
		items = []T{}
	}
	return &models.Page[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}
