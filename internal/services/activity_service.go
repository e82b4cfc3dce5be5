package services

import (
	"context"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityStore interface {
	CreateActivity(ctx context.Context, activity *models.ActivityLog) error
	ListActivities(ctx context.Context, f models.ActivityFilter, p models.Pagination) ([]models.ActivityLog, int64, error)
}

type ActivityService struct {
	repo ActivityStore
}

func NewActivityService(repo ActivityStore) *ActivityService {
	return &ActivityService{repo: repo}
}

// Log records a user activity. A store failure is logged, not returned.
func (s *ActivityService) Log(ctx context.Context, userID primitive.ObjectID, action string, details map[string]interface{}) {
	activity := &models.ActivityLog{
		UserID:     userID,
		ActionType: action,
		Details:    details,
		Timestamp:  time.Now(),
	}
	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":     userID.Hex(),
			"action_type": action,
		}).Warn("Failed to log activity")
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID.Hex(),
		"action_type": action,
	}).Debug("Activity logged")
}

func (s *ActivityService) List(ctx context.Context, f models.ActivityFilter, p models.Pagination) (*models.Page[models.ActivityLog], error) {
	items, total, err := s.repo.ListActivities(ctx, f, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pageOf(items, total, p), nil
}

// Recent returns the latest n activities across all users.
func (s *ActivityService) Recent(ctx context.Context, n int) ([]models.ActivityLog, error) {
	items, _, err := s.repo.ListActivities(ctx, models.ActivityFilter{}, models.NewPagination(1, n, n))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if items == nil {
		items = []models.ActivityLog{}
	}
	return items, nil
}
