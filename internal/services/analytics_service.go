package services

import (
	"context"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/models"
)

type UserCounter interface {
	CountUsers(ctx context.Context) (int64, error)
	CountBy(ctx context.Context, field string) (map[string]int64, error)
}

type GroupCounter interface {
	CountGroups(ctx context.Context) (int64, error)
}

type SessionCounter interface {
	CountSessions(ctx context.Context) (int64, error)
}

type RecentActivity interface {
	Recent(ctx context.Context, n int) ([]models.ActivityLog, error)
}

// Overview is the admin dashboard summary.
type Overview struct {
	TotalUsers       int64                `json:"totalUsers"`
	UsersByStatus    map[string]int64     `json:"usersByStatus"`
	UsersByRole      map[string]int64     `json:"usersByRole"`
	TotalGroups      int64                `json:"totalGroups"`
	TotalSessions    int64                `json:"totalSessions"`
	RecentActivities []models.ActivityLog `json:"recentActivities"`
}

type AnalyticsService struct {
	users    UserCounter
	groups   GroupCounter
	sessions SessionCounter
	activity RecentActivity
}

func NewAnalyticsService(users UserCounter, groups GroupCounter, sessions SessionCounter, activity RecentActivity) *AnalyticsService {
	return &AnalyticsService{users: users, groups: groups, sessions: sessions, activity: activity}
}

func (s *AnalyticsService) Overview(ctx context.Context) (*Overview, error) {
	var (
		out Overview
		err error
	)
	if out.TotalUsers, err = s.users.CountUsers(ctx); err != nil {
		return nil, apperr.Internal(err)
	}
	if out.UsersByStatus, err = s.users.CountBy(ctx, "status"); err != nil {
		return nil, apperr.Internal(err)
	}
	if out.UsersByRole, err = s.users.CountBy(ctx, "role"); err != nil {
		return nil, apperr.Internal(err)
	}
	if out.TotalGroups, err = s.groups.CountGroups(ctx); err != nil {
		return nil, apperr.Internal(err)
	}
	if out.TotalSessions, err = s.sessions.CountSessions(ctx); err != nil {
		return nil, apperr.Internal(err)
	}
	if out.RecentActivities, err = s.activity.Recent(ctx, 10); err != nil {
		return nil, err
	}
	return &out, nil
}
