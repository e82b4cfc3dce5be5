package services

import (
	"context"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/authz"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ResourceStore interface {
	CreateResource(ctx context.Context, res *models.Resource) error
	GetResourceByID(ctx context.Context, id primitive.ObjectID) (*models.Resource, error)
	ListGroupResources(ctx context.Context, groupID primitive.ObjectID, q string, p models.Pagination) ([]models.Resource, int64, error)
	ListAll(ctx context.Context, p models.Pagination) ([]models.Resource, int64, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) (*models.Resource, error)
	UpdateResource(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Resource, error)
	DeleteResource(ctx context.Context, id primitive.ObjectID) error
	Analytics(ctx context.Context, now time.Time) (*models.ResourceAnalytics, error)
}

type ResourceService struct {
	repo       ResourceStore
	groups     GroupGetter
	reputation ReputationStore
	notifier   Notifier
	activity   ActivityLogger
}

func NewResourceService(repo ResourceStore, groups GroupGetter, reputation ReputationStore, notifier Notifier, activity ActivityLogger) *ResourceService {
	return &ResourceService{repo: repo, groups: groups, reputation: reputation, notifier: notifier, activity: activity}
}

type ResourceInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Type        string `json:"type" validate:"omitempty,max=50"`
	Link        string `json:"link" validate:"required,url"`
}

func (s *ResourceService) memberGroup(ctx context.Context, actor Actor, groupID primitive.ObjectID) (*models.LearningGroup, error) {
	g, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, storeErr(err, "Group not found.")
	}
	if !g.IsMember(actor.ID) {
		return nil, apperr.Forbidden("You are not a member of this group.")
	}
	return g, nil
}

// Add shares a resource with a group and tells the other members.
func (s *ResourceService) Add(ctx context.Context, actor Actor, groupID primitive.ObjectID, in ResourceInput) (*models.Resource, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	g, err := s.memberGroup(ctx, actor, groupID)
	if err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = models.ResourceTypeDriveLink
	}

	res := &models.Resource{
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Link:        in.Link,
		GroupID:     groupID,
		UploadedBy:  actor.ID,
	}
	if err := s.repo.CreateResource(ctx, res); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.reputation.IncrementReputation(ctx, actor.ID, "resources_shared", 1); err != nil {
		logrus.WithError(err).Warn("Failed to credit resource uploader")
	}

	s.activity.Log(ctx, actor.ID, models.ActionUploadResource, map[string]interface{}{
		"resourceId": res.ID.Hex(),
		"groupId":    groupID.Hex(),
	})
	s.notifier.SendToUsers(ctx, g.MemberIDs(actor.ID), NotifyInput{
		Type:     models.NotificationResourceAdded,
		Title:    "New resource shared",
		Message:  res.Title + " was added to " + g.Subject + " " + g.Topic + ".",
		Data:     models.NotificationData{GroupID: idPtr(groupID), ResourceID: idPtr(res.ID), Link: "/groups/" + groupID.Hex() + "/resources"},
		Priority: models.PriorityLow,
	})
	return res, nil
}

func (s *ResourceService) ListForGroup(ctx context.Context, actor Actor, groupID primitive.ObjectID, q string, p models.Pagination) (*models.Page[models.Resource], error) {
	if _, err := s.memberGroup(ctx, actor, groupID); err != nil {
		return nil, err
	}
	items, total, err := s.repo.ListGroupResources(ctx, groupID, q, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pageOf(items, total, p), nil
}

// View returns the resource and counts the view.
func (s *ResourceService) View(ctx context.Context, id primitive.ObjectID) (*models.Resource, error) {
	res, err := s.repo.IncrementViews(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Resource not found.")
	}
	return res, nil
}

func (s *ResourceService) owned(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Resource, error) {
	res, err := s.repo.GetResourceByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Resource not found.")
	}
	if res.UploadedBy != actor.ID && !actor.Can(authz.ModerateResources) {
		return nil, apperr.Forbidden("Only the uploader can change this resource.")
	}
	return res, nil
}

type ResourceUpdate struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Type        *string `json:"type" validate:"omitempty,max=50"`
	Link        *string `json:"link" validate:"omitempty,url"`
}

func (s *ResourceService) Update(ctx context.Context, actor Actor, id primitive.ObjectID, in ResourceUpdate) (*models.Resource, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	res, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	fields := bson.M{}
	for key, v := range map[string]*string{"title": in.Title, "description": in.Description, "type": in.Type, "link": in.Link} {
		if v != nil {
			fields[key] = *v
		}
	}
	if len(fields) == 0 {
		return res, nil
	}
	updated, err := s.repo.UpdateResource(ctx, id, fields)
	if err != nil {
		return nil, storeErr(err, "Resource not found.")
	}
	return updated, nil
}

func (s *ResourceService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return storeErr(s.repo.DeleteResource(ctx, id), "Resource not found.")
}

func (s *ResourceService) AdminList(ctx context.Context, p models.Pagination) (*models.Page[models.Resource], error) {
	items, total, err := s.repo.ListAll(ctx, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pageOf(items, total, p), nil
}

func (s *ResourceService) Hide(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if _, err := s.repo.UpdateResource(ctx, id, bson.M{"hidden": true}); err != nil {
		return storeErr(err, "Resource not found.")
	}
	s.activity.Log(ctx, actor.ID, models.ActionAdminHideContent, map[string]interface{}{"resourceId": id.Hex()})
	return nil
}

func (s *ResourceService) Analytics(ctx context.Context) (*models.ResourceAnalytics, error) {
	a, err := s.repo.Analytics(ctx, time.Now())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return a, nil
}
