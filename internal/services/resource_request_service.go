package services

import (
	"context"
	"strings"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/authz"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventNewResourceRequest = "new-resource-request"
	EventRequestResponse    = "request-response"
)

type RequestStore interface {
	Create(ctx context.Context, req *models.ResourceRequest) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.ResourceRequest, error)
	List(ctx context.Context, f models.RequestFilter, p models.Pagination) ([]models.ResourceRequest, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.ResourceRequest, error)
	AddResponse(ctx context.Context, id primitive.ObjectID, resp models.RequestResponse) (*models.ResourceRequest, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// ResourceRequestService lets members ask for material and others answer
// with a shared resource.
type ResourceRequestService struct {
	repo       RequestStore
	groups     GroupGetter
	resources  ResourceLookup
	reputation ReputationStore
	notifier   Notifier
	publisher  Publisher
	activity   ActivityLogger
}

func NewResourceRequestService(repo RequestStore, groups GroupGetter, resources ResourceLookup, reputation ReputationStore, notifier Notifier, publisher Publisher, activity ActivityLogger) *ResourceRequestService {
	return &ResourceRequestService{
		repo:       repo,
		groups:     groups,
		resources:  resources,
		reputation: reputation,
		notifier:   notifier,
		publisher:  publisher,
		activity:   activity,
	}
}

type RequestInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Subject     string `json:"subject" validate:"max=100"`
	Topic       string `json:"topic" validate:"max=100"`
	Type        string `json:"type" validate:"max=50"`
	GroupID     string `json:"groupId"`
}

func (s *ResourceRequestService) Create(ctx context.Context, actor Actor, in RequestInput) (*models.ResourceRequest, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	req := &models.ResourceRequest{
		RequesterID: actor.ID,
		Title:       in.Title,
		Description: in.Description,
		Subject:     in.Subject,
		Topic:       in.Topic,
		Type:        in.Type,
		Status:      models.RequestOpen,
		Responses:   []models.RequestResponse{},
	}

	var group *models.LearningGroup
	if in.GroupID != "" {
		gid, err := primitive.ObjectIDFromHex(in.GroupID)
		if err != nil {
			return nil, apperr.Validation("Invalid group id.")
		}
		if group, err = s.groups.GetGroupByID(ctx, gid); err != nil {
			return nil, storeErr(err, "Group not found.")
		}
		if !group.IsMember(actor.ID) {
			return nil, apperr.Forbidden("You are not a member of this group.")
		}
		req.GroupID = &gid
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, apperr.Internal(err)
	}
	s.activity.Log(ctx, actor.ID, models.ActionCreateRequest, map[string]interface{}{"requestId": req.ID.Hex()})

	if group != nil {
		publishQuietly(s.publisher.ToGroup(group.ID, EventNewResourceRequest, req), EventNewResourceRequest)
		s.notifier.SendToUsers(ctx, group.MemberIDs(actor.ID), NotifyInput{
			Type:     models.NotificationResourceRequest,
			Title:    "New resource request",
			Message:  req.Title,
			Data:     models.NotificationData{GroupID: idPtr(group.ID), RequestID: idPtr(req.ID), Link: "/requests/" + req.ID.Hex()},
			Priority: models.PriorityLow,
		})
	}
	return req, nil
}

func (s *ResourceRequestService) List(ctx context.Context, f models.RequestFilter, p models.Pagination) (*models.Page[models.ResourceRequest], error) {
	items, total, err := s.repo.List(ctx, f, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pageOf(items, total, p), nil
}

func (s *ResourceRequestService) Mine(ctx context.Context, actor Actor, p models.Pagination) (*models.Page[models.ResourceRequest], error) {
	return s.List(ctx, models.RequestFilter{RequesterID: &actor.ID}, p)
}

func (s *ResourceRequestService) Get(ctx context.Context, id primitive.ObjectID) (*models.ResourceRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Request not found.")
	}
	return req, nil
}

// own loads a request the actor created. moderate also admits platform admins.
func (s *ResourceRequestService) own(ctx context.Context, actor Actor, id primitive.ObjectID, moderate bool) (*models.ResourceRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.RequesterID == actor.ID || (moderate && actor.Can(authz.ModerateRequests)) {
		return req, nil
	}
	return nil, apperr.Forbidden("Only the requester can do this.")
}

type RequestUpdate struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Subject     *string `json:"subject" validate:"omitempty,max=100"`
	Topic       *string `json:"topic" validate:"omitempty,max=100"`
	Type        *string `json:"type" validate:"omitempty,max=50"`
}

func (s *ResourceRequestService) Update(ctx context.Context, actor Actor, id primitive.ObjectID, in RequestUpdate) (*models.ResourceRequest, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	req, err := s.own(ctx, actor, id, false)
	if err != nil {
		return nil, err
	}
	fields := bson.M{}
	for key, v := range map[string]*string{"title": in.Title, "description": in.Description, "subject": in.Subject, "topic": in.Topic, "type": in.Type} {
		if v != nil {
			fields[key] = *v
		}
	}
	if len(fields) == 0 {
		return req, nil
	}
	return s.update(ctx, id, fields)
}

func (s *ResourceRequestService) update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.ResourceRequest, error) {
	req, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, storeErr(err, "Request not found.")
	}
	return req, nil
}

func (s *ResourceRequestService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if _, err := s.own(ctx, actor, id, true); err != nil {
		return err
	}
	return storeErr(s.repo.Delete(ctx, id), "Request not found.")
}

type RespondInput struct {
	ResourceID string `json:"resourceId" validate:"required"`
	Message    string `json:"message" validate:"max=1000"`
}

// Respond answers a request with an existing resource and credits the
// responder.
func (s *ResourceRequestService) Respond(ctx context.Context, actor Actor, id primitive.ObjectID, in RespondInput) (*models.ResourceRequest, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	resourceID, err := primitive.ObjectIDFromHex(in.ResourceID)
	if err != nil {
		return nil, apperr.Validation("Invalid resource id.")
	}
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == models.RequestClosed {
		return nil, apperr.Validation("This request is closed.")
	}
	if _, err := s.resources.GetResourceByID(ctx, resourceID); err != nil {
		return nil, storeErr(err, "Resource not found.")
	}

	updated, err := s.repo.AddResponse(ctx, id, models.RequestResponse{
		UserID:     actor.ID,
		ResourceID: resourceID,
		Message:    strings.TrimSpace(in.Message),
		Date:       time.Now(),
	})
	if err != nil {
		return nil, storeErr(err, "Request not found.")
	}
	if err := s.reputation.IncrementReputation(ctx, actor.ID, "resources_shared", 1); err != nil {
		logrus.WithError(err).Warn("Failed to credit responder")
	}
	s.activity.Log(ctx, actor.ID, models.ActionRespondRequest, map[string]interface{}{
		"requestId":  id.Hex(),
		"resourceId": resourceID.Hex(),
	})

	publishQuietly(s.publisher.ToUser(req.RequesterID, EventRequestResponse, updated), EventRequestResponse)
	if req.RequesterID != actor.ID {
		notifyQuietly(ctx, s.notifier, NotifyInput{
			UserID:  req.RequesterID,
			Type:    models.NotificationRequestResponse,
			Title:   "Someone answered your request",
			Message: "A resource was shared for " + req.Title + ".",
			Data:    models.NotificationData{RequestID: idPtr(id), ResourceID: idPtr(resourceID), UserID: idPtr(actor.ID), Link: "/requests/" + id.Hex()},
		})
	}
	return updated, nil
}

func (s *ResourceRequestService) setStatus(ctx context.Context, actor Actor, id primitive.ObjectID, status string, moderate bool) (*models.ResourceRequest, error) {
	if _, err := s.own(ctx, actor, id, moderate); err != nil {
		return nil, err
	}
	return s.update(ctx, id, bson.M{"status": status})
}

func (s *ResourceRequestService) Fulfill(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.ResourceRequest, error) {
	return s.setStatus(ctx, actor, id, models.RequestFulfilled, false)
}

func (s *ResourceRequestService) Reopen(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.ResourceRequest, error) {
	return s.setStatus(ctx, actor, id, models.RequestOpen, false)
}

func (s *ResourceRequestService) Close(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.ResourceRequest, error) {
	return s.setStatus(ctx, actor, id, models.RequestClosed, true)
}

func (s *ResourceRequestService) Stats(ctx context.Context) (map[string]int64, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for _, st := range []string{models.RequestOpen, models.RequestFulfilled, models.RequestClosed} {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	return counts, nil
}
