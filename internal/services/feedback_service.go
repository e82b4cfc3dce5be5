package services

import (
	"context"
	"strings"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/pkg/email"
	"github.com/Dias221467/Saviya_Learn/pkg/validation"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FeedbackStore interface {
	Create(ctx context.Context, fb *models.Feedback) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Feedback, error)
	List(ctx context.Context, f models.FeedbackFilter, p models.Pagination) ([]models.Feedback, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Feedback, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type FeedbackService struct {
	repo     FeedbackStore
	activity ActivityLogger
}

func NewFeedbackService(repo FeedbackStore, activity ActivityLogger) *FeedbackService {
	return &FeedbackService{repo: repo, activity: activity}
}

type FeedbackInput struct {
	Message  string                 `json:"message" validate:"required,max=5000"`
	Rating   int                    `json:"rating" validate:"omitempty,min=1,max=5"`
	Email    string                 `json:"email" validate:"omitempty,email"`
	Name     string                 `json:"name" validate:"max=100"`
	Type     string                 `json:"type" validate:"omitempty,oneof=general bug feature"`
	Metadata map[string]interface{} `json:"metadata"`
}

// FeedbackOrigin describes where a submission came from. UserID is nil for
// anonymous feedback.
type FeedbackOrigin struct {
	UserID    *primitive.ObjectID
	IP        string
	UserAgent string
}

// Create stores a feedback submission with any markup removed.
func (s *FeedbackService) Create(ctx context.Context, in FeedbackInput, origin FeedbackOrigin) (*models.Feedback, error) {
	in.Message = strings.TrimSpace(email.StripTags(in.Message))
	in.Name = strings.TrimSpace(email.StripTags(in.Name))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = "general"
	}

	fb := &models.Feedback{
		UserID:    origin.UserID,
		Email:     in.Email,
		Name:      in.Name,
		Type:      in.Type,
		Message:   in.Message,
		Rating:    in.Rating,
		Status:    models.FeedbackOpen,
		Metadata:  in.Metadata,
		IP:        origin.IP,
		UserAgent: origin.UserAgent,
	}
	if err := s.repo.Create(ctx, fb); err != nil {
		return nil, apperr.Internal(err)
	}
	if origin.UserID != nil {
		s.activity.Log(ctx, *origin.UserID, models.ActionCreateFeedback, map[string]interface{}{
			"feedbackId": fb.ID.Hex(),
			"type":       fb.Type,
		})
	}
	return fb, nil
}

func (s *FeedbackService) List(ctx context.Context, f models.FeedbackFilter, p models.Pagination) (*models.Page[models.Feedback], error) {
	items, total, err := s.repo.List(ctx, f, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pageOf(items, total, p), nil
}

func (s *FeedbackService) Get(ctx context.Context, id primitive.ObjectID) (*models.Feedback, error) {
	fb, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Feedback not found.")
	}
	return fb, nil
}

type FeedbackUpdate struct {
	Status        *string `json:"status" validate:"omitempty,oneof=open responded closed"`
	AdminResponse *string `json:"adminResponse" validate:"omitempty,max=5000"`
}

func (s *FeedbackService) Update(ctx context.Context, id primitive.ObjectID, in FeedbackUpdate) (*models.Feedback, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	fields := bson.M{}
	if in.Status != nil {
		fields["status"] = *in.Status
	}
	if in.AdminResponse != nil {
		fields["admin_response"] = strings.TrimSpace(*in.AdminResponse)
		if in.Status == nil {
			fields["status"] = models.FeedbackResponded
		}
	}
	if len(fields) == 0 {
		return s.Get(ctx, id)
	}
	fb, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, storeErr(err, "Feedback not found.")
	}
	return fb, nil
}

func (s *FeedbackService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return storeErr(s.repo.Delete(ctx, id), "Feedback not found.")
}
