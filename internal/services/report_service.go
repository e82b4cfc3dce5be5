package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/pkg/validation"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const EventNewReport = "new-report"

type ReportStore interface {
	Create(ctx context.Context, rep *models.Report) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	List(ctx context.Context, f models.ReportFilter, p models.Pagination) ([]models.Report, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Report, error)
	UpdateStatusMany(ctx context.Context, ids []primitive.ObjectID, status string, reviewer primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountBy(ctx context.Context, field string) (map[string]int64, error)
}

// AccountModerator changes a user's account status.
type AccountModerator interface {
	SetStatus(ctx context.Context, actor Actor, id primitive.ObjectID, status, reason string) (*models.User, error)
}

type ResourceModerator interface {
	GetResourceByID(ctx context.Context, id primitive.ObjectID) (*models.Resource, error)
	UpdateResource(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Resource, error)
	DeleteResource(ctx context.Context, id primitive.ObjectID) error
}

type MessageModerator interface {
	GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.ChatMessage, error)
	UpdateMessage(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.ChatMessage, error)
	DeleteMessage(ctx context.Context, id primitive.ObjectID) error
}

type GroupModerator interface {
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.LearningGroup, error)
	UpdateGroup(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.LearningGroup, error)
}

type SessionModerator interface {
	GetSessionByID(ctx context.Context, id primitive.ObjectID) (*models.Session, error)
	UpdateSession(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Session, error)
}

// ReportTargets are the stores a report can point into.
type ReportTargets struct {
	Users     UserLookup
	Accounts  AccountModerator
	Resources ResourceModerator
	Messages  MessageModerator
	Groups    GroupModerator
	Sessions  SessionModerator
}

type ReportService struct {
	repo      ReportStore
	targets   ReportTargets
	notifier  Notifier
	publisher Publisher
	activity  ActivityLogger
}

func NewReportService(repo ReportStore, targets ReportTargets, notifier Notifier, publisher Publisher, activity ActivityLogger) *ReportService {
	return &ReportService{repo: repo, targets: targets, notifier: notifier, publisher: publisher, activity: activity}
}

type ReportInput struct {
	Type            string                `json:"type" validate:"required,oneof=user content"`
	ReportedUser    string                `json:"reportedUser"`
	ReportedContent *ReportedContentInput `json:"reportedContent"`
	Reason          string                `json:"reason" validate:"required,max=200"`
	Description     string                `json:"description" validate:"max=2000"`
}

type ReportedContentInput struct {
	ContentType string `json:"contentType"`
	ContentID   string `json:"contentId"`
}

// contentExists reports whether the referenced content can be found.
func (s *ReportService) contentExists(ctx context.Context, contentType string, id primitive.ObjectID) error {
	var err error
	switch contentType {
	case models.ContentResource:
		_, err = s.targets.Resources.GetResourceByID(ctx, id)
	case models.ContentMessage:
		_, err = s.targets.Messages.GetMessageByID(ctx, id)
	case models.ContentGroup:
		_, err = s.targets.Groups.GetGroupByID(ctx, id)
	case models.ContentSession:
		_, err = s.targets.Sessions.GetSessionByID(ctx, id)
	default:
		return apperr.Validation("Invalid content type.")
	}
	return storeErr(err, fmt.Sprintf("Reported %s not found.", contentType))
}

// Create files a report and alerts the admin room.
func (s *ReportService) Create(ctx context.Context, actor Actor, in ReportInput) (*models.Report, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	rep := &models.Report{
		Type:        in.Type,
		ReportedBy:  actor.ID,
		Reason:      in.Reason,
		Description: in.Description,
		Status:      models.ReportPending,
	}

	switch in.Type {
	case models.ReportTypeUser:
		if in.ReportedUser == "" {
			return nil, apperr.Validation("ReportedUser is required for user reports.")
		}
		uid, err := primitive.ObjectIDFromHex(in.ReportedUser)
		if err != nil {
			return nil, apperr.Validation("Invalid user id.")
		}
		if _, err := s.targets.Users.GetUserByID(ctx, uid); err != nil {
			return nil, storeErr(err, "Reported user not found.")
		}
		if uid == actor.ID {
			return nil, apperr.Validation("You cannot report yourself.")
		}
		rep.ReportedUser = &uid
	case models.ReportTypeContent:
		c := in.ReportedContent
		if c == nil || c.ContentType == "" || c.ContentID == "" {
			return nil, apperr.Validation("ReportedContent (contentType and contentId) is required for content reports.")
		}
		cid, err := primitive.ObjectIDFromHex(c.ContentID)
		if err != nil {
			return nil, apperr.Validation("Invalid content id.")
		}
		if err := s.contentExists(ctx, c.ContentType, cid); err != nil {
			return nil, err
		}
		rep.ReportedContent = &models.ReportedContent{ContentType: c.ContentType, ContentID: cid}
	}

	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, apperr.Internal(err)
	}
	s.activity.Log(ctx, actor.ID, models.ActionCreateReport, map[string]interface{}{
		"reportId": rep.ID.Hex(),
		"type":     rep.Type,
		"reason":   rep.Reason,
	})
	publishQuietly(s.publisher.ToAdmins(EventNewReport, rep), EventNewReport)
	return rep, nil
}

func (s *ReportService) List(ctx context.Context, f models.ReportFilter, p models.Pagination) (*models.Page[models.Report], error) {
	items, total, err := s.repo.List(ctx, f, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pageOf(items, total, p), nil
}

func (s *ReportService) Mine(ctx context.Context, actor Actor, p models.Pagination) (*models.Page[models.Report], error) {
	return s.List(ctx, models.ReportFilter{ReportedBy: &actor.ID}, p)
}

func (s *ReportService) Get(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Report not found.")
	}
	return rep, nil
}

// UpdateStatus records an admin review and tells the reporter.
func (s *ReportService) UpdateStatus(ctx context.Context, actor Actor, id primitive.ObjectID, status, notes string) (*models.Report, error) {
	if !models.ValidReportStatus(status) {
		return nil, apperr.Validation("Invalid status.")
	}
	fields := bson.M{
		"status":      status,
		"reviewed_by": actor.ID,
		"reviewed_at": time.Now(),
	}
	if notes != "" {
		fields["admin_notes"] = notes
	}
	rep, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, storeErr(err, "Report not found.")
	}
	notifyQuietly(ctx, s.notifier, NotifyInput{
		UserID:  rep.ReportedBy,
		Type:    models.NotificationReportStatus,
		Title:   "Report updated",
		Message: "Your report is now " + status + ".",
		Data:    models.NotificationData{ReportID: idPtr(rep.ID)},
	})
	return rep, nil
}

// BulkUpdateStatus sets status on many reports at once and returns how many
// changed.
func (s *ReportService) BulkUpdateStatus(ctx context.Context, actor Actor, ids []string, status string) (int64, error) {
	if !models.ValidReportStatus(status) {
		return 0, apperr.Validation("Invalid status.")
	}
	if len(ids) == 0 {
		return 0, apperr.Validation("reportIds must not be empty.")
	}
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, raw := range ids {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return 0, apperr.Validation("Invalid report id: " + raw)
		}
		oids = append(oids, oid)
	}
	n, err := s.repo.UpdateStatusMany(ctx, oids, status, actor.ID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

type TakeActionInput struct {
	Action       string `json:"action" validate:"required"`
	ActionReason string `json:"actionReason" validate:"max=1000"`
}

// TakeAction applies a moderation outcome to the report's target and
// resolves the report.
func (s *ReportService) TakeAction(ctx context.Context, actor Actor, id primitive.ObjectID, in TakeActionInput) (*models.Report, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	rep, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case rep.Type == models.ReportTypeUser && rep.ReportedUser != nil:
		err = s.actOnUser(ctx, actor, *rep.ReportedUser, in)
	case rep.Type == models.ReportTypeContent && rep.ReportedContent != nil:
		err = s.actOnContent(ctx, *rep.ReportedContent, in.Action)
	default:
		err = apperr.Validation("No valid action taken.")
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, bson.M{
		"status":        models.ReportResolved,
		"reviewed_by":   actor.ID,
		"reviewed_at":   time.Now(),
		"action_taken":  in.Action,
		"action_reason": in.ActionReason,
	})
	if err != nil {
		return nil, storeErr(err, "Report not found.")
	}
	s.activity.Log(ctx, actor.ID, models.ActionAdminReportAction, map[string]interface{}{
		"reportId":     id.Hex(),
		"action":       in.Action,
		"actionReason": in.ActionReason,
	})
	return updated, nil
}

func (s *ReportService) actOnUser(ctx context.Context, actor Actor, userID primitive.ObjectID, in TakeActionInput) error {
	switch in.Action {
	case models.ActionWarn:
		notifyQuietly(ctx, s.notifier, NotifyInput{
			UserID:   userID,
			Type:     models.NotificationAccountStatus,
			Title:    "Account warning",
			Message:  strings.TrimSpace("You have received a warning from the moderators. " + in.ActionReason),
			Priority: models.PriorityHigh,
		})
		return nil
	case models.ActionSuspend:
		_, err := s.targets.Accounts.SetStatus(ctx, actor, userID, models.UserStatusSuspended, in.ActionReason)
		return err
	case models.ActionBan:
		_, err := s.targets.Accounts.SetStatus(ctx, actor, userID, models.UserStatusBanned, in.ActionReason)
		return err
	case models.ActionDismiss:
		return nil
	}
	return apperr.Validation("Invalid action for user report.")
}

func (s *ReportService) actOnContent(ctx context.Context, c models.ReportedContent, action string) error {
	switch action {
	case models.ActionRemove:
		return s.removeContent(ctx, c)
	case models.ActionHide:
		return s.hideContent(ctx, c)
	case models.ActionDismiss:
		return nil
	}
	return apperr.Validation("Invalid action for content report.")
}

func (s *ReportService) removeContent(ctx context.Context, c models.ReportedContent) error {
	notFound := fmt.Sprintf("Reported %s not found.", c.ContentType)
	switch c.ContentType {
	case models.ContentResource:
		return storeErr(s.targets.Resources.DeleteResource(ctx, c.ContentID), notFound)
	case models.ContentMessage:
		msg, err := s.targets.Messages.GetMessageByID(ctx, c.ContentID)
		if err != nil {
			return storeErr(err, notFound)
		}
		if err := s.targets.Messages.DeleteMessage(ctx, c.ContentID); err != nil {
			return storeErr(err, notFound)
		}
		publishQuietly(s.publisher.ToGroup(msg.GroupID, EventMessageDeleted, map[string]string{"id": c.ContentID.Hex()}), EventMessageDeleted)
		return nil
	case models.ContentGroup:
		_, err := s.targets.Groups.UpdateGroup(ctx, c.ContentID, bson.M{"status": models.GroupStatusArchived})
		return storeErr(err, notFound)
	case models.ContentSession:
		_, err := s.targets.Sessions.UpdateSession(ctx, c.ContentID, bson.M{"status": models.SessionCancelled})
		return storeErr(err, notFound)
	}
	return apperr.Validation("Invalid content type.")
}

func (s *ReportService) hideContent(ctx context.Context, c models.ReportedContent) error {
	notFound := fmt.Sprintf("Reported %s not found.", c.ContentType)
	switch c.ContentType {
	case models.ContentResource:
		_, err := s.targets.Resources.UpdateResource(ctx, c.ContentID, bson.M{"hidden": true})
		return storeErr(err, notFound)
	case models.ContentMessage:
		msg, err := s.targets.Messages.UpdateMessage(ctx, c.ContentID, bson.M{"hidden": true})
		if err != nil {
			return storeErr(err, notFound)
		}
		publishQuietly(s.publisher.ToGroup(msg.GroupID, EventMessageDeleted, map[string]string{"id": c.ContentID.Hex()}), EventMessageDeleted)
		return nil
	}
	return apperr.Validation("Only resources and messages can be hidden.")
}

func (s *ReportService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr(err, "Report not found.")
	}
	s.activity.Log(ctx, actor.ID, models.ActionAdminReportAction, map[string]interface{}{"reportId": id.Hex(), "action": "delete"})
	return nil
}

type ReportStats struct {
	Total         int64            `json:"total"`
	ByStatus      map[string]int64 `json:"byStatus"`
	ByType        map[string]int64 `json:"byType"`
	ByContentType map[string]int64 `json:"byContentType"`
	TopReasons    map[string]int64 `json:"topReasons"`
}

func (s *ReportService) Stats(ctx context.Context) (*ReportStats, error) {
	stats := &ReportStats{}
	for field, dst := range map[string]*map[string]int64{
		"status":                        &stats.ByStatus,
		"type":                          &stats.ByType,
		"reported_content.content_type": &stats.ByContentType,
		"reason":                        &stats.TopReasons,
	} {
		counts, err := s.repo.CountBy(ctx, field)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		delete(counts, "")
		*dst = counts
	}
	for _, n := range stats.ByStatus {
		stats.Total += n
	}
	return stats, nil
}
