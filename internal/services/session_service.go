package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/authz"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventSessionStarted is published to the group room when a session goes live.
const EventSessionStarted = "session-started"

type SessionStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSessionByID(ctx context.Context, id primitive.ObjectID) (*models.Session, error)
	UpdateSession(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Session, error)
	SaveAttendees(ctx context.Context, id primitive.ObjectID, attendees []models.Attendee) error
	DeleteSession(ctx context.Context, id primitive.ObjectID) error
	ListSessions(ctx context.Context, f models.SessionFilter, p models.Pagination) ([]models.Session, int64, error)
	ListDueForReminder(ctx context.Context, now, before time.Time) ([]models.Session, error)
	MarkReminderSent(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// SessionService drives the session lifecycle and its attendance history.
type SessionService struct {
	sessions   SessionStore
	groups     GroupGetter
	reputation ReputationStore
	notifier   Notifier
	publisher  Publisher
	activity   ActivityLogger
	now        func() time.Time
}

func NewSessionService(sessions SessionStore, groups GroupGetter, reputation ReputationStore, notifier Notifier, publisher Publisher, activity ActivityLogger) *SessionService {
	return &SessionService{
		sessions:   sessions,
		groups:     groups,
		reputation: reputation,
		notifier:   notifier,
		publisher:  publisher,
		activity:   activity,
		now:        time.Now,
	}
}

type CreateSessionInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	GroupID     string    `json:"groupId" validate:"required"`
	ScheduledAt time.Time `json:"scheduledAt" validate:"required"`
	Duration    int       `json:"duration" validate:"omitempty,min=1,max=1440"`
	MeetingLink string    `json:"meetingLink" validate:"omitempty,url"`
}

func (s *SessionService) group(ctx context.Context, id primitive.ObjectID) (*models.LearningGroup, error) {
	g, err := s.groups.GetGroupByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Group not found.")
	}
	return g, nil
}

func sessionLink(id primitive.ObjectID) string {
	return "/sessions/" + id.Hex()
}

// Create schedules a session in a group the caller belongs to. The caller
// becomes the teacher.
func (s *SessionService) Create(ctx context.Context, actor Actor, in CreateSessionInput) (*models.Session, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	groupID, err := primitive.ObjectIDFromHex(in.GroupID)
	if err != nil {
		return nil, apperr.Validation("Invalid group id.")
	}
	g, err := s.group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.IsMember(actor.ID) {
		return nil, apperr.Forbidden("Only group members can schedule sessions.")
	}
	if in.Duration == 0 {
		in.Duration = 60
	}

	session := &models.Session{
		Title:       in.Title,
		GroupID:     groupID,
		TeacherID:   actor.ID,
		ScheduledAt: in.ScheduledAt.UTC(),
		Duration:    in.Duration,
		MeetingLink: in.MeetingLink,
		Attendees:   []models.Attendee{},
		Status:      models.SessionScheduled,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, apperr.Internal(err)
	}

	s.activity.Log(ctx, actor.ID, models.ActionCreateSession, map[string]interface{}{
		"sessionId": session.ID.Hex(),
		"groupId":   groupID.Hex(),
	})
	s.notifier.SendToUsers(ctx, g.MemberIDs(actor.ID), NotifyInput{
		Type:    models.NotificationSessionScheduled,
		Title:   "New session scheduled",
		Message: fmt.Sprintf("%s is scheduled for %s.", session.Title, session.ScheduledAt.Format(time.RFC1123)),
		Data:    models.NotificationData{GroupID: idPtr(groupID), SessionID: idPtr(session.ID), Link: sessionLink(session.ID)},
	})
	return session, nil
}

func (s *SessionService) Get(ctx context.Context, id primitive.ObjectID) (*models.Session, error) {
	session, err := s.sessions.GetSessionByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Session not found.")
	}
	return session, nil
}

func (s *SessionService) ListForGroup(ctx context.Context, groupID primitive.ObjectID, status string, p models.Pagination) (*models.Page[models.Session], error) {
	items, total, err := s.sessions.ListSessions(ctx, models.SessionFilter{GroupID: &groupID, Status: status}, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pageOf(items, total, p), nil
}

// owned loads a session the actor may drive: its teacher or a platform admin.
func (s *SessionService) owned(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.TeacherID != actor.ID && !actor.Can(authz.OverrideSessions) {
		return nil, apperr.Forbidden("Only the session teacher can do this.")
	}
	return session, nil
}

type UpdateSessionInput struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	ScheduledAt *time.Time `json:"scheduledAt"`
	Duration    *int       `json:"duration" validate:"omitempty,min=1,max=1440"`
	MeetingLink *string    `json:"meetingLink" validate:"omitempty,url"`
}

func (s *SessionService) Update(ctx context.Context, actor Actor, id primitive.ObjectID, in UpdateSessionInput) (*models.Session, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	session, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionScheduled {
		return nil, apperr.Validation("Only scheduled sessions can be edited.")
	}

	fields := bson.M{}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.ScheduledAt != nil {
		fields["scheduled_at"] = in.ScheduledAt.UTC()
		fields["reminder_sent_at"] = nil
	}
	if in.Duration != nil {
		fields["duration"] = *in.Duration
	}
	if in.MeetingLink != nil {
		fields["meeting_link"] = *in.MeetingLink
	}
	if len(fields) == 0 {
		return session, nil
	}
	updated, err := s.sessions.UpdateSession(ctx, id, fields)
	if err != nil {
		return nil, storeErr(err, "Session not found.")
	}
	return updated, nil
}

// Start moves a scheduled session to ongoing and tells the group.
func (s *SessionService) Start(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Session, error) {
	session, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionScheduled {
		return nil, apperr.Validation("Session already started")
	}

	updated, err := s.sessions.UpdateSession(ctx, id, bson.M{
		"status":     models.SessionOngoing,
		"started_at": s.now(),
	})
	if err != nil {
		return nil, storeErr(err, "Session not found.")
	}
	s.activity.Log(ctx, actor.ID, models.ActionStartSession, map[string]interface{}{"sessionId": id.Hex()})

	publishQuietly(s.publisher.ToGroup(updated.GroupID, EventSessionStarted, updated), EventSessionStarted)
	if g, err := s.group(ctx, updated.GroupID); err != nil {
		logrus.WithError(err).WithField("sessionID", id.Hex()).Warn("Cannot notify members of started session")
	} else {
		message := updated.Title + " has started."
		if updated.MeetingLink != "" {
			message += " Join here: " + updated.MeetingLink
		}
		s.notifier.SendToUsers(ctx, g.MemberIDs(), NotifyInput{
			Type:     models.NotificationSessionStarted,
			Title:    "Session started",
			Message:  message,
			Data:     models.NotificationData{GroupID: idPtr(g.ID), SessionID: idPtr(id), Link: sessionLink(id), Action: "join"},
			Priority: models.PriorityHigh,
		})
	}
	return updated, nil
}

// End completes an ongoing session, closes every open attendee record and
// credits the teacher.
func (s *SessionService) End(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Session, error) {
	session, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionOngoing {
		return nil, apperr.Validation("Can only end ongoing sessions")
	}

	now := s.now()
	for i := range session.Attendees {
		if session.Attendees[i].LeftAt == nil {
			session.Attendees[i].LeftAt = timePtr(now)
		}
	}
	updated, err := s.sessions.UpdateSession(ctx, id, bson.M{
		"status":    models.SessionCompleted,
		"ended_at":  now,
		"attendees": session.Attendees,
	})
	if err != nil {
		return nil, storeErr(err, "Session not found.")
	}

	if err := s.reputation.IncrementReputation(ctx, session.TeacherID, "sessions_taught", 1); err != nil {
		logrus.WithError(err).WithField("teacherID", session.TeacherID.Hex()).Warn("Failed to credit session teacher")
	}
	s.activity.Log(ctx, actor.ID, models.ActionEndSession, map[string]interface{}{"sessionId": id.Hex()})
	return updated, nil
}

// Cancel is only allowed before the session starts.
func (s *SessionService) Cancel(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Session, error) {
	session, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionScheduled {
		return nil, apperr.Validation("Only scheduled sessions can be cancelled")
	}

	updated, err := s.sessions.UpdateSession(ctx, id, bson.M{"status": models.SessionCancelled})
	if err != nil {
		return nil, storeErr(err, "Session not found.")
	}
	s.activity.Log(ctx, actor.ID, models.ActionCancelSession, map[string]interface{}{"sessionId": id.Hex()})

	if g, err := s.group(ctx, updated.GroupID); err == nil {
		s.notifier.SendToUsers(ctx, g.MemberIDs(actor.ID), NotifyInput{
			Type:    models.NotificationSessionCancelled,
			Title:   "Session cancelled",
			Message: updated.Title + " has been cancelled.",
			Data:    models.NotificationData{GroupID: idPtr(g.ID), SessionID: idPtr(id)},
		})
	}
	return updated, nil
}

// Join opens a new attendee record for the caller. Attendance does not
// depend on the session status.
func (s *SessionService) Join(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.OpenAttendance(actor.ID) >= 0 {
		return nil, apperr.Conflict("User already joined")
	}

	session.Attendees = append(session.Attendees, models.Attendee{UserID: actor.ID, JoinedAt: s.now()})
	if err := s.sessions.SaveAttendees(ctx, id, session.Attendees); err != nil {
		return nil, storeErr(err, "Session not found.")
	}
	s.activity.Log(ctx, actor.ID, models.ActionJoinSession, map[string]interface{}{"sessionId": id.Hex()})
	return session, nil
}

// Leave closes the caller's open attendee record. Without one it succeeds
// and writes nothing.
func (s *SessionService) Leave(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	i := session.OpenAttendance(actor.ID)
	if i < 0 {
		return session, nil
	}

	session.Attendees[i].LeftAt = timePtr(s.now())
	if err := s.sessions.SaveAttendees(ctx, id, session.Attendees); err != nil {
		return nil, storeErr(err, "Session not found.")
	}
	s.activity.Log(ctx, actor.ID, models.ActionLeaveSession, map[string]interface{}{"sessionId": id.Hex()})
	return session, nil
}

func (s *SessionService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return storeErr(s.sessions.DeleteSession(ctx, id), "Session not found.")
}

func (s *SessionService) AdminList(ctx context.Context, f models.SessionFilter, p models.Pagination) (*models.Page[models.Session], error) {
	items, total, err := s.sessions.ListSessions(ctx, f, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pageOf(items, total, p), nil
}

// AdminSetStatus forces a status without the lifecycle checks.
func (s *SessionService) AdminSetStatus(ctx context.Context, actor Actor, id primitive.ObjectID, status string) (*models.Session, error) {
	if !models.ValidSessionStatus(status) {
		return nil, apperr.Validation("Invalid session status.")
	}
	updated, err := s.sessions.UpdateSession(ctx, id, bson.M{"status": status})
	if err != nil {
		return nil, storeErr(err, "Session not found.")
	}
	s.activity.Log(ctx, actor.ID, models.ActionAdminSessionStatus, map[string]interface{}{
		"sessionId": id.Hex(),
		"status":    status,
	})
	return updated, nil
}

// SendReminders notifies the members of every scheduled session starting
// within lead and marks each session reminded. It returns the number of
// sessions handled.
func (s *SessionService) SendReminders(ctx context.Context, lead time.Duration) (int, error) {
	now := s.now()
	due, err := s.sessions.ListDueForReminder(ctx, now, now.Add(lead))
	if err != nil {
		return 0, err
	}

	handled := 0
	for _, session := range due {
		g, err := s.groups.GetGroupByID(ctx, session.GroupID)
		if err != nil {
			logrus.WithError(err).WithField("sessionID", session.ID.Hex()).Warn("Skipping reminder: group lookup failed")
			continue
		}
		// Mark first so a crash mid-fanout does not remind twice.
		if err := s.sessions.MarkReminderSent(ctx, session.ID, now); err != nil {
			logrus.WithError(err).WithField("sessionID", session.ID.Hex()).Warn("Failed to mark reminder sent")
			continue
		}
		s.notifier.SendToUsers(ctx, g.MemberIDs(), NotifyInput{
			Type:     models.NotificationSessionReminder,
			Title:    "Upcoming session",
			Message:  fmt.Sprintf("%s starts at %s.", session.Title, session.ScheduledAt.Format(time.Kitchen)),
			Data:     models.NotificationData{GroupID: idPtr(g.ID), SessionID: idPtr(session.ID), Link: sessionLink(session.ID)},
			Priority: models.PriorityHigh,
		})
		handled++
	}
	return handled, nil
}
