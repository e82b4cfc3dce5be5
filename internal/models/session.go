package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	SessionScheduled = "scheduled"
	SessionOngoing   = "ongoing"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

func ValidSessionStatus(s string) bool {
	switch s {
	case SessionScheduled, SessionOngoing, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// Attendee is one join/leave cycle. LeftAt is nil while the record is open.
type Attendee struct {
	UserID   primitive.ObjectID `bson:"user_id" json:"userId"`
	JoinedAt time.Time          `bson:"joined_at" json:"joinedAt"`
	LeftAt   *time.Time         `bson:"left_at,omitempty" json:"leftAt,omitempty"`
}

type Session struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title"`
	GroupID        primitive.ObjectID `bson:"group_id" json:"groupId"`
	TeacherID      primitive.ObjectID `bson:"teacher_id" json:"teacherId"`
	ScheduledAt    time.Time          `bson:"scheduled_at" json:"scheduledAt"`
	Duration       int                `bson:"duration" json:"duration"`
	MeetingLink    string             `bson:"meeting_link,omitempty" json:"meetingLink,omitempty"`
	Attendees      []Attendee         `bson:"attendees" json:"attendees"`
	Status         string             `bson:"status" json:"status"`
	StartedAt      *time.Time         `bson:"started_at,omitempty" json:"startedAt,omitempty"`
	EndedAt        *time.Time         `bson:"ended_at,omitempty" json:"endedAt,omitempty"`
	ReminderSentAt *time.Time         `bson:"reminder_sent_at,omitempty" json:"-"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
}

// OpenAttendance returns the index of userID's open attendee record, or -1.
func (s *Session) OpenAttendance(userID primitive.ObjectID) int {
	for i, a := range s.Attendees {
		if a.UserID == userID && a.LeftAt == nil {
			return i
		}
	}
	return -1
}

type SessionFilter struct {
	GroupID   *primitive.ObjectID
	TeacherID *primitive.ObjectID
	Status    string
}
