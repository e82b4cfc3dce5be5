package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationGroupInvite       = "group_invite"
	NotificationGroupJoined       = "group_joined"
	NotificationGroupLeft         = "group_left"
	NotificationResourceAdded     = "resource_added"
	NotificationSessionScheduled  = "session_scheduled"
	NotificationSessionReminder   = "session_reminder"
	NotificationSessionStarted    = "session_started"
	NotificationSessionCancelled  = "session_cancelled"
	NotificationChatMessage       = "chat_message"
	NotificationResourceRequest   = "resource_request"
	NotificationRequestResponse   = "request_response"
	NotificationReportStatus      = "report_status"
	NotificationReputationEarned  = "reputation_earned"
	NotificationRoleChanged       = "role_changed"
	NotificationAccountStatus     = "account_status"
	NotificationAdminAnnouncement = "admin_announcement"
	NotificationSystem            = "system"
)

var NotificationTypes = []string{
	NotificationGroupInvite,
	NotificationGroupJoined,
	NotificationGroupLeft,
	NotificationResourceAdded,
	NotificationSessionScheduled,
	NotificationSessionReminder,
	NotificationSessionStarted,
	NotificationSessionCancelled,
	NotificationChatMessage,
	NotificationResourceRequest,
	NotificationRequestResponse,
	NotificationReportStatus,
	NotificationReputationEarned,
	NotificationRoleChanged,
	NotificationAccountStatus,
	NotificationAdminAnnouncement,
	NotificationSystem,
}

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// NotificationTTL is how long a notification lives before the TTL index
// removes it.
const NotificationTTL = 30 * 24 * time.Hour

func ValidNotificationType(t string) bool {
	for _, nt := range NotificationTypes {
		if nt == t {
			return true
		}
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// NotificationData carries ids and a link the client uses to deep-link.
type NotificationData struct {
	GroupID    *primitive.ObjectID `bson:"group_id,omitempty" json:"groupId,omitempty"`
	ResourceID *primitive.ObjectID `bson:"resource_id,omitempty" json:"resourceId,omitempty"`
	SessionID  *primitive.ObjectID `bson:"session_id,omitempty" json:"sessionId,omitempty"`
	MessageID  *primitive.ObjectID `bson:"message_id,omitempty" json:"messageId,omitempty"`
	RequestID  *primitive.ObjectID `bson:"request_id,omitempty" json:"requestId,omitempty"`
	ReportID   *primitive.ObjectID `bson:"report_id,omitempty" json:"reportId,omitempty"`
	UserID     *primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`
	Link       string              `bson:"link,omitempty" json:"link,omitempty"`
	Action     string              `bson:"action,omitempty" json:"action,omitempty"`
}

type Notification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	Type        string             `bson:"type" json:"type"`
	Title       string             `bson:"title" json:"title"`
	Message     string             `bson:"message" json:"message"`
	Data        NotificationData   `bson:"data" json:"data"`
	Priority    string             `bson:"priority" json:"priority"`
	Read        bool               `bson:"read" json:"read"`
	ReadAt      *time.Time         `bson:"read_at,omitempty" json:"readAt,omitempty"`
	Delivered   bool               `bson:"delivered" json:"delivered"`
	DeliveredAt *time.Time         `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`
	EmailSent   bool               `bson:"email_sent" json:"emailSent"`
	EmailSentAt *time.Time         `bson:"email_sent_at,omitempty" json:"emailSentAt,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	ExpiresAt   time.Time          `bson:"expires_at" json:"expiresAt"`
}

type NotificationFilter struct {
	Type     string
	Priority string
	Read     *bool
}

type NotificationStats struct {
	Total      int64            `json:"total"`
	Read       int64            `json:"read"`
	Unread     int64            `json:"unread"`
	EmailsSent int64            `json:"emailsSent"`
	ByType     map[string]int64 `json:"byType"`
	ByPriority map[string]int64 `json:"byPriority"`
	Recent24h  int64            `json:"recent24h"`
}
