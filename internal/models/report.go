package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ReportTypeUser    = "user"
	ReportTypeContent = "content"

	ReportPending  = "pending"
	ReportReviewed = "reviewed"
	ReportResolved = "resolved"

	ContentResource = "resource"
	ContentSession  = "session"
	ContentMessage  = "message"
	ContentGroup    = "group"

	ActionWarn    = "warn"
	ActionSuspend = "suspend"
	ActionBan     = "ban"
	ActionRemove  = "remove"
	ActionHide    = "hide"
	ActionDismiss = "dismiss"
)

func ValidReportStatus(s string) bool {
	switch s {
	case ReportPending, ReportReviewed, ReportResolved:
		return true
	}
	return false
}

type ReportedContent struct {
	ContentType string             `bson:"content_type" json:"contentType"`
	ContentID   primitive.ObjectID `bson:"content_id" json:"contentId"`
}

type Report struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type            string              `bson:"type" json:"type"`
	ReportedBy      primitive.ObjectID  `bson:"reported_by" json:"reportedBy"`
	ReportedUser    *primitive.ObjectID `bson:"reported_user,omitempty" json:"reportedUser,omitempty"`
	ReportedContent *ReportedContent    `bson:"reported_content,omitempty" json:"reportedContent,omitempty"`
	Reason          string              `bson:"reason" json:"reason"`
	Description     string              `bson:"description,omitempty" json:"description,omitempty"`
	Status          string              `bson:"status" json:"status"`
	ReviewedBy      *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time          `bson:"reviewed_at,omitempty" json:"reviewedAt,omitempty"`
	AdminNotes      string              `bson:"admin_notes,omitempty" json:"adminNotes,omitempty"`
	ActionTaken     string              `bson:"action_taken,omitempty" json:"actionTaken,omitempty"`
	ActionReason    string              `bson:"action_reason,omitempty" json:"actionReason,omitempty"`
	CreatedAt       time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updatedAt"`
}

type ReportFilter struct {
	Status     string
	Type       string
	ReportedBy *primitive.ObjectID
}
