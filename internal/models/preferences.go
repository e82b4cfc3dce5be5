package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Email preference categories. Each notification type maps to at most one.
const (
	CategoryGroupInvites       = "groupInvites"
	CategoryNewResources       = "newResources"
	CategorySessionReminders   = "sessionReminders"
	CategoryChatMessages       = "chatMessages"
	CategoryResourceRequests   = "resourceRequests"
	CategoryReportUpdates      = "reportUpdates"
	CategoryAdminAnnouncements = "adminAnnouncements"
)

var emailCategories = map[string]string{
	NotificationGroupInvite:       CategoryGroupInvites,
	NotificationResourceAdded:     CategoryNewResources,
	NotificationSessionScheduled:  CategorySessionReminders,
	NotificationSessionReminder:   CategorySessionReminders,
	NotificationSessionStarted:    CategorySessionReminders,
	NotificationSessionCancelled:  CategorySessionReminders,
	NotificationChatMessage:       CategoryChatMessages,
	NotificationResourceRequest:   CategoryResourceRequests,
	NotificationRequestResponse:   CategoryResourceRequests,
	NotificationReportStatus:      CategoryReportUpdates,
	NotificationAdminAnnouncement: CategoryAdminAnnouncements,
}

// EmailCategory returns the preference category for a notification type.
// Types without a category never produce email.
func EmailCategory(notificationType string) (string, bool) {
	c, ok := emailCategories[notificationType]
	return c, ok
}

type EmailPreferences struct {
	Enabled            bool `bson:"enabled" json:"enabled"`
	GroupInvites       bool `bson:"group_invites" json:"groupInvites"`
	NewResources       bool `bson:"new_resources" json:"newResources"`
	SessionReminders   bool `bson:"session_reminders" json:"sessionReminders"`
	ChatMessages       bool `bson:"chat_messages" json:"chatMessages"`
	ResourceRequests   bool `bson:"resource_requests" json:"resourceRequests"`
	ReportUpdates      bool `bson:"report_updates" json:"reportUpdates"`
	AdminAnnouncements bool `bson:"admin_announcements" json:"adminAnnouncements"`
}

func (p EmailPreferences) category(c string) bool {
	switch c {
	case CategoryGroupInvites:
		return p.GroupInvites
	case CategoryNewResources:
		return p.NewResources
	case CategorySessionReminders:
		return p.SessionReminders
	case CategoryChatMessages:
		return p.ChatMessages
	case CategoryResourceRequests:
		return p.ResourceRequests
	case CategoryReportUpdates:
		return p.ReportUpdates
	case CategoryAdminAnnouncements:
		return p.AdminAnnouncements
	}
	return false
}

type PushPreferences struct {
	Enabled            bool `bson:"enabled" json:"enabled"`
	GroupInvites       bool `bson:"group_invites" json:"groupInvites"`
	NewResources       bool `bson:"new_resources" json:"newResources"`
	SessionReminders   bool `bson:"session_reminders" json:"sessionReminders"`
	ChatMessages       bool `bson:"chat_messages" json:"chatMessages"`
	ResourceRequests   bool `bson:"resource_requests" json:"resourceRequests"`
	ReportUpdates      bool `bson:"report_updates" json:"reportUpdates"`
	AdminAnnouncements bool `bson:"admin_announcements" json:"adminAnnouncements"`
}

type InAppPreferences struct {
	Enabled            bool `bson:"enabled" json:"enabled"`
	GroupInvites       bool `bson:"group_invites" json:"groupInvites"`
	NewResources       bool `bson:"new_resources" json:"newResources"`
	SessionReminders   bool `bson:"session_reminders" json:"sessionReminders"`
	ChatMessages       bool `bson:"chat_messages" json:"chatMessages"`
	ResourceRequests   bool `bson:"resource_requests" json:"resourceRequests"`
	ReportUpdates      bool `bson:"report_updates" json:"reportUpdates"`
	AdminAnnouncements bool `bson:"admin_announcements" json:"adminAnnouncements"`
}

type QuietHours struct {
	Enabled   bool   `bson:"enabled" json:"enabled"`
	StartTime string `bson:"start_time" json:"startTime"`
	EndTime   string `bson:"end_time" json:"endTime"`
}

type UserPreferences struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"userId"`
	Email      EmailPreferences   `bson:"email" json:"email"`
	Push       PushPreferences    `bson:"push" json:"push"`
	InApp      InAppPreferences   `bson:"in_app" json:"inApp"`
	QuietHours QuietHours         `bson:"quiet_hours" json:"quietHours"`
	Language   string             `bson:"language" json:"language"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

// DefaultPreferences returns the settings a user starts with. Chat message
// email is the only email category that starts off.
func DefaultPreferences(userID primitive.ObjectID) *UserPreferences {
	now := time.Now()
	return &UserPreferences{
		UserID: userID,
		Email: EmailPreferences{
			Enabled:            true,
			GroupInvites:       true,
			NewResources:       true,
			SessionReminders:   true,
			ChatMessages:       false,
			ResourceRequests:   true,
			ReportUpdates:      true,
			AdminAnnouncements: true,
		},
		Push: PushPreferences{
			Enabled:            true,
			GroupInvites:       true,
			NewResources:       true,
			SessionReminders:   true,
			ChatMessages:       true,
			ResourceRequests:   true,
			ReportUpdates:      true,
			AdminAnnouncements: true,
		},
		InApp: InAppPreferences{
			Enabled:            true,
			GroupInvites:       true,
			NewResources:       true,
			SessionReminders:   true,
			ChatMessages:       true,
			ResourceRequests:   true,
			ReportUpdates:      true,
			AdminAnnouncements: true,
		},
		QuietHours: QuietHours{Enabled: false, StartTime: "22:00", EndTime: "08:00"},
		Language:   "en",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// WantsEmail reports whether a notification of this type should be emailed.
func (p *UserPreferences) WantsEmail(notificationType string) bool {
	if !p.Email.Enabled {
		return false
	}
	c, ok := EmailCategory(notificationType)
	if !ok {
		return false
	}
	return p.Email.category(c)
}

// WantsInApp reports whether the in-app channel is on.
func (p *UserPreferences) WantsInApp() bool {
	return p.InApp.Enabled
}
