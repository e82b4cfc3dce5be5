package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityLog is an append-only audit record of a user action.
type ActivityLog struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID     `bson:"user_id" json:"userId"`
	ActionType string                 `bson:"action_type" json:"actionType"` // e.g. "join_group", "admin_archive_group"
	Details    map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
	Timestamp  time.Time              `bson:"timestamp" json:"timestamp"`
}

type ActivityFilter struct {
	UserID     *primitive.ObjectID
	ActionType string
	From       *time.Time
	To         *time.Time
}

// Activity action types.
const (
	ActionSignup             = "signup"
	ActionLogin              = "login"
	ActionPasswordReset      = "password_reset"
	ActionProfileUpdate      = "profile_update"
	ActionNameChange         = "name_change"
	ActionCreateGroup        = "create_group"
	ActionJoinGroup          = "join_group"
	ActionLeaveGroup         = "leave_group"
	ActionInviteMember       = "invite_member"
	ActionChangeMemberRole   = "change_member_role"
	ActionRemoveMember       = "remove_member"
	ActionCreateSession      = "create_session"
	ActionStartSession       = "start_session"
	ActionEndSession         = "end_session"
	ActionCancelSession      = "cancel_session"
	ActionJoinSession        = "join_session"
	ActionLeaveSession       = "leave_session"
	ActionUploadResource     = "upload_resource"
	ActionCreateRequest      = "create_request"
	ActionRespondRequest     = "respond_request"
	ActionCreateReport       = "create_report"
	ActionCreateFeedback     = "create_feedback"
	ActionAdminUpdateUser    = "admin_update_user"
	ActionAdminChangeRole    = "admin_change_role"
	ActionAdminSetStatus     = "admin_set_status"
	ActionAdminDeleteUser    = "admin_delete_user"
	ActionAdminUpdateGroup   = "admin_update_group"
	ActionAdminArchiveGroup  = "admin_archive_group"
	ActionAdminDeleteGroup   = "admin_delete_group"
	ActionAdminSessionStatus = "admin_session_status"
	ActionAdminHideContent   = "admin_hide_content"
	ActionAdminReportAction  = "admin_report_action"
)
