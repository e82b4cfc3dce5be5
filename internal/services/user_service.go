package services

import (
	"context"
	"strings"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/authz"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStore interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error)
	UpdateLastActive(ctx context.Context, id primitive.ObjectID) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	ListUsers(ctx context.Context, f models.UserFilter, p models.Pagination) ([]models.User, int64, error)
}

// UserService encapsulates profile and account administration.
type UserService struct {
	repo     UserStore
	tokens   TokenStore
	notifier Notifier
	activity ActivityLogger
}

func NewUserService(repo UserStore, tokens TokenStore, notifier Notifier, activity ActivityLogger) *UserService {
	return &UserService{repo: repo, tokens: tokens, notifier: notifier, activity: activity}
}

func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "User not found.")
	}
	return user, nil
}

type ProfileInput struct {
	Name    *string        `json:"name" validate:"omitempty,min=1,max=100"`
	Bio     *string        `json:"bio" validate:"omitempty,max=1000"`
	Avatar  *string        `json:"avatar" validate:"omitempty,url"`
	Country *string        `json:"country" validate:"omitempty,max=100"`
	Region  *string        `json:"region" validate:"omitempty,max=100"`
	Skills  []models.Skill `json:"skills" validate:"omitempty,dive"`
}

// UpdateProfile applies the provided profile fields. A name change is
// logged separately from other profile edits.
func (s *UserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, in ProfileInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	current, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	set := func(key string, v *string) {
		if v != nil {
			fields["profile."+key] = strings.TrimSpace(*v)
		}
	}
	set("name", in.Name)
	set("bio", in.Bio)
	set("avatar", in.Avatar)
	set("country", in.Country)
	set("region", in.Region)
	if in.Skills != nil {
		fields["skills"] = in.Skills
	}
	if len(fields) == 0 {
		return current, nil
	}

	updated, err := s.repo.UpdateUser(ctx, userID, fields)
	if err != nil {
		return nil, storeErr(err, "User not found.")
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) != current.Profile.Name {
		s.activity.Log(ctx, userID, models.ActionNameChange, map[string]interface{}{
			"from": current.Profile.Name,
			"to":   updated.Profile.Name,
		})
	} else {
		s.activity.Log(ctx, userID, models.ActionProfileUpdate, nil)
	}
	return updated, nil
}

// UpdateLastActive satisfies middleware.LastActiveUpdater.
func (s *UserService) UpdateLastActive(ctx context.Context, userID primitive.ObjectID) error {
	return s.repo.UpdateLastActive(ctx, userID)
}

func (s *UserService) List(ctx context.Context, f models.UserFilter, p models.Pagination) (*models.Page[models.User], error) {
	users, total, err := s.repo.ListUsers(ctx, f, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pageOf(users, total, p), nil
}

type AdminUserUpdate struct {
	ProfileInput
	Verified *bool `json:"verified"`
}

func (s *UserService) AdminUpdate(ctx context.Context, actor Actor, id primitive.ObjectID, in AdminUserUpdate) (*models.User, error) {
	user, err := s.UpdateProfile(ctx, id, in.ProfileInput)
	if err != nil {
		return nil, err
	}
	if in.Verified != nil {
		if user, err = s.repo.UpdateUser(ctx, id, bson.M{"verified": *in.Verified}); err != nil {
			return nil, storeErr(err, "User not found.")
		}
	}
	s.activity.Log(ctx, actor.ID, models.ActionAdminUpdateUser, map[string]interface{}{"targetId": id.Hex()})
	return user, nil
}

func (s *UserService) AdminDelete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if actor.ID == id {
		return apperr.Validation("You cannot delete your own account.")
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return storeErr(err, "User not found.")
	}
	if err := s.tokens.DeleteForUser(ctx, id, models.TokenRefresh); err != nil {
		logrus.WithError(err).Warn("Failed to revoke refresh tokens of deleted user")
	}
	s.activity.Log(ctx, actor.ID, models.ActionAdminDeleteUser, map[string]interface{}{"targetId": id.Hex()})
	return nil
}

// ChangeRole sets a platform role. Only a superadmin may grant or revoke
// superadmin.
func (s *UserService) ChangeRole(ctx context.Context, actor Actor, id primitive.ObjectID, role string) (*models.User, error) {
	if !authz.ValidRole(role) {
		return nil, apperr.Validation("Role must be one of user, admin, superadmin.")
	}
	target, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	touchesSuperadmin := role == authz.RoleSuperadmin || target.Role == authz.RoleSuperadmin
	if touchesSuperadmin && !actor.Can(authz.AssignSuperadmin) {
		return nil, apperr.Forbidden("Only a superadmin can change superadmin roles.")
	}
	if actor.ID == id {
		return nil, apperr.Validation("You cannot change your own role.")
	}

	updated, err := s.repo.UpdateUser(ctx, id, bson.M{"role": role})
	if err != nil {
		return nil, storeErr(err, "User not found.")
	}
	s.activity.Log(ctx, actor.ID, models.ActionAdminChangeRole, map[string]interface{}{
		"targetId": id.Hex(),
		"from":     target.Role,
		"to":       role,
	})
	notifyQuietly(ctx, s.notifier, NotifyInput{
		UserID:   id,
		Type:     models.NotificationRoleChanged,
		Title:    "Your role has changed",
		Message:  "Your platform role is now " + role + ".",
		Priority: models.PriorityHigh,
	})
	return updated, nil
}

// SetStatus bans, suspends or reactivates an account. Blocking an account
// revokes its refresh tokens.
func (s *UserService) SetStatus(ctx context.Context, actor Actor, id primitive.ObjectID, status, reason string) (*models.User, error) {
	switch status {
	case models.UserStatusActive, models.UserStatusBanned, models.UserStatusSuspended:
	default:
		return nil, apperr.Validation("Invalid account status.")
	}
	if actor.ID == id {
		return nil, apperr.Validation("You cannot change your own status.")
	}
	target, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Role == authz.RoleSuperadmin && !actor.Can(authz.AssignSuperadmin) {
		return nil, apperr.Forbidden("Only a superadmin can change a superadmin's status.")
	}

	updated, err := s.repo.UpdateUser(ctx, id, bson.M{"status": status})
	if err != nil {
		return nil, storeErr(err, "User not found.")
	}
	if status != models.UserStatusActive {
		if err := s.tokens.DeleteForUser(ctx, id, models.TokenRefresh); err != nil {
			logrus.WithError(err).Warn("Failed to revoke refresh tokens")
		}
	}

	s.activity.Log(ctx, actor.ID, models.ActionAdminSetStatus, map[string]interface{}{
		"targetId": id.Hex(),
		"status":   status,
		"reason":   reason,
	})
	message := "Your account status is now " + status + "."
	if reason != "" {
		message += " Reason: " + reason
	}
	notifyQuietly(ctx, s.notifier, NotifyInput{
		UserID:   id,
		Type:     models.NotificationAccountStatus,
		Title:    "Account status updated",
		Message:  message,
		Priority: models.PriorityUrgent,
	})
	return updated, nil
}

func (s *UserService) AdminResetPassword(ctx context.Context, actor Actor, id primitive.ObjectID, password string) error {
	if err := validation.Var("password", password, "required,min=6"); err != nil {
		return err
	}
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	if _, err := s.repo.UpdateUser(ctx, id, bson.M{"password_hash": hashed}); err != nil {
		return storeErr(err, "User not found.")
	}
	if err := s.tokens.DeleteForUser(ctx, id, models.TokenRefresh); err != nil {
		logrus.WithError(err).Warn("Failed to revoke refresh tokens after admin reset")
	}
	s.activity.Log(ctx, actor.ID, models.ActionPasswordReset, map[string]interface{}{"targetId": id.Hex(), "byAdmin": true})
	return nil
}
