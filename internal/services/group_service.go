package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/authz"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/repository"
	"github.com/Dias221467/Saviya_Learn/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const groupSearchLimit = 50

type GroupStore interface {
	CreateGroup(ctx context.Context, g *models.LearningGroup) error
	FindByKey(ctx context.Context, grade, subject, topic string) (*models.LearningGroup, error)
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.LearningGroup, error)
	SaveMembers(ctx context.Context, id primitive.ObjectID, members []models.GroupMember) error
	UpdateGroup(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.LearningGroup, error)
	DeleteGroup(ctx context.Context, id primitive.ObjectID) error
	SearchGroups(ctx context.Context, f models.GroupFilter, limit int) ([]models.LearningGroup, error)
	ListGroupsForMember(ctx context.Context, userID primitive.ObjectID) ([]models.LearningGroup, error)
	ListGroups(ctx context.Context, f models.GroupFilter, p models.Pagination) ([]models.LearningGroup, int64, error)
}

type MemberLookup interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// GroupService owns the roster of every learning group.
type GroupService struct {
	groups   GroupStore
	users    MemberLookup
	notifier Notifier
	activity ActivityLogger
}

func NewGroupService(groups GroupStore, users MemberLookup, notifier Notifier, activity ActivityLogger) *GroupService {
	return &GroupService{groups: groups, users: users, notifier: notifier, activity: activity}
}

type CreateGroupInput struct {
	Grade        string `json:"grade" validate:"required"`
	Subject      string `json:"subject" validate:"required"`
	Topic        string `json:"topic" validate:"required"`
	Description  string `json:"description" validate:"max=2000"`
	WhatsappLink string `json:"whatsappLink" validate:"omitempty,url"`
	MaxMembers   int    `json:"maxMembers" validate:"omitempty,min=1,max=1000"`
	GroupType    string `json:"groupType" validate:"omitempty,oneof=public private"`
}

// Create makes the caller the sole owner of a new group.
func (s *GroupService) Create(ctx context.Context, actor Actor, in CreateGroupInput) (*models.LearningGroup, error) {
	in.Grade = strings.TrimSpace(in.Grade)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Topic = strings.TrimSpace(in.Topic)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.MaxMembers == 0 {
		in.MaxMembers = models.DefaultMaxMembers
	}
	if in.GroupType == "" {
		in.GroupType = models.GroupTypePublic
	}

	const taken = "Group already exists for this grade, subject and topic."
	if _, err := s.groups.FindByKey(ctx, in.Grade, in.Subject, in.Topic); err == nil {
		return nil, apperr.Conflict(taken)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	g := &models.LearningGroup{
		Grade:        in.Grade,
		Subject:      in.Subject,
		Topic:        in.Topic,
		Description:  in.Description,
		WhatsappLink: in.WhatsappLink,
		CreatedBy:    actor.ID,
		Members:      []models.GroupMember{{UserID: actor.ID, Role: models.GroupRoleOwner, JoinedAt: time.Now()}},
		MaxMembers:   in.MaxMembers,
		GroupType:    in.GroupType,
		Status:       models.GroupStatusActive,
	}
	if err := s.groups.CreateGroup(ctx, g); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict(taken)
		}
		return nil, apperr.Internal(err)
	}

	s.activity.Log(ctx, actor.ID, models.ActionCreateGroup, map[string]interface{}{"groupId": g.ID.Hex()})
	logrus.WithFields(logrus.Fields{
		"groupID": g.ID.Hex(),
		"ownerID": actor.ID.Hex(),
	}).Info("Group created")
	return g, nil
}

func (s *GroupService) Get(ctx context.Context, id primitive.ObjectID) (*models.LearningGroup, error) {
	g, err := s.groups.GetGroupByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Group not found.")
	}
	return g, nil
}

func (s *GroupService) notifyMany(ctx context.Context, ids []primitive.ObjectID, in NotifyInput) {
	if len(ids) > 0 {
		s.notifier.SendToUsers(ctx, ids, in)
	}
}

// Join adds the caller as a plain member.
func (s *GroupService) Join(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.LearningGroup, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.Status == models.GroupStatusArchived {
		return nil, apperr.Forbidden("Group is archived.")
	}
	if g.IsMember(actor.ID) {
		return nil, apperr.Conflict("Already a member.")
	}
	if g.IsFull() {
		return nil, apperr.Forbidden("Group is full.")
	}

	g.Members = append(g.Members, models.GroupMember{UserID: actor.ID, Role: models.GroupRoleMember, JoinedAt: time.Now()})
	if err := s.groups.SaveMembers(ctx, g.ID, g.Members); err != nil {
		return nil, storeErr(err, "Group not found.")
	}

	s.activity.Log(ctx, actor.ID, models.ActionJoinGroup, map[string]interface{}{"groupId": g.ID.Hex()})
	s.notifyMany(ctx, g.Owners(), NotifyInput{
		Type:    models.NotificationGroupJoined,
		Title:   "New group member",
		Message: fmt.Sprintf("A new member joined %s %s.", g.Subject, g.Topic),
		Data:    models.NotificationData{GroupID: idPtr(g.ID), UserID: idPtr(actor.ID), Link: "/groups/" + g.ID.Hex()},
	})
	return g, nil
}

// Leave removes the caller from the roster. Owners may leave; ownership is
// not handed over.
func (s *GroupService) Leave(ctx context.Context, actor Actor, id primitive.ObjectID) (*models.LearningGroup, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !g.RemoveMember(actor.ID) {
		return nil, apperr.NotFound("Not a member.")
	}
	if err := s.groups.SaveMembers(ctx, g.ID, g.Members); err != nil {
		return nil, storeErr(err, "Group not found.")
	}

	s.activity.Log(ctx, actor.ID, models.ActionLeaveGroup, map[string]interface{}{"groupId": g.ID.Hex()})
	s.notifyMany(ctx, g.Owners(), NotifyInput{
		Type:     models.NotificationGroupLeft,
		Title:    "Member left",
		Message:  fmt.Sprintf("A member left %s %s.", g.Subject, g.Topic),
		Data:     models.NotificationData{GroupID: idPtr(g.ID), UserID: idPtr(actor.ID)},
		Priority: models.PriorityLow,
	})
	return g, nil
}

type InviteInput struct {
	UserID string `json:"userId"`
	Email  string `json:"email" validate:"omitempty,email"`
}

func (s *GroupService) resolveUser(ctx context.Context, in InviteInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var (
		u   *models.User
		err error
	)
	switch {
	case in.UserID != "":
		id, perr := primitive.ObjectIDFromHex(in.UserID)
		if perr != nil {
			return nil, apperr.Validation("Invalid user id.")
		}
		u, err = s.users.GetUserByID(ctx, id)
	case in.Email != "":
		u, err = s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	default:
		return nil, apperr.Validation("userId or email is required.")
	}
	if err != nil {
		return nil, storeErr(err, "User not found.")
	}
	return u, nil
}

// Invite notifies a user about the group. The roster is unchanged until the
// invitee joins.
func (s *GroupService) Invite(ctx context.Context, actor Actor, id primitive.ObjectID, in InviteInput) error {
	g, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !g.HasRole(actor.ID, models.GroupRoleOwner, models.GroupRoleAdmin) {
		return apperr.Forbidden("Only group owners and admins can invite.")
	}
	target, err := s.resolveUser(ctx, in)
	if err != nil {
		return err
	}
	if g.IsMember(target.ID) {
		return apperr.Validation("User is already a member.")
	}

	s.activity.Log(ctx, actor.ID, models.ActionInviteMember, map[string]interface{}{
		"groupId":  g.ID.Hex(),
		"targetId": target.ID.Hex(),
	})
	notifyQuietly(ctx, s.notifier, NotifyInput{
		UserID:   target.ID,
		Type:     models.NotificationGroupInvite,
		Title:    "Group invitation",
		Message:  fmt.Sprintf("You have been invited to join %s %s (grade %s).", g.Subject, g.Topic, g.Grade),
		Data:     models.NotificationData{GroupID: idPtr(g.ID), UserID: idPtr(actor.ID), Link: "/groups/" + g.ID.Hex(), Action: "join"},
		Priority: models.PriorityHigh,
	})
	return nil
}

// canManageRoster reports whether actor may change roles or remove members:
// the group owner, or a platform admin.
func canManageRoster(g *models.LearningGroup, actor Actor) bool {
	return g.HasRole(actor.ID, models.GroupRoleOwner) || actor.Can(authz.OverrideGroups)
}

func (s *GroupService) ChangeRole(ctx context.Context, actor Actor, id, userID primitive.ObjectID, role string) (*models.LearningGroup, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageRoster(g, actor) {
		return nil, apperr.Forbidden("Only the group owner can change roles.")
	}
	if !models.AssignableGroupRole(role) {
		return nil, apperr.Validation("Role must be one of member, moderator, admin.")
	}
	m := g.Member(userID)
	if m == nil {
		return nil, apperr.NotFound("Member not found.")
	}
	if m.Role == models.GroupRoleOwner {
		return nil, apperr.Forbidden("The owner's role cannot be changed.")
	}

	previous := m.Role
	m.Role = role
	if err := s.groups.SaveMembers(ctx, g.ID, g.Members); err != nil {
		return nil, storeErr(err, "Group not found.")
	}

	s.activity.Log(ctx, actor.ID, models.ActionChangeMemberRole, map[string]interface{}{
		"groupId":  g.ID.Hex(),
		"targetId": userID.Hex(),
		"from":     previous,
		"to":       role,
	})
	notifyQuietly(ctx, s.notifier, NotifyInput{
		UserID:  userID,
		Type:    models.NotificationRoleChanged,
		Title:   "Group role updated",
		Message: fmt.Sprintf("Your role in %s %s is now %s.", g.Subject, g.Topic, role),
		Data:    models.NotificationData{GroupID: idPtr(g.ID), Link: "/groups/" + g.ID.Hex()},
	})
	return g, nil
}

func (s *GroupService) RemoveMember(ctx context.Context, actor Actor, id, userID primitive.ObjectID) (*models.LearningGroup, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageRoster(g, actor) {
		return nil, apperr.Forbidden("Only the group owner can remove members.")
	}
	m := g.Member(userID)
	if m == nil {
		return nil, apperr.NotFound("Member not found.")
	}
	if m.Role == models.GroupRoleOwner {
		return nil, apperr.Forbidden("The group owner cannot be removed.")
	}

	g.RemoveMember(userID)
	if err := s.groups.SaveMembers(ctx, g.ID, g.Members); err != nil {
		return nil, storeErr(err, "Group not found.")
	}

	s.activity.Log(ctx, actor.ID, models.ActionRemoveMember, map[string]interface{}{
		"groupId":  g.ID.Hex(),
		"targetId": userID.Hex(),
	})
	notifyQuietly(ctx, s.notifier, NotifyInput{
		UserID:  userID,
		Type:    models.NotificationSystem,
		Title:   "Removed from group",
		Message: fmt.Sprintf("You were removed from %s %s.", g.Subject, g.Topic),
		Data:    models.NotificationData{GroupID: idPtr(g.ID)},
	})
	return g, nil
}

func (s *GroupService) Search(ctx context.Context, f models.GroupFilter) ([]models.LearningGroup, error) {
	groups, err := s.groups.SearchGroups(ctx, f, groupSearchLimit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if groups == nil {
		groups = []models.LearningGroup{}
	}
	return groups, nil
}

func (s *GroupService) MyGroups(ctx context.Context, actor Actor) ([]models.LearningGroup, error) {
	groups, err := s.groups.ListGroupsForMember(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if groups == nil {
		groups = []models.LearningGroup{}
	}
	return groups, nil
}

// IsGroupMember backs the realtime room check.
func (s *GroupService) IsGroupMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	g, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return g.IsMember(userID), nil
}

func (s *GroupService) AdminList(ctx context.Context, f models.GroupFilter, p models.Pagination) (*models.Page[models.LearningGroup], error) {
	items, total, err := s.groups.ListGroups(ctx, f, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pageOf(items, total, p), nil
}

type AdminGroupUpdate struct {
	Grade        *string `json:"grade" validate:"omitempty,min=1"`
	Subject      *string `json:"subject" validate:"omitempty,min=1"`
	Topic        *string `json:"topic" validate:"omitempty,min=1"`
	Description  *string `json:"description" validate:"omitempty,max=2000"`
	Status       *string `json:"status" validate:"omitempty,oneof=active archived"`
	MaxMembers   *int    `json:"maxMembers" validate:"omitempty,min=1,max=1000"`
	GroupType    *string `json:"groupType" validate:"omitempty,oneof=public private"`
	WhatsappLink *string `json:"whatsappLink" validate:"omitempty,url"`
}

func (s *GroupService) AdminUpdate(ctx context.Context, actor Actor, id primitive.ObjectID, in AdminGroupUpdate) (*models.LearningGroup, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	setIf := func(key string, v *string) {
		if v != nil {
			fields[key] = strings.TrimSpace(*v)
		}
	}
	setIf("grade", in.Grade)
	setIf("subject", in.Subject)
	setIf("topic", in.Topic)
	setIf("description", in.Description)
	setIf("status", in.Status)
	setIf("group_type", in.GroupType)
	setIf("whatsapp_link", in.WhatsappLink)
	if in.MaxMembers != nil {
		if *in.MaxMembers < len(g.Members) {
			return nil, apperr.Validation("maxMembers cannot be lower than the current member count.")
		}
		fields["max_members"] = *in.MaxMembers
	}
	if len(fields) == 0 {
		return g, nil
	}

	updated, err := s.groups.UpdateGroup(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("Group already exists for this grade, subject and topic.")
		}
		return nil, storeErr(err, "Group not found.")
	}
	s.activity.Log(ctx, actor.ID, models.ActionAdminUpdateGroup, map[string]interface{}{"groupId": id.Hex()})
	return updated, nil
}

// AdminDelete archives the group when archive is set and deletes it otherwise.
func (s *GroupService) AdminDelete(ctx context.Context, actor Actor, id primitive.ObjectID, archive bool) error {
	if archive {
		if _, err := s.groups.UpdateGroup(ctx, id, bson.M{"status": models.GroupStatusArchived}); err != nil {
			return storeErr(err, "Group not found.")
		}
		s.activity.Log(ctx, actor.ID, models.ActionAdminArchiveGroup, map[string]interface{}{"groupId": id.Hex()})
		return nil
	}
	if err := s.groups.DeleteGroup(ctx, id); err != nil {
		return storeErr(err, "Group not found.")
	}
	s.activity.Log(ctx, actor.ID, models.ActionAdminDeleteGroup, map[string]interface{}{"groupId": id.Hex()})
	return nil
}
