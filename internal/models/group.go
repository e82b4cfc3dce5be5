package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-group roles. These are separate from the platform role on User.
const (
	GroupRoleOwner     = "owner"
	GroupRoleAdmin     = "admin"
	GroupRoleModerator = "moderator"
	GroupRoleMember    = "member"
)

const (
	GroupStatusActive   = "active"
	GroupStatusArchived = "archived"

	GroupTypePublic  = "public"
	GroupTypePrivate = "private"

	DefaultMaxMembers = 100
)

// AssignableGroupRole reports whether role may be set through a role change.
// The owner role is never assignable.
func AssignableGroupRole(role string) bool {
	switch role {
	case GroupRoleMember, GroupRoleModerator, GroupRoleAdmin:
		return true
	}
	return false
}

type GroupMember struct {
	UserID   primitive.ObjectID `bson:"user_id" json:"userId"`
	Role     string             `bson:"role" json:"role"`
	JoinedAt time.Time          `bson:"joined_at" json:"joinedAt"`
}

type LearningGroup struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Grade          string               `bson:"grade" json:"grade"`
	Subject        string               `bson:"subject" json:"subject"`
	Topic          string               `bson:"topic" json:"topic"`
	Description    string               `bson:"description,omitempty" json:"description,omitempty"`
	WhatsappLink   string               `bson:"whatsapp_link,omitempty" json:"whatsappLink,omitempty"`
	CreatedBy      primitive.ObjectID   `bson:"created_by" json:"createdBy"`
	Members        []GroupMember        `bson:"members" json:"members"`
	ResourceGroups []primitive.ObjectID `bson:"resource_groups,omitempty" json:"resourceGroups,omitempty"`
	MaxMembers     int                  `bson:"max_members" json:"maxMembers"`
	GroupType      string               `bson:"group_type" json:"groupType"`
	Status         string               `bson:"status" json:"status"`
	CreatedAt      time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updatedAt"`
}

// Member returns the roster entry for userID, or nil.
func (g *LearningGroup) Member(userID primitive.ObjectID) *GroupMember {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

func (g *LearningGroup) IsMember(userID primitive.ObjectID) bool {
	return g.Member(userID) != nil
}

// HasRole reports whether userID is a member holding one of roles.
func (g *LearningGroup) HasRole(userID primitive.ObjectID, roles ...string) bool {
	m := g.Member(userID)
	if m == nil {
		return false
	}
	for _, r := range roles {
		if m.Role == r {
			return true
		}
	}
	return false
}

func (g *LearningGroup) IsFull() bool {
	return len(g.Members) >= g.MaxMembers
}

// RemoveMember drops userID from the roster and reports whether it was there.
func (g *LearningGroup) RemoveMember(userID primitive.ObjectID) bool {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return true
		}
	}
	return false
}

// MemberIDs lists every member except the ones in skip.
func (g *LearningGroup) MemberIDs(skip ...primitive.ObjectID) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(g.Members))
	for _, m := range g.Members {
		excluded := false
		for _, s := range skip {
			if m.UserID == s {
				excluded = true
				break
			}
		}
		if !excluded {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}

// Owners lists members with the owner role.
func (g *LearningGroup) Owners() []primitive.ObjectID {
	var ids []primitive.ObjectID
	for _, m := range g.Members {
		if m.Role == GroupRoleOwner {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}

type GroupFilter struct {
	Grade   string
	Subject string
	Topic   string
	Query   string
	Status  string
}
