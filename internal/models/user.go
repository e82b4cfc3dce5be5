package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	UserStatusActive    = "active"
	UserStatusBanned    = "banned"
	UserStatusSuspended = "suspended"
)

type Profile struct {
	Name    string `bson:"name" json:"name"`
	Bio     string `bson:"bio,omitempty" json:"bio,omitempty"`
	Avatar  string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
	Region  string `bson:"region,omitempty" json:"region,omitempty"`
}

type Skill struct {
	Subject     string   `bson:"subject" json:"subject"`
	Topics      []string `bson:"topics,omitempty" json:"topics,omitempty"`
	Proficiency string   `bson:"proficiency,omitempty" json:"proficiency,omitempty"`
}

type Reputation struct {
	Points          int `bson:"points" json:"points"`
	SessionsTaught  int `bson:"sessions_taught" json:"sessionsTaught"`
	ResourcesShared int `bson:"resources_shared" json:"resourcesShared"`
}

// User represents an account on the platform.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email          string             `bson:"email" json:"email"`
	HashedPassword string             `bson:"password_hash" json:"-"`
	Profile        Profile            `bson:"profile" json:"profile"`
	Role           string             `bson:"role" json:"role"`
	Status         string             `bson:"status" json:"status"`
	Verified       bool               `bson:"verified" json:"verified"`
	Skills         []Skill            `bson:"skills,omitempty" json:"skills,omitempty"`
	Reputation     Reputation         `bson:"reputation" json:"reputation"`
	LastActiveAt   time.Time          `bson:"last_active_at,omitempty" json:"lastActiveAt,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

// PublicUser is the shape exposed to other members.
type PublicUser struct {
	ID      primitive.ObjectID `json:"id"`
	Profile Profile            `json:"profile"`
	Role    string             `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Profile: u.Profile, Role: u.Role}
}

type UserFilter struct {
	Search string
	Role   string
	Status string
}
