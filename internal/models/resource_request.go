package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RequestOpen      = "open"
	RequestFulfilled = "fulfilled"
	RequestClosed    = "closed"
)

type RequestResponse struct {
	UserID     primitive.ObjectID `bson:"user_id" json:"userId"`
	ResourceID primitive.ObjectID `bson:"resource_id" json:"resourceId"`
	Message    string             `bson:"message,omitempty" json:"message,omitempty"`
	Date       time.Time          `bson:"date" json:"date"`
}

// ResourceRequest is a member asking the community for study material.
type ResourceRequest struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RequesterID primitive.ObjectID  `bson:"requester_id" json:"requesterId"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Subject     string              `bson:"subject,omitempty" json:"subject,omitempty"`
	Topic       string              `bson:"topic,omitempty" json:"topic,omitempty"`
	Type        string              `bson:"type,omitempty" json:"type,omitempty"`
	GroupID     *primitive.ObjectID `bson:"group_id,omitempty" json:"groupId,omitempty"`
	Status      string              `bson:"status" json:"status"`
	Responses   []RequestResponse   `bson:"responses" json:"responses"`
	CreatedAt   time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updatedAt"`
}

type RequestFilter struct {
	Status      string
	Subject     string
	Topic       string
	GroupID     *primitive.ObjectID
	RequesterID *primitive.ObjectID
}
