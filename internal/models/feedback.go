package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	FeedbackOpen      = "open"
	FeedbackResponded = "responded"
	FeedbackClosed    = "closed"
)

type Feedback struct {
	ID            primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	UserID        *primitive.ObjectID    `bson:"user_id,omitempty" json:"userId,omitempty"`
	Email         string                 `bson:"email,omitempty" json:"email,omitempty"`
	Name          string                 `bson:"name,omitempty" json:"name,omitempty"`
	Type          string                 `bson:"type" json:"type"`
	Message       string                 `bson:"message" json:"message"`
	Rating        int                    `bson:"rating,omitempty" json:"rating,omitempty"`
	Status        string                 `bson:"status" json:"status"`
	AdminResponse string                 `bson:"admin_response,omitempty" json:"adminResponse,omitempty"`
	Metadata      map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	IP            string                 `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent     string                 `bson:"user_agent,omitempty" json:"userAgent,omitempty"`
	CreatedAt     time.Time              `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time              `bson:"updated_at" json:"updatedAt"`
}

type FeedbackFilter struct {
	Type   string
	Status string
}
