package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MessageTypeText  = "text"
	MessageTypeFile  = "file"
	MessageTypeImage = "image"
)

// ChatMessage is a message posted to a learning group's chat.
type ChatMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"groupId"`
	SenderID  primitive.ObjectID `bson:"sender_id" json:"senderId"`
	Type      string             `bson:"type" json:"type"`
	Message   string             `bson:"message" json:"message"`
	FileURL   string             `bson:"file_url,omitempty" json:"fileUrl,omitempty"`
	FileName  string             `bson:"file_name,omitempty" json:"fileName,omitempty"`
	Edited    bool               `bson:"edited" json:"edited"`
	EditedAt  *time.Time         `bson:"edited_at,omitempty" json:"editedAt,omitempty"`
	Hidden    bool               `bson:"hidden" json:"hidden,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
