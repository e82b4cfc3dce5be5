package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TokenEmailVerification = "email_verification"
	TokenPasswordReset     = "password_reset"
	TokenRefresh           = "refresh"
)

// Token is a single-purpose opaque credential removed by a TTL index once
// ExpiresAt passes.
type Token struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Token     string             `bson:"token"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Purpose   string             `bson:"purpose"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}
