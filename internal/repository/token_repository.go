package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TokenRepository stores email-verification, password-reset and refresh
// tokens. Expired tokens are removed by the TTL index and are never
// returned by lookups.
type TokenRepository struct {
	collection *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{collection: db.Collection("tokens")}
}

func (r *TokenRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "purpose", Value: 1}}},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("tokens_ttl"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create token indexes: %w", err)
	}
	return nil
}

func (r *TokenRepository) Create(ctx context.Context, t *models.Token) error {
	t.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// Consume deletes and returns a live token with the given purpose.
func (r *TokenRepository) Consume(ctx context.Context, token, purpose string) (*models.Token, error) {
	filter := bson.M{
		"token":      token,
		"purpose":    purpose,
		"expires_at": bson.M{"$gt": time.Now()},
	}
	var t models.Token
	if err := r.collection.FindOneAndDelete(ctx, filter).Decode(&t); err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// DeleteForUser removes every token of a purpose belonging to userID.
func (r *TokenRepository) DeleteForUser(ctx context.Context, userID primitive.ObjectID, purpose string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID, "purpose": purpose})
	if err != nil {
		return fmt.Errorf("failed to delete tokens: %w", err)
	}
	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, token, purpose string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"token": token, "purpose": purpose})
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
