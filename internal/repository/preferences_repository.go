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

type PreferencesRepository struct {
	collection *mongo.Collection
}

func NewPreferencesRepository(db *mongo.Database) *PreferencesRepository {
	return &PreferencesRepository{
		collection: db.Collection("user_preferences"),
	}
}

func (r *PreferencesRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create preferences index: %w", err)
	}
	return nil
}

// GetOrCreate returns the user's preferences, inserting the defaults in the
// same round trip when none exist yet.
func (r *PreferencesRepository) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.UserPreferences, error) {
	def := models.DefaultPreferences(userID)
	update := bson.M{"$setOnInsert": bson.M{
		"email":       def.Email,
		"push":        def.Push,
		"in_app":      def.InApp,
		"quiet_hours": def.QuietHours,
		"language":    def.Language,
		"created_at":  def.CreatedAt,
		"updated_at":  def.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var prefs models.UserPreferences
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&prefs)
	if err != nil {
		// Two concurrent upserts can race on the unique index; the loser reads
		// the winner's document.
		if mongo.IsDuplicateKeyError(err) {
			err = r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&prefs)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load preferences: %w", err)
		}
	}
	return &prefs, nil
}

// Save replaces the stored preferences for prefs.UserID.
func (r *PreferencesRepository) Save(ctx context.Context, prefs *models.UserPreferences) error {
	prefs.UpdatedAt = time.Now()
	set := bson.M{
		"email":       prefs.Email,
		"push":        prefs.Push,
		"in_app":      prefs.InApp,
		"quiet_hours": prefs.QuietHours,
		"language":    prefs.Language,
		"updated_at":  prefs.UpdatedAt,
	}
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"user_id": prefs.UserID},
		bson.M{"$set": set, "$setOnInsert": bson.M{"created_at": prefs.UpdatedAt}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
