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

type FeedbackRepository struct {
	collection *mongo.Collection
}

func NewFeedbackRepository(db *mongo.Database) *FeedbackRepository {
	return &FeedbackRepository{collection: db.Collection("feedback")}
}

func (r *FeedbackRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "type", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create feedback indexes: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	fb.CreatedAt = time.Now()
	fb.UpdatedAt = fb.CreatedAt
	res, err := r.collection.InsertOne(ctx, fb)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	fb.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *FeedbackRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Feedback, error) {
	var fb models.Feedback
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&fb); err != nil {
		return nil, translate(err)
	}
	return &fb, nil
}

func (r *FeedbackRepository) List(ctx context.Context, f models.FeedbackFilter, p models.Pagination) ([]models.Feedback, int64, error) {
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch feedback: %w", err)
	}
	defer cursor.Close(ctx)

	items := []models.Feedback{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode feedback: %w", err)
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return items, total, nil
}

func (r *FeedbackRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Feedback, error) {
	fields["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var fb models.Feedback
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&fb)
	if err != nil {
		return nil, translate(err)
	}
	return &fb, nil
}

func (r *FeedbackRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
