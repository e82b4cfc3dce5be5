package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ResourceRequestRepository struct {
	collection *mongo.Collection
}

func NewResourceRequestRepository(db *mongo.Database) *ResourceRequestRepository {
	return &ResourceRequestRepository{collection: db.Collection("resource_requests")}
}

func (r *ResourceRequestRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "requester_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create resource request indexes: %w", err)
	}
	return nil
}

func (r *ResourceRequestRepository) Create(ctx context.Context, req *models.ResourceRequest) error {
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	if req.Responses == nil {
		req.Responses = []models.RequestResponse{}
	}
	res, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create resource request: %w", err)
	}
	req.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *ResourceRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ResourceRequest, error) {
	var req models.ResourceRequest
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *ResourceRequestRepository) List(ctx context.Context, f models.RequestFilter, p models.Pagination) ([]models.ResourceRequest, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Subject != "" {
		filter["subject"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Subject), Options: "i"}
	}
	if f.Topic != "" {
		filter["topic"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Topic), Options: "i"}
	}
	if f.GroupID != nil {
		filter["group_id"] = *f.GroupID
	}
	if f.RequesterID != nil {
		filter["requester_id"] = *f.RequesterID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch resource requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := []models.ResourceRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, 0, fmt.Errorf("failed to decode resource requests: %w", err)
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count resource requests: %w", err)
	}
	return requests, total, nil
}

func (r *ResourceRequestRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.ResourceRequest, error) {
	fields["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var req models.ResourceRequest
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&req)
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

// AddResponse appends a response and returns the updated request.
func (r *ResourceRequestRepository) AddResponse(ctx context.Context, id primitive.ObjectID, resp models.RequestResponse) (*models.ResourceRequest, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$push": bson.M{"responses": resp},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	var req models.ResourceRequest
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&req); err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *ResourceRequestRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete resource request: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus returns the number of requests per status.
func (r *ResourceRequestRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countBy(ctx, r.collection, "status")
}
