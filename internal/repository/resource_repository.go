package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ResourceRepository struct {
	collection *mongo.Collection
}

func NewResourceRepository(db *mongo.Database) *ResourceRepository {
	return &ResourceRepository{collection: db.Collection("resources")}
}

func (r *ResourceRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "views", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create resource indexes: %w", err)
	}
	return nil
}

func (r *ResourceRepository) CreateResource(ctx context.Context, res *models.Resource) error {
	res.CreatedAt = time.Now()
	out, err := r.collection.InsertOne(ctx, res)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert resource")
		return fmt.Errorf("failed to create resource: %w", err)
	}
	res.ID = out.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *ResourceRepository) GetResourceByID(ctx context.Context, id primitive.ObjectID) (*models.Resource, error) {
	var res models.Resource
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&res); err != nil {
		return nil, translate(err)
	}
	return &res, nil
}

// ListGroupResources returns a page of visible resources in a group; q
// matches title or description.
func (r *ResourceRepository) ListGroupResources(ctx context.Context, groupID primitive.ObjectID, q string, p models.Pagination) ([]models.Resource, int64, error) {
	filter := bson.M{"group_id": groupID, "hidden": bson.M{"$ne": true}}
	if q != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{bson.M{"title": rx}, bson.M{"description": rx}}
	}
	return r.list(ctx, filter, p)
}

// ListAll is the admin listing, hidden resources included.
func (r *ResourceRepository) ListAll(ctx context.Context, p models.Pagination) ([]models.Resource, int64, error) {
	return r.list(ctx, bson.M{}, p)
}

func (r *ResourceRepository) list(ctx context.Context, filter bson.M, p models.Pagination) ([]models.Resource, int64, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch resources: %w", err)
	}
	defer cursor.Close(ctx)

	resources := []models.Resource{}
	if err := cursor.All(ctx, &resources); err != nil {
		return nil, 0, fmt.Errorf("failed to decode resources: %w", err)
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return resources, total, nil
}

// IncrementViews bumps the view counter and returns the updated resource.
func (r *ResourceRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) (*models.Resource, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var res models.Resource
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}}, opts).Decode(&res)
	if err != nil {
		return nil, translate(err)
	}
	return &res, nil
}

func (r *ResourceRepository) UpdateResource(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Resource, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var res models.Resource
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&res)
	if err != nil {
		return nil, translate(err)
	}
	return &res, nil
}

func (r *ResourceRepository) DeleteResource(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Analytics computes totals, the week's additions, the ten most viewed
// resources and the most active uploaders.
func (r *ResourceRepository) Analytics(ctx context.Context, now time.Time) (*models.ResourceAnalytics, error) {
	out := &models.ResourceAnalytics{TopViewed: []models.ViewCount{}, TopUploaders: []models.UploaderCount{}}

	var err error
	if out.Total, err = r.collection.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("failed to count resources: %w", err)
	}
	weekAgo := now.AddDate(0, 0, -7)
	if out.RecentWeek, err = r.collection.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": weekAgo}}); err != nil {
		return nil, fmt.Errorf("failed to count recent resources: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "views", Value: -1}}).
		SetLimit(10).
		SetProjection(bson.M{"title": 1, "views": 1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top resources: %w", err)
	}
	if err := cursor.All(ctx, &out.TopViewed); err != nil {
		return nil, fmt.Errorf("failed to decode top resources: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$uploaded_by"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		{{Key: "$limit", Value: 10}},
	}
	agg, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate uploaders: %w", err)
	}
	if err := agg.All(ctx, &out.TopUploaders); err != nil {
		return nil, fmt.Errorf("failed to decode uploaders: %w", err)
	}
	return out, nil
}
