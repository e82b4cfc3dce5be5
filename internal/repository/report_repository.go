package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReportRepository struct {
	collection *mongo.Collection
}

func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{collection: db.Collection("reports")}
}

func (r *ReportRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "reported_by", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create report indexes: %w", err)
	}
	return nil
}

func (r *ReportRepository) Create(ctx context.Context, rep *models.Report) error {
	rep.CreatedAt = time.Now()
	rep.UpdatedAt = rep.CreatedAt
	res, err := r.collection.InsertOne(ctx, rep)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert report")
		return fmt.Errorf("failed to create report: %w", err)
	}
	rep.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var rep models.Report
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rep); err != nil {
		return nil, translate(err)
	}
	return &rep, nil
}

func (r *ReportRepository) List(ctx context.Context, f models.ReportFilter, p models.Pagination) ([]models.Report, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.ReportedBy != nil {
		filter["reported_by"] = *f.ReportedBy
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, 0, fmt.Errorf("failed to decode reports: %w", err)
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return reports, total, nil
}

func (r *ReportRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Report, error) {
	fields["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rep models.Report
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&rep)
	if err != nil {
		return nil, translate(err)
	}
	return &rep, nil
}

// UpdateStatusMany sets status on every report in ids and returns the
// number modified.
func (r *ReportRepository) UpdateStatusMany(ctx context.Context, ids []primitive.ObjectID, status string, reviewer primitive.ObjectID) (int64, error) {
	now := time.Now()
	res, err := r.collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{"$set": bson.M{
		"status":      status,
		"reviewed_by": reviewer,
		"reviewed_at": now,
		"updated_at":  now,
	}})
	if err != nil {
		return 0, fmt.Errorf("failed to bulk update reports: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *ReportRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReportRepository) CountBy(ctx context.Context, field string) (map[string]int64, error) {
	return countBy(ctx, r.collection, field)
}
