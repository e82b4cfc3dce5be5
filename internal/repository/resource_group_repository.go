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

type ResourceGroupRepository struct {
	collection *mongo.Collection
}

func NewResourceGroupRepository(db *mongo.Database) *ResourceGroupRepository {
	return &ResourceGroupRepository{collection: db.Collection("resource_groups")}
}

func (r *ResourceGroupRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "linked_groups", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create resource group indexes: %w", err)
	}
	return nil
}

func (r *ResourceGroupRepository) Create(ctx context.Context, rg *models.ResourceGroup) error {
	rg.CreatedAt = time.Now()
	rg.UpdatedAt = rg.CreatedAt
	if rg.Resources == nil {
		rg.Resources = []primitive.ObjectID{}
	}
	if rg.LinkedGroups == nil {
		rg.LinkedGroups = []primitive.ObjectID{}
	}
	res, err := r.collection.InsertOne(ctx, rg)
	if err != nil {
		return fmt.Errorf("failed to create resource group: %w", err)
	}
	rg.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *ResourceGroupRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ResourceGroup, error) {
	var rg models.ResourceGroup
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rg); err != nil {
		return nil, translate(err)
	}
	return &rg, nil
}

func (r *ResourceGroupRepository) List(ctx context.Context) ([]models.ResourceGroup, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch resource groups: %w", err)
	}
	defer cursor.Close(ctx)

	groups := []models.ResourceGroup{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode resource groups: %w", err)
	}
	return groups, nil
}

// Save overwrites the mutable fields of rg.
func (r *ResourceGroupRepository) Save(ctx context.Context, rg *models.ResourceGroup) error {
	rg.UpdatedAt = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": rg.ID}, bson.M{"$set": bson.M{
		"name":          rg.Name,
		"description":   rg.Description,
		"resources":     rg.Resources,
		"linked_groups": rg.LinkedGroups,
		"updated_at":    rg.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to save resource group: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ResourceGroupRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete resource group: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
