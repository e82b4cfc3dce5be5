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

type GroupRepository struct {
	collection *mongo.Collection
}

func NewGroupRepository(db *mongo.Database) *GroupRepository {
	return &GroupRepository{collection: db.Collection("learning_groups")}
}

func (r *GroupRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "grade", Value: 1}, {Key: "subject", Value: 1}, {Key: "topic", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("grade_subject_topic_unique"),
		},
		{Keys: bson.D{{Key: "members.user_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create group indexes: %w", err)
	}
	return nil
}

// CreateGroup inserts a group; ErrDuplicate means the grade/subject/topic
// key is taken.
func (r *GroupRepository) CreateGroup(ctx context.Context, g *models.LearningGroup) error {
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	res, err := r.collection.InsertOne(ctx, g)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		logrus.WithError(err).Error("Failed to insert group")
		return fmt.Errorf("failed to create group: %w", err)
	}
	g.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *GroupRepository) FindByKey(ctx context.Context, grade, subject, topic string) (*models.LearningGroup, error) {
	var g models.LearningGroup
	err := r.collection.FindOne(ctx, bson.M{"grade": grade, "subject": subject, "topic": topic}).Decode(&g)
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r *GroupRepository) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.LearningGroup, error) {
	var g models.LearningGroup
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// SaveMembers overwrites the roster. Concurrent writers race and the last
// write wins.
func (r *GroupRepository) SaveMembers(ctx context.Context, id primitive.ObjectID, members []models.GroupMember) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"members":    members,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("failed to save members: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateGroup applies a $set and returns the updated group.
func (r *GroupRepository) UpdateGroup(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.LearningGroup, error) {
	fields["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var g models.LearningGroup
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&g)
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r *GroupRepository) DeleteGroup(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func groupFilter(f models.GroupFilter) bson.M {
	filter := bson.M{}
	if f.Grade != "" {
		filter["grade"] = f.Grade
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Subject != "" {
		filter["subject"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Subject), Options: "i"}
	}
	if f.Topic != "" {
		filter["topic"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Topic), Options: "i"}
	}
	if f.Query != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"subject": rx},
			bson.M{"topic": rx},
			bson.M{"description": rx},
		}
	}
	return filter
}

func (r *GroupRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.LearningGroup, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups: %w", err)
	}
	defer cursor.Close(ctx)

	groups := []models.LearningGroup{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode groups: %w", err)
	}
	return groups, nil
}

// SearchGroups returns up to limit active groups matching f.
func (r *GroupRepository) SearchGroups(ctx context.Context, f models.GroupFilter, limit int) ([]models.LearningGroup, error) {
	filter := groupFilter(f)
	if _, ok := filter["status"]; !ok {
		filter["status"] = models.GroupStatusActive
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *GroupRepository) ListGroupsForMember(ctx context.Context, userID primitive.ObjectID) ([]models.LearningGroup, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"members.user_id": userID}, opts)
}

// ListGroups is the paginated admin listing.
func (r *GroupRepository) ListGroups(ctx context.Context, f models.GroupFilter, p models.Pagination) ([]models.LearningGroup, int64, error) {
	filter := groupFilter(f)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))
	groups, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}
	return groups, total, nil
}

func (r *GroupRepository) GetGroupsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.LearningGroup, error) {
	if len(ids) == 0 {
		return []models.LearningGroup{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

// LinkResourceGroup records (or, with link=false, removes) a resource group
// reference on the learning group.
func (r *GroupRepository) LinkResourceGroup(ctx context.Context, id, resourceGroupID primitive.ObjectID, link bool) error {
	op := "$addToSet"
	if !link {
		op = "$pull"
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{op: bson.M{"resource_groups": resourceGroupID}})
	if err != nil {
		return fmt.Errorf("failed to update group resource groups: %w", err)
	}
	return nil
}

func (r *GroupRepository) CountGroups(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count groups: %w", err)
	}
	return n, nil
}
