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

type SessionRepository struct {
	collection *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{collection: db.Collection("sessions")}
}

func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "scheduled_at", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduled_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}
	return nil
}

func (r *SessionRepository) CreateSession(ctx context.Context, s *models.Session) error {
	s.CreatedAt = time.Now()
	if s.Attendees == nil {
		s.Attendees = []models.Attendee{}
	}
	res, err := r.collection.InsertOne(ctx, s)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert session")
		return fmt.Errorf("failed to create session: %w", err)
	}
	s.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *SessionRepository) GetSessionByID(ctx context.Context, id primitive.ObjectID) (*models.Session, error) {
	var s models.Session
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// UpdateSession applies a $set and returns the updated session.
func (r *SessionRepository) UpdateSession(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Session, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var s models.Session
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&s)
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// SaveAttendees overwrites the attendee list. Concurrent writers race and
// the last write wins.
func (r *SessionRepository) SaveAttendees(ctx context.Context, id primitive.ObjectID, attendees []models.Attendee) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"attendees": attendees}})
	if err != nil {
		return fmt.Errorf("failed to save attendees: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SessionRepository) DeleteSession(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SessionRepository) ListSessions(ctx context.Context, f models.SessionFilter, p models.Pagination) ([]models.Session, int64, error) {
	filter := bson.M{}
	if f.GroupID != nil {
		filter["group_id"] = *f.GroupID
	}
	if f.TeacherID != nil {
		filter["teacher_id"] = *f.TeacherID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "scheduled_at", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []models.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, 0, fmt.Errorf("failed to decode sessions: %w", err)
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return sessions, total, nil
}

// ListDueForReminder returns scheduled sessions starting before `before`
// that have not been reminded yet. A null reminder_sent_at counts as unsent
// so rescheduling can clear it.
func (r *SessionRepository) ListDueForReminder(ctx context.Context, now, before time.Time) ([]models.Session, error) {
	filter := bson.M{
		"status":           models.SessionScheduled,
		"scheduled_at":     bson.M{"$gt": now, "$lte": before},
		"reminder_sent_at": nil,
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions due for reminder: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []models.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) MarkReminderSent(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"reminder_sent_at": at}})
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

func (r *SessionRepository) CountSessions(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}
