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

type ChatRepository struct {
	collection *mongo.Collection
}

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{collection: db.Collection("chat_messages")}
}

func (r *ChatRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create chat indexes: %w", err)
	}
	return nil
}

func (r *ChatRepository) SendMessage(ctx context.Context, msg *models.ChatMessage) (*models.ChatMessage, error) {
	msg.CreatedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert chat message")
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return msg, nil
}

func (r *ChatRepository) GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&msg); err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

// ListGroupMessages returns up to limit visible messages older than before
// (when set), oldest first.
func (r *ChatRepository) ListGroupMessages(ctx context.Context, groupID primitive.ObjectID, before *time.Time, p models.Pagination) ([]models.ChatMessage, int64, error) {
	filter := bson.M{"group_id": groupID, "hidden": bson.M{"$ne": true}}
	if before != nil {
		filter["created_at"] = bson.M{"$lt": *before}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []models.ChatMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, 0, fmt.Errorf("failed to decode messages: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return messages, total, nil
}

// ListAllMessages is the admin listing across every group, newest first.
func (r *ChatRepository) ListAllMessages(ctx context.Context, groupID *primitive.ObjectID, p models.Pagination) ([]models.ChatMessage, int64, error) {
	filter := bson.M{}
	if groupID != nil {
		filter["group_id"] = *groupID
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []models.ChatMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, 0, fmt.Errorf("failed to decode messages: %w", err)
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return messages, total, nil
}

// CountSince counts messages in a group posted after since by anyone but
// userID.
func (r *ChatRepository) CountSince(ctx context.Context, groupID, userID primitive.ObjectID, since time.Time) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{
		"group_id":   groupID,
		"sender_id":  bson.M{"$ne": userID},
		"created_at": bson.M{"$gt": since},
		"hidden":     bson.M{"$ne": true},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}

func (r *ChatRepository) UpdateMessage(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.ChatMessage, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var msg models.ChatMessage
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&msg)
	if err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

func (r *ChatRepository) DeleteMessage(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
