package services

import (
	"context"
	"strings"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/authz"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/pkg/validation"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventNewMessage     = "new-message"
	EventMessageEdited  = "message-edited"
	EventMessageDeleted = "message-deleted"

	editWindow = 15 * time.Minute
)

type ChatStore interface {
	SendMessage(ctx context.Context, msg *models.ChatMessage) (*models.ChatMessage, error)
	GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.ChatMessage, error)
	ListGroupMessages(ctx context.Context, groupID primitive.ObjectID, before *time.Time, p models.Pagination) ([]models.ChatMessage, int64, error)
	ListAllMessages(ctx context.Context, groupID *primitive.ObjectID, p models.Pagination) ([]models.ChatMessage, int64, error)
	CountSince(ctx context.Context, groupID, userID primitive.ObjectID, since time.Time) (int64, error)
	UpdateMessage(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.ChatMessage, error)
	DeleteMessage(ctx context.Context, id primitive.ObjectID) error
}

// ChatService handles group chat. Every operation except moderation
// requires group membership.
type ChatService struct {
	repo      ChatStore
	groups    GroupGetter
	publisher Publisher
	activity  ActivityLogger
	now       func() time.Time
}

func NewChatService(repo ChatStore, groups GroupGetter, publisher Publisher, activity ActivityLogger) *ChatService {
	return &ChatService{repo: repo, groups: groups, publisher: publisher, activity: activity, now: time.Now}
}

func (s *ChatService) requireMember(ctx context.Context, actor Actor, groupID primitive.ObjectID) error {
	g, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return storeErr(err, "Group not found.")
	}
	if !g.IsMember(actor.ID) {
		return apperr.Forbidden("You are not a member of this group.")
	}
	return nil
}

type SendMessageInput struct {
	Type     string `json:"type" validate:"omitempty,oneof=text file image"`
	Message  string `json:"message" validate:"max=5000"`
	FileURL  string `json:"fileUrl" validate:"omitempty,url"`
	FileName string `json:"fileName" validate:"max=255"`
}

func (s *ChatService) Send(ctx context.Context, actor Actor, groupID primitive.ObjectID, in SendMessageInput) (*models.ChatMessage, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = models.MessageTypeText
	}
	in.Message = strings.TrimSpace(in.Message)
	if in.Type == models.MessageTypeText && in.Message == "" {
		return nil, apperr.Validation("message is required.")
	}
	if in.Type != models.MessageTypeText && in.FileURL == "" {
		return nil, apperr.Validation("fileUrl is required.")
	}
	if err := s.requireMember(ctx, actor, groupID); err != nil {
		return nil, err
	}

	msg, err := s.repo.SendMessage(ctx, &models.ChatMessage{
		GroupID:  groupID,
		SenderID: actor.ID,
		Type:     in.Type,
		Message:  in.Message,
		FileURL:  in.FileURL,
		FileName: in.FileName,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	publishQuietly(s.publisher.ToGroup(groupID, EventNewMessage, msg), EventNewMessage)
	return msg, nil
}

// List returns one page of messages in chronological order. before, when
// set, pages backwards from that instant.
func (s *ChatService) List(ctx context.Context, actor Actor, groupID primitive.ObjectID, before *time.Time, p models.Pagination) (*models.Page[models.ChatMessage], error) {
	if err := s.requireMember(ctx, actor, groupID); err != nil {
		return nil, err
	}
	items, total, err := s.repo.ListGroupMessages(ctx, groupID, before, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pageOf(items, total, p), nil
}

func (s *ChatService) message(ctx context.Context, id primitive.ObjectID) (*models.ChatMessage, error) {
	msg, err := s.repo.GetMessageByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Message not found.")
	}
	return msg, nil
}

// Edit lets the author change a text message shortly after sending it.
func (s *ChatService) Edit(ctx context.Context, actor Actor, id primitive.ObjectID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if err := validation.Var("message", text, "required,max=5000"); err != nil {
		return nil, err
	}
	msg, err := s.message(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != actor.ID {
		return nil, apperr.Forbidden("You can only edit your own messages.")
	}
	now := s.now()
	if now.Sub(msg.CreatedAt) > editWindow {
		return nil, apperr.Validation("Messages can only be edited within 15 minutes.")
	}

	updated, err := s.repo.UpdateMessage(ctx, id, bson.M{"message": text, "edited": true, "edited_at": now})
	if err != nil {
		return nil, storeErr(err, "Message not found.")
	}
	publishQuietly(s.publisher.ToGroup(updated.GroupID, EventMessageEdited, updated), EventMessageEdited)
	return updated, nil
}

func (s *ChatService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	msg, err := s.message(ctx, id)
	if err != nil {
		return err
	}
	if msg.SenderID != actor.ID && !actor.Can(authz.ModerateChat) {
		return apperr.Forbidden("You can only delete your own messages.")
	}
	if err := s.repo.DeleteMessage(ctx, id); err != nil {
		return storeErr(err, "Message not found.")
	}
	publishQuietly(s.publisher.ToGroup(msg.GroupID, EventMessageDeleted, map[string]string{"id": id.Hex()}), EventMessageDeleted)
	return nil
}

// UnreadCount counts messages from others since lastSeen.
func (s *ChatService) UnreadCount(ctx context.Context, actor Actor, groupID primitive.ObjectID, lastSeen time.Time) (int64, error) {
	if err := s.requireMember(ctx, actor, groupID); err != nil {
		return 0, err
	}
	n, err := s.repo.CountSince(ctx, groupID, actor.ID, lastSeen)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

func (s *ChatService) AdminList(ctx context.Context, groupID *primitive.ObjectID, p models.Pagination) (*models.Page[models.ChatMessage], error) {
	items, total, err := s.repo.ListAllMessages(ctx, groupID, p)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pageOf(items, total, p), nil
}

// Hide removes a message from member views without deleting it.
func (s *ChatService) Hide(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	msg, err := s.repo.UpdateMessage(ctx, id, bson.M{"hidden": true})
	if err != nil {
		return storeErr(err, "Message not found.")
	}
	s.activity.Log(ctx, actor.ID, models.ActionAdminHideContent, map[string]interface{}{"messageId": id.Hex()})
	publishQuietly(s.publisher.ToGroup(msg.GroupID, EventMessageDeleted, map[string]string{"id": id.Hex()}), EventMessageDeleted)
	return nil
}
