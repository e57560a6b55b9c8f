package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rajivgeraev/barterhub/internal/apperrors"
	"github.com/rajivgeraev/barterhub/internal/cascade"
	"github.com/rajivgeraev/barterhub/internal/db"
	"github.com/rajivgeraev/barterhub/internal/events"
	"github.com/rajivgeraev/barterhub/internal/models"
	"github.com/rajivgeraev/barterhub/internal/validation"
)

const (
	previewLength = 50
	messagesLimit = 50
)

// Store методы хранилища, которые использует сервис сообщений
type Store interface {
	GetExchange(ctx context.Context, id uuid.UUID) (*models.Exchange, error)
	GetOrCreateConversation(ctx context.Context, userA, userB uuid.UUID, exchangeID *uuid.UUID) (uuid.UUID, error)
	CreateMessage(ctx context.Context, m *models.Message) error
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, before *uuid.UUID, limit int) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID, ids []uuid.UUID) (int64, error)
}

// SendMessageRequest тело send-message
type SendMessageRequest struct {
	ReceiverID  string `json:"receiver_id" validate:"required,uuid"`
	Content     string `json:"content" validate:"required"`
	ExchangeID  string `json:"exchange_id" validate:"omitempty,uuid"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=text image"`
}

// ChatService представляет сервис переписки между пользователями
type ChatService struct {
	store     Store
	notifier  cascade.Notifier
	publisher events.Publisher
	cascade   *cascade.Runner
	maxLength int
	log       logrus.FieldLogger
}

// NewChatService создает новый экземпляр ChatService
func NewChatService(store Store, notifier cascade.Notifier, publisher events.Publisher, runner *cascade.Runner, maxLength int, log logrus.FieldLogger) *ChatService {
	return &ChatService{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		cascade:   runner,
		maxLength: maxLength,
		log:       log,
	}
}

// Send сохраняет сообщение в беседе пары и уведомляет получателя
func (s *ChatService) Send(ctx context.Context, senderID uuid.UUID, req SendMessageRequest) (*models.Message, error) {
	req.ReceiverID = strings.TrimSpace(req.ReceiverID)
	req.Content = strings.TrimSpace(req.Content)
	req.ExchangeID = strings.TrimSpace(req.ExchangeID)
	if err := validation.Validate(req); err != nil {
		return nil, apperrors.InvalidRequest(err.Error())
	}
	if utf8.RuneCountInString(req.Content) > s.maxLength {
		return nil, apperrors.InvalidRequest(fmt.Sprintf("content must be at most %d characters", s.maxLength))
	}

	receiverID := uuid.MustParse(req.ReceiverID)
	if receiverID == senderID {
		return nil, apperrors.InvalidRequest("cannot send a message to yourself")
	}

	messageType := models.MessageText
	if req.MessageType != "" {
		messageType = models.MessageType(req.MessageType)
	}

	var exchangeID *uuid.UUID
	if req.ExchangeID != "" {
		id := uuid.MustParse(req.ExchangeID)
		exchange, err := s.store.GetExchange(ctx, id)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return nil, apperrors.Store(err)
		}
		if exchange == nil || !exchange.IsParticipant(senderID) || exchange.Counterparty(senderID) != receiverID {
			return nil, apperrors.InvalidRequest("exchange not found for this conversation")
		}
		exchangeID = &id
	}

	conversationID, err := s.store.GetOrCreateConversation(ctx, senderID, receiverID, exchangeID)
	if err != nil {
		return nil, apperrors.Store(err)
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        req.Content,
		MessageType:    messageType,
		ExchangeID:     exchangeID,
	}
	if err := s.store.CreateMessage(ctx, message); err != nil {
		return nil, apperrors.Store(err)
	}

	s.cascade.Go(logrus.Fields{"conversation_id": conversationID, "message_id": message.ID, "user_id": senderID},
		cascade.Notify(s.notifier, receiverID, models.NotificationMessage, "New message", preview(message.Content), message.ID),
		cascade.Publish(s.publisher, events.MessageSent, "conversation", conversationID, senderID, message),
	)

	return message, nil
}

// Conversations возвращает беседы пользователя
func (s *ChatService) Conversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	conversations, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return conversations, nil
}

// Messages возвращает страницу сообщений беседы участнику и отмечает входящие прочитанными
func (s *ChatService) Messages(ctx context.Context, userID, conversationID uuid.UUID, before *uuid.UUID, limit int) ([]models.Message, error) {
	conversation, err := s.store.GetConversation(ctx, conversationID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, apperrors.Store(err)
	}
	if conversation == nil || !conversation.HasParticipant(userID) {
		return nil, apperrors.NotFound("conversation not found")
	}

	messages, err := s.store.ListMessages(ctx, conversationID, before, limit)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperrors.InvalidRequest("before must reference a message in this conversation")
	}
	if err != nil {
		return nil, apperrors.Store(err)
	}

	// Прочитанными становятся только входящие сообщения из этой страницы
	var unread []uuid.UUID
	for _, m := range messages {
		if m.ReceiverID == userID && !m.IsRead {
			unread = append(unread, m.ID)
		}
	}
	if len(unread) > 0 {
		if _, err := s.store.MarkMessagesRead(ctx, conversationID, userID, unread); err != nil {
			s.log.WithField("conversation_id", conversationID).WithError(err).Warn("не удалось отметить сообщения прочитанными")
		}
	}

	return messages, nil
}

// preview обрезает текст уведомления до previewLength символов
func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}
