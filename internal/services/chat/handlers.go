package chat

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/barterhub/internal/apperrors"
	"github.com/rajivgeraev/barterhub/internal/db"
	"github.com/rajivgeraev/barterhub/internal/middleware"
)

// SendMessage отправляет новое сообщение
func (s *ChatService) SendMessage(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req SendMessageRequest
	if err := c.Bind().Body(&req); err != nil {
		return apperrors.InvalidRequest("invalid request body")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	message, err := s.Send(ctx, userID, req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": message})
}

// GetConversations возвращает все беседы пользователя
func (s *ChatService) GetConversations(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	conversations, err := s.Conversations(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data":  conversations,
		"count": len(conversations),
	})
}

// GetConversationMessages возвращает сообщения беседы
func (s *ChatService) GetConversationMessages(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.InvalidRequest("invalid conversation id")
	}

	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(messagesLimit)))
	if err != nil || limit <= 0 || limit > middleware.MaxLimit {
		limit = messagesLimit
	}

	var before *uuid.UUID
	if raw := c.Query("before"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperrors.InvalidRequest("invalid message id")
		}
		before = &id
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	messages, err := s.Messages(ctx, userID, conversationID, before, limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data":     messages,
		"has_more": len(messages) == limit,
	})
}
