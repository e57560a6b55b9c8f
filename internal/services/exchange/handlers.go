package exchange

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/barterhub/internal/apperrors"
	"github.com/rajivgeraev/barterhub/internal/db"
	"github.com/rajivgeraev/barterhub/internal/middleware"
	"github.com/rajivgeraev/barterhub/internal/models"
)

// CreateExchangeRequest создает новое предложение обмена
func (s *ExchangeService) CreateExchangeRequest(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req CreateRequest
	if err := c.Bind().Body(&req); err != nil {
		return apperrors.InvalidRequest("invalid request body")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	exchange, err := s.Request(ctx, userID, req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": exchange})
}

// RespondToExchange принимает или отклоняет предложение обмена
func (s *ExchangeService) RespondToExchange(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req RespondRequest
	if err := c.Bind().Body(&req); err != nil {
		return apperrors.InvalidRequest("invalid request body")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	exchange, err := s.Respond(ctx, userID, req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": exchange})
}

// CompleteExchange завершает принятый обмен
func (s *ExchangeService) CompleteExchange(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req CompleteRequest
	if err := c.Bind().Body(&req); err != nil {
		return apperrors.InvalidRequest("invalid request body")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	exchange, err := s.Complete(ctx, userID, req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": exchange})
}

// GetMyExchanges возвращает обмены пользователя
func (s *ExchangeService) GetMyExchanges(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	limit, offset := middleware.Pagination(c)

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	exchanges, err := s.List(ctx, db.ExchangeFilter{
		UserID: userID,
		Role:   db.ExchangeRole(c.Query("role", string(db.RoleAll))),
		Status: models.ExchangeStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data":  exchanges,
		"count": len(exchanges),
	})
}

// GetExchange возвращает один обмен участнику
func (s *ExchangeService) GetExchange(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	exchangeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.InvalidRequest("invalid exchange id")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	exchange, err := s.Get(ctx, userID, exchangeID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": exchange})
}
