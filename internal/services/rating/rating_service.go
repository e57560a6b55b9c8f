package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rajivgeraev/barterhub/internal/apperrors"
	"github.com/rajivgeraev/barterhub/internal/cascade"
	"github.com/rajivgeraev/barterhub/internal/db"
	"github.com/rajivgeraev/barterhub/internal/events"
	"github.com/rajivgeraev/barterhub/internal/middleware"
	"github.com/rajivgeraev/barterhub/internal/models"
	"github.com/rajivgeraev/barterhub/internal/validation"
)

// Store методы хранилища, которые использует сервис оценок
type Store interface {
	GetExchange(ctx context.Context, id uuid.UUID) (*models.Exchange, error)
	HasRated(ctx context.Context, exchangeID, raterID uuid.UUID) (bool, error)
	CreateRating(ctx context.Context, r *models.Rating) error
	ListRatingsForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Rating, error)
	RecomputeUserStats(ctx context.Context, userID uuid.UUID) error
}

// RateRequest тело rate-exchange
type RateRequest struct {
	ExchangeID string  `json:"exchange_id" validate:"required,uuid"`
	Rating     int     `json:"rating" validate:"gte=1,lte=5"`
	Comment    *string `json:"comment" validate:"omitempty,max=500"`
}

// RatingService представляет сервис оценок завершенных обменов
type RatingService struct {
	store     Store
	notifier  cascade.Notifier
	publisher events.Publisher
	cascade   *cascade.Runner
}

// NewRatingService создает новый экземпляр RatingService
func NewRatingService(store Store, notifier cascade.Notifier, publisher events.Publisher, runner *cascade.Runner, log logrus.FieldLogger) *RatingService {
	return &RatingService{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		cascade:   runner,
	}
}

// Rate сохраняет оценку второй стороны обмена от raterID
func (s *RatingService) Rate(ctx context.Context, raterID uuid.UUID, req RateRequest) (*models.Rating, error) {
	req.ExchangeID = strings.TrimSpace(req.ExchangeID)
	if req.Comment != nil {
		comment := strings.TrimSpace(*req.Comment)
		req.Comment = &comment
	}
	if err := validation.Validate(req); err != nil {
		return nil, apperrors.InvalidRequest(err.Error())
	}

	exchange, err := s.store.GetExchange(ctx, uuid.MustParse(req.ExchangeID))
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperrors.NotFound("exchange not found")
	}
	if err != nil {
		return nil, apperrors.Store(err)
	}

	if !exchange.IsParticipant(raterID) {
		return nil, apperrors.Forbidden("you are not a participant in this exchange")
	}
	if exchange.Status != models.ExchangeCompleted {
		return nil, apperrors.InvalidState("exchange must be completed before rating")
	}

	rated, err := s.store.HasRated(ctx, exchange.ID, raterID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if rated {
		return nil, apperrors.Conflict("already rated")
	}

	rating := &models.Rating{
		ExchangeID: exchange.ID,
		RaterID:    raterID,
		RatedID:    exchange.Counterparty(raterID),
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := s.store.CreateRating(ctx, rating); err != nil {
		// Параллельный запрос успел раньше
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperrors.Conflict("already rated")
		}
		return nil, apperrors.Store(err)
	}

	s.cascade.Go(logrus.Fields{"exchange_id": exchange.ID, "rating_id": rating.ID, "user_id": raterID},
		cascade.RecomputeStats(s.store.RecomputeUserStats, rating.RatedID),
		cascade.Notify(s.notifier, rating.RatedID, models.NotificationRatingReceived,
			"New rating received",
			fmt.Sprintf("You received a %d-star rating for your exchange", rating.Rating),
			rating.ID),
		cascade.Publish(s.publisher, events.RatingCreated, "rating", rating.ID, raterID, rating),
	)

	return rating, nil
}

// RateExchange оценивает завершенный обмен
func (s *RatingService) RateExchange(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req RateRequest
	if err := c.Bind().Body(&req); err != nil {
		return bindError(c.Body())
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	rating, err := s.Rate(ctx, userID, req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": rating})
}

// bindError различает нецелую оценку и любое другое повреждение тела
func bindError(body []byte) error {
	var req RateRequest
	var typeErr *json.UnmarshalTypeError
	if errors.As(json.Unmarshal(body, &req), &typeErr) && typeErr.Field == "rating" {
		return apperrors.InvalidRequest("rating must be an integer between 1 and 5")
	}
	return apperrors.InvalidRequest("invalid request body")
}

// GetUserRatings возвращает оценки, полученные пользователем
func (s *RatingService) GetUserRatings(c fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.InvalidRequest("invalid profile id")
	}

	limit, offset := middleware.Pagination(c)

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	ratings, err := s.store.ListRatingsForUser(ctx, userID, limit, offset)
	if err != nil {
		return apperrors.Store(err)
	}

	return c.JSON(fiber.Map{
		"data":  ratings,
		"count": len(ratings),
	})
}
