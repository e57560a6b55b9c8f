package profile

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/barterhub/internal/apperrors"
	"github.com/rajivgeraev/barterhub/internal/db"
	"github.com/rajivgeraev/barterhub/internal/models"
)

// Store методы хранилища, которые использует сервис профилей
type Store interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// ProfileService отдает профили со статистикой обменов
type ProfileService struct {
	store Store
}

// NewProfileService создает новый экземпляр ProfileService
func NewProfileService(store Store) *ProfileService {
	return &ProfileService{store: store}
}

// GetProfile возвращает профиль пользователя
func (s *ProfileService) GetProfile(c fiber.Ctx) error {
	profileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.InvalidRequest("invalid profile id")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	profile, err := s.store.GetProfile(ctx, profileID)
	if errors.Is(err, db.ErrNotFound) {
		return apperrors.NotFound("profile not found")
	}
	if err != nil {
		return apperrors.Store(err)
	}

	return c.JSON(fiber.Map{"data": profile})
}

// SetupRoutes настраивает маршруты для API профилей
func (s *ProfileService) SetupRoutes(api fiber.Router) {
	api.Get("/profiles/:id", s.GetProfile)
}
