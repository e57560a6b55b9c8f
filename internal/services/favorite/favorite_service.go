package favorite

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/barterhub/internal/apperrors"
	"github.com/rajivgeraev/barterhub/internal/db"
	"github.com/rajivgeraev/barterhub/internal/middleware"
	"github.com/rajivgeraev/barterhub/internal/models"
	"github.com/rajivgeraev/barterhub/internal/validation"
)

// Store методы хранилища, которые использует сервис избранного
type Store interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	AddFavorite(ctx context.Context, userID, itemID uuid.UUID) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, itemID uuid.UUID) error
	IsFavorite(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
	ListFavorites(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Favorite, int, error)
}

// FavoriteService представляет сервис для работы с избранными предметами
type FavoriteService struct {
	store Store
}

// NewFavoriteService создает новый экземпляр FavoriteService
func NewFavoriteService(store Store) *FavoriteService {
	return &FavoriteService{store: store}
}

// AddToFavorites добавляет предмет в избранное
func (s *FavoriteService) AddToFavorites(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var requestData struct {
		ItemID string `json:"item_id" validate:"required,uuid"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return apperrors.InvalidRequest("invalid request body")
	}
	if err := validation.Validate(requestData); err != nil {
		return apperrors.InvalidRequest(err.Error())
	}
	itemID := uuid.MustParse(requestData.ItemID)

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	// Снятые с публикации предметы в избранное не добавляются
	item, err := s.store.GetItem(ctx, itemID)
	if errors.Is(err, db.ErrNotFound) || (err == nil && item.Status == models.ItemRemoved) {
		return apperrors.NotFound("item not found")
	}
	if err != nil {
		return apperrors.Store(err)
	}

	favorite, err := s.store.AddFavorite(ctx, userID, itemID)
	if errors.Is(err, db.ErrDuplicate) {
		return apperrors.Conflict("item is already in favorites")
	}
	if err != nil {
		return apperrors.Store(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": favorite})
}

// RemoveFromFavorites удаляет предмет из избранного
func (s *FavoriteService) RemoveFromFavorites(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.InvalidRequest("invalid item id")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	err = s.store.RemoveFavorite(ctx, userID, itemID)
	if errors.Is(err, db.ErrNotFound) {
		return apperrors.NotFound("item is not in favorites")
	}
	if err != nil {
		return apperrors.Store(err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetFavorites возвращает список избранных предметов пользователя
func (s *FavoriteService) GetFavorites(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	limit, offset := middleware.Pagination(c)

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	favorites, total, err := s.store.ListFavorites(ctx, userID, limit, offset)
	if err != nil {
		return apperrors.Store(err)
	}

	return c.JSON(fiber.Map{"data": models.FavoriteResponse{
		Favorites: favorites,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	}})
}

// CheckFavorite проверяет, добавлен ли предмет в избранное
func (s *FavoriteService) CheckFavorite(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.InvalidRequest("invalid item id")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	isFavorite, err := s.store.IsFavorite(ctx, userID, itemID)
	if err != nil {
		return apperrors.Store(err)
	}

	return c.JSON(fiber.Map{"is_favorite": isFavorite})
}
