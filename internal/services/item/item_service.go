package item

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rajivgeraev/barterhub/internal/apperrors"
	"github.com/rajivgeraev/barterhub/internal/db"
	"github.com/rajivgeraev/barterhub/internal/middleware"
	"github.com/rajivgeraev/barterhub/internal/models"
)

// Store методы хранилища, которые использует сервис предметов
type Store interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	RemoveItem(ctx context.Context, id, ownerID uuid.UUID) error
	IncrementItemViews(ctx context.Context, id uuid.UUID) error
}

// ItemService представляет сервис для чтения и снятия предметов с публикации
type ItemService struct {
	store Store
	log   logrus.FieldLogger
}

// NewItemService создает новый экземпляр ItemService
func NewItemService(store Store, log logrus.FieldLogger) *ItemService {
	return &ItemService{store: store, log: log}
}

// Get возвращает предмет; просмотр чужого предмета увеличивает счетчик
func (s *ItemService) Get(ctx context.Context, viewerID, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperrors.NotFound("item not found")
	}
	if err != nil {
		return nil, apperrors.Store(err)
	}

	if item.OwnerID != viewerID {
		if err := s.store.IncrementItemViews(ctx, itemID); err != nil {
			s.log.WithField("item_id", itemID).WithError(err).Warn("не удалось увеличить счетчик просмотров")
		}
	}

	return item, nil
}

// Delist снимает доступный предмет с публикации; предмет в обмене снять нельзя
func (s *ItemService) Delist(ctx context.Context, ownerID, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperrors.NotFound("item not found")
	}
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if item.OwnerID != ownerID {
		return nil, apperrors.Forbidden("you can only delist your own items")
	}

	if err := s.store.RemoveItem(ctx, itemID, ownerID); err != nil {
		if errors.Is(err, db.ErrStaleState) {
			return nil, apperrors.InvalidState("only available items can be delisted")
		}
		return nil, apperrors.Store(err)
	}

	item.Status = models.ItemRemoved
	return item, nil
}

// GetItem возвращает предмет по ID
func (s *ItemService) GetItem(c fiber.Ctx) error {
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

	item, err := s.Get(ctx, userID, itemID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": item})
}

// DeleteItem снимает предмет с публикации
func (s *ItemService) DeleteItem(c fiber.Ctx) error {
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

	item, err := s.Delist(ctx, userID, itemID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": item})
}

// SetupRoutes настраивает маршруты для API предметов
func (s *ItemService) SetupRoutes(api fiber.Router) {
	items := api.Group("/items")
	items.Get("/:id", s.GetItem)
	items.Delete("/:id", s.DeleteItem)
}
