package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rajivgeraev/barterhub/internal/apperrors"
	"github.com/rajivgeraev/barterhub/internal/db"
	"github.com/rajivgeraev/barterhub/internal/metrics"
	"github.com/rajivgeraev/barterhub/internal/middleware"
	"github.com/rajivgeraev/barterhub/internal/models"
	"github.com/rajivgeraev/barterhub/internal/realtime"
)

// Store методы хранилища, которые использует сервис уведомлений
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// NotificationService записывает уведомления и доставляет их в realtime
type NotificationService struct {
	store Store
	push  realtime.Publisher
	log   logrus.FieldLogger
}

// NewNotificationService создает новый экземпляр NotificationService; push может быть nil
func NewNotificationService(store Store, push realtime.Publisher, log logrus.FieldLogger) *NotificationService {
	return &NotificationService{store: store, push: push, log: log}
}

// Notify сохраняет уведомление для userID и пытается доставить его в открытые соединения.
// Ошибка возвращается только если не удалось сохранить строку.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, notificationType models.NotificationType, title, content string, relatedID *uuid.UUID) (*models.Notification, error) {
	n := &models.Notification{
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Content:   content,
		RelatedID: relatedID,
	}

	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("create %s notification: %w", notificationType, err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(notificationType)).Inc()

	if s.push != nil {
		s.deliver(ctx, n)
	}

	return n, nil
}

func (s *NotificationService) deliver(ctx context.Context, n *models.Notification) {
	env, err := realtime.NewEnvelope(n.UserID, "notification", n)
	if err == nil {
		err = s.push.Publish(ctx, env)
	}
	if err != nil {
		metrics.RealtimeDeliveries.WithLabelValues("failed").Inc()
		s.log.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"user_id":         n.UserID,
		}).WithError(err).Warn("не удалось отправить уведомление в realtime")
	}
}

// MarkRead отмечает уведомление прочитанным; только для получателя, повторный вызов не ошибка
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	err := s.store.MarkNotificationRead(ctx, notificationID, userID)
	if errors.Is(err, db.ErrNotFound) {
		return apperrors.NotFound("notification not found")
	}
	if err != nil {
		return apperrors.Store(err)
	}
	return nil
}

// GetNotifications возвращает уведомления пользователя
func (s *NotificationService) GetNotifications(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	limit, offset := middleware.Pagination(c)
	unreadOnly := c.Query("unread") == "true"

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	notifications, err := s.store.ListNotifications(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return apperrors.Store(err)
	}

	return c.JSON(fiber.Map{
		"data":   notifications,
		"limit":  limit,
		"offset": offset,
	})
}

// MarkNotificationRead отмечает одно уведомление прочитанным
func (s *NotificationService) MarkNotificationRead(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	notificationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.InvalidRequest("invalid notification id")
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	if err := s.MarkRead(ctx, userID, notificationID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// MarkAllRead отмечает все уведомления пользователя прочитанными
func (s *NotificationService) MarkAllRead(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	updated, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return apperrors.Store(err)
	}

	return c.JSON(fiber.Map{"success": true, "updated": updated})
}
