package cascade

import (
	"context"

	"github.com/google/uuid"

	"github.com/rajivgeraev/barterhub/internal/events"
	"github.com/rajivgeraev/barterhub/internal/models"
)

// Notifier записывает уведомление пользователю
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, notificationType models.NotificationType, title, content string, relatedID *uuid.UUID) (*models.Notification, error)
}

// Notify шаг, который создает одно уведомление
func Notify(n Notifier, userID uuid.UUID, notificationType models.NotificationType, title, content string, relatedID uuid.UUID) Step {
	return Step{
		Name: "notify_" + string(notificationType),
		Run: func(ctx context.Context) error {
			_, err := n.Notify(ctx, userID, notificationType, title, content, &relatedID)
			return err
		},
	}
}

// Publish шаг, который публикует событие жизненного цикла
func Publish(p events.Publisher, eventType, aggregateType string, aggregateID, actorID uuid.UUID, data any) Step {
	return Step{
		Name: "publish_" + eventType,
		Run: func(ctx context.Context) error {
			event, err := events.NewEvent(eventType, aggregateType, aggregateID, actorID, data)
			if err != nil {
				return err
			}
			return p.Publish(ctx, event)
		},
	}
}

// RecomputeStats шаг, который пересчитывает рейтинг и статистику пользователя
func RecomputeStats(recompute func(ctx context.Context, userID uuid.UUID) error, userID uuid.UUID) Step {
	return Step{
		Name: "recompute_stats",
		Run: func(ctx context.Context) error {
			return recompute(ctx, userID)
		},
	}
}
