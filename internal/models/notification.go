package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType определяет тип уведомления
type NotificationType string

const (
	NotificationExchangeRequest   NotificationType = "exchange_request"
	NotificationExchangeAccepted  NotificationType = "exchange_accepted"
	NotificationExchangeRejected  NotificationType = "exchange_rejected"
	NotificationExchangeCompleted NotificationType = "exchange_completed"
	NotificationRatingReceived    NotificationType = "rating_received"
	NotificationMessage           NotificationType = "message"
)

// Notification представляет уведомление пользователя
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	RelatedID *uuid.UUID       `json:"related_id"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
