package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus описывает жизненный цикл предмета
type ItemStatus string

const (
	ItemAvailable       ItemStatus = "available"
	ItemPendingExchange ItemStatus = "pending_exchange"
	ItemExchanged       ItemStatus = "exchanged"
	ItemCompleted       ItemStatus = "completed"
	ItemRemoved         ItemStatus = "removed"
)

// Item представляет предмет, выставленный пользователем для обмена.
// Предметы никогда не удаляются физически, снятие с публикации переводит их в removed.
type Item struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	CategoryID     *uuid.UUID `json:"category_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Condition      string     `json:"condition"`
	EstimatedValue *float64   `json:"estimated_value,omitempty"`
	Images         []string   `json:"images"`
	Location       string     `json:"location"`
	Status         ItemStatus `json:"status"`
	ViewsCount     int        `json:"views_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsAvailable сообщает, можно ли предложить предмет в новом обмене
func (i *Item) IsAvailable() bool {
	return i.Status == ItemAvailable
}
