package models

import (
	"time"

	"github.com/google/uuid"
)

// Favorite представляет предмет в избранном пользователя
type Favorite struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ItemID    uuid.UUID `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`

	// Дополнительные поля для API
	Item *Item `json:"item,omitempty"`
}

// FavoriteResponse представляет структуру ответа API с избранными предметами
type FavoriteResponse struct {
	Favorites []Favorite `json:"favorites"`
	Total     int        `json:"total"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}
