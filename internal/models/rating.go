package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Rating представляет оценку, оставленную участником завершенного обмена
type Rating struct {
	ID         uuid.UUID `json:"id"`
	ExchangeID uuid.UUID `json:"exchange_id"`
	RaterID    uuid.UUID `json:"rater_id"`
	RatedID    uuid.UUID `json:"rated_id"`
	Rating     int       `json:"rating"`
	Comment    *string   `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}
