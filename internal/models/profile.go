package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile представляет публичный профиль пользователя и его агрегированную статистику.
// Rating, TotalExchanges и ResponseTimeHours пересчитываются процедурой update_user_rating_stats.
type Profile struct {
	ID                uuid.UUID `json:"id"`
	Username          string    `json:"username"`
	FullName          string    `json:"full_name"`
	AvatarURL         string    `json:"avatar_url,omitempty"`
	Location          string    `json:"location,omitempty"`
	Rating            float64   `json:"rating"`
	TotalExchanges    int       `json:"total_exchanges"`
	ResponseTimeHours float64   `json:"response_time_hours"`
	CreatedAt         time.Time `json:"created_at"`
}
