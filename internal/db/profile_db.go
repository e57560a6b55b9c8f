package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/barterhub/internal/models"
)

// GetProfile возвращает профиль пользователя со статистикой
func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	err := s.db.QueryRow(ctx, `
		SELECT id, username, full_name, avatar_url, location, rating, total_exchanges,
		       response_time_hours, created_at
		FROM profiles
		WHERE id = $1
	`, id).Scan(
		&p.ID,
		&p.Username,
		&p.FullName,
		&p.AvatarURL,
		&p.Location,
		&p.Rating,
		&p.TotalExchanges,
		&p.ResponseTimeHours,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}
