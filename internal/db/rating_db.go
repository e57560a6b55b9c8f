package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rajivgeraev/barterhub/internal/models"
)

// HasRated сообщает, оценил ли пользователь обмен
func (s *Store) HasRated(ctx context.Context, exchangeID, raterID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM exchange_ratings WHERE exchange_id = $1 AND rater_id = $2)
	`, exchangeID, raterID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check rating: %w", err)
	}
	return exists, nil
}

// CreateRating сохраняет оценку. Повторная оценка того же обмена тем же пользователем
// отклоняется уникальным ограничением и возвращает ErrDuplicate.
func (s *Store) CreateRating(ctx context.Context, r *models.Rating) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO exchange_ratings (exchange_id, rater_id, rated_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.ExchangeID, r.RaterID, r.RatedID, r.Rating, r.Comment).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create rating: %w", err)
	}
	return nil
}

// ListRatingsForUser возвращает оценки, полученные пользователем
func (s *Store) ListRatingsForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Rating, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, exchange_id, rater_id, rated_id, rating, comment, created_at
		FROM exchange_ratings
		WHERE rated_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	ratings := []models.Rating{}
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.ID, &r.ExchangeID, &r.RaterID, &r.RatedID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}

// RecomputeUserStats вызывает процедуру пересчета статистики профиля
func (s *Store) RecomputeUserStats(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `SELECT update_user_rating_stats($1)`, userID); err != nil {
		return fmt.Errorf("update user rating stats: %w", err)
	}
	return nil
}
