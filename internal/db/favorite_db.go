package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rajivgeraev/barterhub/internal/models"
)

// AddFavorite добавляет предмет в избранное; повторное добавление дает ErrDuplicate
func (s *Store) AddFavorite(ctx context.Context, userID, itemID uuid.UUID) (*models.Favorite, error) {
	fav := &models.Favorite{UserID: userID, ItemID: itemID}
	err := s.db.QueryRow(ctx, `
		INSERT INTO favorites (user_id, item_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, userID, itemID).Scan(&fav.ID, &fav.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	return fav, nil
}

// RemoveFavorite удаляет предмет из избранного
func (s *Store) RemoveFavorite(ctx context.Context, userID, itemID uuid.UUID) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IsFavorite проверяет, находится ли предмет в избранном
func (s *Store) IsFavorite(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND item_id = $2)
	`, userID, itemID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return exists, nil
}

// ListFavorites возвращает избранные предметы пользователя и их общее количество
func (s *Store) ListFavorites(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Favorite, int, error) {
	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM favorites WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count favorites: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT f.id, f.user_id, f.item_id, f.created_at,
		       i.id, i.owner_id, i.category_id, i.title, i.description, i.condition, i.estimated_value,
		       i.images, i.location, i.status, i.views_count, i.created_at, i.updated_at
		FROM favorites f
		JOIN items i ON i.id = f.item_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []models.Favorite{}
	for rows.Next() {
		var f models.Favorite
		var item models.Item
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.ItemID, &f.CreatedAt,
			&item.ID, &item.OwnerID, &item.CategoryID, &item.Title, &item.Description, &item.Condition,
			&item.EstimatedValue, &item.Images, &item.Location, &item.Status, &item.ViewsCount,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan favorite: %w", err)
		}
		f.Item = &item
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}
	return favorites, total, nil
}
