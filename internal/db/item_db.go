package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/barterhub/internal/models"
)

const itemColumns = `id, owner_id, category_id, title, description, condition, estimated_value,
       images, location, status, views_count, created_at, updated_at`

func scanItem(row pgx.Row) (*models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.CategoryID,
		&item.Title,
		&item.Description,
		&item.Condition,
		&item.EstimatedValue,
		&item.Images,
		&item.Location,
		&item.Status,
		&item.ViewsCount,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItem возвращает предмет по ID
func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, err := scanItem(s.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// RemoveItem снимает доступный предмет владельца с публикации
func (s *Store) RemoveItem(ctx context.Context, id, ownerID uuid.UUID) error {
	ct, err := s.db.Exec(ctx, `
		UPDATE items
		SET status = 'removed', updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND status = 'available'
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}

// IncrementItemViews увеличивает счетчик просмотров
func (s *Store) IncrementItemViews(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `UPDATE items SET views_count = views_count + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("increment item views: %w", err)
	}
	return nil
}
