package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/barterhub/internal/models"
)

const exchangeColumns = `id, requester_id, owner_id, owner_item_id, requester_item_id,
       message, status, completion_notes, created_at, updated_at`

// ExchangeRole фильтр списка обменов по роли пользователя
type ExchangeRole string

const (
	RoleAll      ExchangeRole = "all"
	RoleIncoming ExchangeRole = "incoming"
	RoleOutgoing ExchangeRole = "outgoing"
)

// ExchangeFilter параметры выборки обменов пользователя
type ExchangeFilter struct {
	UserID uuid.UUID
	Role   ExchangeRole
	Status models.ExchangeStatus // пусто означает любой статус
	Limit  int
	Offset int
}

// Transition описывает условный переход обмена.
// Обмен обновляется только если его статус все еще From; предметы обновляются в той же транзакции.
type Transition struct {
	ExchangeID      uuid.UUID
	From            models.ExchangeStatus
	To              models.ExchangeStatus
	Message         *string
	CompletionNotes *string
	// ItemStatus новый статус обоих предметов; пусто означает не трогать предметы
	ItemStatus models.ItemStatus
	// RequireItemStatus если задан, каждый предмет должен быть в этом статусе
	RequireItemStatus models.ItemStatus
}

func scanExchange(row pgx.Row) (*models.Exchange, error) {
	var e models.Exchange
	err := row.Scan(
		&e.ID,
		&e.RequesterID,
		&e.OwnerID,
		&e.OwnerItemID,
		&e.RequesterItemID,
		&e.Message,
		&e.Status,
		&e.CompletionNotes,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateExchange сохраняет новый обмен; ID и метки времени заполняются из базы
func (s *Store) CreateExchange(ctx context.Context, e *models.Exchange) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO exchanges (requester_id, owner_id, owner_item_id, requester_item_id, message, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, e.RequesterID, e.OwnerID, e.OwnerItemID, e.RequesterItemID, e.Message, e.Status).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create exchange: %w", err)
	}
	return nil
}

// GetExchange возвращает обмен по ID
func (s *Store) GetExchange(ctx context.Context, id uuid.UUID) (*models.Exchange, error) {
	e, err := scanExchange(s.db.QueryRow(ctx, `SELECT `+exchangeColumns+` FROM exchanges WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get exchange: %w", err)
	}
	return e, nil
}

// ListExchanges возвращает обмены пользователя, новые первыми
func (s *Store) ListExchanges(ctx context.Context, f ExchangeFilter) ([]models.Exchange, error) {
	var where string
	switch f.Role {
	case RoleIncoming:
		where = "owner_id = $1"
	case RoleOutgoing:
		where = "requester_id = $1"
	default:
		where = "(requester_id = $1 OR owner_id = $1)"
	}

	args := []any{f.UserID}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, f.Limit, f.Offset)

	query := fmt.Sprintf(`SELECT %s FROM exchanges WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		exchangeColumns, where, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	defer rows.Close()

	exchanges := []models.Exchange{}
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		exchanges = append(exchanges, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	return exchanges, nil
}

// TransitionExchange выполняет переход статуса и каскад статусов предметов в одной транзакции.
// Возвращает ErrStaleState, если статус обмена уже не From, и ErrItemUnavailable,
// если предмет не в статусе RequireItemStatus.
func (s *Store) TransitionExchange(ctx context.Context, t Transition) (*models.Exchange, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx)

	e, err := scanExchange(tx.QueryRow(ctx, `
		UPDATE exchanges
		SET status = $3,
		    message = COALESCE($4, message),
		    completion_notes = COALESCE($5, completion_notes),
		    responded_at = CASE WHEN status = 'pending' THEN NOW() ELSE responded_at END,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+exchangeColumns,
		t.ExchangeID, t.From, t.To, t.Message, t.CompletionNotes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaleState
		}
		return nil, fmt.Errorf("update exchange status: %w", err)
	}

	if t.ItemStatus != "" {
		for _, itemID := range e.ItemIDs() {
			if err := updateItemStatus(ctx, tx, itemID, t.ItemStatus, t.RequireItemStatus); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return e, nil
}

func updateItemStatus(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, to, require models.ItemStatus) error {
	if require == "" {
		if _, err := tx.Exec(ctx, `UPDATE items SET status = $2, updated_at = NOW() WHERE id = $1`, itemID, to); err != nil {
			return fmt.Errorf("update item status: %w", err)
		}
		return nil
	}

	ct, err := tx.Exec(ctx, `
		UPDATE items SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, itemID, to, require)
	if err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrItemUnavailable
	}
	return nil
}
