package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/barterhub/internal/models"
)

const messageColumns = `id, conversation_id, sender_id, receiver_id, content, message_type, exchange_id, is_read, created_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID,
		&m.ConversationID,
		&m.SenderID,
		&m.ReceiverID,
		&m.Content,
		&m.MessageType,
		&m.ExchangeID,
		&m.IsRead,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetOrCreateConversation возвращает переписку пары пользователей, создавая ее при необходимости.
// Порядок пользователей не важен.
func (s *Store) GetOrCreateConversation(ctx context.Context, userA, userB uuid.UUID, exchangeID *uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT get_or_create_conversation($1, $2, $3)`, userA, userB, exchangeID).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("get or create conversation: %w", err)
	}
	return id, nil
}

// CreateMessage сохраняет сообщение и обновляет указатель последнего сообщения переписки
func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin message: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_id, receiver_id, content, message_type, exchange_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_read, created_at
	`, m.ConversationID, m.SenderID, m.ReceiverID, m.Content, m.MessageType, m.ExchangeID).
		Scan(&m.ID, &m.IsRead, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE conversations SET last_message_id = $2, last_message_at = $3 WHERE id = $1
	`, m.ConversationID, m.ID, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("update conversation summary: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit message: %w", err)
	}
	return nil
}

// GetConversation возвращает переписку по ID
func (s *Store) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var c models.Conversation
	err := s.db.QueryRow(ctx, `
		SELECT id, participant_1_id, participant_2_id, exchange_id, last_message_id, last_message_at, created_at
		FROM conversations
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Participant1ID, &c.Participant2ID, &c.ExchangeID, &c.LastMessageID, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &c, nil
}

// ListConversations возвращает переписки пользователя с числом непрочитанных сообщений
func (s *Store) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.participant_1_id, c.participant_2_id, c.exchange_id, c.last_message_id,
		       c.last_message_at, c.created_at, COALESCE(lm.content, ''),
		       (SELECT COUNT(*) FROM messages um
		        WHERE um.conversation_id = c.id AND um.receiver_id = $1 AND um.is_read = FALSE) AS unread_count
		FROM conversations c
		LEFT JOIN messages lm ON lm.id = c.last_message_id
		WHERE c.participant_1_id = $1 OR c.participant_2_id = $1
		ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(
			&c.ID,
			&c.Participant1ID,
			&c.Participant2ID,
			&c.ExchangeID,
			&c.LastMessageID,
			&c.LastMessageAt,
			&c.CreatedAt,
			&c.LastMessageText,
			&c.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

// ListMessages возвращает сообщения переписки, новые первыми.
// Если before задан, возвращаются сообщения старше указанного;
// ErrNotFound, если такого сообщения в переписке нет.
func (s *Store) ListMessages(ctx context.Context, conversationID uuid.UUID, before *uuid.UUID, limit int) ([]models.Message, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if before != nil {
		var cursor time.Time
		err = s.db.QueryRow(ctx, `
			SELECT created_at FROM messages WHERE id = $1 AND conversation_id = $2
		`, *before, conversationID).Scan(&cursor)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("load message cursor: %w", err)
		}

		rows, err = s.db.Query(ctx, `
			SELECT `+messageColumns+`
			FROM messages
			WHERE conversation_id = $1 AND created_at < $2
			ORDER BY created_at DESC
			LIMIT $3
		`, conversationID, cursor, limit)
	} else {
		rows, err = s.db.Query(ctx, `
			SELECT `+messageColumns+`
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, conversationID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// MarkMessagesRead отмечает прочитанными входящие сообщения переписки из ids
func (s *Store) MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	ct, err := s.db.Exec(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE conversation_id = $1 AND receiver_id = $2 AND is_read = FALSE AND id = ANY($3)
	`, conversationID, readerID, ids)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	return ct.RowsAffected(), nil
}
