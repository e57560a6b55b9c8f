package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/barterhub/internal/models"
)

var messageCols = []string{
	"id", "conversation_id", "sender_id", "receiver_id", "content", "message_type", "exchange_id", "is_read", "created_at",
}

func TestStore_GetOrCreateConversation(t *testing.T) {
	store, mock := newStoreTestFixture(t)
	defer mock.Close()

	a, b, convID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT get_or_create_conversation\(\$1, \$2, \$3\)`).
		WithArgs(a, b, (*uuid.UUID)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"get_or_create_conversation"}).AddRow(convID))

	got, err := store.GetOrCreateConversation(context.Background(), a, b, nil)
	require.NoError(t, err)
	assert.Equal(t, convID, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateMessage_UpdatesSummary(t *testing.T) {
	store, mock := newStoreTestFixture(t)
	defer mock.Close()

	m := &models.Message{
		ConversationID: uuid.New(),
		SenderID:       uuid.New(),
		ReceiverID:     uuid.New(),
		Content:        "is it still available?",
		MessageType:    models.MessageText,
	}
	id, now := uuid.New(), time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO messages").
		WithArgs(m.ConversationID, m.SenderID, m.ReceiverID, m.Content, models.MessageText, (*uuid.UUID)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "is_read", "created_at"}).AddRow(id, false, now))
	mock.ExpectExec("UPDATE conversations SET last_message_id").
		WithArgs(m.ConversationID, id, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, store.CreateMessage(context.Background(), m))
	assert.Equal(t, id, m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateMessage_InsertFailsRollsBack(t *testing.T) {
	store, mock := newStoreTestFixture(t)
	defer mock.Close()

	m := &models.Message{ConversationID: uuid.New(), SenderID: uuid.New(), ReceiverID: uuid.New(), Content: "x", MessageType: models.MessageText}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO messages").
		WithArgs(m.ConversationID, m.SenderID, m.ReceiverID, m.Content, models.MessageText, (*uuid.UUID)(nil)).
		WillReturnError(errors.New("conversation fk violation"))
	mock.ExpectRollback()

	err := store.CreateMessage(context.Background(), m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert message")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetConversation_NotFound(t *testing.T) {
	store, mock := newStoreTestFixture(t)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("FROM conversations").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "participant_1_id", "participant_2_id", "exchange_id", "last_message_id", "last_message_at", "created_at"}))

	_, err := store.GetConversation(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListConversations(t *testing.T) {
	store, mock := newStoreTestFixture(t)
	defer mock.Close()

	userID, other, convID, lastID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("FROM conversations c").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "participant_1_id", "participant_2_id", "exchange_id", "last_message_id",
			"last_message_at", "created_at", "content", "unread_count",
		}).AddRow(convID, userID, other, (*uuid.UUID)(nil), &lastID, &now, now, "see you", 2))

	got, err := store.ListConversations(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "see you", got[0].LastMessageText)
	assert.Equal(t, 2, got[0].UnreadCount)
	assert.Equal(t, &lastID, got[0].LastMessageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListMessages_BeforeCursor(t *testing.T) {
	store, mock := newStoreTestFixture(t)
	defer mock.Close()

	convID, before := uuid.New(), uuid.New()
	now := time.Now().UTC()
	cursor := now.Add(-time.Minute)

	mock.ExpectQuery("SELECT created_at FROM messages WHERE id = \\$1 AND conversation_id = \\$2").
		WithArgs(before, convID).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(cursor))
	mock.ExpectQuery("WHERE conversation_id = \\$1 AND created_at < \\$2").
		WithArgs(convID, cursor, 50).
		WillReturnRows(pgxmock.NewRows(messageCols).
			AddRow(uuid.New(), convID, uuid.New(), uuid.New(), "older", models.MessageText, (*uuid.UUID)(nil), true, cursor.Add(-time.Second)))

	got, err := store.ListMessages(context.Background(), convID, &before, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "older", got[0].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListMessages_CursorFromAnotherConversation(t *testing.T) {
	store, mock := newStoreTestFixture(t)
	defer mock.Close()

	convID, foreign := uuid.New(), uuid.New()
	mock.ExpectQuery("SELECT created_at FROM messages WHERE id = \\$1 AND conversation_id = \\$2").
		WithArgs(foreign, convID).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.ListMessages(context.Background(), convID, &foreign, 50)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_MarkMessagesRead(t *testing.T) {
	store, mock := newStoreTestFixture(t)
	defer mock.Close()

	convID, reader := uuid.New(), uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	mock.ExpectExec("UPDATE messages SET is_read = TRUE").
		WithArgs(convID, reader, ids).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := store.MarkMessagesRead(context.Background(), convID, reader, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
