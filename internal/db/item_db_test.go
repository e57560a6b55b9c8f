package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/barterhub/internal/models"
)

var itemCols = []string{
	"id", "owner_id", "category_id", "title", "description", "condition", "estimated_value",
	"images", "location", "status", "views_count", "created_at", "updated_at",
}

func TestStore_GetItem_Success(t *testing.T) {
	store, mock := newStoreTestFixture(t)
	defer mock.Close()

	id, owner := uuid.New(), uuid.New()
	value := 120.5
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM items WHERE id =").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(itemCols).AddRow(
			id, owner, (*uuid.UUID)(nil), "Road bike", "barely used", "good", &value,
			[]string{"https://img/1.jpg"}, "Berlin", models.ItemAvailable, 7, now, now,
		))

	item, err := store.GetItem(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, owner, item.OwnerID)
	assert.Equal(t, &value, item.EstimatedValue)
	assert.True(t, item.IsAvailable())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetItem_NotFound(t *testing.T) {
	store, mock := newStoreTestFixture(t)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM items WHERE id =").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(itemCols))

	_, err := store.GetItem(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RemoveItem_NotAvailable(t *testing.T) {
	store, mock := newStoreTestFixture(t)
	defer mock.Close()

	id, owner := uuid.New(), uuid.New()
	mock.ExpectExec("UPDATE items").
		WithArgs(id, owner).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.RemoveItem(context.Background(), id, owner)
	assert.ErrorIs(t, err, ErrStaleState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AddFavorite_Duplicate(t *testing.T) {
	store, mock := newStoreTestFixture(t)
	defer mock.Close()

	userID, itemID := uuid.New(), uuid.New()
	mock.ExpectQuery("INSERT INTO favorites").
		WithArgs(userID, itemID).
		WillReturnError(pgUniqueViolation())

	_, err := store.AddFavorite(context.Background(), userID, itemID)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListFavorites(t *testing.T) {
	store, mock := newStoreTestFixture(t)
	defer mock.Close()

	userID, itemID, owner := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM favorites WHERE user_id =`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM favorites f").
		WithArgs(userID, 20, 0).
		WillReturnRows(pgxmock.NewRows(append([]string{"fid", "user_id", "item_id", "fcreated_at"}, itemCols...)).AddRow(
			uuid.New(), userID, itemID, now,
			itemID, owner, (*uuid.UUID)(nil), "Lamp", "", "new", (*float64)(nil),
			[]string{}, "", models.ItemAvailable, 0, now, now,
		))

	favs, total, err := store.ListFavorites(context.Background(), userID, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, favs, 1)
	assert.Equal(t, "Lamp", favs[0].Item.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetProfile(t *testing.T) {
	store, mock := newStoreTestFixture(t)
	defer mock.Close()

	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery("FROM profiles").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "username", "full_name", "avatar_url", "location", "rating", "total_exchanges", "response_time_hours", "created_at",
		}).AddRow(id, "anna", "Anna K", "", "Riga", 4.5, 3, 1.25, now))

	p, err := store.GetProfile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 4.5, p.Rating)
	assert.Equal(t, 3, p.TotalExchanges)
	assert.NoError(t, mock.ExpectationsWereMet())
}
