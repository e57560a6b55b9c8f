package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", Unauthenticated("no token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("not yours"), http.StatusForbidden},
		{"not found", NotFound("missing"), http.StatusNotFound},
		{"invalid request", InvalidRequest("bad input"), http.StatusBadRequest},
		{"invalid state", InvalidState("not pending"), http.StatusBadRequest},
		{"conflict", Conflict("already rated"), http.StatusBadRequest},
		{"wrapped app error", fmt.Errorf("respond: %w", NotFound("missing")), http.StatusNotFound},
		{"store constraint", Store(&pgconn.PgError{Code: "23503", Message: "fk violation"}), http.StatusBadRequest},
		{"store other", Store(errors.New("connection reset")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestStore_UsesStoreMessage(t *testing.T) {
	err := Store(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", Message: "duplicate key value"}))
	assert.Equal(t, "duplicate key value", err.Error())
	assert.Equal(t, KindStore, err.Kind)

	plain := Store(errors.New("timeout"))
	assert.Equal(t, "timeout", plain.Error())
}

func TestKindOfAndIs(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Conflict("dup"))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindNotFound))
	assert.Equal(t, KindStore, KindOf(errors.New("x")))
}
