package profile

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/rajivgeraev/barterhub/internal/apitest"
	"github.com/rajivgeraev/barterhub/internal/db/dbtest"
	"github.com/rajivgeraev/barterhub/internal/models"
)

func TestGetProfile(t *testing.T) {
	store := dbtest.New()
	svc := NewProfileService(store)
	api := apitest.New(t, func(_, api fiber.Router) { svc.SetupRoutes(api) })
	alice := store.AddProfile("alice")

	resp := api.Do(t, uuid.New(), http.MethodGet, "/api/profiles/"+alice.ID.String(), nil)
	resp.StatusOK(t)
	var got models.Profile
	resp.Decode(t, &got)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, 0, got.TotalExchanges)

	resp = api.Do(t, uuid.New(), http.MethodGet, "/api/profiles/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = api.Do(t, uuid.New(), http.MethodGet, "/api/profiles/alice", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = api.Do(t, uuid.Nil, http.MethodGet, "/api/profiles/"+alice.ID.String(), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
}
