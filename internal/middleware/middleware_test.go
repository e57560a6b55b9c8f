package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/barterhub/internal/apperrors"
	"github.com/rajivgeraev/barterhub/internal/auth"
	"github.com/rajivgeraev/barterhub/internal/metrics"
)

const testSecret = "middleware-test-secret"

func newTestApp(t *testing.T) (*fiber.App, *auth.JWTService) {
	t.Helper()
	log, _ := test.NewNullLogger()
	jwtService := auth.NewJWTService(testSecret, "authenticated")

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	app.Use(Metrics())

	api := app.Group("/api", AuthMiddleware(jwtService))
	api.Get("/me", func(c fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return err
		}
		return c.SendString(userID.String())
	})
	api.Options("/me", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})

	return app, jwtService
}

func doRequest(t *testing.T, app *fiber.App, method, header string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, "/api/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAuthMiddleware(t *testing.T) {
	app, jwtService := newTestApp(t)
	userID := uuid.New()

	valid, err := jwtService.GenerateToken(userID, time.Hour)
	require.NoError(t, err)
	expired, err := jwtService.GenerateToken(userID, -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.NewJWTService("other-secret", "authenticated").GenerateToken(userID, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusOK, wantBody: userID.String()},
		{name: "lowercase scheme", header: "bearer " + valid, wantStatus: http.StatusOK, wantBody: userID.String()},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"Missing authorization header"}`},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"Invalid authorization header format"}`},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"Invalid authorization header format"}`},
		{name: "expired token", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized, wantBody: `{"error":"Invalid or expired token"}`},
		{name: "foreign signature", header: "Bearer " + foreign, wantStatus: http.StatusUnauthorized, wantBody: `{"error":"Invalid or expired token"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, app, http.MethodGet, tt.header)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestAuthMiddleware_OptionsPassesWithoutToken(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doRequest(t, app, http.MethodOptions, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestUserID_MissingLocal(t *testing.T) {
	log, _ := test.NewNullLogger()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	app.Get("/", func(c fiber.Ctx) error {
		_, err := UserID(c)
		return err
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	log, hook := test.NewNullLogger()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantLogged bool
	}{
		{name: "not found", err: apperrors.NotFound("exchange not found"), wantStatus: http.StatusNotFound},
		{name: "conflict", err: apperrors.Conflict("already rated"), wantStatus: http.StatusBadRequest},
		{name: "fiber error", err: fiber.NewError(http.StatusMethodNotAllowed, "nope"), wantStatus: http.StatusMethodNotAllowed},
		{name: "constraint", err: apperrors.Store(&pgconn.PgError{Code: "23503", Message: "fk"}), wantStatus: http.StatusBadRequest},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantLogged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
			app.Get("/", func(fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.JSONEq(t, `{"error":"`+tt.err.Error()+`"}`, string(body))
			assert.Equal(t, tt.wantLogged, len(hook.AllEntries()) > 0)
		})
	}
}

func TestMetrics_RecordsRouteTemplate(t *testing.T) {
	log, _ := test.NewNullLogger()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	app.Use(Metrics())
	app.Get("/things/:id", func(c fiber.Ctx) error {
		if c.Params("id") == "missing" {
			return apperrors.NotFound("thing not found")
		}
		return c.SendStatus(http.StatusOK)
	})

	okCounter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/things/:id", "200")
	notFoundCounter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/things/:id", "404")
	okBefore := testutil.ToFloat64(okCounter)
	notFoundBefore := testutil.ToFloat64(notFoundCounter)

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/things/1", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/things/missing", nil))
	require.NoError(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(okCounter))
	assert.Equal(t, notFoundBefore+1, testutil.ToFloat64(notFoundCounter))
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{query: "", wantLimit: DefaultLimit, wantOffset: 0},
		{query: "?limit=5&offset=10", wantLimit: 5, wantOffset: 10},
		{query: "?limit=0", wantLimit: DefaultLimit, wantOffset: 0},
		{query: "?limit=1000&offset=-3", wantLimit: DefaultLimit, wantOffset: 0},
		{query: "?limit=abc&offset=xyz", wantLimit: DefaultLimit, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			app := fiber.New()
			var gotLimit, gotOffset int
			app.Get("/", func(c fiber.Ctx) error {
				gotLimit, gotOffset = Pagination(c)
				return nil
			})

			_, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, gotLimit)
			assert.Equal(t, tt.wantOffset, gotOffset)
		})
	}
}
