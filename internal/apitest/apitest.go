// Package apitest собирает Fiber-приложение с проверкой токенов для тестов обработчиков.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/barterhub/internal/auth"
	"github.com/rajivgeraev/barterhub/internal/middleware"
)

const secret = "apitest-secret"

// API тестовое приложение
type API struct {
	App    *fiber.App
	tokens *auth.JWTService
}

// Response ответ тестового запроса
type Response struct {
	Status int
	Body   []byte
}

// New создает приложение; register получает группы /functions/v1 и /api
func New(t *testing.T, register func(functions, api fiber.Router)) *API {
	t.Helper()
	log, _ := test.NewNullLogger()
	tokens := auth.NewJWTService(secret, "authenticated")

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(log)})
	guard := middleware.AuthMiddleware(tokens)
	register(app.Group("/functions/v1", guard), app.Group("/api", guard))

	return &API{App: app, tokens: tokens}
}

// Do выполняет запрос от имени userID; uuid.Nil означает запрос без токена
func (a *API) Do(t *testing.T, userID uuid.UUID, method, path string, body any) Response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		token, err := a.tokens.GenerateToken(userID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.App.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return Response{Status: resp.StatusCode, Body: data}
}

// Decode разбирает поле data ответа в out
func (r Response) Decode(t *testing.T, out any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(r.Body, &envelope), string(r.Body))
	require.NoError(t, json.Unmarshal(envelope.Data, out), string(r.Body))
}

// Error возвращает поле error ответа
func (r Response) Error(t *testing.T) string {
	t.Helper()
	envelope := struct {
		Error string `json:"error"`
	}{}
	require.NoError(t, json.Unmarshal(r.Body, &envelope), string(r.Body))
	return envelope.Error
}

// StatusOK проверяет, что ответ 200
func (r Response) StatusOK(t *testing.T) {
	t.Helper()
	require.Equal(t, http.StatusOK, r.Status, string(r.Body))
}
