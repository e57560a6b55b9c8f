package websocket

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// TokenVerifier извлекает ID пользователя из токена доступа
type TokenVerifier interface {
	ExtractUserID(token string) (uuid.UUID, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Источники ограничивает CORS основного API; токен проверяется ниже
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler принимает websocket-подключения к ленте уведомлений
type Handler struct {
	manager *Manager
	tokens  TokenVerifier
}

// NewHandler создает Handler
func NewHandler(manager *Manager, tokens TokenVerifier) *Handler {
	return &Handler{manager: manager, tokens: tokens}
}

// ServeHTTP проверяет токен и переводит соединение на websocket
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("access_token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		http.Error(w, `{"error":"missing access token"}`, http.StatusUnauthorized)
		return
	}

	userID, err := h.tokens.ExtractUserID(token)
	if err != nil {
		http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже записал ответ
		h.manager.log.WithError(err).Debug("websocket upgrade не выполнен")
		return
	}

	NewClient(userID, conn, h.manager).Start()
}
