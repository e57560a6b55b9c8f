package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/barterhub/internal/apperrors"
)

const userIDKey = "userID"

// TokenVerifier извлекает ID пользователя из токена доступа
type TokenVerifier interface {
	ExtractUserID(token string) (uuid.UUID, error)
}

// AuthMiddleware создаёт middleware для проверки JWT
func AuthMiddleware(tokens TokenVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		// Preflight-запросы не несут токена
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperrors.Unauthenticated("Missing authorization header")
		}

		// Проверяем Bearer токен
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return apperrors.Unauthenticated("Invalid authorization header format")
		}

		userID, err := tokens.ExtractUserID(parts[1])
		if err != nil {
			return apperrors.Unauthenticated("Invalid or expired token")
		}

		c.Locals(userIDKey, userID)

		return c.Next()
	}
}

// UserID возвращает ID пользователя, установленный AuthMiddleware
func UserID(c fiber.Ctx) (uuid.UUID, error) {
	userID, ok := c.Locals(userIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, apperrors.Unauthenticated("Unauthenticated")
	}
	return userID, nil
}
