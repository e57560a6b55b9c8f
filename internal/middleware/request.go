package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination читает limit и offset из строки запроса.
// Некорректные значения заменяются значениями по умолчанию.
func Pagination(c fiber.Ctx) (limit, offset int) {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(DefaultLimit)))
	if err != nil || limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}

	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	return limit, offset
}
