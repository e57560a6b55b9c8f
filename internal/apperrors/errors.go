// Package apperrors описывает таксономию ошибок API и их отображение в HTTP-статусы.
package apperrors

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind классифицирует ошибку для клиента
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindInvalidRequest  Kind = "invalid_request"
	KindInvalidState    Kind = "invalid_state"
	KindConflict        Kind = "conflict"
	KindStore           Kind = "store"
)

// Error ошибка приложения с сообщением, которое можно показать клиенту
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unauthenticated создает ошибку 401
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Forbidden создает ошибку 403
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound создает ошибку 404
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// InvalidRequest создает ошибку 400 для некорректного ввода
func InvalidRequest(message string) *Error {
	return &Error{Kind: KindInvalidRequest, Message: message}
}

// InvalidState создает ошибку 400 для недопустимого перехода состояния
func InvalidState(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

// Conflict создает ошибку 400 для повторного действия
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Store оборачивает ошибку хранилища, сохраняя ее текст
func Store(err error) *Error {
	message := err.Error()
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		message = pgErr.Message
	}
	return &Error{Kind: KindStore, Message: message, Err: err}
}

// KindOf возвращает вид ошибки; для посторонних ошибок это KindStore
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStore
}

// Is сообщает, относится ли err к виду kind
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// HTTPStatus возвращает HTTP-статус для ошибки
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidRequest, KindInvalidState, KindConflict:
		return http.StatusBadRequest
	}

	// Нарушение ограничений целостности (класс 23) считается ошибкой клиента
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == "23" {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
