package serverutils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// AppError is an error with an HTTP status and a message that is safe to
// return to clients. Err keeps the underlying cause for logs.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func NewBadRequest(message string, err error) *AppError {
	return NewAppError(fiber.StatusBadRequest, message, err)
}

func NewUnauthorized(message string) *AppError {
	return NewAppError(fiber.StatusUnauthorized, message, nil)
}

func NewNotFound(message string) *AppError {
	return NewAppError(fiber.StatusNotFound, message, nil)
}

func NewConflict(message string, err error) *AppError {
	return NewAppError(fiber.StatusConflict, message, err)
}

func NewTooLarge(message string) *AppError {
	return NewAppError(fiber.StatusRequestEntityTooLarge, message, nil)
}

func NewTooManyRequests(message string) *AppError {
	return NewAppError(fiber.StatusTooManyRequests, message, nil)
}

func NewInternal(message string, err error) *AppError {
	return NewAppError(fiber.StatusInternalServerError, message, err)
}

// AsAppError unwraps err into an *AppError if one is in its chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ErrorResponse is the body of every failed request.
func ErrorResponse(message string) fiber.Map {
	return fiber.Map{"error": message}
}
