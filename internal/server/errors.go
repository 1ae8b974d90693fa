package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"PricePulse/internal/model"
)

// AppError is an error rendered to clients as {"error": ..., "code": ...}.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithError attaches the underlying cause; it is logged, not rendered.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func NewAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// InvalidValueError is the persistence endpoint's 400 response.
func InvalidValueError() *AppError {
	return NewAppError("ERR_INVALID_VALUE", "Invalid value", http.StatusBadRequest)
}

// DatabaseError is the persistence endpoint's 500 response.
func DatabaseError() *AppError {
	return NewAppError("ERR_DATABASE", "Database error", http.StatusInternalServerError)
}

func BadRequestError(message string) *AppError {
	return NewAppError("ERR_BAD_REQUEST", message, http.StatusBadRequest)
}

// UnprocessableError reports a run that could not produce a forecast from the data it was given.
func UnprocessableError(err error) *AppError {
	return NewAppError("ERR_UNPROCESSABLE", err.Error(), http.StatusUnprocessableEntity).WithError(err)
}

func InternalError(message string) *AppError {
	return NewAppError("ERR_INTERNAL", message, http.StatusInternalServerError)
}

// storeError maps a store failure to the persistence endpoint's responses.
func storeError(err error) *AppError {
	if errors.Is(err, model.ErrInvalidValue) {
		return InvalidValueError().WithError(err)
	}
	return DatabaseError().WithError(err)
}

// toAppError converts any handler error into an AppError.
func toAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return NewAppError("ERR_HTTP", fmt.Sprintf("%v", he.Message), he.Code).WithError(err)
	}
	return InternalError("Internal Server Error").WithError(err)
}
