package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError is an error that is safe to show to API clients. It carries the
// HTTP status and the stable Code rendered in the error envelope.
type AppError struct {
	Code    Code
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError builds an AppError without an underlying cause.
func NewAppError(code Code, status int, message string) *AppError {
	return &AppError{Code: code, Status: status, Message: message}
}

// Unprocessable is shorthand for the 422 errors that make up most of the
// validation and credential failures.
func Unprocessable(code Code, message string) *AppError {
	return NewAppError(code, http.StatusUnprocessableEntity, message)
}

// ToAppError converts any error into an AppError. Already typed errors pass
// through, duplicate keys become "already in use" errors and everything else
// is reported as an unknown 500.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var dup *DuplicateKeyError
	if errors.As(err, &dup) {
		return duplicateKeyAppError(dup)
	}

	switch {
	case errors.Is(err, ErrorNotFound):
		return &AppError{Code: CodeUserDocNotFound, Status: http.StatusNotFound, Message: "Not found", Err: err}
	case errors.Is(err, ErrTokenExpired):
		return &AppError{Code: CodeUserTokenExpired, Status: http.StatusUnauthorized, Message: "The token has expired", Err: err}
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrorUnauthorized):
		return &AppError{Code: CodeInvalidUserToken, Status: http.StatusUnauthorized, Message: "Invalid user token", Err: err}
	case errors.Is(err, ErrorForbidden):
		return &AppError{Code: CodeUserNotAuthorized, Status: http.StatusForbidden, Message: "The user has no authorization to access this route", Err: err}
	}

	return &AppError{Code: CodeUnknownError, Status: http.StatusInternalServerError, Message: "Something went wrong", Err: err}
}

func duplicateKeyAppError(dup *DuplicateKeyError) *AppError {
	if dup.Field == "" {
		return &AppError{Code: CodeUniqueAlreadyInUse, Status: http.StatusUnprocessableEntity, Message: "Unique field already exists", Err: dup}
	}

	code := CodeUniqueAlreadyInUse
	if dup.Field == "email" {
		code = CodeEmailAlreadyInUse
	}

	return &AppError{
		Code:    code,
		Status:  http.StatusUnprocessableEntity,
		Message: strings.ToUpper(dup.Field[:1]) + dup.Field[1:] + " already exists",
		Err:     dup,
	}
}
