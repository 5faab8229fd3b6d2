package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is()
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrInternalServer     = errors.New("internal server error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExpired            = errors.New("session expired")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInsufficientPerms  = errors.New("insufficient permissions")
	ErrUpstream           = errors.New("upstream service error")
	ErrUnavailable        = errors.New("service unavailable")
	ErrCacheMiss          = errors.New("cache miss")
	ErrRateLimited        = errors.New("rate limit exceeded")
)

// AppError carries a client-safe message and a machine code next to the cause
type AppError struct {
	Code    string
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

func Unauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Err: ErrUnauthorized}
}

func Forbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: msg, Err: ErrForbidden}
}

func InvalidCredentials() *AppError {
	return &AppError{Code: "INVALID_CREDENTIALS", Message: "invalid username or password", Err: ErrInvalidCredentials}
}

// Upstream wraps a failed backend call; the cause is kept for logs only
func Upstream(msg string, err error) *AppError {
	return &AppError{Code: "UPSTREAM_ERROR", Message: msg, Err: fmt.Errorf("%w: %w", ErrUpstream, err)}
}

func RateLimited(msg string) *AppError {
	return &AppError{Code: "RATE_LIMITED", Message: msg, Err: ErrRateLimited}
}
