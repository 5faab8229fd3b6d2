package http

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "admin-portal/pkg/errors"
	"admin-portal/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NewErrorHandler returns an echo HTTPErrorHandler that maps sentinel errors
// to status codes, hides internal messages from clients and logs every error
// with the request id.
func NewErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, message := statusFor(err)

		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = "unknown"
		}

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.Int("status", code),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			logger.SafeError(err),
		}
		if code >= http.StatusInternalServerError {
			log.Error("internal_server_error", fields...)
			// Don't expose internal errors to clients
			if code == http.StatusInternalServerError {
				message = "Internal server error"
			}
		} else {
			log.Warn("client_error", fields...)
		}

		if err := c.JSON(code, map[string]any{
			"error":      message,
			"request_id": requestID,
		}); err != nil {
			log.Error("failed to write error response", zap.Error(err))
		}
	}
}

func statusFor(err error) (int, string) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, fmt.Sprintf("%v", httpErr.Message)
	}

	code := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code, message = http.StatusNotFound, "Resource not found"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		code, message = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, apperrors.ErrUnauthorized):
		code, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, apperrors.ErrExpired):
		code, message = http.StatusUnauthorized, "Session expired"
	case errors.Is(err, apperrors.ErrForbidden):
		code, message = http.StatusForbidden, "Forbidden"
	case errors.Is(err, apperrors.ErrInsufficientPerms):
		code, message = http.StatusForbidden, "Insufficient permissions"
	case errors.Is(err, apperrors.ErrBadRequest):
		code, message = http.StatusBadRequest, "Bad request"
	case errors.Is(err, apperrors.ErrInvalidInput):
		code, message = http.StatusBadRequest, "Invalid input"
	case errors.Is(err, apperrors.ErrRateLimited):
		code, message = http.StatusTooManyRequests, "Rate limit exceeded"
	case errors.Is(err, apperrors.ErrUpstream):
		code, message = http.StatusBadGateway, "Upstream service error"
	case errors.Is(err, apperrors.ErrUnavailable):
		code, message = http.StatusServiceUnavailable, "Service unavailable"
	}

	// Use the message from AppError if it's a client error
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && code < http.StatusInternalServerError {
		message = appErr.Message
	}

	return code, message
}
