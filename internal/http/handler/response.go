package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every handler-level failure
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorResponse{
		Error:     message,
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	})
}

// handleHTTPError renders binding failures; anything that is not an
// echo.HTTPError is reported as an internal error without detail.
func handleHTTPError(c echo.Context, err error) error {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return respondError(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}

	msg, _ := he.Message.(string)
	if msg == "" {
		msg = http.StatusText(he.Code)
	}
	return respondError(c, he.Code, msg)
}
