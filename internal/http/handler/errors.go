package handler

import (
	"errors"
	"net/http"

	apperrors "admin-portal/pkg/errors"

	"github.com/labstack/echo/v4"
)

type publicError struct {
	sentinels []error
	status    int
	message   string
}

// publicErrors is ordered: the first entry whose sentinel matches wins
var publicErrors = []publicError{
	{[]error{apperrors.ErrInvalidCredentials}, http.StatusUnauthorized, msgInvalidCredentials},
	{[]error{apperrors.ErrUnauthorized, apperrors.ErrExpired}, http.StatusUnauthorized, msgAuthenticationRequired},
	{[]error{apperrors.ErrForbidden, apperrors.ErrInsufficientPerms}, http.StatusForbidden, msgAccessDenied},
	{[]error{apperrors.ErrNotFound}, http.StatusNotFound, msgNotFound},
	{[]error{apperrors.ErrBadRequest, apperrors.ErrInvalidInput}, http.StatusBadRequest, msgInvalidInput},
	{[]error{apperrors.ErrRateLimited}, http.StatusTooManyRequests, msgRateLimited},
	{[]error{apperrors.ErrUpstream, apperrors.ErrUnavailable}, http.StatusBadGateway, msgLoginUnavailable},
}

// MapToPublicError returns the status and the generic message a client may
// see for err. Unrecognised errors become a bare 500.
func MapToPublicError(err error) (int, string) {
	for _, pe := range publicErrors {
		for _, sentinel := range pe.sentinels {
			if errors.Is(err, sentinel) {
				return pe.status, pe.message
			}
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

func RespondWithMappedError(c echo.Context, err error) error {
	status, msg := MapToPublicError(err)
	return respondError(c, status, msg)
}
