package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"admin-portal/internal/guard"

	"github.com/labstack/echo/v4"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"

	// matches the server's BodyLimit
	maxRequestBodyBytes int64 = 1 << 20

	formFieldUsername = "username"
	formFieldPassword = "password"
)

// bindLoginRequest accepts the login view's form post as well as a JSON body.
// JSON bodies are decoded strictly: unknown fields and trailing data fail.
func bindLoginRequest(c echo.Context) (LoginRequest, error) {
	var req LoginRequest

	mediaType, _, _ := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
	switch mediaType {
	case contentTypeJSON:
		return req, decodeStrictJSON(c.Request().Body, &req)
	case contentTypeForm:
		c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, maxRequestBodyBytes)
		if err := c.Request().ParseForm(); err != nil {
			return req, echo.NewHTTPError(http.StatusBadRequest, msgInvalidRequestBody)
		}
		req.Username = c.Request().PostForm.Get(formFieldUsername)
		req.Password = c.Request().PostForm.Get(formFieldPassword)
		req.ReturnURL = c.Request().PostForm.Get(guard.QueryReturnURL)
		return req, nil
	default:
		return req, echo.NewHTTPError(http.StatusUnsupportedMediaType, msgUnsupportedContentType)
	}
}

func decodeStrictJSON(body io.Reader, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidRequestBody)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidRequestBody)
	}
	return nil
}
