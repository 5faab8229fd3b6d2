package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"admin-portal/internal/rbac"
	"admin-portal/internal/session"
	apperrors "admin-portal/pkg/errors"
	"admin-portal/pkg/logger"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	retryWaitTime    = 200 * time.Millisecond
	retryMaxWaitTime = 2 * time.Second
	userAgent        = "admin-portal-gateway"
)

// Client is the REST client for the backend
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient builds a client for baseURL. Transport errors and 5xx responses
// are retried retryCount times.
func NewClient(baseURL string, timeout time.Duration, retryCount int, log *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(retryWaitTime).
		SetRetryMaxWaitTime(retryMaxWaitTime).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{http: httpClient, logger: log}
}

// Login posts credentials and returns the access token
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var result loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Username: username, Password: password}).
		SetResult(&result).
		Post(PathLogin)
	if err != nil {
		c.logger.Error("backend login call failed", logger.SafeError(err))
		return "", apperrors.Upstream("authentication service unavailable", err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return "", apperrors.InvalidCredentials()
	case resp.IsError():
		c.logger.Error("backend login rejected", zap.Int("status_code", resp.StatusCode()))
		return "", apperrors.Upstream("authentication service error", fmt.Errorf("status %d", resp.StatusCode()))
	case result.AccessToken == "":
		return "", apperrors.Upstream("authentication service error", fmt.Errorf("empty access token"))
	}

	return result.AccessToken, nil
}

// FetchPermissions returns the principal's complete permission set. Names the
// gateway does not know are dropped and logged; they never widen access.
func (c *Client) FetchPermissions(ctx context.Context, id session.Identity) (rbac.PermissionSet, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(id.Token).
		Get(PathPermissions)
	if err != nil {
		return rbac.EmptyPermissionSet(), apperrors.Upstream("permission service unavailable", err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return rbac.EmptyPermissionSet(), apperrors.Unauthorized("access token rejected by backend")
	case resp.IsError():
		return rbac.EmptyPermissionSet(), apperrors.Upstream("permission service error", fmt.Errorf("status %d", resp.StatusCode()))
	}

	var envelope struct {
		Subject     string          `json:"subject"`
		Permissions json.RawMessage `json:"permissions"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return rbac.EmptyPermissionSet(), apperrors.Upstream("malformed permission response", err)
	}
	if envelope.Subject != "" && envelope.Subject != id.Subject {
		return rbac.EmptyPermissionSet(), apperrors.Upstream("permission response for another subject", fmt.Errorf("got %q want %q", envelope.Subject, id.Subject))
	}
	if len(envelope.Permissions) == 0 {
		return rbac.EmptyPermissionSet(), nil
	}

	set, dropped, err := rbac.DecodePermissionSet(envelope.Permissions)
	if err != nil {
		return rbac.EmptyPermissionSet(), apperrors.Upstream("malformed permission response", err)
	}
	if len(dropped) > 0 {
		c.logger.Warn("backend returned unknown permissions",
			zap.String("subject", id.Subject),
			zap.Strings("dropped", dropped),
		)
	}

	return set, nil
}
