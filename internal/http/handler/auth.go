package handler

import (
	"net/http"
	"strings"
	"time"

	"admin-portal/internal/audit"
	"admin-portal/internal/guard"
	"admin-portal/internal/http/middleware"
	"admin-portal/internal/rbac"
	"admin-portal/pkg/logger"
	"admin-portal/pkg/validator"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthConfig holds the cookie and entry point settings of the auth handlers
type AuthConfig struct {
	CookieName   string
	CookieSecure bool
	LoginPath    string
	// HomePath is where a login without a usable returnUrl lands
	HomePath string
}

type AuthDependencies struct {
	Backend     Authenticator
	Tokens      TokenVerifier
	Sessions    SessionStore
	Loader      PermissionLoader
	Invalidator PermissionInvalidator
	CSRF        CSRFTokenManager
	Audit       *audit.Logger
	Logger      *zap.Logger
}

type AuthHandler struct {
	deps AuthDependencies
	cfg  AuthConfig
}

func NewAuthHandler(deps AuthDependencies, cfg AuthConfig) *AuthHandler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &AuthHandler{deps: deps, cfg: cfg}
}

type LoginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	ReturnURL string `json:"returnUrl"`
}

type LoginPageResponse struct {
	ReturnURL     string `json:"returnUrl"`
	Authenticated bool   `json:"authenticated"`
}

type PermissionsResponse struct {
	Subject     string             `json:"subject"`
	Role        string             `json:"role"`
	Populated   bool               `json:"populated"`
	LoadedAt    *time.Time         `json:"loadedAt,omitempty"`
	ExpiresAt   time.Time          `json:"expiresAt"`
	Tokens      []string           `json:"tokens"`
	Permissions rbac.PermissionSet `json:"permissions"`
	CSRFToken   string             `json:"csrfToken,omitempty"`
}

// LoginPage serves the data the login view needs: where to go afterwards
// and whether a session already exists.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, LoginPageResponse{
		ReturnURL:     SafeReturnURL(c.QueryParam(guard.QueryReturnURL), h.cfg.HomePath, h.cfg.LoginPath),
		Authenticated: middleware.CurrentSession(c).Valid(),
	})
}

// Login exchanges credentials for a session. The permission fetch is started
// in the background; the redirect does not wait for it.
func (h *AuthHandler) Login(c echo.Context) error {
	req, err := bindLoginRequest(c)
	if err != nil {
		return handleHTTPError(c, err)
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return respondError(c, http.StatusBadRequest, msgCredentialsRequired)
	}
	if err := validator.Username(req.Username); err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}
	if err := validator.Password(req.Password); err != nil {
		return respondError(c, http.StatusBadRequest, err.Error())
	}

	token, err := h.deps.Backend.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		h.auditError(c, req.Username, audit.ActionLogin, err)
		return RespondWithMappedError(c, err)
	}

	identity, expiresAt, err := h.deps.Tokens.Verify(token)
	if err != nil {
		h.deps.Logger.Error("backend issued an unusable token",
			zap.String("username", req.Username),
			logger.SafeError(err),
		)
		h.auditError(c, req.Username, audit.ActionLogin, err)
		return respondError(c, http.StatusBadGateway, msgLoginUnavailable)
	}

	sess := h.deps.Sessions.Create(identity, expiresAt)
	h.setSessionCookie(c, sess.ID, sess.ExpiresAt)

	if h.deps.CSRF != nil {
		if csrfToken, err := h.deps.CSRF.GetOrCreateToken(sess.ID); err == nil {
			c.Response().Header().Set(middleware.CSRFHeaderName, csrfToken)
		} else {
			h.deps.Logger.Warn(msgCSRFTokenFail, logger.SafeError(err))
		}
	}

	h.deps.Loader.Load(sess)

	if h.deps.Audit != nil {
		h.deps.Audit.LogFromContext(c, sess.Subject, audit.ActionLogin, audit.StatusSuccess, map[string]any{"role": sess.Role})
	}

	return c.Redirect(http.StatusSeeOther, SafeReturnURL(req.ReturnURL, h.cfg.HomePath, h.cfg.LoginPath))
}

// Logout ends the current session, if any, and sends the browser to the login page
func (h *AuthHandler) Logout(c echo.Context) error {
	if sess := middleware.CurrentSession(c); sess != nil {
		h.deps.Sessions.Delete(sess.ID)
		if h.deps.CSRF != nil {
			h.deps.CSRF.Revoke(sess.ID)
		}
		if h.deps.Invalidator != nil {
			if err := h.deps.Invalidator.Invalidate(c.Request().Context(), sess.Subject); err != nil {
				h.deps.Logger.Warn("failed to invalidate cached permissions",
					zap.String("subject", sess.Subject),
					logger.SafeError(err),
				)
			}
		}
		if h.deps.Audit != nil {
			h.deps.Audit.LogFromContext(c, sess.Subject, audit.ActionLogout, audit.StatusSuccess, nil)
		}
	}

	h.setSessionCookie(c, "", time.Unix(0, 0))
	return c.Redirect(http.StatusSeeOther, h.cfg.LoginPath)
}

// MyPermissions projects the session's current permission set for diagnostics
func (h *AuthHandler) MyPermissions(c echo.Context) error {
	sess := middleware.CurrentSession(c)
	if !sess.Valid() {
		return respondError(c, http.StatusUnauthorized, msgAuthenticationRequired)
	}

	roles := sess.Roles()
	set := roles.CurrentPermissions()
	resp := PermissionsResponse{
		Subject:     sess.Subject,
		Role:        sess.Role,
		Populated:   roles.Populated(),
		ExpiresAt:   sess.ExpiresAt,
		Tokens:      set.Tokens(),
		Permissions: set,
	}
	if loadedAt := roles.LoadedAt(); !loadedAt.IsZero() {
		resp.LoadedAt = &loadedAt
	}
	if resp.Tokens == nil {
		resp.Tokens = []string{}
	}
	if h.deps.CSRF != nil {
		if csrfToken, err := h.deps.CSRF.GetOrCreateToken(sess.ID); err == nil {
			resp.CSRFToken = csrfToken
			c.Response().Header().Set(middleware.CSRFHeaderName, csrfToken)
		}
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) setSessionCookie(c echo.Context, value string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	}
	c.SetCookie(cookie)
}

func (h *AuthHandler) auditError(c echo.Context, actorID string, action audit.Action, err error) {
	if h.deps.Audit != nil {
		h.deps.Audit.LogError(c, actorID, action, err)
	}
}
