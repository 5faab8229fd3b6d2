package handler

import (
	"net/http"

	"admin-portal/internal/guard"
	"admin-portal/internal/rbac"

	"github.com/labstack/echo/v4"
)

type ForbiddenHandler struct {
	loginPath string
}

func NewForbiddenHandler(loginPath string) *ForbiddenHandler {
	return &ForbiddenHandler{loginPath: loginPath}
}

type ForbiddenResponse struct {
	Reason              string   `json:"reason"`
	ReturnURL           string   `json:"returnUrl,omitempty"`
	RequiredPermissions []string `json:"requiredPermissions"`
}

// Show echoes the denial context carried in the redirect query. Only
// well-formed permission tokens and local return paths are reflected; the
// reason is the only one a permission checkpoint emits.
func (h *ForbiddenHandler) Show(c echo.Context) error {
	required := []string{}
	for _, token := range guard.SplitRequiredPermissions(c.QueryParam(guard.QueryRequiredPermissions)) {
		if p, err := rbac.ParsePermission(token); err == nil {
			required = append(required, p.String())
		}
	}

	return c.JSON(http.StatusForbidden, ForbiddenResponse{
		Reason:              guard.ReasonInsufficientPermissions,
		ReturnURL:           SafeReturnURL(c.QueryParam(guard.QueryReturnURL), "", h.loginPath),
		RequiredPermissions: required,
	})
}
