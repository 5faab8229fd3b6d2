package handler

import (
	"net/http"

	"admin-portal/internal/http/middleware"
	"admin-portal/internal/routes"

	"github.com/labstack/echo/v4"
)

// RouteView is what a guarded route renders once navigation proceeds
type RouteView struct {
	Route      string            `json:"route"`
	Path       string            `json:"path"`
	Params     map[string]string `json:"params,omitempty"`
	Requires   []string          `json:"requires"`
	RequireAll bool              `json:"requireAll"`
	Subject    string            `json:"subject"`
}

// Navigate returns a handler describing route. Content for each screen is
// served by the backend; the portal only decides whether the screen opens.
func Navigate(route routes.Route) echo.HandlerFunc {
	requires := route.Requirement.Tokens()
	if requires == nil {
		requires = []string{}
	}
	return func(c echo.Context) error {
		view := RouteView{
			Route:      route.Name,
			Path:       c.Request().URL.Path,
			Requires:   requires,
			RequireAll: route.Requirement.RequireAll(),
		}
		if names := c.ParamNames(); len(names) > 0 {
			view.Params = make(map[string]string, len(names))
			for _, name := range names {
				view.Params[name] = c.Param(name)
			}
		}
		if sess := middleware.CurrentSession(c); sess != nil {
			view.Subject = sess.Subject
		}
		return c.JSON(http.StatusOK, view)
	}
}
