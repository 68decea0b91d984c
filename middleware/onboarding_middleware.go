package middleware

import (
	"net/http"

	"FreshCart/authstate"
	"FreshCart/guard"

	"github.com/labstack/echo/v4"
)

// Onboarding gates an API route behind onboarding completion, mapping
// the route to the storefront page path it serves. While the session's
// auth status is still being determined the request passes; only a
// known-authenticated, onboarding-incomplete session is blocked.
func Onboarding(g *guard.Guard, states *authstate.Manager, pagePath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := SessionID(c)
			snap := states.GetOrCreate(sid).Snapshot()
			result := g.Check(c.Request().Context(), sid, pagePath, !snap.IsLoading, snap.IsAuthenticated)
			if result.RequiresOnboarding {
				return c.JSON(http.StatusForbidden, map[string]interface{}{
					"requiresOnboarding": true,
					"redirect":           "/onboarding",
				})
			}
			return next(c)
		}
	}
}
