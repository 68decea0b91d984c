package handlers

import (
	"net/http"

	"FreshCart/authstate"
	"FreshCart/guard"
	custommiddleware "FreshCart/middleware"

	"github.com/labstack/echo/v4"
)

// GuardHandler GET /api/users/onboarding-check?path= 供布局代码查询路由门禁
type GuardHandler struct {
	guard  *guard.Guard
	states *authstate.Manager
}

func NewGuardHandler(g *guard.Guard, states *authstate.Manager) *GuardHandler {
	return &GuardHandler{guard: g, states: states}
}

func (h *GuardHandler) Check(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "path is required",
		})
	}

	sid := custommiddleware.SessionID(c)
	snap := h.states.GetOrCreate(sid).Snapshot()
	result := h.guard.Check(c.Request().Context(), sid, path, !snap.IsLoading, snap.IsAuthenticated)
	return c.JSON(http.StatusOK, result)
}
