package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"FreshCart/authstate"
	custommiddleware "FreshCart/middleware"
	"FreshCart/models"
	"FreshCart/session"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// toastCookie carries a one-shot user-visible error message to the
// storefront after a redirect.
const toastCookie = "fc_toast"

type AuthHandler struct {
	states *authstate.Manager
	flow   *session.Flow
}

func NewAuthHandler(states *authstate.Manager, flow *session.Flow) *AuthHandler {
	return &AuthHandler{states: states, flow: flow}
}

func (h *AuthHandler) store(c echo.Context) *authstate.Store {
	return h.states.GetOrCreate(custommiddleware.SessionID(c))
}

func (h *AuthHandler) SignUp(c echo.Context) error {
	var req models.SignUpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}
	result := h.store(c).SignUp(c.Request().Context(), &req)
	return c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}
	store := h.store(c)
	result := store.SignIn(c.Request().Context(), &req)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"result": result,
		"state":  store.Snapshot(),
	})
}

func (h *AuthHandler) SignOut(c echo.Context) error {
	result := h.store(c).SignOut(c.Request().Context())
	return c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) State(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store(c).Snapshot())
}

func (h *AuthHandler) RefreshUser(c echo.Context) error {
	store := h.store(c)
	store.RefreshUser(c.Request().Context())
	return c.JSON(http.StatusOK, store.Snapshot())
}

func (h *AuthHandler) ClearError(c echo.Context) error {
	store := h.store(c)
	store.ClearError()
	return c.JSON(http.StatusOK, store.Snapshot())
}

// Callback lands the redirect from the external identity provider. The
// URL fragment never reaches the server, so the landing page forwards
// it as the `fragment` query parameter.
func (h *AuthHandler) Callback(c echo.Context) error {
	sid := custommiddleware.SessionID(c)
	query := c.QueryParams()
	fragment := c.QueryParam("fragment")

	target, err := h.flow.Complete(c.Request().Context(), sid, query, fragment)
	if err != nil {
		if errors.Is(err, session.ErrDeferVerification) {
			// 邮箱验证跳转，交给验证页面处理
			return c.Redirect(http.StatusFound, "/")
		}
		log.Errorf("session callback failed: %v", err)
		h.setToast(c, err)
		return c.Redirect(http.StatusFound, "/login")
	}
	return c.Redirect(http.StatusFound, target)
}

func (h *AuthHandler) setToast(c echo.Context, err error) {
	message := "Sign-in failed. Please try again."
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	c.SetCookie(&http.Cookie{
		Name:     toastCookie,
		Value:    url.QueryEscape(message),
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}
