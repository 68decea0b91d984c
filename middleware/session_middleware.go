package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const SessionCookie = "fc_session"

// Session resolves the browser session ID from the session cookie,
// minting one on first contact. The ID scopes everything in the token
// store and the auth state manager.
func Session() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sid string
			if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
				sid = cookie.Value
			} else {
				sid = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     SessionCookie,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(30 * 24 * time.Hour),
				})
			}
			c.Set("sessionID", sid)

			// 请求日志用：从 Bearer 头窥探令牌主题，不做校验
			authHeader := c.Request().Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenString := strings.TrimPrefix(authHeader, "Bearer ")
				claims := jwt.MapClaims{}
				if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err == nil {
					if sub, ok := claims["sub"].(string); ok {
						c.Set("tokenSubject", sub)
					}
				}
			}

			return next(c)
		}
	}
}

// SessionID pulls the resolved session ID off the request context.
func SessionID(c echo.Context) string {
	if sid, ok := c.Get("sessionID").(string); ok {
		return sid
	}
	return ""
}
