package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cloudlab/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the token's subject and role in the request context under
// "user_id" and "role". Handlers read them through UserID and Role.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return deny(c, http.StatusUnauthorized, "missing bearer token", "unauthorized")
			}
			id, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return deny(c, http.StatusUnauthorized, "invalid token", "unauthorized")
			}
			c.Set("user_id", id.UserID)
			c.Set("role", id.Role)
			return next(c)
		}
	}
}

// deny writes the API's failure envelope.
func deny(c echo.Context, status int, message, code string) error {
	return c.JSON(status, echo.Map{"success": false, "message": message, "error": code})
}
