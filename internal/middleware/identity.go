package middleware

import "github.com/labstack/echo/v4"

// UserID returns the authenticated user id, or "" on public routes.
func UserID(c echo.Context) string {
	s, _ := c.Get("user_id").(string)
	return s
}

// Role returns the authenticated user's role, or "".
func Role(c echo.Context) string {
	s, _ := c.Get("role").(string)
	return s
}

// subject identifies the caller in rate limit keys and logs.
func subject(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
