package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cloudlab/internal/logger"
	"github.com/iliyamo/cloudlab/internal/middleware"
	"github.com/iliyamo/cloudlab/internal/model"
)

// dbTimeout bounds every database round-trip made by a handler.
const dbTimeout = 5 * time.Second

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// respond writes the success envelope with payload under key.
func respond(c echo.Context, status int, message, key string, payload interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "message": message, key: payload})
}

// fail writes the failure envelope.
func fail(c echo.Context, status int, message, code string) error {
	return c.JSON(status, echo.Map{"success": false, "message": message, "error": code})
}

// serverError logs err and answers with a generic 500. Driver errors never
// reach the client.
func serverError(c echo.Context, op string, err error) error {
	logger.Errorw(op+" failed", "request_id", middleware.RequestID(c), "route", c.Path(), "error", err)
	return fail(c, 500, "internal server error", "internal_error")
}

// text returns a trimmed copy of f, or nil when f is nil or blank.
func text(f *model.FlexString) *string {
	if f == nil {
		return nil
	}
	s := strings.TrimSpace(string(*f))
	if s == "" {
		return nil
	}
	return &s
}

// trimmed returns a trimmed copy of s, or nil when s is nil or blank.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// wholeNumber parses f as an integer. ok is false when f holds something
// other than a whole number; a nil or blank f yields (nil, true).
func wholeNumber(f *model.FlexString) (n *int, ok bool) {
	s := text(f)
	if s == nil {
		return nil, true
	}
	v, err := strconv.Atoi(*s)
	if err != nil {
		return nil, false
	}
	return &v, true
}
