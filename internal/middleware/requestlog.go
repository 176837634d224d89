package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cloudlab/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestLog assigns a request id (kept when the client sent one) and logs
// one line per request once the handler returns.
func RequestLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(requestIDHeader)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set(requestIDHeader, rid)

			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo's error handler write the response before logging its status
				c.Error(err)
			}
			status := c.Response().Status
			fields := []interface{}{
				"request_id", rid,
				"method", c.Request().Method,
				"route", c.Path(),
				"status", status,
				"latency_ms", time.Since(start).Milliseconds(),
				"ip", c.RealIP(),
				"user", subject(c),
			}
			switch {
			case status >= 500:
				logger.Errorw("request", fields...)
			case status >= 400:
				logger.Warningw("request", fields...)
			default:
				logger.Infow("request", fields...)
			}
			return nil
		}
	}
}

// RequestID returns the id assigned by RequestLog.
func RequestID(c echo.Context) string {
	s, _ := c.Get("request_id").(string)
	return s
}
