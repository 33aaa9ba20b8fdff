package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request with its outcome.  It reads
// the request ID set by echo's RequestID middleware when present.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo write the error response so the status is final
				c.Error(err)
			}

			res := c.Response()
			entry := logrus.WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"route":      c.Path(),
				"status":     res.Status,
				"duration":   time.Since(start).String(),
				"client_ip":  c.RealIP(),
				"user_agent": c.Request().UserAgent(),
				"request_id": res.Header().Get(echo.HeaderXRequestID),
				"user":       subject(c),
			})
			switch {
			case res.Status >= 500:
				entry.WithError(err).Error("request failed")
			case res.Status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request processed")
			}
			return nil
		}
	}
}
