package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequireRole admits callers whose token role is one of roles.  It runs
// after JWTAuth; anything else, guests included, gets 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := Role(c)
			if _, ok := allowed[role]; !ok {
				logrus.WithFields(logrus.Fields{"user": subject(c), "role": role, "route": c.Path()}).Debug("role rejected")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
