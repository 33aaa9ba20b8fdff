package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness and, with ?deep=1, the state of the
// database and Redis.  Redis is optional and never fails the check.
type HealthHandler struct {
	DB    Pinger
	Redis *redis.Client
}

func (h *HealthHandler) Health(c echo.Context) error {
	if c.QueryParam("deep") == "" {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	out := echo.Map{"status": "ok", "database": "ok", "redis": "disabled"}
	code := http.StatusOK
	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			out["status"], out["database"] = "degraded", err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if h.Redis != nil {
		out["redis"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			out["redis"] = err.Error()
		}
	}
	return c.JSON(code, out)
}
