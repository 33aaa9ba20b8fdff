package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// RegisterCustomer registers the booking endpoints.  All routes require a
// valid JWT; mutating ones are rate limited per user.
func RegisterCustomer(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/api",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	)
	g.POST("/bookings", h.Create, limiter)
	g.DELETE("/bookings/:id", h.Cancel, limiter)
	g.GET("/bookings/:id", h.Get)
	g.GET("/my-bookings", h.Mine)
}
