package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// RegisterAdmin registers the dashboard API under /api/admin.  Every route
// requires the admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.GET("/movies", a.ListMovies)
	g.POST("/movies", a.CreateMovie)
	g.PUT("/movies/:id", a.UpdateMovie)
	g.DELETE("/movies/:id", a.DeleteMovie)
	g.POST("/movies/:id/restore", a.RestoreMovie)

	g.POST("/categories", a.CreateCategory)
	g.PUT("/categories/:id", a.UpdateCategory)
	g.DELETE("/categories/:id", a.DeleteCategory)

	g.GET("/users", a.ListUsers)
	g.POST("/users", a.CreateUser)
	g.PUT("/users/:id", a.UpdateUser)
	g.DELETE("/users/:id", a.DeleteUser)

	g.GET("/showtimes", a.ListShowtimes)
	g.POST("/showtimes", a.CreateShowtime)
	g.PUT("/showtimes/:id", a.UpdateShowtime)
	g.PUT("/showtimes/:id/capacity", a.ResizeShowtime)
	g.POST("/showtimes/:id/reconcile", a.ReconcileShowtime)
	g.DELETE("/showtimes/:id", a.DeleteShowtime)

	g.GET("/bookings", b.List)
	g.DELETE("/bookings/:id", b.Cancel)

	g.GET("/activities", a.ListActivities)
	g.POST("/activities/cleanup", a.CleanupActivities)
}
