// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// RegisterRoutes registers routes that need neither authentication nor
// caching.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers sign-up, sign-in and the current-user endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/api",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	)
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the storefront.  Responses carrying
// availableSeats use showtimeCache, which is purged after every seat
// change; the seat map is never cached.
func RegisterPublic(e *echo.Echo, p *handler.CatalogHandler, b *handler.BookingHandler, cache, showtimeCache echo.MiddlewareFunc) {
	g := e.Group("/api")
	g.GET("/movies", p.ListMovies, cache)
	g.GET("/movies/:id", p.GetMovie, cache)
	g.GET("/categories", p.ListCategories, cache)
	g.GET("/search", p.Search, cache)

	g.GET("/movies/:id/showtimes", p.MovieShowtimes, showtimeCache)
	g.GET("/showtimes", p.ListShowtimes, showtimeCache)
	g.GET("/showtimes/:id", p.GetShowtime, showtimeCache)

	g.GET("/showtimes/:id/seats", b.SeatMap)
}
