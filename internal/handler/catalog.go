package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

const maxListLimit = 100

// CatalogHandler serves the public, read-only storefront: movies,
// categories, showtimes and search.  Inactive movies are hidden.
type CatalogHandler struct {
	Movies     MovieStore
	Categories CategoryStore
	Showtimes  ShowtimeStore
}

func NewCatalogHandler(m MovieStore, cat CategoryStore, s ShowtimeStore) *CatalogHandler {
	return &CatalogHandler{Movies: m, Categories: cat, Showtimes: s}
}

// ListMovies handles GET /api/movies?category=&search=&limit=.
func (h *CatalogHandler) ListMovies(c echo.Context) error {
	categoryID, ok := queryUint(c, "category")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid category")
	}
	limit := queryInt(c, "limit", 0)
	if limit > maxListLimit {
		limit = maxListLimit
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	movies, err := h.Movies.List(ctx, repository.MovieFilter{
		Status:     model.MovieActive,
		CategoryID: categoryID,
		Query:      c.QueryParam("search"),
		Limit:      limit,
	})
	if err != nil {
		return repoError(c, err, "movie")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies})
}

// GetMovie handles GET /api/movies/:id.
func (h *CatalogHandler) GetMovie(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid movie id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "movie")
	}
	if m.Status != model.MovieActive {
		return errorJSON(c, http.StatusNotFound, "movie not found")
	}
	return c.JSON(http.StatusOK, m)
}

// MovieShowtimes handles GET /api/movies/:id/showtimes.
func (h *CatalogHandler) MovieShowtimes(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid movie id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if _, err := h.Movies.GetByID(ctx, id); err != nil {
		return repoError(c, err, "movie")
	}
	items, err := h.Showtimes.List(ctx, repository.ShowtimeFilter{MovieID: id, ActiveOnly: true})
	if err != nil {
		return repoError(c, err, "showtime")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListCategories handles GET /api/categories?search=.
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	items, err := h.Categories.List(ctx, c.QueryParam("search"))
	if err != nil {
		return repoError(c, err, "category")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListShowtimes handles GET /api/showtimes?movieId=&date=&from=&to=.
// dateRange=from,to is accepted as a shorthand for from and to.
func (h *CatalogHandler) ListShowtimes(c echo.Context) error {
	movieID, ok := queryUint(c, "movieId")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid movieId")
	}
	f := repository.ShowtimeFilter{
		MovieID:    movieID,
		Date:       strings.TrimSpace(c.QueryParam("date")),
		DateFrom:   strings.TrimSpace(c.QueryParam("from")),
		DateTo:     strings.TrimSpace(c.QueryParam("to")),
		ActiveOnly: true,
	}
	if r := strings.TrimSpace(c.QueryParam("dateRange")); r != "" {
		from, to, found := strings.Cut(r, ",")
		if !found {
			return errorJSON(c, http.StatusBadRequest, "dateRange must be from,to")
		}
		f.DateFrom, f.DateTo = strings.TrimSpace(from), strings.TrimSpace(to)
	}
	for _, d := range []string{f.Date, f.DateFrom, f.DateTo} {
		if d != "" && !validDate(d) {
			return errorJSON(c, http.StatusBadRequest, "dates must be YYYY-MM-DD")
		}
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	items, err := h.Showtimes.List(ctx, f)
	if err != nil {
		return repoError(c, err, "showtime")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetShowtime handles GET /api/showtimes/:id.
func (h *CatalogHandler) GetShowtime(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid showtime id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	st, err := h.Showtimes.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "showtime")
	}
	return c.JSON(http.StatusOK, st)
}

// Search handles GET /api/search?q=&type=movies|categories.  Without a
// type both collections are searched.
func (h *CatalogHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return errorJSON(c, http.StatusBadRequest, "q is required")
	}
	kind := strings.ToLower(strings.TrimSpace(c.QueryParam("type")))
	if kind != "" && kind != "movies" && kind != "categories" {
		return errorJSON(c, http.StatusBadRequest, "type must be movies or categories")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	out := echo.Map{}
	if kind == "" || kind == "movies" {
		movies, err := h.Movies.List(ctx, repository.MovieFilter{
			Status: model.MovieActive,
			Query:  q,
			Limit:  queryInt(c, "limit", 20),
		})
		if err != nil {
			return repoError(c, err, "movie")
		}
		out["movies"] = movies
	}
	if kind == "" || kind == "categories" {
		cats, err := h.Categories.List(ctx, q)
		if err != nil {
			return repoError(c, err, "category")
		}
		out["categories"] = cats
	}
	return c.JSON(http.StatusOK, out)
}
