package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// movieReq accepts the legacy "poster" field as an alias of image.
type movieReq struct {
	Title       string   `json:"title"`
	Genre       string   `json:"genre"`
	Duration    string   `json:"duration"`
	Rating      string   `json:"rating"`
	Image       string   `json:"image"`
	Poster      string   `json:"poster"`
	Description string   `json:"description"`
	Trailer     string   `json:"trailer"`
	Subtitles   string   `json:"subtitles"`
	Status      string   `json:"status"`
	CategoryIDs []uint64 `json:"categoryIds"`
}

func (r movieReq) toModel() (model.Movie, error) {
	m := model.Movie{
		Title:       strings.TrimSpace(r.Title),
		Genre:       strings.TrimSpace(r.Genre),
		Duration:    strings.TrimSpace(r.Duration),
		Rating:      strings.TrimSpace(r.Rating),
		Image:       strings.TrimSpace(r.Image),
		Description: r.Description,
		Trailer:     strings.TrimSpace(r.Trailer),
		Subtitles:   strings.TrimSpace(r.Subtitles),
		Status:      strings.ToLower(strings.TrimSpace(r.Status)),
		CategoryIDs: r.CategoryIDs,
	}
	if m.Image == "" {
		m.Image = strings.TrimSpace(r.Poster)
	}
	if m.Title == "" {
		return m, fmt.Errorf("title is required")
	}
	switch m.Status {
	case "":
		m.Status = model.MovieActive
	case model.MovieActive, model.MovieInactive:
	default:
		return m, fmt.Errorf("status must be active or inactive")
	}
	return m, nil
}

// ListMovies handles GET /api/admin/movies?status=&search=.
func (h *AdminHandler) ListMovies(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	items, err := h.Movies.List(ctx, repository.MovieFilter{
		Status: strings.ToLower(strings.TrimSpace(c.QueryParam("status"))),
		Query:  c.QueryParam("search"),
	})
	if err != nil {
		return repoError(c, err, "movie")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	m, err := req.toModel()
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Movies.Create(ctx, &m); err != nil {
		return repoError(c, err, "category")
	}
	h.record(c, model.ActivityMovieAdded, fmt.Sprintf("Movie %q added", m.Title))
	h.catalogChanged(c)
	return c.JSON(http.StatusCreated, m)
}

func (h *AdminHandler) UpdateMovie(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid movie id")
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	m, err := req.toModel()
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	m.ID = id
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Movies.Update(ctx, &m); err != nil {
		return repoError(c, err, "movie")
	}
	h.record(c, model.ActivityMovieUpdated, fmt.Sprintf("Movie %q updated", m.Title))
	h.catalogChanged(c)
	return c.JSON(http.StatusOK, m)
}

// DeleteMovie deactivates the movie; its showtimes and bookings stay.
func (h *AdminHandler) DeleteMovie(c echo.Context) error {
	return h.setMovieStatus(c, model.MovieInactive, model.ActivityMovieDeleted, "deactivated")
}

// RestoreMovie handles POST /api/admin/movies/:id/restore.
func (h *AdminHandler) RestoreMovie(c echo.Context) error {
	return h.setMovieStatus(c, model.MovieActive, model.ActivityMovieRestored, "restored")
}

func (h *AdminHandler) setMovieStatus(c echo.Context, status, kind, verb string) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid movie id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Movies.SetStatus(ctx, id, status); err != nil {
		return repoError(c, err, "movie")
	}
	h.record(c, kind, fmt.Sprintf("Movie %d %s", id, verb))
	h.catalogChanged(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "movie " + verb})
}
