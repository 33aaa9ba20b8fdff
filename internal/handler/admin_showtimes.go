package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

type showtimeReq struct {
	MovieID     uint64 `json:"movieId"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Price       int    `json:"price"`
	MaxSeats    int    `json:"maxSeats"`
	SeatsPerRow int    `json:"seatsPerRow"`
	Status      string `json:"status"`
}

type capacityReq struct {
	MaxSeats    int `json:"maxSeats"`
	SeatsPerRow int `json:"seatsPerRow"`
}

func (r showtimeReq) validate() error {
	switch {
	case r.MovieID == 0:
		return errors.New("movieId is required")
	case !validDate(r.Date):
		return errors.New("date must be YYYY-MM-DD")
	case !validClock(r.Time):
		return errors.New("time must be HH:MM")
	case r.Price <= 0:
		return errors.New("price must be positive")
	case r.MaxSeats < 0 || r.SeatsPerRow < 0:
		return errors.New("seat counts must not be negative")
	}
	switch r.Status {
	case "", model.ShowtimeActive, model.ShowtimeInactive:
		return nil
	}
	return errors.New("status must be active or inactive")
}

// ListShowtimes handles GET /api/admin/showtimes; inactive ones included.
func (h *AdminHandler) ListShowtimes(c echo.Context) error {
	movieID, ok := queryUint(c, "movieId")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid movieId")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	items, err := h.Showtimes.List(ctx, repository.ShowtimeFilter{MovieID: movieID, Date: c.QueryParam("date")})
	if err != nil {
		return repoError(c, err, "showtime")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateShowtime starts the showtime with every seat available.
func (h *AdminHandler) CreateShowtime(c echo.Context) error {
	var req showtimeReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := req.validate(); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	st := model.Showtime{
		MovieID:     req.MovieID,
		Date:        req.Date,
		Time:        req.Time,
		Price:       req.Price,
		MaxSeats:    req.MaxSeats,
		SeatsPerRow: req.SeatsPerRow,
		Status:      req.Status,
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Showtimes.Create(ctx, &st); err != nil {
		return repoError(c, err, "movie")
	}
	h.record(c, model.ActivityShowtimeAdded,
		fmt.Sprintf("Showtime %d added for %q on %s %s", st.ID, st.MovieTitle, st.Date, st.Time))
	h.catalogChanged(c)
	return c.JSON(http.StatusCreated, st)
}

// UpdateShowtime edits schedule, price, movie and status.  Capacity has
// its own endpoint because it must go through the ledger.
func (h *AdminHandler) UpdateShowtime(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid showtime id")
	}
	var req showtimeReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	st, err := h.Showtimes.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "showtime")
	}
	if req.MovieID == 0 {
		req.MovieID = st.MovieID
	}
	if req.Date == "" {
		req.Date = st.Date
	}
	if req.Time == "" {
		req.Time = st.Time
	}
	if req.Price == 0 {
		req.Price = st.Price
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if req.Status == "" {
		req.Status = st.Status
	}
	req.MaxSeats, req.SeatsPerRow = 0, 0
	if err := req.validate(); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	st.MovieID, st.Date, st.Time, st.Price, st.Status = req.MovieID, req.Date, req.Time, req.Price, req.Status
	if err := h.Showtimes.Update(ctx, &st); err != nil {
		return repoError(c, err, "showtime")
	}
	h.record(c, model.ActivityShowtimeUpdated, fmt.Sprintf("Showtime %d updated", st.ID))
	h.catalogChanged(c)
	return c.JSON(http.StatusOK, st)
}

// ResizeShowtime handles PUT /api/admin/showtimes/:id/capacity.
func (h *AdminHandler) ResizeShowtime(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid showtime id")
	}
	var req capacityReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	uid, _ := middleware.UserID(c)
	st, err := h.Ledger.Resize(c.Request().Context(), id, req.MaxSeats, req.SeatsPerRow, uid)
	if err != nil {
		return ledgerError(c, err)
	}
	h.catalogChanged(c)
	return c.JSON(http.StatusOK, st)
}

// ReconcileShowtime handles POST /api/admin/showtimes/:id/reconcile.
func (h *AdminHandler) ReconcileShowtime(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid showtime id")
	}
	res, err := h.Ledger.Reconcile(c.Request().Context(), id)
	if err != nil {
		return ledgerError(c, err)
	}
	if res.Repaired {
		h.catalogChanged(c)
	}
	return c.JSON(http.StatusOK, res)
}

// DeleteShowtime removes a showtime that was never booked.
func (h *AdminHandler) DeleteShowtime(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid showtime id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Showtimes.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return errorJSON(c, http.StatusConflict, "showtime has bookings")
		}
		return repoError(c, err, "showtime")
	}
	h.record(c, model.ActivityShowtimeDeleted, fmt.Sprintf("Showtime %d deleted", id))
	h.catalogChanged(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "showtime deleted"})
}
