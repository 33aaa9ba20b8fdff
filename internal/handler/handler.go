// Package handler exposes the HTTP endpoints of the booking service.
// Handlers depend on small interfaces so they can be exercised against
// in-memory fakes; the repository and ledger types satisfy them.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/ledger"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// requestTimeout bounds every database call made by a handler.
const requestTimeout = 5 * time.Second

// SeatLedger is the part of *ledger.Ledger used over HTTP.
type SeatLedger interface {
	Reserve(ctx context.Context, req ledger.ReserveRequest) (model.Booking, error)
	Cancel(ctx context.Context, req ledger.CancelRequest) (model.Booking, error)
	SeatMap(ctx context.Context, showtimeID uint64) (ledger.SeatMap, error)
	Resize(ctx context.Context, showtimeID uint64, maxSeats, seatsPerRow int, actorID uint64) (model.Showtime, error)
	Reconcile(ctx context.Context, showtimeID uint64) (ledger.ReconcileResult, error)
}

type BookingStore interface {
	GetDetail(ctx context.Context, id string) (model.BookingDetail, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
	List(ctx context.Context, status string) ([]model.BookingDetail, error)
}

type MovieStore interface {
	List(ctx context.Context, f repository.MovieFilter) ([]model.Movie, error)
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
	Create(ctx context.Context, m *model.Movie) error
	Update(ctx context.Context, m *model.Movie) error
	SetStatus(ctx context.Context, id uint64, status string) error
}

type CategoryStore interface {
	List(ctx context.Context, query string) ([]model.Category, error)
	GetByID(ctx context.Context, id uint64) (model.Category, error)
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id uint64) error
}

type ShowtimeStore interface {
	List(ctx context.Context, f repository.ShowtimeFilter) ([]model.Showtime, error)
	GetByID(ctx context.Context, id uint64) (model.Showtime, error)
	Create(ctx context.Context, st *model.Showtime) error
	Update(ctx context.Context, st *model.Showtime) error
	Delete(ctx context.Context, id uint64) error
}

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id uint64) error
}

type ActivityStore interface {
	Record(ctx context.Context, kind, description string, userID *uint64) error
	List(ctx context.Context, limit int, kind string) ([]model.Activity, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// ledgerError maps a ledger failure onto a status code.  Seat conflicts
// and bad labels carry the offending seats so clients can highlight them.
func ledgerError(c echo.Context, err error) error {
	var taken *ledger.SeatsTakenError
	var labels *ledger.SeatLabelError
	switch {
	case errors.As(err, &taken):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "seats": taken.Seats})
	case errors.As(err, &labels):
		status := http.StatusBadRequest
		if errors.Is(err, ledger.ErrConflict) {
			status = http.StatusConflict
		}
		return c.JSON(status, echo.Map{"error": err.Error(), "seats": labels.Labels})
	case errors.Is(err, ledger.ErrInvalidInput):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrConflict):
		return errorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrForbidden):
		return errorJSON(c, http.StatusForbidden, err.Error())
	}
	logrus.WithError(err).WithField("path", c.Path()).Error("ledger operation failed")
	return errorJSON(c, http.StatusInternalServerError, "internal error")
}

// repoError maps repository sentinels; what names the resource in 404s.
func repoError(c echo.Context, err error, what string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, repository.ErrEmailExists):
		return errorJSON(c, http.StatusConflict, "email already exists")
	case errors.Is(err, repository.ErrConflict):
		return errorJSON(c, http.StatusConflict, what+" conflicts with existing data")
	}
	logrus.WithError(err).WithField("path", c.Path()).Error("database error")
	return errorJSON(c, http.StatusInternalServerError, "database error")
}

func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func queryUint(c echo.Context, name string) (uint64, bool) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	return n, err == nil
}

func queryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.QueryParam(name)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}
