package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/ledger"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// BookingHandler serves seat maps and the booking lifecycle.  All seat
// state changes go through the ledger.
type BookingHandler struct {
	Ledger   SeatLedger
	Bookings BookingStore
}

func NewBookingHandler(l SeatLedger, b BookingStore) *BookingHandler {
	return &BookingHandler{Ledger: l, Bookings: b}
}

type createBookingReq struct {
	UserID        uint64   `json:"userId"`
	ShowtimeID    uint64   `json:"showtimeId"`
	Seats         []string `json:"seats"`
	TotalPrice    int      `json:"totalPrice"`
	PaymentMethod string   `json:"paymentMethod"`
}

// SeatMap handles GET /api/showtimes/:id/seats.
func (h *BookingHandler) SeatMap(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid showtime id")
	}
	m, err := h.Ledger.SeatMap(c.Request().Context(), id)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Create handles POST /api/bookings.  userId defaults to the caller;
// only admins may book on behalf of someone else.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if req.UserID == 0 {
		req.UserID = uid
	}
	if req.UserID != uid && !middleware.IsAdmin(c) {
		return errorJSON(c, http.StatusForbidden, "cannot book for another user")
	}
	if req.ShowtimeID == 0 {
		return errorJSON(c, http.StatusBadRequest, "showtimeId is required")
	}
	if req.TotalPrice < 0 {
		return errorJSON(c, http.StatusBadRequest, "totalPrice must not be negative")
	}

	b, err := h.Ledger.Reserve(c.Request().Context(), ledger.ReserveRequest{
		ShowtimeID:    req.ShowtimeID,
		UserID:        req.UserID,
		Seats:         req.Seats,
		TotalPrice:    req.TotalPrice,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// Get handles GET /api/bookings/:id.  Non-admins only see their own.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	id := strings.TrimSpace(c.Param("id"))
	ctx, cancel := withTimeout(c)
	defer cancel()

	b, err := h.Bookings.GetDetail(ctx, id)
	if err != nil {
		return repoError(c, err, "booking")
	}
	if b.UserID != uid && !middleware.IsAdmin(c) {
		return errorJSON(c, http.StatusNotFound, "booking not found")
	}
	return c.JSON(http.StatusOK, b)
}

// Mine handles GET /api/my-bookings.
func (h *BookingHandler) Mine(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	items, err := h.Bookings.ListByUser(ctx, uid)
	if err != nil {
		return repoError(c, err, "booking")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Cancel handles DELETE /api/bookings/:id and its admin twin.  Both
// soft-cancel through the ledger.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	b, err := h.Ledger.Cancel(c.Request().Context(), ledger.CancelRequest{
		BookingID: strings.TrimSpace(c.Param("id")),
		ActorID:   uid,
		Admin:     middleware.IsAdmin(c),
	})
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled", "booking": b})
}

// List handles GET /api/admin/bookings?status=.
func (h *BookingHandler) List(c echo.Context) error {
	status := strings.ToLower(strings.TrimSpace(c.QueryParam("status")))
	switch status {
	case "", "all":
		status = ""
	case model.BookingConfirmed, model.BookingCancelled:
	default:
		return errorJSON(c, http.StatusBadRequest, "status must be confirmed or cancelled")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	items, err := h.Bookings.List(ctx, status)
	if err != nil {
		return repoError(c, err, "booking")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
