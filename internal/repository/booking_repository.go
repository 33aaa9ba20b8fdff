package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// bookingRow mirrors the bookings table.  Seats is a JSON array of
// labels.
type bookingRow struct {
	ID            string       `db:"id"`
	UserID        uint64       `db:"user_id"`
	ShowtimeID    uint64       `db:"showtime_id"`
	MovieTitle    string       `db:"movie_title"`
	Seats         string       `db:"seats"`
	TotalPrice    int          `db:"total_price"`
	PaymentMethod string       `db:"payment_method"`
	Status        string       `db:"status"`
	CreatedAt     time.Time    `db:"created_at"`
	CancelledAt   sql.NullTime `db:"cancelled_at"`
}

const bookingColumns = `b.id, b.user_id, b.showtime_id, b.movie_title, b.seats, b.total_price,
	b.payment_method, b.status, b.created_at, b.cancelled_at`

func (r bookingRow) toModel() (model.Booking, error) {
	b := model.Booking{
		ID:            r.ID,
		UserID:        r.UserID,
		ShowtimeID:    r.ShowtimeID,
		MovieTitle:    r.MovieTitle,
		TotalPrice:    r.TotalPrice,
		PaymentMethod: r.PaymentMethod,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
	}
	if err := json.Unmarshal([]byte(r.Seats), &b.Seats); err != nil {
		return model.Booking{}, fmt.Errorf("decoding seats of booking %s: %w", r.ID, err)
	}
	if r.CancelledAt.Valid {
		t := r.CancelledAt.Time
		b.CancelledAt = &t
	}
	return b, nil
}

func toBookings(rows []bookingRow) ([]model.Booking, error) {
	out := make([]model.Booking, 0, len(rows))
	for _, r := range rows {
		b, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// bookingDetailRow adds the joined showtime and user columns.
type bookingDetailRow struct {
	bookingRow
	ShowDate  string `db:"show_date"`
	ShowTime  string `db:"show_time"`
	UserName  string `db:"user_name"`
	UserEmail string `db:"user_email"`
}

const bookingDetailSelect = `SELECT ` + bookingColumns + `, s.show_date, s.show_time, u.name AS user_name, u.email AS user_email
	FROM bookings b
	JOIN showtimes s ON s.id = b.showtime_id
	JOIN users u ON u.id = b.user_id`

func toDetails(rows []bookingDetailRow) ([]model.BookingDetail, error) {
	out := make([]model.BookingDetail, 0, len(rows))
	for _, r := range rows {
		b, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, model.BookingDetail{
			Booking:   b,
			ShowDate:  r.ShowDate,
			ShowTime:  r.ShowTime,
			UserName:  r.UserName,
			UserEmail: r.UserEmail,
		})
	}
	return out, nil
}

// BookingRepo reads bookings for listings.  Bookings are only written
// through the seat ledger.
type BookingRepo struct {
	db *sqlx.DB
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sqlx.DB) *BookingRepo { return &BookingRepo{db: db} }

// GetDetail returns one booking with its showtime and owner.
func (r *BookingRepo) GetDetail(ctx context.Context, id string) (model.BookingDetail, error) {
	var rows []bookingDetailRow
	if err := r.db.SelectContext(ctx, &rows, bookingDetailSelect+` WHERE b.id = ?`, id); err != nil {
		return model.BookingDetail{}, err
	}
	if len(rows) == 0 {
		return model.BookingDetail{}, ErrNotFound
	}
	out, err := toDetails(rows)
	if err != nil {
		return model.BookingDetail{}, err
	}
	return out[0], nil
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	var rows []bookingDetailRow
	if err := r.db.SelectContext(ctx, &rows, bookingDetailSelect+` WHERE b.user_id = ? ORDER BY b.created_at DESC`, userID); err != nil {
		return nil, err
	}
	return toDetails(rows)
}

// List returns every booking, optionally filtered by status, newest
// first.
func (r *BookingRepo) List(ctx context.Context, status string) ([]model.BookingDetail, error) {
	q := bookingDetailSelect
	var args []any
	if status != "" {
		q += ` WHERE b.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY b.created_at DESC`
	var rows []bookingDetailRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return toDetails(rows)
}

func getBooking(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (model.Booking, error) {
	var row bookingRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Booking{}, ErrNotFound
		}
		return model.Booking{}, err
	}
	return row.toModel()
}
