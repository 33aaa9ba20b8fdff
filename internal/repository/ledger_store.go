package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/ledger"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// LedgerStore is the MySQL implementation of ledger.Store.  Each unit of
// work is one transaction that starts by locking the showtime row with
// SELECT ... FOR UPDATE, so concurrent writers on the same showtime are
// serialized even across processes.
type LedgerStore struct {
	db *sqlx.DB
}

// NewLedgerStore returns a LedgerStore bound to db.
func NewLedgerStore(db *sqlx.DB) *LedgerStore { return &LedgerStore{db: db} }

var _ ledger.Store = (*LedgerStore)(nil)

// WithinShowtime implements ledger.Store.
func (s *LedgerStore) WithinShowtime(ctx context.Context, showtimeID uint64, fn func(tx ledger.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked uint64
	if err := tx.GetContext(ctx, &locked, `SELECT id FROM showtimes WHERE id = ? FOR UPDATE`, showtimeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.ErrShowtimeNotFound
		}
		return err
	}
	if err := fn(&ledgerTx{tx: tx, showtimeID: showtimeID}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// FindBooking implements ledger.Store.
func (s *LedgerStore) FindBooking(ctx context.Context, bookingID string) (model.Booking, error) {
	b, err := getBooking(ctx, s.db, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ?`, bookingID)
	if errors.Is(err, ErrNotFound) {
		return model.Booking{}, ledger.ErrBookingNotFound
	}
	return b, err
}

type ledgerTx struct {
	tx         *sqlx.Tx
	showtimeID uint64
}

func (t *ledgerTx) LoadShowtime(ctx context.Context) (model.Showtime, error) {
	var st model.Showtime
	if err := t.tx.GetContext(ctx, &st, showtimeSelect+` WHERE s.id = ?`, t.showtimeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Showtime{}, ledger.ErrShowtimeNotFound
		}
		return model.Showtime{}, err
	}
	return st, nil
}

func (t *ledgerTx) ActiveBookings(ctx context.Context) ([]model.Booking, error) {
	var rows []bookingRow
	err := t.tx.SelectContext(ctx, &rows,
		`SELECT `+bookingColumns+` FROM bookings b WHERE b.showtime_id = ? AND b.status = ? ORDER BY b.created_at`,
		t.showtimeID, model.BookingConfirmed)
	if err != nil {
		return nil, err
	}
	return toBookings(rows)
}

func (t *ledgerTx) LoadBooking(ctx context.Context, bookingID string) (model.Booking, error) {
	b, err := getBooking(ctx, t.tx,
		`SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ? AND b.showtime_id = ?`, bookingID, t.showtimeID)
	if errors.Is(err, ErrNotFound) {
		return model.Booking{}, ledger.ErrBookingNotFound
	}
	return b, err
}

func (t *ledgerTx) InsertBooking(ctx context.Context, b model.Booking) error {
	seats, err := json.Marshal(b.Seats)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO bookings (id, user_id, showtime_id, movie_title, seats, total_price, payment_method, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.ShowtimeID, b.MovieTitle, string(seats), b.TotalPrice, b.PaymentMethod, b.Status, b.CreatedAt)
	if mysqlErrorIs(err, mysqlNoReferencedRow) {
		// the showtime row is locked, so the missing parent is the user
		return ledger.ErrUserNotFound
	}
	return err
}

func (t *ledgerTx) CancelBooking(ctx context.Context, b model.Booking) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, cancelled_at = ? WHERE id = ? AND showtime_id = ? AND status = ?`,
		model.BookingCancelled, b.CancelledAt, b.ID, t.showtimeID, model.BookingConfirmed)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *ledgerTx) UpdateSeatCounts(ctx context.Context, maxSeats, seatsPerRow, availableSeats int) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE showtimes SET max_seats = ?, seats_per_row = ?, available_seats = ? WHERE id = ?`,
		maxSeats, seatsPerRow, availableSeats, t.showtimeID)
	return err
}

func (t *ledgerTx) AppendActivity(ctx context.Context, a model.Activity) error {
	return insertActivity(ctx, t.tx, a)
}
