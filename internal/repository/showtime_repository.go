package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/model"
)

const showtimeSelect = `SELECT s.id, s.movie_id, m.title AS movie_title, s.show_date, s.show_time, s.price,
	s.max_seats, s.available_seats, s.seats_per_row, s.status
	FROM showtimes s
	JOIN movies m ON m.id = s.movie_id`

// ShowtimeFilter narrows List.  Zero values match everything.  DateFrom
// and DateTo are inclusive YYYY-MM-DD bounds.
type ShowtimeFilter struct {
	MovieID    uint64
	Date       string
	DateFrom   string
	DateTo     string
	ActiveOnly bool
}

// ShowtimeRepo manages persistence for showtimes.  It never writes
// available_seats or the seat grid of an existing showtime; those belong
// to the seat ledger.
type ShowtimeRepo struct {
	db *sqlx.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sqlx.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// List returns showtimes ordered by date and time.
func (r *ShowtimeRepo) List(ctx context.Context, f ShowtimeFilter) ([]model.Showtime, error) {
	var where []string
	var args []any
	if f.MovieID != 0 {
		where = append(where, "s.movie_id = ?")
		args = append(args, f.MovieID)
	}
	if f.Date != "" {
		where = append(where, "s.show_date = ?")
		args = append(args, f.Date)
	}
	if f.DateFrom != "" {
		where = append(where, "s.show_date >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		where = append(where, "s.show_date <= ?")
		args = append(args, f.DateTo)
	}
	if f.ActiveOnly {
		where = append(where, "s.status = ?")
		args = append(args, model.ShowtimeActive)
	}
	q := showtimeSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY s.show_date, s.show_time, s.id"

	out := []model.Showtime{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveIDs lists the IDs of showtimes that accept bookings.
func (r *ShowtimeRepo) ActiveIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := r.db.SelectContext(ctx, &ids, `SELECT id FROM showtimes WHERE status = ? ORDER BY id`, model.ShowtimeActive)
	return ids, err
}

// GetByID retrieves a showtime by its ID.  It returns ErrNotFound if
// there is no matching row.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (model.Showtime, error) {
	var st model.Showtime
	if err := r.db.GetContext(ctx, &st, showtimeSelect+` WHERE s.id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Showtime{}, ErrNotFound
		}
		return model.Showtime{}, err
	}
	return st, nil
}

// Create inserts a showtime with every seat available and fills in the
// generated ID and the movie title.  An unknown movie yields
// ErrNotFound.
func (r *ShowtimeRepo) Create(ctx context.Context, st *model.Showtime) error {
	if st.MaxSeats <= 0 {
		st.MaxSeats = model.DefaultMaxSeats
	}
	if st.Status == "" {
		st.Status = model.ShowtimeActive
	}
	st.AvailableSeats = st.MaxSeats
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO showtimes (movie_id, show_date, show_time, price, max_seats, available_seats, seats_per_row, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.MovieID, st.Date, st.Time, st.Price, st.MaxSeats, st.AvailableSeats, st.SeatsPerRow, st.Status)
	if err != nil {
		if mysqlErrorIs(err, mysqlNoReferencedRow) {
			return ErrNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*st = created
	return nil
}

// Update changes the schedule, price, movie and status of a showtime.
// Capacity is left alone.
func (r *ShowtimeRepo) Update(ctx context.Context, st *model.Showtime) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE showtimes SET movie_id = ?, show_date = ?, show_time = ?, price = ?, status = ? WHERE id = ?`,
		st.MovieID, st.Date, st.Time, st.Price, st.Status, st.ID)
	if err != nil {
		if mysqlErrorIs(err, mysqlNoReferencedRow) {
			return ErrNotFound
		}
		return err
	}
	// MySQL reports zero affected rows when nothing changed, so check
	// existence by reading the row back.
	updated, err := r.GetByID(ctx, st.ID)
	if err != nil {
		return err
	}
	*st = updated
	return nil
}

// Delete removes a showtime that has never been booked.  The row is
// locked first so a concurrent reservation either commits before the
// check or waits and then fails to find the showtime.  A showtime with
// bookings, active or cancelled, yields ErrConflict.
func (r *ShowtimeRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var locked uint64
	if err = tx.GetContext(ctx, &locked, `SELECT id FROM showtimes WHERE id = ? FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	var n int
	if err = tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM bookings WHERE showtime_id = ?`, id); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM showtimes WHERE id = ?`, id)
	return err
}
