package ledger

import (
	"context"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Store is the persistence contract of the ledger.  WithinShowtime runs
// fn as one atomic unit holding an exclusive lock on the showtime: every
// write made through tx is committed when fn returns nil and discarded
// otherwise.  Implementations must return ErrShowtimeNotFound from
// LoadShowtime when the row does not exist and ErrBookingNotFound from
// the booking lookups.
type Store interface {
	WithinShowtime(ctx context.Context, showtimeID uint64, fn func(tx Tx) error) error
	// FindBooking reads a booking without locking.  It is only used to
	// learn which showtime to lock; the state is re-read inside the unit.
	FindBooking(ctx context.Context, bookingID string) (model.Booking, error)
}

// Tx is the view of the store inside a showtime unit of work.
type Tx interface {
	LoadShowtime(ctx context.Context) (model.Showtime, error)
	ActiveBookings(ctx context.Context) ([]model.Booking, error)
	LoadBooking(ctx context.Context, bookingID string) (model.Booking, error)
	InsertBooking(ctx context.Context, b model.Booking) error
	// CancelBooking flips a confirmed booking to cancelled and reports
	// whether a row changed.
	CancelBooking(ctx context.Context, b model.Booking) (bool, error)
	UpdateSeatCounts(ctx context.Context, maxSeats, seatsPerRow, availableSeats int) error
	AppendActivity(ctx context.Context, a model.Activity) error
}
