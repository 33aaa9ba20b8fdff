package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories.  Every error returned by the ledger either wraps one
// of these or is a *StorageError.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

var (
	ErrShowtimeNotFound = fmt.Errorf("showtime %w", ErrNotFound)
	ErrBookingNotFound  = fmt.Errorf("booking %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrShowtimeInactive = fmt.Errorf("showtime is not active: %w", ErrConflict)
	ErrNoSeats          = fmt.Errorf("seats must not be empty: %w", ErrInvalidInput)
	ErrInvalidSeatLabel = fmt.Errorf("seat label outside the showtime grid: %w", ErrInvalidInput)
	ErrDuplicateSeat    = fmt.Errorf("duplicate seat label: %w", ErrInvalidInput)
	ErrPriceMismatch    = fmt.Errorf("total price does not match seat price: %w", ErrInvalidInput)
	ErrPaymentMethod    = fmt.Errorf("unsupported payment method: %w", ErrInvalidInput)
	ErrInvalidCapacity  = fmt.Errorf("capacity must be positive: %w", ErrInvalidInput)
	ErrNotOwner         = fmt.Errorf("booking belongs to another user: %w", ErrForbidden)
	ErrCapacityTooSmall = fmt.Errorf("occupied seats fall outside the new grid: %w", ErrConflict)
)

// SeatsTakenError rejects a reservation because some requested seats are
// already held by an active booking.  Seats lists every contested label.
type SeatsTakenError struct {
	Seats []string
}

func (e *SeatsTakenError) Error() string {
	return "seats already taken: " + strings.Join(e.Seats, ",")
}

// Unwrap lets errors.Is(err, ErrConflict) match.
func (e *SeatsTakenError) Unwrap() error { return ErrConflict }

// SeatLabelError names the labels that are not part of the grid.
type SeatLabelError struct {
	Cause  error
	Labels []string
}

func (e *SeatLabelError) Error() string {
	return e.Cause.Error() + ": " + strings.Join(e.Labels, ",")
}

func (e *SeatLabelError) Unwrap() error { return e.Cause }

// StorageError reports an unexpected failure of the backing store.  It
// is never a Conflict: callers must not retry it as a seat collision.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

// classify passes domain errors through and wraps everything else.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	switch {
	case errors.As(err, &se):
		return err
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidInput), errors.Is(err, ErrForbidden):
		return err
	}
	return &StorageError{Op: op, Err: err}
}
