// Package queue defines the booking events exchanged over RabbitMQ and
// the consumer that records them in the booking log.
package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Event kinds.  Each kind is also the name of the durable queue it is
// published to unless overridden by configuration.
const (
	KindBookingConfirmed = "booking.confirmed"
	KindBookingCancelled = "booking.cancelled"
)

// BookingEvent is published after a booking is confirmed or cancelled.
// It carries enough information for consumers to log or notify without
// querying the database.
type BookingEvent struct {
	Kind           string   `json:"kind"`
	BookingID      string   `json:"booking_id"`
	UserID         uint64   `json:"user_id"`
	ShowtimeID     uint64   `json:"showtime_id"`
	MovieTitle     string   `json:"movie_title"`
	ShowDate       string   `json:"show_date"`
	ShowTime       string   `json:"show_time"`
	Seats          []string `json:"seats"`
	TotalPrice     int      `json:"total_price"`
	PaymentMethod  string   `json:"payment_method"`
	AvailableSeats int      `json:"available_seats"`
	OccurredAt     string   `json:"occurred_at"`
}

// NewBookingEvent snapshots a booking and its showtime.
func NewBookingEvent(kind string, b model.Booking, s model.Showtime) BookingEvent {
	at := b.CreatedAt
	if kind == KindBookingCancelled && b.CancelledAt != nil {
		at = *b.CancelledAt
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return BookingEvent{
		Kind:           kind,
		BookingID:      b.ID,
		UserID:         b.UserID,
		ShowtimeID:     b.ShowtimeID,
		MovieTitle:     b.MovieTitle,
		ShowDate:       s.Date,
		ShowTime:       s.Time,
		Seats:          b.Seats,
		TotalPrice:     b.TotalPrice,
		PaymentMethod:  b.PaymentMethod,
		AvailableSeats: s.AvailableSeats,
		OccurredAt:     at.UTC().Format(time.RFC3339),
	}
}

// LogLine renders the event as one line of the booking log.
func (e BookingEvent) LogLine() string {
	verb := "Booking confirmed"
	if e.Kind == KindBookingCancelled {
		verb = "Booking cancelled"
	}
	return fmt.Sprintf("[%s] %s | booking_id=%s | user_id=%d | showtime_id=%d | movie=%q | when=%s %s | seats=[%s] | total=%d | payment=%s | available=%d\n",
		e.OccurredAt, verb, e.BookingID, e.UserID, e.ShowtimeID, e.MovieTitle, e.ShowDate, e.ShowTime,
		strings.Join(e.Seats, ","), e.TotalPrice, e.PaymentMethod, e.AvailableSeats)
}
