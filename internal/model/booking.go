package model

import "time"

// Booking statuses.  A booking is created confirmed and may move to
// cancelled exactly once; cancelled is terminal.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Payment methods accepted at the counter.
const (
	PaymentCash = "cash"
	PaymentBank = "bank"
)

// Booking records a user's reservation of a set of seats for one
// showtime.  Cancelled bookings are kept for audit and no longer hold
// their seats.
//
// Fields:
//  ID            – opaque UUID.
//  UserID        – user who owns the booking.
//  ShowtimeID    – showtime being booked.
//  MovieTitle    – title copied at booking time.
//  Seats         – seat labels, unique, in grid order.
//  TotalPrice    – unit price times seat count.
//  PaymentMethod – cash or bank.
//  Status        – confirmed or cancelled.
//  CreatedAt     – creation timestamp (UTC).
//  CancelledAt   – cancellation timestamp (nil while confirmed).
type Booking struct {
	ID            string     `json:"id"`
	UserID        uint64     `json:"userId"`
	ShowtimeID    uint64     `json:"showtimeId"`
	MovieTitle    string     `json:"movieTitle"`
	Seats         []string   `json:"seats"`
	TotalPrice    int        `json:"totalPrice"`
	PaymentMethod string     `json:"paymentMethod"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
}

// IsActive reports whether the booking still holds its seats.
func (b Booking) IsActive() bool { return b.Status == BookingConfirmed }

// BookingDetail is a booking joined with its showtime and owner, used by
// listings.
type BookingDetail struct {
	Booking
	ShowDate  string `json:"date"`
	ShowTime  string `json:"time"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}
