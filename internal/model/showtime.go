package model

// Showtime statuses.
const (
	ShowtimeActive   = "active"
	ShowtimeInactive = "inactive"
)

// DefaultMaxSeats is the capacity given to a showtime when none is supplied.
const DefaultMaxSeats = 80

// Showtime represents a scheduled screening of a movie at a fixed date,
// time and price.  AvailableSeats is a cached denormalisation of
// MaxSeats minus the seats held by confirmed bookings; only the seat
// ledger writes it.
//
// Fields:
//  ID             – primary key identifier.
//  MovieID        – movie being screened.
//  MovieTitle     – title of the movie (joined, read only).
//  Date           – screening date, YYYY-MM-DD.
//  Time           – screening time, HH:MM.
//  Price          – unit price of a seat.
//  MaxSeats       – fixed seating capacity.
//  AvailableSeats – capacity minus occupied seats.
//  SeatsPerRow    – row width of the seat grid; 0 means a flat 1..N layout.
//  Status         – active or inactive.
type Showtime struct {
	ID             uint64 `db:"id" json:"id"`                           // showtimes.id
	MovieID        uint64 `db:"movie_id" json:"movieId"`                // showtimes.movie_id
	MovieTitle     string `db:"movie_title" json:"movieTitle"`          // movies.title
	Date           string `db:"show_date" json:"date"`                  // showtimes.show_date
	Time           string `db:"show_time" json:"time"`                  // showtimes.show_time
	Price          int    `db:"price" json:"price"`                     // showtimes.price
	MaxSeats       int    `db:"max_seats" json:"maxSeats"`              // showtimes.max_seats
	AvailableSeats int    `db:"available_seats" json:"availableSeats"`  // showtimes.available_seats
	SeatsPerRow    int    `db:"seats_per_row" json:"seatsPerRow"`       // showtimes.seats_per_row
	Status         string `db:"status" json:"status"`                   // showtimes.status
}

// IsActive reports whether the showtime accepts bookings.
func (s Showtime) IsActive() bool { return s.Status == ShowtimeActive }
