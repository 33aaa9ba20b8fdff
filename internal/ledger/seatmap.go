package ledger

import (
	"context"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// SeatMap is the seat availability of a showtime as served to clients.
// Rows is only filled for row layouts.
type SeatMap struct {
	ShowtimeID     uint64    `json:"showtimeId"`
	MovieTitle     string    `json:"movieTitle"`
	TotalSeats     int       `json:"totalSeats"`
	AvailableSeats int       `json:"availableSeats"`
	BookedSeats    []string  `json:"bookedSeats"`
	Price          int       `json:"price"`
	SeatsPerRow    int       `json:"seatsPerRow"`
	Rows           []SeatRow `json:"rows"`
}

// SeatRow is one row of the rendered grid.
type SeatRow struct {
	Label string     `json:"label"`
	Seats []SeatCell `json:"seats"`
}

// SeatCell is one seat of a row.
type SeatCell struct {
	Label    string `json:"label"`
	Occupied bool   `json:"occupied"`
}

// SeatMap reads the showtime and its occupied seats in one unit of work.
func (l *Ledger) SeatMap(ctx context.Context, showtimeID uint64) (SeatMap, error) {
	var m SeatMap
	err := l.within(ctx, "seat map", showtimeID, func(tx Tx) error {
		st, err := tx.LoadShowtime(ctx)
		if err != nil {
			return err
		}
		active, err := tx.ActiveBookings(ctx)
		if err != nil {
			return err
		}
		m = buildSeatMap(st, occupiedSet(active))
		return nil
	})
	if err != nil {
		return SeatMap{}, err
	}
	return m, nil
}

func buildSeatMap(st model.Showtime, occupied seatSet) SeatMap {
	grid := GridOf(st)
	m := SeatMap{
		ShowtimeID:     st.ID,
		MovieTitle:     st.MovieTitle,
		TotalSeats:     st.MaxSeats,
		AvailableSeats: st.AvailableSeats,
		BookedSeats:    occupied.sorted(grid),
		Price:          st.Price,
		SeatsPerRow:    st.SeatsPerRow,
		Rows:           []SeatRow{},
	}
	if st.SeatsPerRow <= 0 {
		return m
	}
	for i, label := range grid.Labels() {
		if i%st.SeatsPerRow == 0 {
			m.Rows = append(m.Rows, SeatRow{Label: indexToRowLabel(i / st.SeatsPerRow)})
		}
		row := &m.Rows[len(m.Rows)-1]
		row.Seats = append(row.Seats, SeatCell{Label: label, Occupied: occupied.has(label)})
	}
	return m
}
