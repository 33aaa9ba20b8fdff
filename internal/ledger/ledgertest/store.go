// Package ledgertest provides an in-memory ledger.Store for tests.  Writes
// made inside WithinShowtime are staged and only become visible when the
// callback returns nil, mirroring a database transaction, and each
// showtime has its own lock standing in for SELECT ... FOR UPDATE.
package ledgertest

import (
	"context"
	"errors"
	"sync"

	"github.com/iliyamo/cinema-booking/internal/ledger"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// Store is a thread-safe in-memory ledger store.
type Store struct {
	mu         sync.Mutex
	showtimes  map[uint64]model.Showtime
	bookings   map[string]model.Booking
	order      []string
	activities []model.Activity
	failures   map[string]error

	lockMu sync.Mutex
	locks  map[uint64]*sync.Mutex
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		showtimes: make(map[uint64]model.Showtime),
		bookings:  make(map[string]model.Booking),
		failures:  make(map[string]error),
		locks:     make(map[uint64]*sync.Mutex),
	}
}

// Showtime builds an active showtime with every seat available.
func Showtime(id uint64, maxSeats, price int) model.Showtime {
	return model.Showtime{
		ID:             id,
		MovieID:        1,
		MovieTitle:     "Test Movie",
		Date:           "2026-01-01",
		Time:           "19:30",
		Price:          price,
		MaxSeats:       maxSeats,
		AvailableSeats: maxSeats,
		Status:         model.ShowtimeActive,
	}
}

// PutShowtime inserts or replaces a showtime.
func (s *Store) PutShowtime(st model.Showtime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showtimes[st.ID] = st
}

// GetShowtime returns the committed showtime.
func (s *Store) GetShowtime(id uint64) (model.Showtime, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.showtimes[id]
	return st, ok
}

// PutBooking inserts a committed booking directly, bypassing the ledger.
func (s *Store) PutBooking(b model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[b.ID]; !ok {
		s.order = append(s.order, b.ID)
	}
	s.bookings[b.ID] = cloneBooking(b)
}

// Bookings returns committed bookings of a showtime in insertion order.
func (s *Store) Bookings(showtimeID uint64) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, id := range s.order {
		if b := s.bookings[id]; b.ShowtimeID == showtimeID {
			out = append(out, cloneBooking(b))
		}
	}
	return out
}

// Activities returns the committed audit entries.
func (s *Store) Activities() []model.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Activity(nil), s.activities...)
}

// Fail makes the named Tx method (e.g. "InsertBooking") return err until
// cleared with a nil err.
func (s *Store) Fail(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

func (s *Store) failure(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[method]
}

func (s *Store) showtimeLock(id uint64) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

// FindBooking implements ledger.Store.
func (s *Store) FindBooking(ctx context.Context, bookingID string) (model.Booking, error) {
	if err := s.failure("FindBooking"); err != nil {
		return model.Booking{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return model.Booking{}, ledger.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

// WithinShowtime implements ledger.Store.
func (s *Store) WithinShowtime(ctx context.Context, showtimeID uint64, fn func(tx ledger.Tx) error) error {
	lock := s.showtimeLock(showtimeID)
	lock.Lock()
	defer lock.Unlock()

	tx := &memTx{store: s, showtimeID: showtimeID, cancels: make(map[string]model.Booking)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := s.failure("Commit"); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

func (s *Store) commit(tx *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.show != nil {
		s.showtimes[tx.show.ID] = *tx.show
	}
	for _, b := range tx.inserts {
		s.bookings[b.ID] = b
		s.order = append(s.order, b.ID)
	}
	for id, b := range tx.cancels {
		s.bookings[id] = b
	}
	s.activities = append(s.activities, tx.activities...)
}

type memTx struct {
	store      *Store
	showtimeID uint64

	show       *model.Showtime
	inserts    []model.Booking
	cancels    map[string]model.Booking
	activities []model.Activity
}

func (t *memTx) LoadShowtime(ctx context.Context) (model.Showtime, error) {
	if err := t.store.failure("LoadShowtime"); err != nil {
		return model.Showtime{}, err
	}
	if t.show != nil {
		return *t.show, nil
	}
	st, ok := t.store.GetShowtime(t.showtimeID)
	if !ok {
		return model.Showtime{}, ledger.ErrShowtimeNotFound
	}
	return st, nil
}

func (t *memTx) ActiveBookings(ctx context.Context) ([]model.Booking, error) {
	if err := t.store.failure("ActiveBookings"); err != nil {
		return nil, err
	}
	var out []model.Booking
	for _, b := range append(t.store.Bookings(t.showtimeID), t.inserts...) {
		if c, ok := t.cancels[b.ID]; ok {
			b = c
		}
		if b.IsActive() {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

func (t *memTx) LoadBooking(ctx context.Context, bookingID string) (model.Booking, error) {
	if c, ok := t.cancels[bookingID]; ok {
		return cloneBooking(c), nil
	}
	for _, b := range t.inserts {
		if b.ID == bookingID {
			return cloneBooking(b), nil
		}
	}
	b, err := t.store.FindBooking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if b.ShowtimeID != t.showtimeID {
		return model.Booking{}, ledger.ErrBookingNotFound
	}
	return b, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b model.Booking) error {
	if err := t.store.failure("InsertBooking"); err != nil {
		return err
	}
	if _, err := t.store.FindBooking(ctx, b.ID); err == nil {
		return errors.New("duplicate booking id")
	}
	t.inserts = append(t.inserts, cloneBooking(b))
	return nil
}

func (t *memTx) CancelBooking(ctx context.Context, b model.Booking) (bool, error) {
	if err := t.store.failure("CancelBooking"); err != nil {
		return false, err
	}
	cur, err := t.LoadBooking(ctx, b.ID)
	if err != nil || !cur.IsActive() {
		return false, nil
	}
	t.cancels[b.ID] = cloneBooking(b)
	return true, nil
}

func (t *memTx) UpdateSeatCounts(ctx context.Context, maxSeats, seatsPerRow, availableSeats int) error {
	if err := t.store.failure("UpdateSeatCounts"); err != nil {
		return err
	}
	st, err := t.LoadShowtime(ctx)
	if err != nil {
		return err
	}
	st.MaxSeats, st.SeatsPerRow, st.AvailableSeats = maxSeats, seatsPerRow, availableSeats
	t.show = &st
	return nil
}

func (t *memTx) AppendActivity(ctx context.Context, a model.Activity) error {
	if err := t.store.failure("AppendActivity"); err != nil {
		return err
	}
	t.activities = append(t.activities, a)
	return nil
}

func cloneBooking(b model.Booking) model.Booking {
	b.Seats = append([]string(nil), b.Seats...)
	return b
}
