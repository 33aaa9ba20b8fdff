// Package ledger enforces exclusive seat ownership per showtime.  It is
// the only writer of Showtime.AvailableSeats: reservations, cancellations,
// capacity changes and reconciliation all run inside a unit of work that
// is serialized per showtime, first on an in-process keyed mutex and then
// on the store's own lock (a row lock for MySQL).  Operations on
// different showtimes never wait for each other.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/model"
)

const publishTimeout = 3 * time.Second

// Publisher receives booking notifications after the unit of work that
// produced them has committed.  Failures are logged and never undo the
// booking.
type Publisher interface {
	BookingConfirmed(ctx context.Context, b model.Booking, s model.Showtime) error
	BookingCancelled(ctx context.Context, b model.Booking, s model.Showtime) error
}

// Ledger reserves and releases seats for showtimes.
type Ledger struct {
	store     Store
	locks     *keyedMutex
	publisher Publisher
	onChange  func(ctx context.Context, showtimeID uint64)
	log       *logrus.Entry
	now       func() time.Time
	newID     func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher sets the sink for booking notifications.
func WithPublisher(p Publisher) Option { return func(l *Ledger) { l.publisher = p } }

// WithSeatsChanged registers fn to run after every committed change to
// a showtime's seat counters, e.g. to drop cached catalog responses.
func WithSeatsChanged(fn func(ctx context.Context, showtimeID uint64)) Option {
	return func(l *Ledger) { l.onChange = fn }
}

// WithLogger sets the structured logger.
func WithLogger(e *logrus.Entry) Option { return func(l *Ledger) { l.log = e } }

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

// WithIDGenerator overrides the booking/activity ID source.
func WithIDGenerator(gen func() string) Option { return func(l *Ledger) { l.newID = gen } }

// New returns a Ledger backed by store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		locks: newKeyedMutex(),
		log:   logrus.WithField("component", "ledger"),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GridOf returns the seat grid of a showtime.
func GridOf(s model.Showtime) Grid {
	return Grid{Capacity: s.MaxSeats, SeatsPerRow: s.SeatsPerRow}
}

// ReserveRequest asks for a set of seats on one showtime.  TotalPrice is
// optional; when set it must match the showtime price times the number
// of seats.
type ReserveRequest struct {
	ShowtimeID    uint64
	UserID        uint64
	Seats         []string
	TotalPrice    int
	PaymentMethod string
}

// CancelRequest identifies the booking to cancel and who is asking.
// Admins may cancel any booking; other actors only their own.
type CancelRequest struct {
	BookingID string
	ActorID   uint64
	Admin     bool
}

// ReconcileResult describes one reconciliation pass.
type ReconcileResult struct {
	ShowtimeID uint64 `json:"showtimeId"`
	Before     int    `json:"before"`
	After      int    `json:"after"`
	Occupied   int    `json:"occupied"`
	Repaired   bool   `json:"repaired"`
}

// within serializes fn with every other unit of work on the showtime.
func (l *Ledger) within(ctx context.Context, op string, showtimeID uint64, fn func(tx Tx) error) error {
	unlock := l.locks.Lock(showtimeID)
	defer unlock()
	return classify(op, l.store.WithinShowtime(ctx, showtimeID, fn))
}

// OccupiedSeats returns the seats held by active bookings of the
// showtime, in grid order.
func (l *Ledger) OccupiedSeats(ctx context.Context, showtimeID uint64) ([]string, error) {
	var seats []string
	err := l.within(ctx, "occupied seats", showtimeID, func(tx Tx) error {
		st, err := tx.LoadShowtime(ctx)
		if err != nil {
			return err
		}
		active, err := tx.ActiveBookings(ctx)
		if err != nil {
			return err
		}
		seats = occupiedSet(active).sorted(GridOf(st))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seats, nil
}

// Reserve books every requested seat or none of them.
func (l *Ledger) Reserve(ctx context.Context, req ReserveRequest) (model.Booking, error) {
	if req.UserID == 0 {
		return model.Booking{}, fmt.Errorf("user id is required: %w", ErrInvalidInput)
	}
	seats, err := normalizeSeats(req.Seats)
	if err != nil {
		return model.Booking{}, err
	}
	method, err := normalizePayment(req.PaymentMethod)
	if err != nil {
		return model.Booking{}, err
	}
	if req.TotalPrice < 0 {
		return model.Booking{}, ErrPriceMismatch
	}

	var booking model.Booking
	var show model.Showtime
	err = l.within(ctx, "reserve", req.ShowtimeID, func(tx Tx) error {
		st, err := tx.LoadShowtime(ctx)
		if err != nil {
			return err
		}
		if !st.IsActive() {
			return ErrShowtimeInactive
		}
		grid := GridOf(st)
		if bad := outsideGrid(grid, seats); len(bad) > 0 {
			return &SeatLabelError{Cause: ErrInvalidSeatLabel, Labels: bad}
		}
		total := st.Price * len(seats)
		if req.TotalPrice != 0 && req.TotalPrice != total {
			return ErrPriceMismatch
		}

		active, err := tx.ActiveBookings(ctx)
		if err != nil {
			return err
		}
		occupied := occupiedSet(active)
		var taken []string
		for _, s := range seats {
			if occupied.has(s) {
				taken = append(taken, s)
			}
		}
		if len(taken) > 0 {
			grid.Sort(taken)
			return &SeatsTakenError{Seats: taken}
		}

		grid.Sort(seats)
		booking = model.Booking{
			ID:            l.newID(),
			UserID:        req.UserID,
			ShowtimeID:    st.ID,
			MovieTitle:    st.MovieTitle,
			Seats:         seats,
			TotalPrice:    total,
			PaymentMethod: method,
			Status:        model.BookingConfirmed,
			CreatedAt:     l.now(),
		}
		if err := tx.InsertBooking(ctx, booking); err != nil {
			return err
		}
		available := clamp(st.MaxSeats-len(occupied)-len(seats), st.MaxSeats)
		l.checkDrift(st, st.AvailableSeats-len(seats), available)
		if err := tx.UpdateSeatCounts(ctx, st.MaxSeats, st.SeatsPerRow, available); err != nil {
			return err
		}
		st.AvailableSeats = available
		show = st

		uid := req.UserID
		return tx.AppendActivity(ctx, l.activity(model.ActivityBookingCreated,
			fmt.Sprintf("Booking %s for %q: seats %s", booking.ID, st.MovieTitle, strings.Join(seats, ",")), &uid))
	})
	if err != nil {
		return model.Booking{}, err
	}

	l.log.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"showtime_id": booking.ShowtimeID,
		"user_id":     booking.UserID,
		"seats":       booking.Seats,
		"available":   show.AvailableSeats,
	}).Info("booking confirmed")
	l.seatsChanged(ctx, booking.ShowtimeID)
	l.publish(ctx, booking, show, Publisher.BookingConfirmed)
	return booking, nil
}

// Cancel soft-cancels a confirmed booking and frees its seats.  A
// booking that does not exist or is already cancelled yields
// ErrBookingNotFound, so the seat counter is restored at most once.
func (l *Ledger) Cancel(ctx context.Context, req CancelRequest) (model.Booking, error) {
	id := strings.TrimSpace(req.BookingID)
	if id == "" {
		return model.Booking{}, ErrBookingNotFound
	}
	found, err := l.store.FindBooking(ctx, id)
	if err != nil {
		return model.Booking{}, classify("cancel", err)
	}

	var cancelled model.Booking
	var show model.Showtime
	err = l.within(ctx, "cancel", found.ShowtimeID, func(tx Tx) error {
		b, err := tx.LoadBooking(ctx, id)
		if err != nil {
			return err
		}
		if !b.IsActive() {
			return ErrBookingNotFound
		}
		if !req.Admin && b.UserID != req.ActorID {
			return ErrNotOwner
		}
		st, err := tx.LoadShowtime(ctx)
		if err != nil {
			return err
		}
		active, err := tx.ActiveBookings(ctx)
		if err != nil {
			return err
		}

		now := l.now()
		b.Status = model.BookingCancelled
		b.CancelledAt = &now
		changed, err := tx.CancelBooking(ctx, b)
		if err != nil {
			return err
		}
		if !changed {
			return ErrBookingNotFound
		}

		remaining := make([]model.Booking, 0, len(active))
		for _, a := range active {
			if a.ID != b.ID {
				remaining = append(remaining, a)
			}
		}
		available := clamp(st.MaxSeats-len(occupiedSet(remaining)), st.MaxSeats)
		l.checkDrift(st, st.AvailableSeats+len(b.Seats), available)
		if err := tx.UpdateSeatCounts(ctx, st.MaxSeats, st.SeatsPerRow, available); err != nil {
			return err
		}
		st.AvailableSeats = available
		cancelled, show = b, st

		return tx.AppendActivity(ctx, l.activity(model.ActivityBookingCancelled,
			fmt.Sprintf("Booking %s for %q cancelled: seats %s", b.ID, st.MovieTitle, strings.Join(b.Seats, ",")), nonZero(req.ActorID)))
	})
	if err != nil {
		return model.Booking{}, err
	}

	l.log.WithFields(logrus.Fields{
		"booking_id":  cancelled.ID,
		"showtime_id": cancelled.ShowtimeID,
		"actor_id":    req.ActorID,
		"available":   show.AvailableSeats,
	}).Info("booking cancelled")
	l.seatsChanged(ctx, cancelled.ShowtimeID)
	l.publish(ctx, cancelled, show, Publisher.BookingCancelled)
	return cancelled, nil
}

// Resize changes the capacity and row width of a showtime.  It fails
// with ErrCapacityTooSmall when an occupied seat would no longer exist.
func (l *Ledger) Resize(ctx context.Context, showtimeID uint64, maxSeats, seatsPerRow int, actorID uint64) (model.Showtime, error) {
	if maxSeats <= 0 || seatsPerRow < 0 {
		return model.Showtime{}, ErrInvalidCapacity
	}
	var out model.Showtime
	err := l.within(ctx, "resize", showtimeID, func(tx Tx) error {
		st, err := tx.LoadShowtime(ctx)
		if err != nil {
			return err
		}
		active, err := tx.ActiveBookings(ctx)
		if err != nil {
			return err
		}
		grid := Grid{Capacity: maxSeats, SeatsPerRow: seatsPerRow}
		occupied := occupiedSet(active)
		if stranded := outsideGrid(grid, occupied.sorted(GridOf(st))); len(stranded) > 0 {
			return &SeatLabelError{Cause: ErrCapacityTooSmall, Labels: stranded}
		}
		available := clamp(maxSeats-len(occupied), maxSeats)
		if err := tx.UpdateSeatCounts(ctx, maxSeats, seatsPerRow, available); err != nil {
			return err
		}
		desc := fmt.Sprintf("Showtime %d for %q resized from %d to %d seats", st.ID, st.MovieTitle, st.MaxSeats, maxSeats)
		st.MaxSeats, st.SeatsPerRow, st.AvailableSeats = maxSeats, seatsPerRow, available
		out = st
		return tx.AppendActivity(ctx, l.activity(model.ActivityShowtimeResized, desc, nonZero(actorID)))
	})
	if err != nil {
		return model.Showtime{}, err
	}
	l.seatsChanged(ctx, showtimeID)
	return out, nil
}

// Reconcile recomputes AvailableSeats from the active bookings and
// writes it back when the cached value has drifted.
func (l *Ledger) Reconcile(ctx context.Context, showtimeID uint64) (ReconcileResult, error) {
	var res ReconcileResult
	err := l.within(ctx, "reconcile", showtimeID, func(tx Tx) error {
		st, err := tx.LoadShowtime(ctx)
		if err != nil {
			return err
		}
		active, err := tx.ActiveBookings(ctx)
		if err != nil {
			return err
		}
		occupied := occupiedSet(active)
		after := clamp(st.MaxSeats-len(occupied), st.MaxSeats)
		res = ReconcileResult{ShowtimeID: st.ID, Before: st.AvailableSeats, After: after, Occupied: len(occupied)}
		if after == st.AvailableSeats {
			return nil
		}
		res.Repaired = true
		if err := tx.UpdateSeatCounts(ctx, st.MaxSeats, st.SeatsPerRow, after); err != nil {
			return err
		}
		return tx.AppendActivity(ctx, l.activity(model.ActivityShowtimeReconciled,
			fmt.Sprintf("Showtime %d available seats corrected from %d to %d", st.ID, st.AvailableSeats, after), nil))
	})
	if err != nil {
		return ReconcileResult{}, err
	}
	if res.Repaired {
		l.seatsChanged(ctx, showtimeID)
		l.log.WithFields(logrus.Fields{
			"showtime_id": showtimeID,
			"before":      res.Before,
			"after":       res.After,
		}).Warn("available seats repaired")
	}
	return res, nil
}

func (l *Ledger) activity(kind, desc string, userID *uint64) model.Activity {
	return model.Activity{
		ID:          l.newID(),
		Type:        kind,
		Description: desc,
		UserID:      userID,
		Timestamp:   l.now(),
	}
}

// checkDrift logs when the incremental counter disagrees with the value
// derived from bookings.  The derived value is the one written.
func (l *Ledger) checkDrift(st model.Showtime, incremental, derived int) {
	if incremental == derived {
		return
	}
	l.log.WithFields(logrus.Fields{
		"showtime_id": st.ID,
		"cached":      st.AvailableSeats,
		"expected":    incremental,
		"derived":     derived,
	}).Warn("available seats drifted from bookings")
}

func (l *Ledger) seatsChanged(ctx context.Context, showtimeID uint64) {
	if l.onChange == nil {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	l.onChange(cctx, showtimeID)
}

func (l *Ledger) publish(ctx context.Context, b model.Booking, s model.Showtime,
	send func(Publisher, context.Context, model.Booking, model.Showtime) error) {
	if l.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := send(l.publisher, pctx, b, s); err != nil {
		l.log.WithError(err).WithField("booking_id", b.ID).Warn("publish booking event failed")
	}
}

// seatSet is the union of seats held by a group of bookings.
type seatSet map[string]struct{}

func occupiedSet(bookings []model.Booking) seatSet {
	set := make(seatSet)
	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		for _, s := range b.Seats {
			set[NormalizeLabel(s)] = struct{}{}
		}
	}
	return set
}

func (s seatSet) has(label string) bool {
	_, ok := s[label]
	return ok
}

func (s seatSet) sorted(g Grid) []string {
	out := make([]string, 0, len(s))
	for label := range s {
		out = append(out, label)
	}
	g.Sort(out)
	return out
}

func normalizeSeats(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, ErrNoSeats
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	var dups []string
	for _, r := range raw {
		s := NormalizeLabel(r)
		if s == "" {
			return nil, &SeatLabelError{Cause: ErrInvalidSeatLabel, Labels: []string{r}}
		}
		if _, ok := seen[s]; ok {
			dups = append(dups, s)
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(dups) > 0 {
		return nil, &SeatLabelError{Cause: ErrDuplicateSeat, Labels: dups}
	}
	return out, nil
}

func normalizePayment(raw string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(raw)); m {
	case "":
		return model.PaymentCash, nil
	case model.PaymentCash, model.PaymentBank:
		return m, nil
	}
	return "", ErrPaymentMethod
}

func outsideGrid(g Grid, labels []string) []string {
	var bad []string
	for _, s := range labels {
		if !g.Contains(s) {
			bad = append(bad, s)
		}
	}
	return bad
}

func clamp(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}

func nonZero(id uint64) *uint64 {
	if id == 0 {
		return nil
	}
	return &id
}
