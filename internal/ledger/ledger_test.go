package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/ledger"
	"github.com/iliyamo/cinema-booking/internal/ledger/ledgertest"
	"github.com/iliyamo/cinema-booking/internal/model"
)

const price = 90000

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return "id-" + strconv.FormatInt(n.Add(1), 10) }
}

func newLedger(t *testing.T, opts ...ledger.Option) (*ledger.Ledger, *ledgertest.Store) {
	t.Helper()
	store := ledgertest.NewStore()
	store.PutShowtime(ledgertest.Showtime(1, 80, price))
	opts = append([]ledger.Option{ledger.WithLogger(quietLogger()), ledger.WithIDGenerator(sequentialIDs())}, opts...)
	return ledger.New(store, opts...), store
}

func available(t *testing.T, store *ledgertest.Store, id uint64) int {
	t.Helper()
	st, ok := store.GetShowtime(id)
	require.True(t, ok)
	return st.AvailableSeats
}

func TestEightySeatScenario(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)

	first, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 7, Seats: []string{"1", "2", "3"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, first.Seats)
	assert.Equal(t, 3*price, first.TotalPrice)
	assert.Equal(t, model.PaymentCash, first.PaymentMethod)
	assert.Equal(t, 77, available(t, store, 1))

	_, err = l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 8, Seats: []string{"3", "4"}})
	var taken *ledger.SeatsTakenError
	require.ErrorAs(t, err, &taken)
	assert.Equal(t, []string{"3"}, taken.Seats)
	assert.ErrorIs(t, err, ledger.ErrConflict)
	assert.Equal(t, 77, available(t, store, 1))

	cancelled, err := l.Cancel(ctx, ledger.CancelRequest{BookingID: first.ID, ActorID: 7})
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 80, available(t, store, 1))

	second, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 8, Seats: []string{"3", "4"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4"}, second.Seats)
	assert.Equal(t, 78, available(t, store, 1))

	occupied, err := l.OccupiedSeats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4"}, occupied)
}

func TestReserveConcurrentSameSeat(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)

	const workers = 30
	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: user, Seats: []string{"5"}})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ledger.ErrConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.EqualValues(t, workers-1, conflicts.Load())
	assert.Equal(t, 79, available(t, store, 1))
}

func TestReserveConcurrentOverlapping(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seats := []string{strconv.Itoa(i%20 + 1), strconv.Itoa((i+1)%20 + 1)}
			_, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: uint64(i + 1), Seats: seats})
			if err != nil && !errors.Is(err, ledger.ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]string{}
	for _, b := range store.Bookings(1) {
		require.True(t, b.IsActive())
		for _, s := range b.Seats {
			owner, dup := seen[s]
			require.False(t, dup, "seat %s held by %s and %s", s, owner, b.ID)
			seen[s] = b.ID
		}
	}
	assert.NotEmpty(t, seen)
	assert.Equal(t, 80-len(seen), available(t, store, 1))
}

func TestReserveAllOrNothing(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)

	_, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"2"}})
	require.NoError(t, err)

	_, err = l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 2, Seats: []string{"1", "2", "3"}})
	require.ErrorIs(t, err, ledger.ErrConflict)

	occupied, err := l.OccupiedSeats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, occupied)
	assert.Equal(t, 79, available(t, store, 1))
	assert.Len(t, store.Bookings(1), 1)
	assert.Len(t, store.Activities(), 1)
}

func TestReserveNamesEveryTakenSeat(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	_, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"10", "2", "30"}})
	require.NoError(t, err)

	_, err = l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 2, Seats: []string{"30", "4", "10"}})
	var taken *ledger.SeatsTakenError
	require.ErrorAs(t, err, &taken)
	assert.Equal(t, []string{"10", "30"}, taken.Seats)
}

func TestReserveValidation(t *testing.T) {
	tests := []struct {
		name     string
		req      ledger.ReserveRequest
		category error
		specific error
	}{
		{"no seats", ledger.ReserveRequest{ShowtimeID: 1, UserID: 1}, ledger.ErrInvalidInput, ledger.ErrNoSeats},
		{"missing user", ledger.ReserveRequest{ShowtimeID: 1, Seats: []string{"1"}}, ledger.ErrInvalidInput, nil},
		{"duplicate seat", ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"1", " 1"}}, ledger.ErrInvalidInput, ledger.ErrDuplicateSeat},
		{"blank seat", ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{" "}}, ledger.ErrInvalidInput, ledger.ErrInvalidSeatLabel},
		{"outside grid", ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"81"}}, ledger.ErrInvalidInput, ledger.ErrInvalidSeatLabel},
		{"row label on flat grid", ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"A1"}}, ledger.ErrInvalidInput, ledger.ErrInvalidSeatLabel},
		{"price mismatch", ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"1"}, TotalPrice: price + 1}, ledger.ErrInvalidInput, ledger.ErrPriceMismatch},
		{"negative price", ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"1"}, TotalPrice: -1}, ledger.ErrInvalidInput, ledger.ErrPriceMismatch},
		{"payment method", ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"1"}, PaymentMethod: "card"}, ledger.ErrInvalidInput, ledger.ErrPaymentMethod},
		{"unknown showtime", ledger.ReserveRequest{ShowtimeID: 99, UserID: 1, Seats: []string{"1"}}, ledger.ErrNotFound, ledger.ErrShowtimeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, store := newLedger(t)
			_, err := l.Reserve(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.category)
			if tt.specific != nil {
				assert.ErrorIs(t, err, tt.specific)
			}
			assert.Empty(t, store.Bookings(1))
			assert.Equal(t, 80, available(t, store, 1))
		})
	}
}

func TestReserveBadLabelsAreListed(t *testing.T) {
	l, _ := newLedger(t)
	_, err := l.Reserve(context.Background(), ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"1", "0", "99"}})
	var le *ledger.SeatLabelError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, []string{"0", "99"}, le.Labels)
}

func TestReserveExactPriceAndBankPayment(t *testing.T) {
	l, _ := newLedger(t)
	b, err := l.Reserve(context.Background(), ledger.ReserveRequest{
		ShowtimeID: 1, UserID: 1, Seats: []string{"1", "2"}, TotalPrice: 2 * price, PaymentMethod: " Bank ",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentBank, b.PaymentMethod)
	assert.Equal(t, 2*price, b.TotalPrice)
}

func TestReserveInactiveShowtime(t *testing.T) {
	l, store := newLedger(t)
	st := ledgertest.Showtime(2, 40, price)
	st.Status = model.ShowtimeInactive
	store.PutShowtime(st)

	_, err := l.Reserve(context.Background(), ledger.ReserveRequest{ShowtimeID: 2, UserID: 1, Seats: []string{"1"}})
	require.ErrorIs(t, err, ledger.ErrShowtimeInactive)
	assert.ErrorIs(t, err, ledger.ErrConflict)
	assert.Equal(t, 40, available(t, store, 2))
}

func TestReserveRowLayout(t *testing.T) {
	l, store := newLedger(t)
	st := ledgertest.Showtime(2, 80, price)
	st.SeatsPerRow = 10
	store.PutShowtime(st)

	b, err := l.Reserve(context.Background(), ledger.ReserveRequest{ShowtimeID: 2, UserID: 1, Seats: []string{" b2", "a10", "A1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A10", "B2"}, b.Seats)
	assert.Equal(t, 77, available(t, store, 2))

	_, err = l.Reserve(context.Background(), ledger.ReserveRequest{ShowtimeID: 2, UserID: 1, Seats: []string{"I1"}})
	assert.ErrorIs(t, err, ledger.ErrInvalidSeatLabel)
}

func TestReserveRejectsLabelsOutsideGrid(t *testing.T) {
	l, store := newLedger(t)
	st := ledgertest.Showtime(2, 80, price)
	st.SeatsPerRow = 10
	store.PutShowtime(st)

	tests := []struct {
		showtime uint64
		valid    string
		label    string
	}{
		{2, "A1", "JJJJJJJJJJJJJ1"},
		{2, "A1", "QQQQQQQQQQQQQ3"},
		{2, "A1", strings.Repeat("Z", 64) + "9"},
		{2, "A1", "AA1"},
		{2, "A1", "A1B"},
		{2, "A1", "1A"},
		{2, "A1", "A+1"},
		{2, "A1", "A-1"},
		{2, "A1", "42"},
		{1, "1", "+5"},
		{1, "1", "1E2"},
		{1, "1", "0X10"},
		{1, "1", "A1"},
		{1, "1", "-1"},
		{1, "1", "99999999999999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			_, err := l.Reserve(context.Background(), ledger.ReserveRequest{
				ShowtimeID: tt.showtime, UserID: 1, Seats: []string{tt.valid, tt.label},
			})
			require.ErrorIs(t, err, ledger.ErrInvalidSeatLabel)
			var le *ledger.SeatLabelError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, []string{tt.label}, le.Labels)
			assert.Equal(t, 80, available(t, store, tt.showtime))
			assert.Empty(t, store.Bookings(tt.showtime))

			sm, err := l.SeatMap(context.Background(), tt.showtime)
			require.NoError(t, err)
			assert.Empty(t, sm.BookedSeats)
		})
	}
}

func TestReserveStorageFailureLeavesNoTrace(t *testing.T) {
	for _, method := range []string{"InsertBooking", "UpdateSeatCounts", "AppendActivity", "Commit"} {
		t.Run(method, func(t *testing.T) {
			l, store := newLedger(t)
			store.Fail(method, errors.New("connection reset"))

			_, err := l.Reserve(context.Background(), ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"1"}})
			var se *ledger.StorageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "reserve", se.Op)
			assert.NotErrorIs(t, err, ledger.ErrConflict)

			assert.Empty(t, store.Bookings(1))
			assert.Empty(t, store.Activities())
			assert.Equal(t, 80, available(t, store, 1))
		})
	}
}

func TestCancelTwice(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)

	b, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"1", "2"}})
	require.NoError(t, err)

	_, err = l.Cancel(ctx, ledger.CancelRequest{BookingID: b.ID, ActorID: 1})
	require.NoError(t, err)
	_, err = l.Cancel(ctx, ledger.CancelRequest{BookingID: b.ID, ActorID: 1})
	require.ErrorIs(t, err, ledger.ErrBookingNotFound)
	assert.Equal(t, 80, available(t, store, 1))
}

func TestCancelConcurrentRestoresOnce(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)

	keep, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 2, Seats: []string{"9"}})
	require.NoError(t, err)
	b, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"1", "2", "3"}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var ok atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Cancel(ctx, ledger.CancelRequest{BookingID: b.ID, Admin: true}); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.Equal(t, 79, available(t, store, 1))
	occupied, err := l.OccupiedSeats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, keep.Seats, occupied)
}

func TestCancelUnknownBooking(t *testing.T) {
	l, _ := newLedger(t)
	for _, id := range []string{"", "  ", "missing"} {
		_, err := l.Cancel(context.Background(), ledger.CancelRequest{BookingID: id, Admin: true})
		assert.ErrorIs(t, err, ledger.ErrNotFound, "id %q", id)
	}
}

func TestCancelOwnership(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)

	b, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"4"}})
	require.NoError(t, err)

	_, err = l.Cancel(ctx, ledger.CancelRequest{BookingID: b.ID, ActorID: 2})
	require.ErrorIs(t, err, ledger.ErrForbidden)
	assert.Equal(t, 79, available(t, store, 1))

	_, err = l.Cancel(ctx, ledger.CancelRequest{BookingID: b.ID, ActorID: 2, Admin: true})
	require.NoError(t, err)
	assert.Equal(t, 80, available(t, store, 1))
}

func TestCancelStorageFailure(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)
	b, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"4"}})
	require.NoError(t, err)

	store.Fail("CancelBooking", errors.New("lock wait timeout"))
	_, err = l.Cancel(ctx, ledger.CancelRequest{BookingID: b.ID, ActorID: 1})
	var se *ledger.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 79, available(t, store, 1))

	store.Fail("CancelBooking", nil)
	_, err = l.Cancel(ctx, ledger.CancelRequest{BookingID: b.ID, ActorID: 1})
	require.NoError(t, err)
}

func TestActivitiesRecorded(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)
	b, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 3, Seats: []string{"1"}})
	require.NoError(t, err)
	_, err = l.Cancel(ctx, ledger.CancelRequest{BookingID: b.ID, ActorID: 3})
	require.NoError(t, err)

	acts := store.Activities()
	require.Len(t, acts, 2)
	assert.Equal(t, model.ActivityBookingCreated, acts[0].Type)
	assert.Equal(t, model.ActivityBookingCancelled, acts[1].Type)
	require.NotNil(t, acts[0].UserID)
	assert.EqualValues(t, 3, *acts[0].UserID)
	assert.Contains(t, acts[0].Description, b.ID)
}

func TestResize(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)
	_, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"75"}})
	require.NoError(t, err)

	_, err = l.Resize(ctx, 1, 70, 0, 1)
	var le *ledger.SeatLabelError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, ledger.ErrCapacityTooSmall)
	assert.Equal(t, []string{"75"}, le.Labels)
	assert.Equal(t, 79, available(t, store, 1))

	st, err := l.Resize(ctx, 1, 100, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 100, st.MaxSeats)
	assert.Equal(t, 99, st.AvailableSeats)
	assert.Equal(t, 99, available(t, store, 1))

	_, err = l.Resize(ctx, 1, 0, 0, 1)
	assert.ErrorIs(t, err, ledger.ErrInvalidCapacity)
	_, err = l.Resize(ctx, 1, 100, 10, 1)
	assert.ErrorIs(t, err, ledger.ErrCapacityTooSmall, "numeric seat is not part of a row grid")
}

func TestReconcileRepairsDrift(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)

	st := ledgertest.Showtime(3, 80, price)
	st.AvailableSeats = 50
	store.PutShowtime(st)
	store.PutBooking(model.Booking{ID: "b1", UserID: 1, ShowtimeID: 3, Seats: []string{"1", "2", "3"}, Status: model.BookingConfirmed})
	store.PutBooking(model.Booking{ID: "b2", UserID: 1, ShowtimeID: 3, Seats: []string{"4"}, Status: model.BookingCancelled})

	res, err := l.Reconcile(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, ledger.ReconcileResult{ShowtimeID: 3, Before: 50, After: 77, Occupied: 3, Repaired: true}, res)
	assert.Equal(t, 77, available(t, store, 3))

	res, err = l.Reconcile(ctx, 3)
	require.NoError(t, err)
	assert.False(t, res.Repaired)

	acts := store.Activities()
	require.Len(t, acts, 1)
	assert.Equal(t, model.ActivityShowtimeReconciled, acts[0].Type)
}

func TestReserveCorrectsDriftedCounter(t *testing.T) {
	l, store := newLedger(t)
	st := ledgertest.Showtime(4, 10, price)
	st.AvailableSeats = 3
	store.PutShowtime(st)

	_, err := l.Reserve(context.Background(), ledger.ReserveRequest{ShowtimeID: 4, UserID: 1, Seats: []string{"1"}})
	require.NoError(t, err)
	assert.Equal(t, 9, available(t, store, 4))
}

func TestSeatsChangedAfterCommit(t *testing.T) {
	ctx := context.Background()
	var changed []uint64
	l, store := newLedger(t, ledger.WithSeatsChanged(func(_ context.Context, id uint64) {
		changed = append(changed, id)
	}))

	b, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"1"}})
	require.NoError(t, err)
	_, err = l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 2, Seats: []string{"1"}})
	require.Error(t, err)
	_, err = l.Cancel(ctx, ledger.CancelRequest{BookingID: b.ID, ActorID: 1})
	require.NoError(t, err)
	_, err = l.Resize(ctx, 1, 60, 0, 1)
	require.NoError(t, err)

	res, err := l.Reconcile(ctx, 1)
	require.NoError(t, err)
	require.False(t, res.Repaired)

	st, _ := store.GetShowtime(1)
	st.AvailableSeats = 3
	store.PutShowtime(st)
	_, err = l.Reconcile(ctx, 1)
	require.NoError(t, err)

	store.Fail("InsertBooking", assert.AnError)
	_, err = l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"2"}})
	require.Error(t, err)

	assert.Equal(t, []uint64{1, 1, 1, 1}, changed, "reserve, cancel, resize, repair; failures and no-op reconciles are silent")
}

type recordingPublisher struct {
	mu        sync.Mutex
	confirmed []string
	cancelled []string
	err       error
}

func (p *recordingPublisher) BookingConfirmed(_ context.Context, b model.Booking, _ model.Showtime) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = append(p.confirmed, b.ID)
	return p.err
}

func (p *recordingPublisher) BookingCancelled(_ context.Context, b model.Booking, _ model.Showtime) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, b.ID)
	return p.err
}

func TestPublisherNotifiedAfterCommit(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: fmt.Errorf("broker down")}
	l, store := newLedger(t, ledger.WithPublisher(pub))

	b, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"1"}})
	require.NoError(t, err, "publish failures must not fail the booking")
	_, err = l.Cancel(ctx, ledger.CancelRequest{BookingID: b.ID, ActorID: 1})
	require.NoError(t, err)

	_, err = l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 1, UserID: 1, Seats: []string{"99"}})
	require.Error(t, err)

	assert.Equal(t, []string{b.ID}, pub.confirmed)
	assert.Equal(t, []string{b.ID}, pub.cancelled)
	assert.Equal(t, 80, available(t, store, 1))
}

func TestSeatMap(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)
	st := ledgertest.Showtime(2, 25, price)
	st.SeatsPerRow = 10
	store.PutShowtime(st)

	_, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: 2, UserID: 1, Seats: []string{"C5", "A1"}})
	require.NoError(t, err)

	m, err := l.SeatMap(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 25, m.TotalSeats)
	assert.Equal(t, 23, m.AvailableSeats)
	assert.Equal(t, []string{"A1", "C5"}, m.BookedSeats)
	assert.Equal(t, price, m.Price)
	require.Len(t, m.Rows, 3)
	assert.Equal(t, "C", m.Rows[2].Label)
	assert.Len(t, m.Rows[0].Seats, 10)
	assert.Len(t, m.Rows[2].Seats, 5)
	assert.True(t, m.Rows[0].Seats[0].Occupied)
	assert.False(t, m.Rows[0].Seats[1].Occupied)
	assert.True(t, m.Rows[2].Seats[4].Occupied)

	flat, err := l.SeatMap(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, flat.Rows)
	assert.Empty(t, flat.BookedSeats)
	assert.Equal(t, 80, flat.AvailableSeats)

	_, err = l.SeatMap(ctx, 404)
	assert.ErrorIs(t, err, ledger.ErrShowtimeNotFound)
}

func TestShowtimesDoNotBlockEachOther(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(t)
	store.PutShowtime(ledgertest.Showtime(2, 80, price))

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := uint64(i%2 + 1)
			_, err := l.Reserve(ctx, ledger.ReserveRequest{ShowtimeID: id, UserID: 1, Seats: []string{strconv.Itoa(i/2 + 1)}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 60, available(t, store, 1))
	assert.Equal(t, 60, available(t, store, 2))
}
