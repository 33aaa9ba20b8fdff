package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/ledger"
	"github.com/iliyamo/cinema-booking/internal/ledger/ledgertest"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/router"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

const (
	secret    = "test-secret"
	seatPrice = 90000
	adminID   = 1
	aliceID   = 7
	bobID     = 8
)

// bookingView answers booking queries from the in-memory ledger store.
type bookingView struct {
	store     *ledgertest.Store
	showtimes []uint64
}

func (v bookingView) all() []model.BookingDetail {
	var out []model.BookingDetail
	for _, id := range v.showtimes {
		st, _ := v.store.GetShowtime(id)
		for _, b := range v.store.Bookings(id) {
			out = append(out, model.BookingDetail{Booking: b, ShowDate: st.Date, ShowTime: st.Time})
		}
	}
	return out
}

func (v bookingView) GetDetail(_ context.Context, id string) (model.BookingDetail, error) {
	for _, b := range v.all() {
		if b.ID == id {
			return b, nil
		}
	}
	return model.BookingDetail{}, repository.ErrNotFound
}

func (v bookingView) ListByUser(_ context.Context, userID uint64) ([]model.BookingDetail, error) {
	out := []model.BookingDetail{}
	for _, b := range v.all() {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (v bookingView) List(_ context.Context, status string) ([]model.BookingDetail, error) {
	out := []model.BookingDetail{}
	for _, b := range v.all() {
		if status == "" || b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeShowtimes struct {
	store *ledgertest.Store
	ids   []uint64
	last  repository.ShowtimeFilter
}

func (f *fakeShowtimes) List(_ context.Context, flt repository.ShowtimeFilter) ([]model.Showtime, error) {
	f.last = flt
	out := []model.Showtime{}
	for _, id := range f.ids {
		st, _ := f.store.GetShowtime(id)
		if flt.MovieID != 0 && st.MovieID != flt.MovieID {
			continue
		}
		if flt.ActiveOnly && !st.IsActive() {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func (f *fakeShowtimes) GetByID(_ context.Context, id uint64) (model.Showtime, error) {
	st, ok := f.store.GetShowtime(id)
	if !ok {
		return model.Showtime{}, repository.ErrNotFound
	}
	return st, nil
}

func (f *fakeShowtimes) Create(_ context.Context, st *model.Showtime) error {
	if st.MovieID != 1 {
		return repository.ErrNotFound
	}
	if st.MaxSeats == 0 {
		st.MaxSeats = model.DefaultMaxSeats
	}
	if st.Status == "" {
		st.Status = model.ShowtimeActive
	}
	st.ID = uint64(len(f.ids) + 1)
	st.AvailableSeats = st.MaxSeats
	st.MovieTitle = "Test Movie"
	f.store.PutShowtime(*st)
	f.ids = append(f.ids, st.ID)
	return nil
}

func (f *fakeShowtimes) Update(ctx context.Context, st *model.Showtime) error {
	cur, err := f.GetByID(ctx, st.ID)
	if err != nil {
		return err
	}
	cur.MovieID, cur.Date, cur.Time, cur.Price, cur.Status = st.MovieID, st.Date, st.Time, st.Price, st.Status
	f.store.PutShowtime(cur)
	*st = cur
	return nil
}

func (f *fakeShowtimes) Delete(ctx context.Context, id uint64) error {
	if _, err := f.GetByID(ctx, id); err != nil {
		return err
	}
	if len(f.store.Bookings(id)) > 0 {
		return repository.ErrConflict
	}
	return nil
}

type fakeMovies struct {
	movies map[uint64]model.Movie
	last   repository.MovieFilter
}

func (f *fakeMovies) List(_ context.Context, flt repository.MovieFilter) ([]model.Movie, error) {
	f.last = flt
	out := []model.Movie{}
	for id := uint64(1); id <= uint64(len(f.movies)); id++ {
		m := f.movies[id]
		if flt.Status != "" && m.Status != flt.Status {
			continue
		}
		if flt.Query != "" && !strings.Contains(strings.ToLower(m.Title), strings.ToLower(flt.Query)) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMovies) GetByID(_ context.Context, id uint64) (model.Movie, error) {
	m, ok := f.movies[id]
	if !ok {
		return model.Movie{}, repository.ErrNotFound
	}
	return m, nil
}

func (f *fakeMovies) Create(_ context.Context, m *model.Movie) error {
	m.ID = uint64(len(f.movies) + 1)
	f.movies[m.ID] = *m
	return nil
}

func (f *fakeMovies) Update(_ context.Context, m *model.Movie) error {
	if _, ok := f.movies[m.ID]; !ok {
		return repository.ErrNotFound
	}
	f.movies[m.ID] = *m
	return nil
}

func (f *fakeMovies) SetStatus(_ context.Context, id uint64, status string) error {
	m, ok := f.movies[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.Status = status
	f.movies[id] = m
	return nil
}

type fakeCategories struct {
	items []model.Category
}

func (f *fakeCategories) List(_ context.Context, q string) ([]model.Category, error) {
	out := []model.Category{}
	for _, c := range f.items {
		if q == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategories) GetByID(_ context.Context, id uint64) (model.Category, error) {
	for _, c := range f.items {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Category{}, repository.ErrNotFound
}

func (f *fakeCategories) Create(_ context.Context, c *model.Category) error {
	for _, existing := range f.items {
		if strings.EqualFold(existing.Name, c.Name) {
			return repository.ErrConflict
		}
	}
	c.ID = uint64(len(f.items) + 1)
	f.items = append(f.items, *c)
	return nil
}

func (f *fakeCategories) Update(ctx context.Context, c *model.Category) error {
	for i := range f.items {
		if f.items[i].ID == c.ID {
			f.items[i] = *c
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeCategories) Delete(_ context.Context, id uint64) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[uint64]model.User
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.ID = uint64(100 + len(f.users))
	if u.Status == "" {
		u.Status = model.UserActive
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == repository.NormalizeEmail(email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) List(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if u.PasswordHash == "" {
		u.PasswordHash = cur.PasswordHash
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeActivities struct {
	mu    sync.Mutex
	items []model.Activity
}

func (f *fakeActivities) Record(_ context.Context, kind, desc string, userID *uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, model.Activity{Type: kind, Description: desc, UserID: userID})
	return nil
}

func (f *fakeActivities) List(_ context.Context, limit int, kind string) ([]model.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Activity{}
	for _, a := range f.items {
		if kind == "" || a.Type == kind {
			out = append(out, a)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Prune keeps the newest keep entries; items are appended in time order.
func (f *fakeActivities) Prune(_ context.Context, keep int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) <= keep {
		return 0, nil
	}
	n := len(f.items) - keep
	f.items = append([]model.Activity(nil), f.items[n:]...)
	return int64(n), nil
}

// testEnv is a fully routed server backed by in-memory stores.
type testEnv struct {
	e          *echo.Echo
	store      *ledgertest.Store
	movies     *fakeMovies
	categories *fakeCategories
	showtimes  *fakeShowtimes
	users      *fakeUsers
	activities *fakeActivities
	purged     int
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	store := ledgertest.NewStore()
	store.PutShowtime(ledgertest.Showtime(1, 80, seatPrice))
	l := ledger.New(store, ledger.WithLogger(logrus.NewEntry(quiet)))

	env := &testEnv{
		e:     echo.New(),
		store: store,
		movies: &fakeMovies{movies: map[uint64]model.Movie{
			1: {ID: 1, Title: "Test Movie", Status: model.MovieActive},
			2: {ID: 2, Title: "Retired Movie", Status: model.MovieInactive},
		}},
		categories: &fakeCategories{items: []model.Category{{ID: 1, Name: "Action"}, {ID: 2, Name: "Drama"}}},
		showtimes:  &fakeShowtimes{store: store, ids: []uint64{1}},
		users:      &fakeUsers{users: map[uint64]model.User{}},
		activities: &fakeActivities{},
	}

	bookings := handler.NewBookingHandler(l, bookingView{store: store, showtimes: []uint64{1, 2, 3}})
	admin := &handler.AdminHandler{
		Movies:     env.movies,
		Categories: env.categories,
		Users:      env.users,
		Showtimes:  env.showtimes,
		Activities: env.activities,
		Ledger:     l,
		BcryptCost: 4,
		Purge:      func(context.Context) { env.purged++ },
	}
	cfg := config.Config{JWTSecret: secret, AccessTTLMin: 15, BcryptCost: 4}
	cache := middleware.NewRedisCache(config.CacheConfig{}, nil)
	limiter := middleware.NewTokenBucket(config.RateLimitConfig{}, nil)

	router.RegisterRoutes(env.e, &handler.HealthHandler{})
	router.RegisterAuth(env.e, handler.NewAuthHandler(cfg, env.users), secret, limiter)
	router.RegisterPublic(env.e, handler.NewCatalogHandler(env.movies, env.categories, env.showtimes), bookings, cache, cache)
	router.RegisterCustomer(env.e, bookings, secret, limiter)
	router.RegisterAdmin(env.e, admin, bookings, secret)
	return env
}

func token(t *testing.T, userID uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, userID, role, 15)
	require.NoError(t, err)
	return tok.Token
}

func (env *testEnv) do(t *testing.T, method, path, tok string, body any) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func seatsOf(v any) []string {
	raw, _ := v.([]any)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		out = append(out, s.(string))
	}
	return out
}
