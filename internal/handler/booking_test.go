package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/ledger"
	"github.com/iliyamo/cinema-booking/internal/model"
)

func TestBookingScenarioOverHTTP(t *testing.T) {
	env := newEnv(t)
	alice := token(t, aliceID, model.RoleUser)
	bob := token(t, bobID, model.RoleUser)

	code, body := env.do(t, http.MethodPost, "/api/bookings", alice, map[string]any{
		"showtimeId": 1, "seats": []string{"1", "2", "3"}, "totalPrice": 3 * seatPrice,
	})
	require.Equal(t, http.StatusCreated, code, body)
	bookingID := body["id"].(string)
	assert.EqualValues(t, aliceID, body["userId"])
	assert.Equal(t, model.PaymentCash, body["paymentMethod"])

	code, body = env.do(t, http.MethodPost, "/api/bookings", bob, map[string]any{
		"showtimeId": 1, "seats": []string{"3", "4"},
	})
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, []string{"3"}, seatsOf(body["seats"]))

	code, body = env.do(t, http.MethodGet, "/api/showtimes/1/seats", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 77, body["availableSeats"])
	assert.EqualValues(t, 80, body["totalSeats"])
	assert.Equal(t, []string{"1", "2", "3"}, seatsOf(body["bookedSeats"]))

	code, body = env.do(t, http.MethodDelete, "/api/bookings/"+bookingID, alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "booking cancelled", body["message"])

	code, body = env.do(t, http.MethodDelete, "/api/bookings/"+bookingID, alice, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.NotEmpty(t, body["error"])

	code, _ = env.do(t, http.MethodPost, "/api/bookings", bob, map[string]any{
		"showtimeId": 1, "seats": []string{"3", "4"}, "paymentMethod": "bank",
	})
	require.Equal(t, http.StatusCreated, code)

	code, body = env.do(t, http.MethodGet, "/api/showtimes/1/seats", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 78, body["availableSeats"])
}

func TestCreateBookingErrors(t *testing.T) {
	env := newEnv(t)
	alice := token(t, aliceID, model.RoleUser)

	cases := []struct {
		name string
		tok  string
		body map[string]any
		want int
	}{
		{"no token", "", map[string]any{"showtimeId": 1, "seats": []string{"1"}}, http.StatusUnauthorized},
		{"missing showtime id", alice, map[string]any{"seats": []string{"1"}}, http.StatusBadRequest},
		{"unknown showtime", alice, map[string]any{"showtimeId": 99, "seats": []string{"1"}}, http.StatusNotFound},
		{"empty seats", alice, map[string]any{"showtimeId": 1, "seats": []string{}}, http.StatusBadRequest},
		{"wrong total", alice, map[string]any{"showtimeId": 1, "seats": []string{"1"}, "totalPrice": 1}, http.StatusBadRequest},
		{"bad payment", alice, map[string]any{"showtimeId": 1, "seats": []string{"1"}, "paymentMethod": "crypto"}, http.StatusBadRequest},
		{"for another user", alice, map[string]any{"userId": bobID, "showtimeId": 1, "seats": []string{"1"}}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := env.do(t, http.MethodPost, "/api/bookings", tc.tok, tc.body)
			assert.Equal(t, tc.want, code, body)
			assert.NotEmpty(t, body["error"])
		})
	}
	assert.Empty(t, env.store.Bookings(1))
}

func TestCreateBookingListsBadLabels(t *testing.T) {
	env := newEnv(t)
	code, body := env.do(t, http.MethodPost, "/api/bookings", token(t, aliceID, model.RoleUser), map[string]any{
		"showtimeId": 1, "seats": []string{"1", "81", "Z9"},
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.ElementsMatch(t, []string{"81", "Z9"}, seatsOf(body["seats"]))
}

func TestAdminBooksForCustomer(t *testing.T) {
	env := newEnv(t)
	code, body := env.do(t, http.MethodPost, "/api/bookings", token(t, adminID, model.RoleAdmin), map[string]any{
		"userId": aliceID, "showtimeId": 1, "seats": []string{"10"},
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.EqualValues(t, aliceID, body["userId"])
}

func TestAdminBooksForUnknownUser(t *testing.T) {
	env := newEnv(t)
	env.store.Fail("InsertBooking", ledger.ErrUserNotFound)
	code, body := env.do(t, http.MethodPost, "/api/bookings", token(t, adminID, model.RoleAdmin), map[string]any{
		"userId": 4242, "showtimeId": 1, "seats": []string{"10"},
	})
	assert.Equal(t, http.StatusNotFound, code, body)
	assert.Equal(t, "user not found", body["error"])
	code, body = env.do(t, http.MethodGet, "/api/showtimes/1/seats", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 80, body["availableSeats"])
}

func TestBookingVisibility(t *testing.T) {
	env := newEnv(t)
	alice := token(t, aliceID, model.RoleUser)
	bob := token(t, bobID, model.RoleUser)

	code, body := env.do(t, http.MethodPost, "/api/bookings", alice, map[string]any{"showtimeId": 1, "seats": []string{"5"}})
	require.Equal(t, http.StatusCreated, code)
	id := body["id"].(string)

	code, body = env.do(t, http.MethodGet, "/api/bookings/"+id, alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2026-01-01", body["date"])

	code, _ = env.do(t, http.MethodGet, "/api/bookings/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodGet, "/api/bookings/"+id, token(t, adminID, model.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = env.do(t, http.MethodGet, "/api/my-bookings", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["items"], 1)

	code, body = env.do(t, http.MethodGet, "/api/my-bookings", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["items"], 0)
}

func TestCancelOwnership(t *testing.T) {
	env := newEnv(t)
	alice := token(t, aliceID, model.RoleUser)

	code, body := env.do(t, http.MethodPost, "/api/bookings", alice, map[string]any{"showtimeId": 1, "seats": []string{"7", "8"}})
	require.Equal(t, http.StatusCreated, code)
	id := body["id"].(string)

	code, _ = env.do(t, http.MethodDelete, "/api/bookings/"+id, token(t, bobID, model.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(t, http.MethodDelete, "/api/admin/bookings/"+id, token(t, adminID, model.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, code)

	bookings := env.store.Bookings(1)
	require.Len(t, bookings, 1)
	assert.Equal(t, model.BookingCancelled, bookings[0].Status)
}

func TestSeatMapUnknownShowtime(t *testing.T) {
	env := newEnv(t)
	code, _ := env.do(t, http.MethodGet, "/api/showtimes/42/seats", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = env.do(t, http.MethodGet, "/api/showtimes/abc/seats", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStorageFailureIsInternalError(t *testing.T) {
	env := newEnv(t)
	env.store.Fail("InsertBooking", assert.AnError)
	code, body := env.do(t, http.MethodPost, "/api/bookings", token(t, aliceID, model.RoleUser), map[string]any{
		"showtimeId": 1, "seats": []string{"1"},
	})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", body["error"])
}
