package bookings

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
	"github.com/samudra-erp/samudra-erp/internal/schedules"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

func testRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithIdentity(req.Context(), shared.Identity{UserID: 7, TenantID: 1})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(slog.Default(), svc).MountRoutes(r)
	return r
}

func envelopeFrom(t *testing.T, rr *httptest.ResponseRecorder) httpx.Envelope {
	t.Helper()
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestCreateBookingEndpoint(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	router := testRouter(testService(repo, sched, &fakeNotifier{}))

	body := `{"customer_id":100,"package_id":10,"schedule_id":1,"room_type":"QUAD","pax":4,"base_price":2500,"discount":500,"currency":"IDR"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rr.Code)
	env := envelopeFrom(t, rr)
	require.True(t, env.Success)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "PENDING", data["status"])
	require.Equal(t, "UNPAID", data["payment_status"])
	require.NotContains(t, data, "quota_returned")
}

func TestCreateBookingEndpointRejectsUnknownField(t *testing.T) {
	repo := newFakeRepo()
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{}}
	router := testRouter(testService(repo, sched, &fakeNotifier{}))

	body := `{"customer_id":100,"surprise":true}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.False(t, envelopeFrom(t, rr).Success)
}

func TestCreateBookingEndpointValidation(t *testing.T) {
	repo := newFakeRepo()
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{}}
	router := testRouter(testService(repo, sched, &fakeNotifier{}))

	body := `{"customer_id":100,"package_id":10,"schedule_id":1,"room_type":"QUAD","pax":0,"base_price":2500,"currency":"IDR"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	env := envelopeFrom(t, rr)
	require.Contains(t, env.Error, "Pax")
}

func TestGetBookingEndpointNotFound(t *testing.T) {
	repo := newFakeRepo()
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{}}
	router := testRouter(testService(repo, sched, &fakeNotifier{}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/bookings/99", nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTransitionEndpointMapsConflict(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	svc := testService(repo, sched, &fakeNotifier{})
	router := testRouter(svc)
	b := seedBooking(t, repo, sched, svc)

	body := `{"from_status":"CONFIRMED","to_status":"PROCESSING"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/bookings/"+itoa(b.ID)+"/status", strings.NewReader(body)))

	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestTransitionEndpointMapsBusinessRule(t *testing.T) {
	repo := newFakeRepo()
	repo.available[1] = 20
	sched := &fakeSchedules{schedules: map[int64]*schedules.Schedule{1: openSchedule(1, 20)}}
	svc := testService(repo, sched, &fakeNotifier{})
	router := testRouter(svc)
	b := seedBooking(t, repo, sched, svc)

	body := `{"from_status":"PENDING","to_status":"DEPARTED"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/bookings/"+itoa(b.ID)+"/status", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
