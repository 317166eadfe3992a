package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/space-reservation/internal/application"
)

const testSecret = "test-secret"

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSpaceService struct {
	create       func(application.CreateSpaceParams) (application.Space, error)
	update       func(application.UpdateSpaceParams) (application.Space, error)
	get          func(string) (application.Space, error)
	list         func() ([]application.Space, error)
	remove       func(application.Principal, string) error
	availability func(application.AvailabilityParams) ([]application.SpaceAvailability, error)
}

func (f *fakeSpaceService) CreateSpace(ctx context.Context, params application.CreateSpaceParams) (application.Space, error) {
	return f.create(params)
}

func (f *fakeSpaceService) UpdateSpace(ctx context.Context, params application.UpdateSpaceParams) (application.Space, error) {
	return f.update(params)
}

func (f *fakeSpaceService) GetSpace(ctx context.Context, spaceID string) (application.Space, error) {
	return f.get(spaceID)
}

func (f *fakeSpaceService) ListSpaces(ctx context.Context) ([]application.Space, error) {
	return f.list()
}

func (f *fakeSpaceService) DeleteSpace(ctx context.Context, principal application.Principal, spaceID string) error {
	return f.remove(principal, spaceID)
}

func (f *fakeSpaceService) Availability(ctx context.Context, params application.AvailabilityParams) ([]application.SpaceAvailability, error) {
	return f.availability(params)
}

type fakeReservationService struct {
	create func(application.CreateReservationParams) (application.Reservation, error)
	update func(application.UpdateReservationParams) (application.Reservation, error)
	remove func(application.ReservationRef) error
	get    func(application.ReservationRef) (application.Reservation, error)
	list   func(application.ListReservationsParams) ([]application.Reservation, error)
	all    func(application.ListAllReservationsParams) ([]application.SpaceReservations, error)
	mine   func(application.MemberReservationsParams) (application.ReservationPage, error)
	guest  func(application.GuestReservationsParams) (application.ReservationPage, error)
}

func (f *fakeReservationService) CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error) {
	return f.create(params)
}

func (f *fakeReservationService) UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (application.Reservation, error) {
	return f.update(params)
}

func (f *fakeReservationService) DeleteReservation(ctx context.Context, ref application.ReservationRef) error {
	return f.remove(ref)
}

func (f *fakeReservationService) GetReservation(ctx context.Context, ref application.ReservationRef) (application.Reservation, error) {
	return f.get(ref)
}

func (f *fakeReservationService) ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error) {
	return f.list(params)
}

func (f *fakeReservationService) ListAllReservations(ctx context.Context, params application.ListAllReservationsParams) ([]application.SpaceReservations, error) {
	return f.all(params)
}

func (f *fakeReservationService) ListMemberReservations(ctx context.Context, params application.MemberReservationsParams) (application.ReservationPage, error) {
	return f.mine(params)
}

func (f *fakeReservationService) ListGuestReservations(ctx context.Context, params application.GuestReservationsParams) (application.ReservationPage, error) {
	return f.guest(params)
}

type observedRequest struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	mu       sync.Mutex
	requests []observedRequest
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, observedRequest{method: method, route: route, status: status})
}

var kst = time.FixedZone("KST", 9*60*60)

// testNow is 2024-01-03 23:30 UTC, already Thursday 2024-01-04 in KST.
var testNow = time.Date(2024, 1, 3, 23, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func newTestRouter(spaces *fakeSpaceService, reservations *fakeReservationService, observer RequestObserver) http.Handler {
	cfg := RouterConfig{
		Authenticator: NewAuthenticator(testSecret),
		Metrics:       observer,
		Logger:        testLogger,
	}
	if spaces != nil {
		cfg.Spaces = NewSpaceHandler(spaces, testLogger)
	}
	if reservations != nil {
		cfg.Reservations = NewReservationHandler(reservations, kst, fixedNow, testLogger)
	}
	return NewRouter(cfg)
}

func issueToken(t *testing.T, subject string, manager bool) string {
	t.Helper()
	token, err := NewAuthenticator(testSecret).IssueToken(subject, manager, time.Hour)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}
