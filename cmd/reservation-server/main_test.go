package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/space-reservation/internal/application"
	"github.com/example/space-reservation/internal/availability"
	"github.com/example/space-reservation/internal/config"
	httptransport "github.com/example/space-reservation/internal/http"
	"github.com/example/space-reservation/internal/persistence"
	"github.com/example/space-reservation/internal/testfixtures"
)

func TestSpaceRepositoryAdapter_RoundTrip(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	adapter := newSpaceRepositoryAdapter(harness.Spaces)
	ctx := context.Background()

	weekday := testfixtures.NewSettingFixture(testfixtures.WithSettingPriority(1))
	weekend := testfixtures.NewSettingFixture(
		testfixtures.WithSettingPriority(2),
		testfixtures.WithSettingWindow("00:00", "24:00"),
		testfixtures.WithSettingWeekdays("sat,sun"),
		testfixtures.WithSettingDurations(60, 60, 240),
	)
	space := testfixtures.NewSpaceFixture(testfixtures.WithSpaceSettings(weekday, weekend)).Application()

	created, err := adapter.CreateSpace(ctx, space)
	if err != nil {
		t.Fatalf("CreateSpace returned error: %v", err)
	}
	if created.ID != space.ID || created.Name != space.Name {
		t.Fatalf("unexpected space: %+v", created)
	}
	if len(created.Settings) != 2 {
		t.Fatalf("expected 2 settings, got %d", len(created.Settings))
	}
	for i, want := range []availability.Setting{weekday.Availability(), weekend.Availability()} {
		if created.Settings[i] != want {
			t.Fatalf("setting %d mismatch: got %+v want %+v", i, created.Settings[i], want)
		}
	}

	space.Name = "Renamed"
	space.Settings = space.Settings[1:]
	updated, err := adapter.UpdateSpace(ctx, space)
	if err != nil {
		t.Fatalf("UpdateSpace returned error: %v", err)
	}
	if updated.Name != "Renamed" || len(updated.Settings) != 1 || updated.Settings[0].PriorityOrder != 2 {
		t.Fatalf("unexpected updated space: %+v", updated)
	}

	spaces, err := adapter.ListSpaces(ctx)
	if err != nil {
		t.Fatalf("ListSpaces returned error: %v", err)
	}
	if len(spaces) != 1 {
		t.Fatalf("expected 1 space, got %d", len(spaces))
	}

	if err := adapter.DeleteSpace(ctx, space.ID); err != nil {
		t.Fatalf("DeleteSpace returned error: %v", err)
	}
	if _, err := adapter.GetSpace(ctx, space.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestReservationRepositoryAdapter_RoundTrip(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	spaces := newSpaceRepositoryAdapter(harness.Spaces)
	adapter := newReservationRepositoryAdapter(harness.Reservations)
	ctx := context.Background()

	space := testfixtures.NewSpaceFixture().Application()
	if _, err := spaces.CreateSpace(ctx, space); err != nil {
		t.Fatalf("CreateSpace returned error: %v", err)
	}

	start := testfixtures.ReferenceTime()
	guest := testfixtures.NewReservationFixture(
		testfixtures.WithReservationSpace(space.ID),
		testfixtures.WithReservationInterval(start, start.Add(time.Hour)),
		testfixtures.WithReservationGuest("visitor", "hash"),
	).Application()

	created, err := adapter.CreateReservation(ctx, guest)
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	if created.MemberID != "" || created.GuestName != "visitor" || created.PasswordHash != "hash" {
		t.Fatalf("unexpected owner fields: %+v", created)
	}
	if !created.Start.Equal(start) {
		t.Fatalf("unexpected start %s", created.Start)
	}

	overlapping := testfixtures.NewReservationFixture(
		testfixtures.WithReservationSpace(space.ID),
		testfixtures.WithReservationInterval(start.Add(30*time.Minute), start.Add(90*time.Minute)),
	).Application()
	if _, err := adapter.CreateReservation(ctx, overlapping); !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	from := start.Add(-time.Hour)
	to := start.Add(2 * time.Hour)
	items, err := adapter.ListReservations(ctx, application.ReservationRepositoryFilter{SpaceID: space.ID, From: &from, To: &to})
	if err != nil {
		t.Fatalf("ListReservations returned error: %v", err)
	}
	if len(items) != 1 || items[0].ID != guest.ID {
		t.Fatalf("unexpected reservations: %+v", items)
	}

	busy, err := adapter.HasReservationsEndingAfter(ctx, space.ID, start)
	if err != nil {
		t.Fatalf("HasReservationsEndingAfter returned error: %v", err)
	}
	if !busy {
		t.Fatalf("expected a reservation ending after %s", start)
	}
	busy, err = adapter.HasReservationsEndingAfter(ctx, space.ID, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("HasReservationsEndingAfter returned error: %v", err)
	}
	if busy {
		t.Fatalf("expected no reservation ending after the last end")
	}
}

func TestToAvailabilitySetting_RejectsCorruptRows(t *testing.T) {
	rows := []persistence.Setting{
		{PriorityOrder: 1, StartTime: "25:00", EndTime: "26:00", TimeUnitMinutes: 30, MinimumMinutes: 30, MaximumMinutes: 60},
		{PriorityOrder: 1, StartTime: "10:00", EndTime: "12:00", Weekdays: "someday", TimeUnitMinutes: 30, MinimumMinutes: 30, MaximumMinutes: 60},
	}
	for _, row := range rows {
		if _, err := toAvailabilitySetting(row); err == nil {
			t.Fatalf("expected error for %+v", row)
		}
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		HTTPPort:        0,
		SQLiteDSN:       filepath.Join(t.TempDir(), "reservation.db"),
		Timezone:        "Asia/Seoul",
		JWTSecret:       "e2e-secret",
		LogLevel:        "error",
		LogFormat:       "json",
		MetricsEnabled:  true,
		SpaceCacheTTL:   time.Minute,
		SpaceCacheSize:  16,
		RequestTimeout:  5 * time.Second,
		ShutdownTimeout: time.Second,
	}
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func (c apiClient) do(method, target, token, body string, headers map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		ErrorCode string `json:"error_code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.ErrorCode
}

func TestServer_ReservationLifecycle(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	srv, err := newServer(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	auth := httptransport.NewAuthenticator(cfg.JWTSecret)
	managerToken, err := auth.IssueToken("manager-1", true, time.Hour)
	require.NoError(t, err)
	memberToken, err := auth.IssueToken("member-1", false, time.Hour)
	require.NoError(t, err)

	client := apiClient{t: t, handler: srv.Handler()}

	rec := client.do(http.MethodPost, "/spaces", managerToken, `{
		"name": "Seminar Room",
		"settings": [{
			"priority_order": 1,
			"start_time": "00:00",
			"end_time": "24:00",
			"time_unit_minutes": 30,
			"minimum_minutes": 30,
			"maximum_minutes": 120
		}]
	}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var spaceBody struct {
		Space struct {
			ID string `json:"id"`
		} `json:"space"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spaceBody))
	spaceID := spaceBody.Space.ID
	require.NotEmpty(t, spaceID)

	rec = client.do(http.MethodPost, "/spaces", "", `{"name":"Guest Room"}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	loc, err := time.LoadLocation(cfg.Timezone)
	require.NoError(t, err)
	tomorrow := time.Now().In(loc).AddDate(0, 0, 1)
	at := func(hour, minute int) string {
		return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, minute, 0, 0, loc).Format(time.RFC3339)
	}
	reservationsPath := "/spaces/" + spaceID + "/reservations"

	rec = client.do(http.MethodPost, reservationsPath, "",
		`{"start":"`+at(10, 0)+`","end":"`+at(11, 0)+`","guest_name":"visitor","password":"1234"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reservationBody struct {
		Reservation struct {
			ID string `json:"id"`
		} `json:"reservation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reservationBody))
	reservationID := reservationBody.Reservation.ID
	require.NotEmpty(t, reservationID)

	rec = client.do(http.MethodPost, reservationsPath, memberToken,
		`{"start":"`+at(10, 30)+`","end":"`+at(11, 30)+`"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, "RESERVATION_ALREADY_EXISTS", errorCode(t, rec))

	rec = client.do(http.MethodPost, reservationsPath, memberToken,
		`{"start":"`+at(11, 0)+`","end":"`+at(11, 45)+`"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "INVALID_TIME_UNIT", errorCode(t, rec))

	rec = client.do(http.MethodPost, reservationsPath, memberToken,
		`{"start":"`+at(11, 0)+`","end":"`+at(12, 0)+`"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = client.do(http.MethodGet, reservationsPath+"?date="+tomorrow.Format(time.DateOnly), "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var listBody struct {
		Reservations []struct {
			ID string `json:"id"`
		} `json:"reservations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listBody))
	assert.Len(t, listBody.Reservations, 2)

	rec = client.do(http.MethodGet, "/reservations?date="+tomorrow.Format(time.DateOnly), "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var allBody struct {
		Spaces []struct {
			SpaceID      string            `json:"space_id"`
			Reservations []json.RawMessage `json:"reservations"`
		} `json:"spaces"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &allBody))
	require.Len(t, allBody.Spaces, 1)
	assert.Equal(t, spaceID, allBody.Spaces[0].SpaceID)
	assert.Len(t, allBody.Spaces[0].Reservations, 2)

	var pageBody struct {
		Reservations []json.RawMessage `json:"reservations"`
		HasNext      bool              `json:"has_next"`
	}
	rec = client.do(http.MethodGet, "/members/me/reservations?when=upcoming", memberToken, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pageBody))
	assert.Len(t, pageBody.Reservations, 1)
	assert.False(t, pageBody.HasNext)

	rec = client.do(http.MethodGet, "/members/me/reservations?when=previous", memberToken, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pageBody.Reservations = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pageBody))
	assert.Empty(t, pageBody.Reservations)

	rec = client.do(http.MethodGet, "/guests/reservations?name=visitor", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pageBody.Reservations = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pageBody))
	assert.Len(t, pageBody.Reservations, 1)

	rec = client.do(http.MethodDelete, "/spaces/"+spaceID, managerToken, "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RESERVATION_EXISTS_ON_SPACE", errorCode(t, rec))

	reservationPath := reservationsPath + "/" + reservationID
	rec = client.do(http.MethodDelete, reservationPath, "", "", map[string]string{"X-Reservation-Password": "0000"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = client.do(http.MethodDelete, reservationPath, "", "", map[string]string{"X-Reservation-Password": "1234"})
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = client.do(http.MethodGet, reservationPath, "", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = client.do(http.MethodGet, "/metrics", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reservation_validations_total")
}

func TestServer_SpaceTimezoneAndDefaultWindow(t *testing.T) {
	cfg := testConfig(t)
	srv, err := newServer(context.Background(), cfg, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	auth := httptransport.NewAuthenticator(cfg.JWTSecret)
	managerToken, err := auth.IssueToken("manager-1", true, time.Hour)
	require.NoError(t, err)
	client := apiClient{t: t, handler: srv.Handler()}

	rec := client.do(http.MethodPost, "/spaces", managerToken, `{
		"name": "Harbor Room",
		"timezone": "America/New_York",
		"settings": [
			{"priority_order": 1},
			{"priority_order": 2, "start_time": "18:00"}
		]
	}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	type settingBody struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	var created struct {
		Space struct {
			ID       string        `json:"id"`
			Timezone string        `json:"timezone"`
			Settings []settingBody `json:"settings"`
		} `json:"space"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "America/New_York", created.Space.Timezone)
	assert.Equal(t, []settingBody{
		{StartTime: "00:00", EndTime: "24:00"},
		{StartTime: "18:00", EndTime: "24:00"},
	}, created.Space.Settings)

	rec = client.do(http.MethodGet, "/spaces/"+created.Space.ID, "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"timezone":"America/New_York"`)

	rec = client.do(http.MethodPost, "/spaces", managerToken, `{"name":"Nowhere","timezone":"Mars/Olympus"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestServer_RejectsUnknownTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timezone = "Nowhere/Special"

	_, err := newServer(context.Background(), cfg, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.Error(t, err)
}
