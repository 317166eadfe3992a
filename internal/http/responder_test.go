package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/space-reservation/internal/application"
	"github.com/example/space-reservation/internal/availability"
	"github.com/example/space-reservation/internal/reservation"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestResponder_HandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "unauthorized", err: application.ErrUnauthorized, wantStatus: http.StatusForbidden, wantCode: "UNAUTHORIZED"},
		{name: "invalid password", err: application.ErrInvalidPassword, wantStatus: http.StatusForbidden, wantCode: "INVALID_PASSWORD"},
		{name: "not found", err: fmt.Errorf("load: %w", application.ErrNotFound), wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "space still booked", err: application.ErrReservationExistsOnSpace, wantStatus: http.StatusConflict, wantCode: "RESERVATION_EXISTS_ON_SPACE"},
		{name: "impossible interval", err: reservation.ErrImpossibleStartEndTime, wantStatus: http.StatusUnprocessableEntity, wantCode: "IMPOSSIBLE_START_END_TIME"},
		{name: "different dates", err: reservation.ErrNonMatchingStartEndDate, wantStatus: http.StatusUnprocessableEntity, wantCode: "NON_MATCHING_START_END_DATE"},
		{name: "past", err: reservation.ErrPastReservationTime, wantStatus: http.StatusUnprocessableEntity, wantCode: "PAST_RESERVATION_TIME"},
		{name: "time unit", err: reservation.ErrInvalidTimeUnit, wantStatus: http.StatusUnprocessableEntity, wantCode: "INVALID_TIME_UNIT"},
		{name: "minimum", err: reservation.ErrInvalidMinimumDuration, wantStatus: http.StatusUnprocessableEntity, wantCode: "INVALID_MINIMUM_DURATION"},
		{name: "maximum", err: reservation.ErrInvalidMaximumDuration, wantStatus: http.StatusUnprocessableEntity, wantCode: "INVALID_MAXIMUM_DURATION"},
		{name: "disabled", err: reservation.ErrReservationDisabledOnSpace, wantStatus: http.StatusConflict, wantCode: "RESERVATION_DISABLED_ON_SPACE"},
		{name: "conflict", err: &reservation.ConflictError{ReservationID: "r-1"}, wantStatus: http.StatusConflict, wantCode: "RESERVATION_ALREADY_EXISTS"},
		{name: "in use", err: reservation.ErrDeleteReservationInUse, wantStatus: http.StatusConflict, wantCode: "DELETE_RESERVATION_IN_USE"},
		{name: "expired", err: reservation.ErrDeleteExpiredReservation, wantStatus: http.StatusConflict, wantCode: "DELETE_EXPIRED_RESERVATION"},
		{name: "duplicate priority", err: availability.ErrDuplicatePriorityOrder, wantStatus: http.StatusUnprocessableEntity, wantCode: "DUPLICATE_PRIORITY_ORDER"},
		{name: "unexpected", err: errors.New("disk on fire"), wantStatus: http.StatusInternalServerError, wantCode: "UNEXPECTED"},
	}

	r := newResponder(testLogger)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.handleServiceError(context.Background(), rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, resp.ErrorCode)
			assert.NotEmpty(t, resp.Message)
			assert.NotContains(t, resp.Message, "disk on fire")
		})
	}
}

func TestResponder_ValidationErrorsListFields(t *testing.T) {
	rec := httptest.NewRecorder()
	newResponder(testLogger).handleServiceError(context.Background(), rec, &application.ValidationError{
		FieldErrors: map[string]string{"name": "name is required"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "VALIDATION", resp.ErrorCode)
	assert.Equal(t, map[string]string{"name": "name is required"}, resp.Errors)
}

func TestResponder_Diagnostics(t *testing.T) {
	daytime, err := availability.ParseTimeSlot("10:00", "22:00")
	require.NoError(t, err)
	morning, err := availability.ParseTimeSlot("00:00", "10:00")
	require.NoError(t, err)
	night, err := availability.ParseTimeSlot("22:00", "24:00")
	require.NoError(t, err)
	requested, err := availability.ParseTimeSlot("21:00", "23:00")
	require.NoError(t, err)

	setting := availability.Setting{
		Slot:          daytime,
		Weekdays:      availability.WeekdaysOf(time.Monday, time.Friday),
		Unit:          30 * time.Minute,
		MinDuration:   time.Hour,
		MaxDuration:   2 * time.Hour,
		PriorityOrder: 3,
	}

	t.Run("no setting available lists settings", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newResponder(testLogger).handleServiceError(context.Background(), rec,
			&reservation.NoSettingAvailableError{Settings: []availability.Setting{setting}})

		resp := decodeError(t, rec)
		assert.Equal(t, "NO_SETTING_AVAILABLE", resp.ErrorCode)
		require.NotNil(t, resp.Details)
		assert.Equal(t, []settingDTO{{
			PriorityOrder:   3,
			StartTime:       "10:00",
			EndTime:         "22:00",
			Weekdays:        "monday,friday",
			TimeUnitMinutes: 30,
			MinimumMinutes:  60,
			MaximumMinutes:  120,
		}}, resp.Details.Settings)
	})

	t.Run("multiple settings lists the matches", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newResponder(testLogger).handleServiceError(context.Background(), rec,
			&reservation.MultipleSettingsMatchedError{Matching: []availability.Setting{setting, setting}})

		resp := decodeError(t, rec)
		assert.Equal(t, "MULTIPLE_SETTINGS_MATCHED", resp.ErrorCode)
		require.NotNil(t, resp.Details)
		assert.Len(t, resp.Details.Settings, 2)
	})

	t.Run("interval outside setting lists unavailable windows", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newResponder(testLogger).handleServiceError(context.Background(), rec,
			&reservation.IntervalNotWithinSettingError{
				Requested:   requested,
				Unavailable: []availability.TimeSlot{morning, night},
			})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "INTERVAL_NOT_WITHIN_SETTING", resp.ErrorCode)
		require.NotNil(t, resp.Details)
		assert.Equal(t, &windowDTO{Start: "21:00", End: "23:00"}, resp.Details.Requested)
		assert.Equal(t, []windowDTO{{Start: "00:00", End: "10:00"}, {Start: "22:00", End: "24:00"}}, resp.Details.Unavailable)
	})

	t.Run("conflict names the other reservation", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newResponder(testLogger).handleServiceError(context.Background(), rec,
			&reservation.ConflictError{ReservationID: "r-9"})

		resp := decodeError(t, rec)
		require.NotNil(t, resp.Details)
		assert.Equal(t, "r-9", resp.Details.ConflictingReservationID)
	})
}
