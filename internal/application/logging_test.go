package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/space-reservation/internal/logging"
	"github.com/example/space-reservation/internal/reservation"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Same(t, custom, defaultLogger(custom))
	assert.Same(t, slog.Default(), defaultLogger(nil))
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: ErrUnauthorized, want: "unauthorized"},
		{err: fmt.Errorf("lookup: %w", ErrNotFound), want: "not_found"},
		{err: ErrInvalidPassword, want: "invalid_password"},
		{err: ErrReservationExistsOnSpace, want: "reservation_exists_on_space"},
		{err: reservation.ErrInvalidTimeUnit, want: "invalid_time_unit"},
		{err: &reservation.ConflictError{ReservationID: "r1"}, want: "reservation_already_exists"},
		{err: &reservation.NoSettingAvailableError{}, want: "no_setting_available"},
		{err: reservation.ErrDeleteExpiredReservation, want: "delete_expired_reservation"},
		{err: &ValidationError{FieldErrors: map[string]string{"name": "required"}}, want: "validation"},
		{err: errors.New("disk full"), want: "unexpected"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "error %v", tt.err)
	}
}

func TestServiceLogger_PrefersContextLogger(t *testing.T) {
	t.Parallel()

	var base, scoped bytes.Buffer
	baseLogger := slog.New(slog.NewTextHandler(&base, nil))
	ctx := logging.ContextWithLogger(context.Background(), slog.New(slog.NewTextHandler(&scoped, nil)))

	serviceLogger(ctx, baseLogger, "SpaceService", "CreateSpace", "space_id", "s1").Info("done")

	assert.Empty(t, base.String())
	assert.Contains(t, scoped.String(), "service=SpaceService")
	assert.Contains(t, scoped.String(), "operation=CreateSpace")
	assert.Contains(t, scoped.String(), "space_id=s1")
}

func TestLogOutcome_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	logOutcome(ctx, logger, nil, "ok", "failed")
	assert.Contains(t, buf.String(), "level=INFO")

	buf.Reset()
	logOutcome(ctx, logger, reservation.ErrPastReservationTime, "ok", "failed")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "error_kind=past_reservation_time")

	buf.Reset()
	logOutcome(ctx, logger, errors.New("boom"), "ok", "failed")
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "error_kind=unexpected")
}
