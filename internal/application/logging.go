package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/space-reservation/internal/availability"
	"github.com/example/space-reservation/internal/logging"
	"github.com/example/space-reservation/internal/reservation"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// logOutcome writes the single completion record of a service operation:
// Info on success, Warn when a business rule rejected the request, Error otherwise.
func logOutcome(ctx context.Context, logger *slog.Logger, err error, success, failure string) {
	if err == nil {
		logger.InfoContext(ctx, success)
		return
	}
	kind := ErrorKind(err)
	if IsRejection(err) {
		logger.WarnContext(ctx, failure, "error", err, "error_kind", kind)
		return
	}
	logger.ErrorContext(ctx, failure, "error", err, "error_kind", kind)
}

// IsRejection reports whether err is an expected refusal rather than a fault.
func IsRejection(err error) bool {
	kind := ErrorKind(err)
	return kind != "" && kind != "unexpected"
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidPassword):
		return "invalid_password"
	case errors.Is(err, ErrReservationExistsOnSpace):
		return "reservation_exists_on_space"
	case errors.Is(err, reservation.ErrImpossibleStartEndTime):
		return "impossible_start_end_time"
	case errors.Is(err, reservation.ErrNonMatchingStartEndDate):
		return "non_matching_start_end_date"
	case errors.Is(err, reservation.ErrPastReservationTime):
		return "past_reservation_time"
	case errors.Is(err, reservation.ErrNoSettingAvailable):
		return "no_setting_available"
	case errors.Is(err, reservation.ErrMultipleSettingsMatched):
		return "multiple_settings_matched"
	case errors.Is(err, reservation.ErrIntervalNotWithinSetting):
		return "interval_not_within_setting"
	case errors.Is(err, reservation.ErrInvalidTimeUnit):
		return "invalid_time_unit"
	case errors.Is(err, reservation.ErrInvalidMinimumDuration):
		return "invalid_minimum_duration"
	case errors.Is(err, reservation.ErrInvalidMaximumDuration):
		return "invalid_maximum_duration"
	case errors.Is(err, reservation.ErrReservationDisabledOnSpace):
		return "reservation_disabled_on_space"
	case errors.Is(err, reservation.ErrReservationAlreadyExists):
		return "reservation_already_exists"
	case errors.Is(err, reservation.ErrDeleteReservationInUse):
		return "delete_reservation_in_use"
	case errors.Is(err, reservation.ErrDeleteExpiredReservation):
		return "delete_expired_reservation"
	case errors.Is(err, availability.ErrDuplicatePriorityOrder):
		return "duplicate_priority_order"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
