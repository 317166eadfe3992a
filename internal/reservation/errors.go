package reservation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/space-reservation/internal/availability"
)

var (
	// ErrImpossibleStartEndTime is returned when start is not strictly before end.
	ErrImpossibleStartEndTime = errors.New("reservation: start time must be before end time")
	// ErrNonMatchingStartEndDate is returned when start and end fall on different local dates.
	ErrNonMatchingStartEndDate = errors.New("reservation: start and end must fall on the same date")
	// ErrPastReservationTime is returned when the interval begins or ends before now.
	ErrPastReservationTime = errors.New("reservation: cannot reserve a time in the past")
	// ErrNoSettingAvailable is returned when no rule of the space covers the request.
	ErrNoSettingAvailable = errors.New("reservation: no setting available for the requested time")
	// ErrMultipleSettingsMatched is returned when the request touches more than one rule.
	ErrMultipleSettingsMatched = errors.New("reservation: requested time spans multiple settings")
	// ErrIntervalNotWithinSetting is returned when the governing rule does not fully contain the request.
	ErrIntervalNotWithinSetting = errors.New("reservation: requested time is outside the available window")
	// ErrInvalidTimeUnit is returned when start or end is off the rule's granularity.
	ErrInvalidTimeUnit = errors.New("reservation: requested time does not match the time unit")
	// ErrInvalidMinimumDuration is returned when the request is shorter than allowed.
	ErrInvalidMinimumDuration = errors.New("reservation: duration is shorter than the minimum")
	// ErrInvalidMaximumDuration is returned when the request is longer than allowed.
	ErrInvalidMaximumDuration = errors.New("reservation: duration is longer than the maximum")
	// ErrReservationDisabledOnSpace is returned when the space does not accept reservations.
	ErrReservationDisabledOnSpace = errors.New("reservation: space is not reservable")
	// ErrReservationAlreadyExists is returned when the request overlaps another reservation.
	ErrReservationAlreadyExists = errors.New("reservation: another reservation exists at the requested time")
	// ErrDeleteReservationInUse is returned when a non-manager deletes an ongoing reservation.
	ErrDeleteReservationInUse = errors.New("reservation: cannot delete a reservation in use")
	// ErrDeleteExpiredReservation is returned when a non-manager deletes a finished reservation.
	ErrDeleteExpiredReservation = errors.New("reservation: cannot delete an expired reservation")
)

// NoSettingAvailableError carries the space's rules, flattened per weekday.
type NoSettingAvailableError struct {
	Settings []availability.Setting
}

func (e *NoSettingAvailableError) Error() string {
	return ErrNoSettingAvailable.Error()
}

func (e *NoSettingAvailableError) Unwrap() error {
	return ErrNoSettingAvailable
}

// MultipleSettingsMatchedError carries every rule the request touched.
type MultipleSettingsMatchedError struct {
	Matching []availability.Setting
}

func (e *MultipleSettingsMatchedError) Error() string {
	return fmt.Sprintf("%s (%d settings)", ErrMultipleSettingsMatched.Error(), len(e.Matching))
}

func (e *MultipleSettingsMatchedError) Unwrap() error {
	return ErrMultipleSettingsMatched
}

// IntervalNotWithinSettingError carries the requested slot and the windows of
// the requested weekday that are not reservable.
type IntervalNotWithinSettingError struct {
	Requested   availability.TimeSlot
	Unavailable []availability.TimeSlot
}

func (e *IntervalNotWithinSettingError) Error() string {
	windows := make([]string, 0, len(e.Unavailable))
	for _, slot := range e.Unavailable {
		windows = append(windows, slot.String())
	}
	return fmt.Sprintf("%s: requested %s, unavailable %s",
		ErrIntervalNotWithinSetting.Error(), e.Requested, strings.Join(windows, ", "))
}

func (e *IntervalNotWithinSettingError) Unwrap() error {
	return ErrIntervalNotWithinSetting
}

// ConflictError identifies the reservation the request collided with.
type ConflictError struct {
	ReservationID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (conflicts with %s)", ErrReservationAlreadyExists.Error(), e.ReservationID)
}

func (e *ConflictError) Unwrap() error {
	return ErrReservationAlreadyExists
}
