package reservation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/space-reservation/internal/availability"
)

func newValidator() *Validator {
	return NewValidator(NewZone(kst), fixedNow)
}

func TestValidator_ValidateForCreate(t *testing.T) {
	validator := newValidator()

	t.Run("accepts an aligned request inside the window", func(t *testing.T) {
		got, err := validator.ValidateForCreate(standardSpace(t), interval(t, at(10, 0), at(11, 0)), nil)
		require.NoError(t, err)

		assert.Equal(t, "space-1", got.SpaceID)
		assert.Equal(t, time.Date(2026, 3, 4, 1, 0, 0, 0, time.UTC), got.Interval.Start)
		assert.Equal(t, time.Date(2026, 3, 4, 2, 0, 0, 0, time.UTC), got.Interval.End)
		assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, kst), got.Date)
		assert.Equal(t, 30*time.Minute, got.Setting.Unit)
	})

	tests := []struct {
		name    string
		space   func(t *testing.T) Space
		start   time.Time
		end     time.Time
		wantErr error
	}{
		{
			name:    "off the unit grid",
			space:   standardSpace,
			start:   at(10, 5),
			end:     at(11, 5),
			wantErr: ErrInvalidTimeUnit,
		},
		{
			name:    "starts before the window",
			space:   standardSpace,
			start:   at(9, 0),
			end:     at(11, 0),
			wantErr: ErrIntervalNotWithinSetting,
		},
		{
			name:    "outside every window",
			space:   standardSpace,
			start:   at(22, 0),
			end:     at(23, 0),
			wantErr: ErrNoSettingAvailable,
		},
		{
			name:    "shorter than the minimum",
			space:   standardSpace,
			start:   at(10, 0),
			end:     at(10, 30),
			wantErr: ErrInvalidMinimumDuration,
		},
		{
			name:    "longer than the maximum",
			space:   standardSpace,
			start:   at(10, 0),
			end:     at(12, 30),
			wantErr: ErrInvalidMaximumDuration,
		},
		{
			name:    "different local dates",
			space:   standardSpace,
			start:   at(21, 0),
			end:     at(21, 0).Add(12 * time.Hour),
			wantErr: ErrNonMatchingStartEndDate,
		},
		{
			name:    "in the past",
			space:   standardSpace,
			start:   at(10, 0).AddDate(0, 0, -3),
			end:     at(11, 0).AddDate(0, 0, -3),
			wantErr: ErrPastReservationTime,
		},
		{
			name: "space not reservable",
			space: func(t *testing.T) Space {
				s := standardSpace(t)
				s.ReservationEnabled = false
				return s
			},
			start:   at(10, 0),
			end:     at(11, 0),
			wantErr: ErrReservationDisabledOnSpace,
		},
		{
			name: "weekday not enabled",
			space: func(t *testing.T) Space {
				return space(t, true, setting(t, "10:00", "22:00", availability.WeekdaysOf(time.Monday),
					30*time.Minute, 60*time.Minute, 120*time.Minute, 0))
			},
			start:   at(10, 0),
			end:     at(11, 0),
			wantErr: ErrNoSettingAvailable,
		},
		{
			name: "spans two settings",
			space: func(t *testing.T) Space {
				return space(t, true,
					setting(t, "08:00", "10:00", availability.AllWeekdays, 30*time.Minute, 60*time.Minute, 120*time.Minute, 0),
					setting(t, "10:00", "22:00", availability.AllWeekdays, 30*time.Minute, 60*time.Minute, 120*time.Minute, 1),
				)
			},
			start:   at(9, 0),
			end:     at(11, 0),
			wantErr: ErrMultipleSettingsMatched,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.ValidateForCreate(tt.space(t), Interval{Start: tt.start, End: tt.end}, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidator_ErrorDiagnostics(t *testing.T) {
	validator := newValidator()

	t.Run("window miss lists unavailable slots", func(t *testing.T) {
		_, err := validator.ValidateForCreate(standardSpace(t), interval(t, at(9, 0), at(11, 0)), nil)

		var windowErr *IntervalNotWithinSettingError
		require.True(t, errors.As(err, &windowErr))
		require.Len(t, windowErr.Unavailable, 2)
		assert.Equal(t, "00:00-10:00", windowErr.Unavailable[0].String())
		assert.Equal(t, "22:00-24:00", windowErr.Unavailable[1].String())
		assert.Equal(t, "09:00-11:00", windowErr.Requested.String())
	})

	t.Run("no setting carries the flattened rules", func(t *testing.T) {
		_, err := validator.ValidateForCreate(standardSpace(t), interval(t, at(22, 0), at(23, 0)), nil)

		var noSetting *NoSettingAvailableError
		require.True(t, errors.As(err, &noSetting))
		assert.Len(t, noSetting.Settings, 7)
	})

	t.Run("ambiguity carries the matching rules", func(t *testing.T) {
		s := space(t, true,
			setting(t, "08:00", "10:00", availability.AllWeekdays, 30*time.Minute, 60*time.Minute, 120*time.Minute, 0),
			setting(t, "10:00", "22:00", availability.AllWeekdays, 30*time.Minute, 60*time.Minute, 120*time.Minute, 1),
		)
		_, err := validator.ValidateForCreate(s, interval(t, at(9, 0), at(11, 0)), nil)

		var multiple *MultipleSettingsMatchedError
		require.True(t, errors.As(err, &multiple))
		assert.Len(t, multiple.Matching, 2)
	})
}

func TestValidator_CheckOrder(t *testing.T) {
	validator := newValidator()
	disabled := standardSpace(t)
	disabled.ReservationEnabled = false
	existing := []Reservation{booked(t, "r1", at(10, 0), at(11, 0))}

	_, err := validator.ValidateForCreate(disabled, interval(t, at(10, 5), at(11, 5)), existing)
	assert.ErrorIs(t, err, ErrInvalidTimeUnit, "setting checks run before the enabled check")

	_, err = validator.ValidateForCreate(disabled, interval(t, at(10, 0), at(11, 0)), existing)
	assert.ErrorIs(t, err, ErrReservationDisabledOnSpace, "enabled check runs before the conflict check")
}

func TestValidator_Conflicts(t *testing.T) {
	validator := newValidator()
	s := standardSpace(t)
	existing := []Reservation{booked(t, "r1", at(13, 0), at(14, 0))}

	t.Run("overlapping create is rejected", func(t *testing.T) {
		_, err := validator.ValidateForCreate(s, interval(t, at(13, 30), at(14, 30)), existing)
		require.ErrorIs(t, err, ErrReservationAlreadyExists)

		var conflict *ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, "r1", conflict.ReservationID)
	})

	t.Run("adjacent create is accepted", func(t *testing.T) {
		_, err := validator.ValidateForCreate(s, interval(t, at(12, 0), at(13, 0)), existing)
		assert.NoError(t, err)
	})

	t.Run("conflict compares UTC instants regardless of input zone", func(t *testing.T) {
		start := at(13, 30).UTC()
		_, err := validator.ValidateForCreate(s, Interval{Start: start, End: start.Add(time.Hour)}, existing)
		assert.ErrorIs(t, err, ErrReservationAlreadyExists)
	})
}

func TestValidator_ValidateForUpdate(t *testing.T) {
	validator := newValidator()
	s := space(t, true, setting(t, "10:00", "22:00", availability.AllWeekdays,
		15*time.Minute, 60*time.Minute, 120*time.Minute, 0))
	current := booked(t, "r1", at(13, 0), at(14, 0))

	t.Run("a reservation does not conflict with itself", func(t *testing.T) {
		got, err := validator.ValidateForUpdate(s, current, interval(t, at(13, 15), at(14, 15)), []Reservation{current})
		require.NoError(t, err)
		assert.Equal(t, at(13, 15).UTC(), got.Interval.Start)
	})

	t.Run("other reservations still conflict", func(t *testing.T) {
		other := booked(t, "r2", at(14, 0), at(15, 0))
		_, err := validator.ValidateForUpdate(s, current, interval(t, at(13, 15), at(14, 15)), []Reservation{current, other})

		var conflict *ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, "r2", conflict.ReservationID)
	})

	t.Run("rules apply to updates", func(t *testing.T) {
		_, err := validator.ValidateForUpdate(s, current, interval(t, at(13, 10), at(14, 10)), []Reservation{current})
		assert.ErrorIs(t, err, ErrInvalidTimeUnit)
	})
}

func TestValidator_BucketsByLocalDate(t *testing.T) {
	validator := newValidator()
	s := space(t, true, setting(t, "08:00", "10:00", availability.WeekdaysOf(time.Wednesday),
		30*time.Minute, 60*time.Minute, 120*time.Minute, 0))

	// 08:00-09:00 KST on Wednesday is 23:00-00:00 UTC on Tuesday.
	start := time.Date(2026, 3, 3, 23, 0, 0, 0, time.UTC)
	got, err := validator.ValidateForCreate(s, interval(t, start, start.Add(time.Hour)), nil)
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, got.Date.Weekday())
}

func TestValidator_SpaceLocationOverridesZone(t *testing.T) {
	validator := NewValidator(NewZone(time.UTC), fixedNow)
	s := standardSpace(t)
	s.Location = kst

	assert.Equal(t, kst, validator.ZoneFor(s).Location())
	_, err := validator.ValidateForCreate(s, interval(t, at(10, 0), at(11, 0)), nil)
	assert.NoError(t, err)
}
