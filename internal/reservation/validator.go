package reservation

import (
	"time"

	"github.com/example/space-reservation/internal/availability"
)

// Validated is a request that passed every rule and is ready to persist.
type Validated struct {
	SpaceID  string
	Interval Interval
	// Date is local midnight of the reservation's day.
	Date    time.Time
	Setting availability.Setting
}

// Validator decides whether a proposed reservation is legal for a space.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	zone Zone
	now  func() time.Time
}

// NewValidator builds a Validator that buckets dates in zone and reads the
// current time from now.
func NewValidator(zone Zone, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{zone: zone, now: now}
}

// Zone returns the service zone used for spaces without their own location.
func (v *Validator) Zone() Zone {
	return v.zone
}

// ZoneFor returns the zone that buckets dates for space.
func (v *Validator) ZoneFor(space Space) Zone {
	if space.Location != nil {
		return NewZone(space.Location)
	}
	return v.zone
}

// ValidateForCreate checks requested against the space's rules and against
// every reservation in existing.
func (v *Validator) ValidateForCreate(space Space, requested Interval, existing []Reservation) (Validated, error) {
	return v.validate(space, requested, existing, ExcludeNone())
}

// ValidateForUpdate is ValidateForCreate with current left out of the conflict set.
func (v *Validator) ValidateForUpdate(space Space, current Reservation, requested Interval, existing []Reservation) (Validated, error) {
	return v.validate(space, requested, existing, ExcludeByID(current.ID))
}

func (v *Validator) validate(space Space, requested Interval, existing []Reservation, exclude Exclusion) (Validated, error) {
	zone := v.ZoneFor(space)

	date, slot, err := v.checkTime(zone, requested)
	if err != nil {
		return Validated{}, err
	}

	setting, err := checkSettings(space.Settings, date, slot)
	if err != nil {
		return Validated{}, err
	}

	if !space.ReservationEnabled {
		return Validated{}, ErrReservationDisabledOnSpace
	}

	candidate := Interval{Start: requested.Start.UTC(), End: requested.End.UTC()}
	if other, found := FindConflict(candidate, existing, exclude); found {
		return Validated{}, &ConflictError{ReservationID: other.ID}
	}

	return Validated{
		SpaceID:  space.ID,
		Interval: candidate,
		Date:     date,
		Setting:  setting,
	}, nil
}

func (v *Validator) checkTime(zone Zone, requested Interval) (time.Time, availability.TimeSlot, error) {
	if !requested.Start.Before(requested.End) {
		return time.Time{}, availability.TimeSlot{}, ErrImpossibleStartEndTime
	}

	startDate, startTime := zone.Project(requested.Start)
	endDate, endTime := zone.Project(requested.End)
	if !startDate.Equal(endDate) {
		return time.Time{}, availability.TimeSlot{}, ErrNonMatchingStartEndDate
	}

	now := v.now()
	if requested.Start.Before(now) || requested.End.Before(now) {
		return time.Time{}, availability.TimeSlot{}, ErrPastReservationTime
	}

	slot, err := availability.NewTimeSlot(startTime, endTime)
	if err != nil {
		return time.Time{}, availability.TimeSlot{}, ErrImpossibleStartEndTime
	}
	return startDate, slot, nil
}

func checkSettings(settings availability.Settings, date time.Time, slot availability.TimeSlot) (availability.Setting, error) {
	outcome := availability.Resolve(settings, date, slot)
	switch outcome.Kind() {
	case availability.OutcomeNone:
		return availability.Setting{}, &NoSettingAvailableError{Settings: settings.Flatten()}
	case availability.OutcomeAmbiguous:
		return availability.Setting{}, &MultipleSettingsMatchedError{Matching: outcome.Matching()}
	}

	setting, _ := outcome.Setting()
	if !setting.Contains(slot) {
		governing, err := availability.NewSettings([]availability.Setting{setting})
		if err != nil {
			return availability.Setting{}, err
		}
		return availability.Setting{}, &IntervalNotWithinSettingError{
			Requested:   slot,
			Unavailable: governing.UnavailableSlots(date.Weekday()),
		}
	}
	if !setting.IsAligned(slot) {
		return availability.Setting{}, ErrInvalidTimeUnit
	}
	if !setting.AcceptsMinimum(slot) {
		return availability.Setting{}, ErrInvalidMinimumDuration
	}
	if !setting.AcceptsMaximum(slot) {
		return availability.Setting{}, ErrInvalidMaximumDuration
	}
	return setting, nil
}
