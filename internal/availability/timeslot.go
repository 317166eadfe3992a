package availability

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval indicates a time slot whose start is not strictly before its end.
var ErrInvalidInterval = errors.New("availability: slot start must be before end")

// TimeSlot is a half-open time-of-day interval [start, end).
type TimeSlot struct {
	start TimeOfDay
	end   TimeOfDay
}

// NewTimeSlot validates and constructs a TimeSlot.
func NewTimeSlot(start, end TimeOfDay) (TimeSlot, error) {
	if !start.Valid() || !end.Valid() {
		return TimeSlot{}, fmt.Errorf("%w: %s-%s", ErrInvalidTimeOfDay, start, end)
	}
	if start >= end {
		return TimeSlot{}, fmt.Errorf("%w: %s-%s", ErrInvalidInterval, start, end)
	}
	return TimeSlot{start: start, end: end}, nil
}

// ParseTimeSlot parses a pair of "HH:MM" values.
func ParseTimeSlot(start, end string) (TimeSlot, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return TimeSlot{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return TimeSlot{}, err
	}
	return NewTimeSlot(s, e)
}

// FullDay covers the whole local day.
func FullDay() TimeSlot {
	return TimeSlot{start: StartOfDay, end: EndOfDay}
}

// Start returns the inclusive lower bound.
func (s TimeSlot) Start() TimeOfDay { return s.start }

// End returns the exclusive upper bound.
func (s TimeSlot) End() TimeOfDay { return s.end }

// Duration returns the length of the slot.
func (s TimeSlot) Duration() time.Duration {
	return time.Duration(s.end - s.start)
}

// IsZero reports whether s is the zero value.
func (s TimeSlot) IsZero() bool {
	return s.start == 0 && s.end == 0
}

// Contains reports whether other lies entirely within s. Shared boundaries count as contained.
func (s TimeSlot) Contains(other TimeSlot) bool {
	return other.start >= s.start && other.end <= s.end
}

// Overlaps reports whether s and other share any instant. Touching endpoints do not overlap.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.start < other.end && other.start < s.end
}

func (s TimeSlot) String() string {
	return s.start.String() + "-" + s.end.String()
}
