package availability

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultUnit is the reservation granularity applied when none is given.
	DefaultUnit = 10 * time.Minute
	// DefaultMinDuration is the shortest reservation applied when none is given.
	DefaultMinDuration = 10 * time.Minute
	// DefaultMaxDuration is the longest reservation applied when none is given.
	DefaultMaxDuration = 120 * time.Minute
)

// ErrInvalidSetting indicates a setting with inconsistent attributes.
var ErrInvalidSetting = errors.New("availability: invalid setting")

// Setting is one recurring availability rule of a space: during Weekdays,
// within Slot, reservations must be a multiple of Unit lasting between
// MinDuration and MaxDuration.
type Setting struct {
	Slot          TimeSlot
	Weekdays      Weekdays
	Unit          time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	PriorityOrder int
}

// DefaultSetting returns a full-day, every-day rule with the default bounds.
func DefaultSetting() Setting {
	return Setting{
		Slot:          FullDay(),
		Weekdays:      AllWeekdays,
		Unit:          DefaultUnit,
		MinDuration:   DefaultMinDuration,
		MaxDuration:   DefaultMaxDuration,
		PriorityOrder: 0,
	}
}

// Validate checks the internal consistency of s.
func (s Setting) Validate() error {
	if s.Slot.IsZero() || s.Slot.Start() >= s.Slot.End() {
		return fmt.Errorf("%w: empty time slot", ErrInvalidSetting)
	}
	if s.Weekdays.IsEmpty() {
		return fmt.Errorf("%w: no weekday selected", ErrInvalidSetting)
	}
	if s.Unit <= 0 {
		return fmt.Errorf("%w: time unit must be positive", ErrInvalidSetting)
	}
	if s.MinDuration <= 0 {
		return fmt.Errorf("%w: minimum duration must be positive", ErrInvalidSetting)
	}
	if s.MaxDuration < s.MinDuration {
		return fmt.Errorf("%w: maximum duration %s is shorter than minimum %s", ErrInvalidSetting, s.MaxDuration, s.MinDuration)
	}
	return nil
}

// IsRelevant reports whether the rule applies on day and its window overlaps slot.
func (s Setting) IsRelevant(day time.Weekday, slot TimeSlot) bool {
	return s.Weekdays.Contains(day) && s.Slot.Overlaps(slot)
}

// Contains reports whether slot lies entirely within the rule's window.
func (s Setting) Contains(slot TimeSlot) bool {
	return s.Slot.Contains(slot)
}

// IsAligned reports whether both ends of slot fall on the rule's unit grid,
// measured from the start of the rule's window.
func (s Setting) IsAligned(slot TimeSlot) bool {
	if s.Unit <= 0 {
		return false
	}
	origin := time.Duration(s.Slot.Start())
	return (time.Duration(slot.Start())-origin)%s.Unit == 0 &&
		(time.Duration(slot.End())-origin)%s.Unit == 0
}

// AcceptsMinimum reports whether slot is at least MinDuration long.
func (s Setting) AcceptsMinimum(slot TimeSlot) bool {
	return slot.Duration() >= s.MinDuration
}

// AcceptsMaximum reports whether slot is at most MaxDuration long.
func (s Setting) AcceptsMaximum(slot TimeSlot) bool {
	return slot.Duration() <= s.MaxDuration
}

func (s Setting) String() string {
	return fmt.Sprintf("#%d %s [%s] unit=%s min=%s max=%s",
		s.PriorityOrder, s.Slot, s.Weekdays, s.Unit, s.MinDuration, s.MaxDuration)
}
