package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock offset from local midnight.
type TimeOfDay time.Duration

const (
	// StartOfDay is local midnight.
	StartOfDay TimeOfDay = 0
	// EndOfDay is the exclusive end of a local day, rendered as 24:00.
	EndOfDay TimeOfDay = TimeOfDay(24 * time.Hour)
)

// ErrInvalidTimeOfDay indicates a time-of-day value could not be parsed or is out of range.
var ErrInvalidTimeOfDay = errors.New("availability: invalid time of day")

// Clock builds a TimeOfDay from an hour and minute.
func Clock(hour, minute int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// TimeOfDayOf returns the wall-clock offset of t in t's own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond()))
}

// ParseTimeOfDay parses "HH:MM". "24:00" is accepted as EndOfDay.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	value = strings.TrimSpace(value)
	hourPart, minutePart, ok := strings.Cut(value, ":")
	if !ok || len(hourPart) == 0 || len(minutePart) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	if hour < 0 || minute < 0 || minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return Clock(hour, minute), nil
}

// Duration returns the offset as a time.Duration.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t)
}

// Valid reports whether t lies within [00:00, 24:00].
func (t TimeOfDay) Valid() bool {
	return t >= StartOfDay && t <= EndOfDay
}

// On anchors t to the calendar date of date in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	total := time.Duration(t)
	hour := int(total / time.Hour)
	total -= time.Duration(hour) * time.Hour
	minute := int(total / time.Minute)
	total -= time.Duration(minute) * time.Minute
	second := int(total / time.Second)
	total -= time.Duration(second) * time.Second
	return time.Date(y, m, d, hour, minute, second, int(total), date.Location())
}

// String renders t as "HH:MM", with seconds appended only when present.
func (t TimeOfDay) String() string {
	total := time.Duration(t)
	hour := total / time.Hour
	minute := (total % time.Hour) / time.Minute
	second := (total % time.Minute) / time.Second
	if second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hour, minute, second)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
