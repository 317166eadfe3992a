package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Weekdays is an immutable set of days of the week.
type Weekdays uint8

// AllWeekdays contains every day of the week.
const AllWeekdays Weekdays = 1<<7 - 1

// ErrInvalidWeekday indicates a weekday label contained an unknown name.
var ErrInvalidWeekday = errors.New("availability: invalid weekday")

// weekOrder lists days Monday first, which is how labels are rendered.
var weekOrder = [...]time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tue":       time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thu":       time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
}

// WeekdaysOf builds a set from the given days.
func WeekdaysOf(days ...time.Weekday) Weekdays {
	var set Weekdays
	for _, day := range days {
		if day < time.Sunday || day > time.Saturday {
			continue
		}
		set |= 1 << uint(day)
	}
	return set
}

// ParseWeekdays parses a comma and/or space separated list of weekday names.
// Names are case-insensitive and may be abbreviated to three letters. An empty
// label yields AllWeekdays.
func ParseWeekdays(label string) (Weekdays, error) {
	fields := strings.FieldsFunc(label, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return AllWeekdays, nil
	}

	var set Weekdays
	for _, field := range fields {
		day, ok := weekdayNames[strings.ToLower(field)]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, field)
		}
		set |= WeekdaysOf(day)
	}
	return set, nil
}

// Contains reports whether day is part of the set.
func (w Weekdays) Contains(day time.Weekday) bool {
	return w&WeekdaysOf(day) != 0
}

// IsEmpty reports whether no day is selected.
func (w Weekdays) IsEmpty() bool {
	return w&AllWeekdays == 0
}

// Days returns the selected days, Monday first.
func (w Weekdays) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for _, day := range weekOrder {
		if w.Contains(day) {
			days = append(days, day)
		}
	}
	return days
}

// String renders the set as a lower-case comma separated label, the format ParseWeekdays accepts.
func (w Weekdays) String() string {
	days := w.Days()
	names := make([]string, 0, len(days))
	for _, day := range days {
		names = append(names, strings.ToLower(day.String()))
	}
	return strings.Join(names, ",")
}

func weekIndex(day time.Weekday) int {
	return (int(day) + 6) % 7
}
