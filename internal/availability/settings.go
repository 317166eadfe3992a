package availability

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrNoSettings indicates an empty setting list was supplied for a space.
	ErrNoSettings = errors.New("availability: at least one setting is required")
	// ErrDuplicatePriorityOrder indicates two settings of one space share a priority order.
	ErrDuplicatePriorityOrder = errors.New("availability: duplicate setting priority order")
)

// Settings is the ordered rule list of one space. Elements are sorted by
// PriorityOrder ascending and no two share a PriorityOrder.
type Settings struct {
	items []Setting
}

// NewSettings validates every rule, rejects duplicate priority orders and
// returns the collection ordered by priority.
func NewSettings(items []Setting) (Settings, error) {
	if len(items) == 0 {
		return Settings{}, ErrNoSettings
	}

	seen := make(map[int]struct{}, len(items))
	ordered := make([]Setting, 0, len(items))
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return Settings{}, fmt.Errorf("setting %d: %w", i, err)
		}
		if _, ok := seen[item.PriorityOrder]; ok {
			return Settings{}, fmt.Errorf("%w: %d", ErrDuplicatePriorityOrder, item.PriorityOrder)
		}
		seen[item.PriorityOrder] = struct{}{}
		ordered = append(ordered, item)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PriorityOrder < ordered[j].PriorityOrder
	})
	return Settings{items: ordered}, nil
}

// Len returns the number of rules.
func (s Settings) Len() int { return len(s.items) }

// All returns a copy of the rules in priority order.
func (s Settings) All() []Setting {
	out := make([]Setting, len(s.items))
	copy(out, s.items)
	return out
}

// Flatten expands every rule into one rule per weekday, ordered by weekday
// (Monday first), then window start, then priority.
func (s Settings) Flatten() []Setting {
	out := make([]Setting, 0, len(s.items)*7)
	for _, item := range s.items {
		for _, day := range item.Weekdays.Days() {
			single := item
			single.Weekdays = WeekdaysOf(day)
			out = append(out, single)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := weekIndex(out[i].Weekdays.Days()[0]), weekIndex(out[j].Weekdays.Days()[0])
		if di != dj {
			return di < dj
		}
		if out[i].Slot.Start() != out[j].Slot.Start() {
			return out[i].Slot.Start() < out[j].Slot.Start()
		}
		return out[i].PriorityOrder < out[j].PriorityOrder
	})
	return out
}

// UnavailableSlots returns the parts of day not covered by any rule that
// applies on day, in ascending order.
func (s Settings) UnavailableSlots(day time.Weekday) []TimeSlot {
	covered := make([]TimeSlot, 0, len(s.items))
	for _, item := range s.items {
		if item.Weekdays.Contains(day) {
			covered = append(covered, item.Slot)
		}
	}
	sort.Slice(covered, func(i, j int) bool { return covered[i].start < covered[j].start })

	gaps := make([]TimeSlot, 0, len(covered)+1)
	cursor := StartOfDay
	for _, slot := range covered {
		if slot.start > cursor {
			gaps = append(gaps, TimeSlot{start: cursor, end: slot.start})
		}
		if slot.end > cursor {
			cursor = slot.end
		}
	}
	if cursor < EndOfDay {
		gaps = append(gaps, TimeSlot{start: cursor, end: EndOfDay})
	}
	return gaps
}
