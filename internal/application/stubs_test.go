package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/space-reservation/internal/availability"
	"github.com/example/space-reservation/internal/persistence"
	"github.com/example/space-reservation/internal/reservation"
)

var kst = time.FixedZone("KST", 9*60*60)

// referenceNow is Monday 2026-03-02 08:00 KST.
var referenceNow = time.Date(2026, 3, 2, 8, 0, 0, 0, kst)

// wednesdayAt returns a wall-clock time on Wednesday 2026-03-04 in KST.
func wednesdayAt(hour, minute int) time.Time {
	return time.Date(2026, 3, 4, hour, minute, 0, 0, kst)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock { return &testClock{now: referenceNow} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func dayRule(t *testing.T) availability.Setting {
	t.Helper()
	slot, err := availability.ParseTimeSlot("10:00", "22:00")
	require.NoError(t, err)
	return availability.Setting{
		Slot:          slot,
		Weekdays:      availability.AllWeekdays,
		Unit:          30 * time.Minute,
		MinDuration:   60 * time.Minute,
		MaxDuration:   120 * time.Minute,
		PriorityOrder: 0,
	}
}

type memorySpaces struct {
	mu      sync.Mutex
	items   map[string]Space
	gets    int
	listErr error
}

func newMemorySpaces(spaces ...Space) *memorySpaces {
	repo := &memorySpaces{items: make(map[string]Space)}
	for _, space := range spaces {
		repo.items[space.ID] = space
	}
	return repo
}

func (m *memorySpaces) CreateSpace(_ context.Context, space Space) (Space, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[space.ID]; ok {
		return Space{}, persistence.ErrDuplicate
	}
	m.items[space.ID] = space
	return space, nil
}

func (m *memorySpaces) GetSpace(_ context.Context, id string) (Space, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	space, ok := m.items[id]
	if !ok {
		return Space{}, persistence.ErrNotFound
	}
	return space, nil
}

func (m *memorySpaces) UpdateSpace(_ context.Context, space Space) (Space, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[space.ID]; !ok {
		return Space{}, persistence.ErrNotFound
	}
	m.items[space.ID] = space
	return space, nil
}

func (m *memorySpaces) DeleteSpace(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memorySpaces) ListSpaces(_ context.Context) ([]Space, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Space, 0, len(m.items))
	for _, space := range m.items {
		out = append(out, space)
	}
	return out, nil
}

// memoryReservations mirrors the storage guarantee: overlapping writes on one space fail with ErrConflict.
type memoryReservations struct {
	mu        sync.Mutex
	items     map[string]Reservation
	createErr error
	deleted   []string
	filters   []ReservationRepositoryFilter
}

func newMemoryReservations(items ...Reservation) *memoryReservations {
	repo := &memoryReservations{items: make(map[string]Reservation)}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (m *memoryReservations) overlapsLocked(candidate Reservation) bool {
	for _, other := range m.items {
		if other.ID == candidate.ID || other.SpaceID != candidate.SpaceID {
			continue
		}
		if candidate.Start.Before(other.End) && other.Start.Before(candidate.End) {
			return true
		}
	}
	return false
}

func (m *memoryReservations) CreateReservation(_ context.Context, r Reservation) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return Reservation{}, m.createErr
	}
	if m.overlapsLocked(r) {
		return Reservation{}, persistence.ErrConflict
	}
	m.items[r.ID] = r
	return r, nil
}

func (m *memoryReservations) GetReservation(_ context.Context, id string) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return Reservation{}, persistence.ErrNotFound
	}
	return r, nil
}

func (m *memoryReservations) UpdateReservation(_ context.Context, r Reservation) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[r.ID]; !ok {
		return Reservation{}, persistence.ErrNotFound
	}
	if m.overlapsLocked(r) {
		return Reservation{}, persistence.ErrConflict
	}
	m.items[r.ID] = r
	return r, nil
}

func (m *memoryReservations) DeleteReservation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memoryReservations) ListReservations(_ context.Context, filter ReservationRepositoryFilter) ([]Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, filter)
	var out []Reservation
	for _, r := range m.items {
		if filter.SpaceID != "" && r.SpaceID != filter.SpaceID {
			continue
		}
		if filter.MemberID != "" && r.MemberID != filter.MemberID {
			continue
		}
		if filter.GuestName != "" && (!r.IsGuest() || r.GuestName != filter.GuestName) {
			continue
		}
		if filter.To != nil && !r.Start.Before(*filter.To) {
			continue
		}
		if filter.From != nil && !r.End.After(*filter.From) {
			continue
		}
		if filter.EndsAtOrAfter != nil && r.End.Before(*filter.EndsAtOrAfter) {
			continue
		}
		if filter.EndsAtOrBefore != nil && r.End.After(*filter.EndsAtOrBefore) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		less := out[i].Start.Before(out[j].Start) || (out[i].Start.Equal(out[j].Start) && out[i].ID < out[j].ID)
		if filter.Descending {
			return !less
		}
		return less
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memoryReservations) HasReservationsEndingAfter(_ context.Context, spaceID string, reference time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.SpaceID == spaceID && r.End.After(reference) {
			return true, nil
		}
	}
	return false, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveValidation(operation, outcome string) {
	o.mu.Lock()
	o.outcomes = append(o.outcomes, operation+":"+outcome)
	o.mu.Unlock()
}

func newTestValidator(clock *testClock) *reservation.Validator {
	return reservation.NewValidator(reservation.NewZone(kst), clock.Now)
}
