package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/space-reservation/internal/availability"
)

var kst = time.FixedZone("KST", 9*60*60)

// now is Monday 2026-03-02 08:00 KST; requests below target Wednesday 2026-03-04.
var now = time.Date(2026, 3, 2, 8, 0, 0, 0, kst)

func fixedNow() time.Time { return now }

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 4, hour, minute, 0, 0, kst)
}

func interval(t *testing.T, start, end time.Time) Interval {
	t.Helper()
	iv, err := NewInterval(start, end)
	require.NoError(t, err)
	return iv
}

func setting(t *testing.T, start, end string, days availability.Weekdays, unit, minDuration, maxDuration time.Duration, priority int) availability.Setting {
	t.Helper()
	slot, err := availability.ParseTimeSlot(start, end)
	require.NoError(t, err)
	return availability.Setting{
		Slot:          slot,
		Weekdays:      days,
		Unit:          unit,
		MinDuration:   minDuration,
		MaxDuration:   maxDuration,
		PriorityOrder: priority,
	}
}

func space(t *testing.T, enabled bool, items ...availability.Setting) Space {
	t.Helper()
	settings, err := availability.NewSettings(items)
	require.NoError(t, err)
	return Space{ID: "space-1", Name: "Meeting Room A", ReservationEnabled: enabled, Settings: settings}
}

func standardSpace(t *testing.T) Space {
	t.Helper()
	return space(t, true, setting(t, "10:00", "22:00", availability.AllWeekdays,
		30*time.Minute, 60*time.Minute, 120*time.Minute, 0))
}

func booked(t *testing.T, id string, start, end time.Time) Reservation {
	t.Helper()
	return Reservation{
		ID:       id,
		SpaceID:  "space-1",
		Interval: interval(t, start, end),
		Owner:    Owner{MemberID: "member-1"},
	}
}
