package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/space-reservation/internal/persistence"
)

var baseTime = time.Date(2026, 3, 4, 1, 0, 0, 0, time.UTC)

func setupPool(t *testing.T) *ConnectionPool {
	t.Helper()

	pool, err := NewConnectionPool(TempFileTestConfig(filepath.Join(t.TempDir(), "reservation.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	require.NoError(t, pool.Migrate(context.Background()))
	return pool
}

func sampleSpace(id, name string) persistence.Space {
	return persistence.Space{
		ID:                 id,
		Name:               name,
		Description:        "second floor",
		ReservationEnabled: true,
		Settings: []persistence.Setting{
			{PriorityOrder: 1, StartTime: "10:00", EndTime: "22:00", Weekdays: "Mon,Tue,Wed,Thu,Fri", TimeUnitMinutes: 30, MinimumMinutes: 60, MaximumMinutes: 120},
			{PriorityOrder: 2, StartTime: "12:00", EndTime: "13:00", Weekdays: "Mon,Tue,Wed,Thu,Fri", TimeUnitMinutes: 30, MinimumMinutes: 30, MaximumMinutes: 60},
		},
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
}

func memberReservation(id, spaceID string, start, end time.Time) persistence.Reservation {
	member := "member-1"
	return persistence.Reservation{
		ID:          id,
		SpaceID:     spaceID,
		Start:       start,
		End:         end,
		MemberID:    &member,
		Description: "standup",
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
}
