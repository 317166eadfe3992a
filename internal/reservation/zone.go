package reservation

import (
	"fmt"
	"time"
	_ "time/tzdata" // zone names must resolve on hosts without zoneinfo

	"github.com/example/space-reservation/internal/availability"
)

// Zone projects stored UTC instants onto the local calendar that decides which
// day's rules and reservations apply.
type Zone struct {
	location *time.Location
}

// NewZone builds a Zone for loc. A nil loc falls back to UTC.
func NewZone(loc *time.Location) Zone {
	if loc == nil {
		loc = time.UTC
	}
	return Zone{location: loc}
}

// LoadZone builds a Zone from an IANA name such as "Asia/Seoul".
func LoadZone(name string) (Zone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Zone{}, fmt.Errorf("reservation: load zone %q: %w", name, err)
	}
	return NewZone(loc), nil
}

// Location returns the zone's location.
func (z Zone) Location() *time.Location {
	if z.location == nil {
		return time.UTC
	}
	return z.location
}

// Date returns local midnight of the calendar day containing t.
func (z Zone) Date(t time.Time) time.Time {
	local := t.In(z.Location())
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, z.Location())
}

// Project returns the local date and wall-clock offset of t.
func (z Zone) Project(t time.Time) (time.Time, availability.TimeOfDay) {
	return z.Date(t), availability.TimeOfDayOf(t.In(z.Location()))
}

// At returns the UTC instant of tod on the local date of date.
func (z Zone) At(date time.Time, tod availability.TimeOfDay) time.Time {
	return tod.On(z.Date(date)).UTC()
}

// LookupWindow returns the UTC bounds [date-1, date+2) used to fetch the
// reservations that may collide with a request on date. The padding catches
// reservations whose UTC dates differ from their local date.
func (z Zone) LookupWindow(date time.Time) (time.Time, time.Time) {
	local := z.Date(date)
	return local.AddDate(0, 0, -1).UTC(), local.AddDate(0, 0, 2).UTC()
}

// DayBounds returns the UTC bounds of the local day containing date.
func (z Zone) DayBounds(date time.Time) (time.Time, time.Time) {
	local := z.Date(date)
	return local.UTC(), local.AddDate(0, 0, 1).UTC()
}
