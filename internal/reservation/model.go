package reservation

import (
	"time"

	"github.com/example/space-reservation/internal/availability"
)

// Interval is a half-open span of absolute time [Start, End), kept in UTC.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval validates start < end and normalises both to UTC.
func NewInterval(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, ErrImpossibleStartEndTime
	}
	return Interval{Start: start.UTC(), End: end.UTC()}, nil
}

// Overlaps reports whether i and other share an instant. An interval ending
// exactly when the other starts does not overlap it.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Owner identifies who holds a reservation: a member or a named guest.
type Owner struct {
	MemberID  string
	GuestName string
}

// IsGuest reports whether the reservation was made without a member account.
func (o Owner) IsGuest() bool {
	return o.MemberID == ""
}

// Reservation is a booked interval on a space.
type Reservation struct {
	ID          string
	SpaceID     string
	Interval    Interval
	Owner       Owner
	Description string
}

// Space is a reservable room together with its rules.
type Space struct {
	ID                 string
	Name               string
	ReservationEnabled bool
	Settings           availability.Settings
	// Location overrides the validator's zone for this space when set.
	Location *time.Location
}
