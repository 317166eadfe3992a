package reservation

import "time"

// State is the lifecycle position of a reservation relative to a reference instant.
type State int

const (
	// StateUpcoming means the reservation has not started.
	StateUpcoming State = iota
	// StateInUse means the reservation has started but not ended.
	StateInUse
	// StateExpired means the reservation has ended.
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateInUse:
		return "in_use"
	case StateExpired:
		return "expired"
	default:
		return "upcoming"
	}
}

// Classify places r relative to now.
func Classify(r Reservation, now time.Time) State {
	switch {
	case now.Before(r.Interval.Start):
		return StateUpcoming
	case now.Before(r.Interval.End):
		return StateInUse
	default:
		return StateExpired
	}
}

// CanDelete reports whether r may be deleted at now. Managers may delete in
// any state; everyone else only while the reservation is upcoming.
func CanDelete(r Reservation, now time.Time, isManager bool) error {
	if isManager {
		return nil
	}
	switch Classify(r, now) {
	case StateInUse:
		return ErrDeleteReservationInUse
	case StateExpired:
		return ErrDeleteExpiredReservation
	default:
		return nil
	}
}
