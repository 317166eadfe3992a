package persistence

import "time"

// Space represents a reservable room together with its availability settings.
// A nil Timezone means the service zone applies.
type Space struct {
	ID                 string
	Name               string
	Description        string
	ReservationEnabled bool
	Timezone           *string
	Settings           []Setting
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Setting is one stored availability rule. Times are "HH:MM" local wall-clock
// values, Weekdays a comma separated label, durations whole minutes.
type Setting struct {
	SpaceID         string
	PriorityOrder   int
	StartTime       string
	EndTime         string
	Weekdays        string
	TimeUnitMinutes int
	MinimumMinutes  int
	MaximumMinutes  int
}

// Reservation represents a booking stored in persistence. Exactly one of
// MemberID and GuestName is set.
type Reservation struct {
	ID           string
	SpaceID      string
	Start        time.Time
	End          time.Time
	MemberID     *string
	GuestName    *string
	PasswordHash *string
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
