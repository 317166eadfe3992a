package application

import (
	"time"

	"github.com/example/space-reservation/internal/availability"
)

// Principal represents the caller invoking a service method. A zero UserID
// means an anonymous guest.
type Principal struct {
	UserID    string
	IsManager bool
}

// IsGuest reports whether the caller is not signed in.
func (p Principal) IsGuest() bool {
	return p.UserID == ""
}

// SettingInput captures one caller provided availability rule. Zero durations,
// an empty weekday label and an empty window take the defaults. A window with
// only one bound runs from 00:00 or until 24:00.
type SettingInput struct {
	StartTime     string
	EndTime       string
	Weekdays      string
	TimeUnit      time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	PriorityOrder int
}

// SpaceInput captures caller provided space fields.
type SpaceInput struct {
	Name               string
	Description        string
	ReservationEnabled bool
	Timezone           string
	Settings           []SettingInput
}

// Space represents a reservable room with its ordered availability rules.
// Timezone is an IANA name; empty means the service zone.
type Space struct {
	ID                 string
	Name               string
	Description        string
	ReservationEnabled bool
	Timezone           string
	Settings           []availability.Setting
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CreateSpaceParams wraps the data required to create a space.
type CreateSpaceParams struct {
	Principal Principal
	Input     SpaceInput
}

// UpdateSpaceParams wraps the data required to replace a space and its settings.
type UpdateSpaceParams struct {
	Principal Principal
	SpaceID   string
	Input     SpaceInput
}

// SpaceAvailability reports whether a space is free over a requested interval.
type SpaceAvailability struct {
	SpaceID     string
	SpaceName   string
	IsAvailable bool
}

// AvailabilityParams wraps the interval queried across all spaces.
type AvailabilityParams struct {
	Start time.Time
	End   time.Time
}

// ReservationInput captures caller provided reservation fields. GuestName and
// Password are only consulted for guests.
type ReservationInput struct {
	Start       time.Time
	End         time.Time
	GuestName   string
	Password    string
	Description string
}

// Reservation represents a persisted booking on a space.
type Reservation struct {
	ID           string
	SpaceID      string
	Start        time.Time
	End          time.Time
	MemberID     string
	GuestName    string
	PasswordHash string
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsGuest reports whether the reservation was made without a member account.
func (r Reservation) IsGuest() bool {
	return r.MemberID == ""
}

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Principal Principal
	SpaceID   string
	Input     ReservationInput
}

// UpdateReservationParams wraps the data required to update a reservation.
// Password authenticates guests against the existing reservation.
type UpdateReservationParams struct {
	Principal     Principal
	SpaceID       string
	ReservationID string
	Password      string
	Input         ReservationInput
}

// ReservationRef identifies a reservation for get and delete operations.
type ReservationRef struct {
	Principal     Principal
	SpaceID       string
	ReservationID string
	Password      string
}

// ListReservationsParams selects the reservations of one space on one local
// date. Only the calendar fields of Date are used; they are read in the
// space's zone.
type ListReservationsParams struct {
	SpaceID string
	Date    time.Time
}

// ListAllReservationsParams selects every space's reservations on one local date.
type ListAllReservationsParams struct {
	Date time.Time
}

// SpaceReservations groups the reservations of one space.
type SpaceReservations struct {
	Space        Space
	Reservations []Reservation
}

// ReservationPeriod selects a member's reservations relative to now.
type ReservationPeriod string

const (
	PeriodUpcoming ReservationPeriod = "upcoming"
	PeriodPrevious ReservationPeriod = "previous"
)

// PageRequest selects one page of a listing. Page is zero based and a zero
// Size takes the default.
type PageRequest struct {
	Page int
	Size int
}

// ReservationPage is one page of a reservation listing.
type ReservationPage struct {
	Items   []Reservation
	Page    int
	HasNext bool
}

// MemberReservationsParams selects a page of the caller's own reservations.
// An empty Period means upcoming.
type MemberReservationsParams struct {
	Principal Principal
	Period    ReservationPeriod
	Page      PageRequest
}

// GuestReservationsParams selects a page of the guest reservations booked
// under GuestName that end at or after From. A zero From means now.
type GuestReservationsParams struct {
	GuestName string
	From      time.Time
	Page      PageRequest
}
