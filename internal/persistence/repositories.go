package persistence

import (
	"context"
	"time"
)

// SpaceRepository exposes CRUD operations for spaces. Settings are written and
// read together with their space.
type SpaceRepository interface {
	CreateSpace(ctx context.Context, space Space) error
	UpdateSpace(ctx context.Context, space Space) error
	GetSpace(ctx context.Context, id string) (Space, error)
	ListSpaces(ctx context.Context) ([]Space, error)
	DeleteSpace(ctx context.Context, id string) error
}

// ReservationFilter narrows reservation queries. From and To select
// reservations overlapping [From, To); an empty SpaceID matches every space.
// GuestName only matches reservations made without a member account.
// EndsAtOrAfter and EndsAtOrBefore bound end times inclusively. Results are
// ordered by start then ID, reversed when Descending is set; Limit 0 means
// no limit.
type ReservationFilter struct {
	SpaceID        string
	MemberID       string
	GuestName      string
	From           *time.Time
	To             *time.Time
	EndsAtOrAfter  *time.Time
	EndsAtOrBefore *time.Time
	Descending     bool
	Limit          int
	Offset         int
}

// ReservationRepository stores reservations. CreateReservation and
// UpdateReservation return ErrConflict instead of storing an interval that
// overlaps another reservation of the same space.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	ExistsEndingAfter(ctx context.Context, spaceID string, reference time.Time) (bool, error)
}
