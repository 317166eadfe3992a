package application

import (
	"github.com/example/space-reservation/internal/availability"
	"github.com/example/space-reservation/internal/reservation"
)

func toEngineSpace(space Space) (reservation.Space, error) {
	items := space.Settings
	if len(items) == 0 {
		items = []availability.Setting{availability.DefaultSetting()}
	}
	settings, err := availability.NewSettings(items)
	if err != nil {
		return reservation.Space{}, err
	}
	engineSpace := reservation.Space{
		ID:                 space.ID,
		Name:               space.Name,
		ReservationEnabled: space.ReservationEnabled,
		Settings:           settings,
	}
	if space.Timezone != "" {
		zone, err := reservation.LoadZone(space.Timezone)
		if err != nil {
			return reservation.Space{}, err
		}
		engineSpace.Location = zone.Location()
	}
	return engineSpace, nil
}

func toEngineReservation(r Reservation) reservation.Reservation {
	return reservation.Reservation{
		ID:      r.ID,
		SpaceID: r.SpaceID,
		Interval: reservation.Interval{
			Start: r.Start.UTC(),
			End:   r.End.UTC(),
		},
		Owner: reservation.Owner{
			MemberID:  r.MemberID,
			GuestName: r.GuestName,
		},
		Description: r.Description,
	}
}

func toEngineReservations(items []Reservation) []reservation.Reservation {
	if len(items) == 0 {
		return nil
	}
	out := make([]reservation.Reservation, 0, len(items))
	for _, item := range items {
		out = append(out, toEngineReservation(item))
	}
	return out
}
