package main

import (
	"context"
	"fmt"
	"time"

	"github.com/example/space-reservation/internal/application"
	"github.com/example/space-reservation/internal/availability"
	"github.com/example/space-reservation/internal/persistence"
)

type spaceRepositoryAdapter struct {
	repo persistence.SpaceRepository
}

func newSpaceRepositoryAdapter(repo persistence.SpaceRepository) *spaceRepositoryAdapter {
	return &spaceRepositoryAdapter{repo: repo}
}

func (a *spaceRepositoryAdapter) CreateSpace(ctx context.Context, space application.Space) (application.Space, error) {
	if err := a.repo.CreateSpace(ctx, toPersistenceSpace(space)); err != nil {
		return application.Space{}, err
	}
	return a.GetSpace(ctx, space.ID)
}

func (a *spaceRepositoryAdapter) GetSpace(ctx context.Context, id string) (application.Space, error) {
	stored, err := a.repo.GetSpace(ctx, id)
	if err != nil {
		return application.Space{}, err
	}
	return toApplicationSpace(stored)
}

func (a *spaceRepositoryAdapter) UpdateSpace(ctx context.Context, space application.Space) (application.Space, error) {
	if err := a.repo.UpdateSpace(ctx, toPersistenceSpace(space)); err != nil {
		return application.Space{}, err
	}
	return a.GetSpace(ctx, space.ID)
}

func (a *spaceRepositoryAdapter) DeleteSpace(ctx context.Context, id string) error {
	return a.repo.DeleteSpace(ctx, id)
}

func (a *spaceRepositoryAdapter) ListSpaces(ctx context.Context) ([]application.Space, error) {
	models, err := a.repo.ListSpaces(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	spaces := make([]application.Space, 0, len(models))
	for _, model := range models {
		space, err := toApplicationSpace(model)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, space)
	}
	return spaces, nil
}

type reservationRepositoryAdapter struct {
	repo persistence.ReservationRepository
}

func newReservationRepositoryAdapter(repo persistence.ReservationRepository) *reservationRepositoryAdapter {
	return &reservationRepositoryAdapter{repo: repo}
}

func (a *reservationRepositoryAdapter) CreateReservation(ctx context.Context, r application.Reservation) (application.Reservation, error) {
	if err := a.repo.CreateReservation(ctx, toPersistenceReservation(r)); err != nil {
		return application.Reservation{}, err
	}
	return a.GetReservation(ctx, r.ID)
}

func (a *reservationRepositoryAdapter) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) UpdateReservation(ctx context.Context, r application.Reservation) (application.Reservation, error) {
	if err := a.repo.UpdateReservation(ctx, toPersistenceReservation(r)); err != nil {
		return application.Reservation{}, err
	}
	return a.GetReservation(ctx, r.ID)
}

func (a *reservationRepositoryAdapter) DeleteReservation(ctx context.Context, id string) error {
	return a.repo.DeleteReservation(ctx, id)
}

func (a *reservationRepositoryAdapter) ListReservations(ctx context.Context, filter application.ReservationRepositoryFilter) ([]application.Reservation, error) {
	models, err := a.repo.ListReservations(ctx, persistence.ReservationFilter{
		SpaceID:        filter.SpaceID,
		MemberID:       filter.MemberID,
		GuestName:      filter.GuestName,
		From:           cloneTime(filter.From),
		To:             cloneTime(filter.To),
		EndsAtOrAfter:  cloneTime(filter.EndsAtOrAfter),
		EndsAtOrBefore: cloneTime(filter.EndsAtOrBefore),
		Descending:     filter.Descending,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	items := make([]application.Reservation, 0, len(models))
	for _, model := range models {
		items = append(items, toApplicationReservation(model))
	}
	return items, nil
}

func (a *reservationRepositoryAdapter) HasReservationsEndingAfter(ctx context.Context, spaceID string, reference time.Time) (bool, error) {
	return a.repo.ExistsEndingAfter(ctx, spaceID, reference)
}

func toApplicationSpace(model persistence.Space) (application.Space, error) {
	settings := make([]availability.Setting, 0, len(model.Settings))
	for _, stored := range model.Settings {
		setting, err := toAvailabilitySetting(stored)
		if err != nil {
			return application.Space{}, fmt.Errorf("space %s: %w", model.ID, err)
		}
		settings = append(settings, setting)
	}
	return application.Space{
		ID:                 model.ID,
		Name:               model.Name,
		Description:        model.Description,
		ReservationEnabled: model.ReservationEnabled,
		Timezone:           derefString(model.Timezone),
		Settings:           settings,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}, nil
}

func toPersistenceSpace(space application.Space) persistence.Space {
	settings := make([]persistence.Setting, 0, len(space.Settings))
	for _, setting := range space.Settings {
		settings = append(settings, toPersistenceSetting(space.ID, setting))
	}
	return persistence.Space{
		ID:                 space.ID,
		Name:               space.Name,
		Description:        space.Description,
		ReservationEnabled: space.ReservationEnabled,
		Timezone:           optionalString(space.Timezone),
		Settings:           settings,
		CreatedAt:          space.CreatedAt,
		UpdatedAt:          space.UpdatedAt,
	}
}

func toPersistenceSetting(spaceID string, setting availability.Setting) persistence.Setting {
	return persistence.Setting{
		SpaceID:         spaceID,
		PriorityOrder:   setting.PriorityOrder,
		StartTime:       setting.Slot.Start().String(),
		EndTime:         setting.Slot.End().String(),
		Weekdays:        setting.Weekdays.String(),
		TimeUnitMinutes: int(setting.Unit / time.Minute),
		MinimumMinutes:  int(setting.MinDuration / time.Minute),
		MaximumMinutes:  int(setting.MaxDuration / time.Minute),
	}
}

func toAvailabilitySetting(stored persistence.Setting) (availability.Setting, error) {
	slot, err := availability.ParseTimeSlot(stored.StartTime, stored.EndTime)
	if err != nil {
		return availability.Setting{}, fmt.Errorf("setting %d: %w", stored.PriorityOrder, err)
	}
	weekdays, err := availability.ParseWeekdays(stored.Weekdays)
	if err != nil {
		return availability.Setting{}, fmt.Errorf("setting %d: %w", stored.PriorityOrder, err)
	}
	return availability.Setting{
		Slot:          slot,
		Weekdays:      weekdays,
		Unit:          time.Duration(stored.TimeUnitMinutes) * time.Minute,
		MinDuration:   time.Duration(stored.MinimumMinutes) * time.Minute,
		MaxDuration:   time.Duration(stored.MaximumMinutes) * time.Minute,
		PriorityOrder: stored.PriorityOrder,
	}, nil
}

func toApplicationReservation(model persistence.Reservation) application.Reservation {
	return application.Reservation{
		ID:           model.ID,
		SpaceID:      model.SpaceID,
		Start:        model.Start,
		End:          model.End,
		MemberID:     derefString(model.MemberID),
		GuestName:    derefString(model.GuestName),
		PasswordHash: derefString(model.PasswordHash),
		Description:  model.Description,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func toPersistenceReservation(r application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:           r.ID,
		SpaceID:      r.SpaceID,
		Start:        r.Start,
		End:          r.End,
		MemberID:     optionalString(r.MemberID),
		GuestName:    optionalString(r.GuestName),
		PasswordHash: optionalString(r.PasswordHash),
		Description:  r.Description,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
