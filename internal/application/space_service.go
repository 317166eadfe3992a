package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/space-reservation/internal/persistence"
	"github.com/example/space-reservation/internal/reservation"
)

const (
	maxSpaceNameLength        = 100
	maxSpaceDescriptionLength = 500
)

// SpaceRepository captures the persistence operations needed by the service.
type SpaceRepository interface {
	CreateSpace(ctx context.Context, space Space) (Space, error)
	GetSpace(ctx context.Context, id string) (Space, error)
	UpdateSpace(ctx context.Context, space Space) (Space, error)
	DeleteSpace(ctx context.Context, id string) error
	ListSpaces(ctx context.Context) ([]Space, error)
}

// ReservationLedger exposes the reservation queries spaces depend on.
type ReservationLedger interface {
	ListReservations(ctx context.Context, filter ReservationRepositoryFilter) ([]Reservation, error)
	HasReservationsEndingAfter(ctx context.Context, spaceID string, reference time.Time) (bool, error)
}

// SpaceService orchestrates validation, authorization, and persistence for spaces.
type SpaceService struct {
	spaces       SpaceRepository
	reservations ReservationLedger
	cache        *SpaceCache
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewSpaceService constructs a space service with the provided dependencies.
func NewSpaceService(spaces SpaceRepository, reservations ReservationLedger, cache *SpaceCache, idGenerator func() string, now func() time.Time) *SpaceService {
	return NewSpaceServiceWithLogger(spaces, reservations, cache, idGenerator, now, nil)
}

// NewSpaceServiceWithLogger constructs a space service with a specified logger.
func NewSpaceServiceWithLogger(spaces SpaceRepository, reservations ReservationLedger, cache *SpaceCache, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SpaceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SpaceService{
		spaces:       spaces,
		reservations: reservations,
		cache:        cache,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *SpaceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SpaceService", operation, attrs...)
}

// CreateSpace validates input and persists a new space for managers.
func (s *SpaceService) CreateSpace(ctx context.Context, params CreateSpaceParams) (space Space, err error) {
	if s == nil {
		err = fmt.Errorf("SpaceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSpace",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		logOutcome(ctx, logger.With("space_id", space.ID), err, "space created", "failed to create space")
	}()

	if !params.Principal.IsManager {
		err = ErrUnauthorized
		return
	}

	candidate, err := s.buildSpace(params.Input)
	if err != nil {
		return
	}

	candidate.ID = s.idGenerator()
	candidate.CreatedAt = s.now()
	candidate.UpdatedAt = candidate.CreatedAt

	if s.spaces == nil {
		space = candidate
		return
	}

	space, err = s.spaces.CreateSpace(ctx, candidate)
	if err != nil {
		err = mapSpaceRepoError(err)
		space = Space{}
		return
	}
	return
}

// UpdateSpace replaces the attributes and the whole setting list of a space.
func (s *SpaceService) UpdateSpace(ctx context.Context, params UpdateSpaceParams) (space Space, err error) {
	if s == nil {
		err = fmt.Errorf("SpaceService is nil")
		return
	}
	if s.spaces == nil {
		err = fmt.Errorf("space repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSpace",
		"principal_id", params.Principal.UserID,
		"space_id", params.SpaceID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "space updated", "failed to update space")
	}()

	if !params.Principal.IsManager {
		err = ErrUnauthorized
		return
	}

	var existing Space
	existing, err = s.spaces.GetSpace(ctx, params.SpaceID)
	if err != nil {
		err = mapSpaceRepoError(err)
		return
	}

	candidate, err := s.buildSpace(params.Input)
	if err != nil {
		return
	}

	updated := existing
	updated.Name = candidate.Name
	updated.Description = candidate.Description
	updated.ReservationEnabled = candidate.ReservationEnabled
	updated.Timezone = candidate.Timezone
	updated.Settings = candidate.Settings
	updated.UpdatedAt = s.now()

	space, err = s.spaces.UpdateSpace(ctx, updated)
	s.cache.Invalidate(params.SpaceID)
	if err != nil {
		err = mapSpaceRepoError(err)
		space = Space{}
		return
	}
	return
}

// GetSpace returns a single space with its settings.
func (s *SpaceService) GetSpace(ctx context.Context, spaceID string) (Space, error) {
	if s == nil {
		return Space{}, fmt.Errorf("SpaceService is nil")
	}
	if s.spaces == nil {
		return Space{}, ErrNotFound
	}
	var (
		space Space
		err   error
	)
	if s.cache != nil {
		space, err = s.cache.GetSpace(ctx, spaceID)
	} else {
		space, err = s.spaces.GetSpace(ctx, spaceID)
	}
	if err != nil {
		return Space{}, mapSpaceRepoError(err)
	}
	return space, nil
}

// ListSpaces returns every space ordered by name.
func (s *SpaceService) ListSpaces(ctx context.Context) (spaces []Space, err error) {
	if s == nil {
		err = fmt.Errorf("SpaceService is nil")
		return
	}
	if s.spaces == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListSpaces")
	defer func() {
		logOutcome(ctx, logger.With("result_count", len(spaces)), err, "spaces listed", "failed to list spaces")
	}()

	var raw []Space
	raw, err = s.spaces.ListSpaces(ctx)
	if err != nil {
		err = mapSpaceRepoError(err)
		return
	}

	spaces = make([]Space, len(raw))
	copy(spaces, raw)
	sortSpaces(spaces)
	return
}

// DeleteSpace removes a space unless a reservation on it has not yet ended.
func (s *SpaceService) DeleteSpace(ctx context.Context, principal Principal, spaceID string) (err error) {
	if s == nil {
		return fmt.Errorf("SpaceService is nil")
	}
	if s.spaces == nil {
		return fmt.Errorf("space repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteSpace",
		"principal_id", principal.UserID,
		"space_id", spaceID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "space deleted", "failed to delete space")
	}()

	if !principal.IsManager {
		return ErrUnauthorized
	}

	if _, err = s.spaces.GetSpace(ctx, spaceID); err != nil {
		return mapSpaceRepoError(err)
	}

	if s.reservations != nil {
		var pending bool
		pending, err = s.reservations.HasReservationsEndingAfter(ctx, spaceID, s.now())
		if err != nil {
			return err
		}
		if pending {
			return ErrReservationExistsOnSpace
		}
	}

	err = s.spaces.DeleteSpace(ctx, spaceID)
	s.cache.Invalidate(spaceID)
	if err != nil {
		return mapSpaceRepoError(err)
	}
	return nil
}

// Availability reports, for every space, whether [Start, End) is free of reservations.
func (s *SpaceService) Availability(ctx context.Context, params AvailabilityParams) (result []SpaceAvailability, err error) {
	if s == nil {
		err = fmt.Errorf("SpaceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Availability",
		"start", params.Start,
		"end", params.End,
	)
	defer func() {
		logOutcome(ctx, logger.With("result_count", len(result)), err, "availability computed", "failed to compute availability")
	}()

	if params.Start.IsZero() || params.End.IsZero() {
		vErr := &ValidationError{}
		if params.Start.IsZero() {
			vErr.add("start", "start is required")
		}
		if params.End.IsZero() {
			vErr.add("end", "end is required")
		}
		err = vErr
		return
	}
	if !params.Start.Before(params.End) {
		err = reservation.ErrImpossibleStartEndTime
		return
	}
	if s.spaces == nil {
		return nil, nil
	}

	var spaces []Space
	spaces, err = s.spaces.ListSpaces(ctx)
	if err != nil {
		err = mapSpaceRepoError(err)
		return
	}
	sortSpaces(spaces)

	busy := make(map[string]bool)
	if s.reservations != nil {
		from, to := params.Start.UTC(), params.End.UTC()
		var overlapping []Reservation
		overlapping, err = s.reservations.ListReservations(ctx, ReservationRepositoryFilter{From: &from, To: &to})
		if err != nil {
			return
		}
		for _, item := range overlapping {
			busy[item.SpaceID] = true
		}
	}

	result = make([]SpaceAvailability, 0, len(spaces))
	for _, space := range spaces {
		result = append(result, SpaceAvailability{
			SpaceID:     space.ID,
			SpaceName:   space.Name,
			IsAvailable: !busy[space.ID],
		})
	}
	return
}

func (s *SpaceService) buildSpace(input SpaceInput) (Space, error) {
	vErr := &ValidationError{}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr.add("name", "name is required")
	} else if utf8.RuneCountInString(name) > maxSpaceNameLength {
		vErr.add("name", fmt.Sprintf("name must be at most %d characters", maxSpaceNameLength))
	}
	description := strings.TrimSpace(input.Description)
	if utf8.RuneCountInString(description) > maxSpaceDescriptionLength {
		vErr.add("description", fmt.Sprintf("description must be at most %d characters", maxSpaceDescriptionLength))
	}

	timezone := strings.TrimSpace(input.Timezone)
	if timezone != "" {
		if _, err := reservation.LoadZone(timezone); err != nil {
			vErr.add("timezone", "timezone must be an IANA zone name")
		}
	}

	settings, err := buildSettings(input.Settings)
	if err != nil {
		var settingsErr *ValidationError
		if !errors.As(err, &settingsErr) {
			return Space{}, err
		}
		vErr.merge(settingsErr)
	}
	if vErr.HasErrors() {
		return Space{}, vErr
	}

	return Space{
		Name:               name,
		Description:        description,
		ReservationEnabled: input.ReservationEnabled,
		Timezone:           timezone,
		Settings:           settings,
	}, nil
}

func sortSpaces(spaces []Space) {
	sort.Slice(spaces, func(i, j int) bool {
		if strings.EqualFold(spaces[i].Name, spaces[j].Name) {
			return spaces[i].ID < spaces[j].ID
		}
		return strings.ToLower(spaces[i].Name) < strings.ToLower(spaces[j].Name)
	})
}

func mapSpaceRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		vErr := &ValidationError{}
		vErr.add("name", "a space with this name already exists")
		return vErr
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return ErrReservationExistsOnSpace
	}
	return err
}
