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
	maxGuestNameLength   = 20
	maxDescriptionLength = 100
	guestPasswordLength  = 4

	defaultPageSize = 20
	maxPageSize     = 100
)

// ReservationRepository captures the persistence interactions needed by the service.
// CreateReservation and UpdateReservation must refuse to store an interval that
// overlaps another reservation of the same space.
type ReservationRepository interface {
	ReservationLedger
	CreateReservation(ctx context.Context, r Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	UpdateReservation(ctx context.Context, r Reservation) (Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
}

// ReservationRepositoryFilter narrows reservation queries. From and To select
// reservations overlapping [From, To); an empty SpaceID matches every space.
// GuestName only matches reservations made without a member account, and the
// EndsAt bounds are inclusive. Results come ordered by start then ID, newest
// first when Descending is set. Limit 0 means no limit.
type ReservationRepositoryFilter struct {
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

// ValidationObserver records the outcome of every validator run.
type ValidationObserver interface {
	ObserveValidation(operation, outcome string)
}

// ReservationService orchestrates validation, ownership checks, and persistence for reservations.
type ReservationService struct {
	reservations ReservationRepository
	spaces       SpaceReader
	validator    *reservation.Validator
	hasher       PasswordHasher
	observer     ValidationObserver
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewReservationService wires dependencies for reservation operations.
func NewReservationService(reservations ReservationRepository, spaces SpaceReader, validator *reservation.Validator, hasher PasswordHasher, idGenerator func() string, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(reservations, spaces, validator, hasher, nil, idGenerator, now, nil)
}

// NewReservationServiceWithLogger wires dependencies with an observer and a specified logger.
func NewReservationServiceWithLogger(reservations ReservationRepository, spaces SpaceReader, validator *reservation.Validator, hasher PasswordHasher, observer ValidationObserver, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if validator == nil {
		validator = reservation.NewValidator(reservation.NewZone(time.UTC), now)
	}
	if hasher == nil {
		hasher = NewArgon2idHasher(DefaultArgon2idParams)
	}
	return &ReservationService{
		reservations: reservations,
		spaces:       spaces,
		validator:    validator,
		hasher:       hasher,
		observer:     observer,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CreateReservation validates the request against the space's rules and
// existing bookings before persisting it.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (created Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.spaces == nil {
		err = fmt.Errorf("reservation service not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateReservation",
		"principal_id", params.Principal.UserID,
		"space_id", params.SpaceID,
	)
	defer func() {
		logOutcome(ctx, logger.With("reservation_id", created.ID), err, "reservation created", "failed to create reservation")
	}()

	input := params.Input
	vErr := validateReservationInput(input)
	if params.Principal.IsGuest() {
		validateGuestInput(input, vErr)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	space, engineSpace, err := s.loadSpace(ctx, params.SpaceID)
	if err != nil {
		return
	}

	existing, err := s.reservationsAround(ctx, engineSpace, input.Start)
	if err != nil {
		return
	}

	requested := reservation.Interval{Start: input.Start, End: input.End}
	validated, err := s.validator.ValidateForCreate(engineSpace, requested, toEngineReservations(existing))
	s.observe("create", err)
	if err != nil {
		return
	}

	createdAt := s.now()
	candidate := Reservation{
		ID:          s.idGenerator(),
		SpaceID:     space.ID,
		Start:       validated.Interval.Start,
		End:         validated.Interval.End,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if params.Principal.IsGuest() {
		candidate.GuestName = strings.TrimSpace(input.GuestName)
		candidate.PasswordHash, err = s.hasher.Hash(input.Password)
		if err != nil {
			err = fmt.Errorf("hash reservation password: %w", err)
			return
		}
	} else {
		candidate.MemberID = params.Principal.UserID
	}

	created, err = s.reservations.CreateReservation(ctx, candidate)
	if err != nil {
		err = mapReservationRepoError(err)
		created = Reservation{}
		return
	}
	return
}

// UpdateReservation moves or edits an existing reservation after checking ownership.
func (s *ReservationService) UpdateReservation(ctx context.Context, params UpdateReservationParams) (updated Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.spaces == nil {
		err = fmt.Errorf("reservation service not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateReservation",
		"principal_id", params.Principal.UserID,
		"space_id", params.SpaceID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "reservation updated", "failed to update reservation")
	}()

	input := params.Input
	vErr := validateReservationInput(input)
	if strings.TrimSpace(input.GuestName) != "" {
		validateGuestName(input.GuestName, vErr)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	_, engineSpace, err := s.loadSpace(ctx, params.SpaceID)
	if err != nil {
		return
	}

	current, err := s.loadReservation(ctx, params.SpaceID, params.ReservationID)
	if err != nil {
		return
	}
	if err = s.authorizeOwner(params.Principal, current, params.Password); err != nil {
		return
	}

	existing, err := s.reservationsAround(ctx, engineSpace, input.Start)
	if err != nil {
		return
	}

	requested := reservation.Interval{Start: input.Start, End: input.End}
	validated, err := s.validator.ValidateForUpdate(engineSpace, toEngineReservation(current), requested, toEngineReservations(existing))
	s.observe("update", err)
	if err != nil {
		return
	}

	next := current
	next.Start = validated.Interval.Start
	next.End = validated.Interval.End
	next.Description = strings.TrimSpace(input.Description)
	if current.IsGuest() && strings.TrimSpace(input.GuestName) != "" {
		next.GuestName = strings.TrimSpace(input.GuestName)
	}
	next.UpdatedAt = s.now()

	updated, err = s.reservations.UpdateReservation(ctx, next)
	if err != nil {
		err = mapReservationRepoError(err)
		updated = Reservation{}
		return
	}
	return
}

// DeleteReservation removes a reservation the caller owns, subject to its lifecycle state.
func (s *ReservationService) DeleteReservation(ctx context.Context, ref ReservationRef) (err error) {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteReservation",
		"principal_id", ref.Principal.UserID,
		"space_id", ref.SpaceID,
		"reservation_id", ref.ReservationID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "reservation deleted", "failed to delete reservation")
	}()

	current, err := s.loadReservation(ctx, ref.SpaceID, ref.ReservationID)
	if err != nil {
		return err
	}
	if err = s.authorizeOwner(ref.Principal, current, ref.Password); err != nil {
		return err
	}
	if err = reservation.CanDelete(toEngineReservation(current), s.now(), ref.Principal.IsManager); err != nil {
		return err
	}

	if err = s.reservations.DeleteReservation(ctx, current.ID); err != nil {
		return mapReservationRepoError(err)
	}
	return nil
}

// GetReservation returns a reservation to its owner or a manager.
func (s *ReservationService) GetReservation(ctx context.Context, ref ReservationRef) (Reservation, error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return Reservation{}, ErrNotFound
	}

	current, err := s.loadReservation(ctx, ref.SpaceID, ref.ReservationID)
	if err != nil {
		return Reservation{}, err
	}
	if err := s.authorizeOwner(ref.Principal, current, ref.Password); err != nil {
		return Reservation{}, err
	}
	return current, nil
}

// ListReservations returns the reservations of a space on the local date of params.Date, ordered by start.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) (items []Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.spaces == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListReservations",
		"space_id", params.SpaceID,
	)
	defer func() {
		logOutcome(ctx, logger.With("result_count", len(items)), err, "reservations listed", "failed to list reservations")
	}()

	if params.Date.IsZero() {
		vErr := &ValidationError{}
		vErr.add("date", "date is required")
		err = vErr
		return
	}

	_, engineSpace, err := s.loadSpace(ctx, params.SpaceID)
	if err != nil {
		return
	}

	from, to := s.dayBounds(engineSpace, params.Date)
	items, err = s.reservations.ListReservations(ctx, ReservationRepositoryFilter{
		SpaceID: params.SpaceID,
		From:    &from,
		To:      &to,
	})
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	sortByStart(items)
	return
}

// ListAllReservations returns every space with its reservations on the local
// date of params.Date, spaces ordered by name. Each space's day is read in its
// own zone.
func (s *ReservationService) ListAllReservations(ctx context.Context, params ListAllReservationsParams) (result []SpaceReservations, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.spaces == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListAllReservations")
	defer func() {
		logOutcome(ctx, logger.With("space_count", len(result)), err, "reservations listed", "failed to list reservations")
	}()

	if params.Date.IsZero() {
		vErr := &ValidationError{}
		vErr.add("date", "date is required")
		err = vErr
		return
	}

	var spaces []Space
	spaces, err = s.spaces.ListSpaces(ctx)
	if err != nil {
		err = mapSpaceRepoError(err)
		return
	}
	if len(spaces) == 0 {
		return []SpaceReservations{}, nil
	}
	sortSpaces(spaces)

	type window struct{ from, to time.Time }
	windows := make([]window, len(spaces))
	var from, to time.Time
	for i, space := range spaces {
		engineSpace, convErr := toEngineSpace(space)
		if convErr != nil {
			err = fmt.Errorf("space %s has invalid settings: %w", space.ID, convErr)
			return
		}
		lo, hi := s.dayBounds(engineSpace, params.Date)
		windows[i] = window{from: lo, to: hi}
		if i == 0 || lo.Before(from) {
			from = lo
		}
		if i == 0 || hi.After(to) {
			to = hi
		}
	}

	var items []Reservation
	items, err = s.reservations.ListReservations(ctx, ReservationRepositoryFilter{From: &from, To: &to})
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	bySpace := make(map[string][]Reservation)
	for _, item := range items {
		bySpace[item.SpaceID] = append(bySpace[item.SpaceID], item)
	}

	result = make([]SpaceReservations, 0, len(spaces))
	for i, space := range spaces {
		var own []Reservation
		for _, item := range bySpace[space.ID] {
			if item.Start.Before(windows[i].to) && item.End.After(windows[i].from) {
				own = append(own, item)
			}
		}
		sortByStart(own)
		result = append(result, SpaceReservations{Space: space, Reservations: own})
	}
	return
}

// ListMemberReservations pages through the caller's own reservations. Upcoming
// ones end at or after now, oldest first; previous ones ended at or before
// now, newest first.
func (s *ReservationService) ListMemberReservations(ctx context.Context, params MemberReservationsParams) (page ReservationPage, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListMemberReservations",
		"principal_id", params.Principal.UserID,
		"period", string(params.Period),
	)
	defer func() {
		logOutcome(ctx, logger.With("result_count", len(page.Items)), err, "member reservations listed", "failed to list member reservations")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	size := pageSize(params.Page, vErr)
	now := s.now()
	filter := ReservationRepositoryFilter{MemberID: params.Principal.UserID}
	switch params.Period {
	case PeriodUpcoming, "":
		filter.EndsAtOrAfter = &now
	case PeriodPrevious:
		filter.EndsAtOrBefore = &now
		filter.Descending = true
	default:
		vErr.add("when", fmt.Sprintf("when must be %q or %q", PeriodUpcoming, PeriodPrevious))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	page, err = s.listPage(ctx, filter, params.Page.Page, size)
	return
}

// ListGuestReservations pages through the guest reservations booked under a
// name that end at or after params.From, oldest first.
func (s *ReservationService) ListGuestReservations(ctx context.Context, params GuestReservationsParams) (page ReservationPage, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	name := strings.TrimSpace(params.GuestName)
	logger := s.loggerWith(ctx, "ListGuestReservations")
	defer func() {
		logOutcome(ctx, logger.With("result_count", len(page.Items)), err, "guest reservations listed", "failed to list guest reservations")
	}()

	vErr := &ValidationError{}
	validateGuestName(name, vErr)
	size := pageSize(params.Page, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	from := params.From
	if from.IsZero() {
		from = s.now()
	}
	from = from.UTC()
	page, err = s.listPage(ctx, ReservationRepositoryFilter{GuestName: name, EndsAtOrAfter: &from}, params.Page.Page, size)
	return
}

// listPage fetches one extra row to learn whether another page follows.
func (s *ReservationService) listPage(ctx context.Context, filter ReservationRepositoryFilter, page, size int) (ReservationPage, error) {
	if s.reservations == nil {
		return ReservationPage{Page: page}, nil
	}
	filter.Limit = size + 1
	filter.Offset = page * size
	items, err := s.reservations.ListReservations(ctx, filter)
	if err != nil {
		return ReservationPage{}, mapReservationRepoError(err)
	}
	result := ReservationPage{Page: page}
	if len(items) > size {
		items = items[:size]
		result.HasNext = true
	}
	result.Items = items
	return result, nil
}

// dayBounds returns the UTC bounds of the calendar day written in date, read
// in the zone of space.
func (s *ReservationService) dayBounds(space reservation.Space, date time.Time) (time.Time, time.Time) {
	zone := s.validator.ZoneFor(space)
	y, m, d := date.Date()
	return zone.DayBounds(time.Date(y, m, d, 0, 0, 0, 0, zone.Location()))
}

func (s *ReservationService) loadSpace(ctx context.Context, spaceID string) (Space, reservation.Space, error) {
	space, err := s.spaces.GetSpace(ctx, spaceID)
	if err != nil {
		return Space{}, reservation.Space{}, mapSpaceRepoError(err)
	}
	engineSpace, err := toEngineSpace(space)
	if err != nil {
		return Space{}, reservation.Space{}, fmt.Errorf("space %s has invalid settings: %w", spaceID, err)
	}
	return space, engineSpace, nil
}

func (s *ReservationService) loadReservation(ctx context.Context, spaceID, reservationID string) (Reservation, error) {
	current, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, mapReservationRepoError(err)
	}
	if spaceID != "" && current.SpaceID != spaceID {
		return Reservation{}, ErrNotFound
	}
	return current, nil
}

// reservationsAround fetches the bookings that could collide with a request
// starting at start, padded by a day on both sides of its local date.
func (s *ReservationService) reservationsAround(ctx context.Context, space reservation.Space, start time.Time) ([]Reservation, error) {
	from, to := s.validator.ZoneFor(space).LookupWindow(start)
	items, err := s.reservations.ListReservations(ctx, ReservationRepositoryFilter{
		SpaceID: space.ID,
		From:    &from,
		To:      &to,
	})
	if err != nil {
		return nil, mapReservationRepoError(err)
	}
	return items, nil
}

func (s *ReservationService) authorizeOwner(principal Principal, current Reservation, password string) error {
	if principal.IsManager {
		return nil
	}
	if current.IsGuest() {
		if password == "" {
			return ErrInvalidPassword
		}
		if err := s.hasher.Verify(current.PasswordHash, password); err != nil {
			if errors.Is(err, ErrInvalidPassword) {
				return ErrInvalidPassword
			}
			return fmt.Errorf("verify reservation password: %w", err)
		}
		return nil
	}
	if principal.UserID == "" || principal.UserID != current.MemberID {
		return ErrUnauthorized
	}
	return nil
}

func (s *ReservationService) observe(operation string, err error) {
	if s.observer == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = ErrorKind(err)
	}
	s.observer.ObserveValidation(operation, outcome)
}

func pageSize(req PageRequest, vErr *ValidationError) int {
	size := req.Size
	if size == 0 {
		size = defaultPageSize
	}
	if size < 0 || size > maxPageSize {
		vErr.add("size", fmt.Sprintf("size must be between 1 and %d", maxPageSize))
	}
	if req.Page < 0 {
		vErr.add("page", "page must not be negative")
	}
	return size
}

func sortByStart(items []Reservation) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Start.Equal(items[j].Start) {
			return items[i].ID < items[j].ID
		}
		return items[i].Start.Before(items[j].Start)
	})
}

func validateReservationInput(input ReservationInput) *ValidationError {
	vErr := &ValidationError{}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if utf8.RuneCountInString(strings.TrimSpace(input.Description)) > maxDescriptionLength {
		vErr.add("description", fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}
	return vErr
}

func validateGuestInput(input ReservationInput, vErr *ValidationError) {
	validateGuestName(input.GuestName, vErr)
	if !isGuestPassword(input.Password) {
		vErr.add("password", fmt.Sprintf("password must be %d digits", guestPasswordLength))
	}
}

func validateGuestName(name string, vErr *ValidationError) {
	name = strings.TrimSpace(name)
	if name == "" {
		vErr.add("name", "name is required")
		return
	}
	if utf8.RuneCountInString(name) > maxGuestNameLength {
		vErr.add("name", fmt.Sprintf("name must be at most %d characters", maxGuestNameLength))
	}
}

func isGuestPassword(password string) bool {
	if len(password) != guestPasswordLength {
		return false
	}
	for _, r := range password {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConflict) {
		return reservation.ErrReservationAlreadyExists
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return ErrNotFound
	}
	return err
}
