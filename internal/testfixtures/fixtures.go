package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/space-reservation/internal/application"
	"github.com/example/space-reservation/internal/availability"
	"github.com/example/space-reservation/internal/persistence"
)

var (
	spaceCounter       uint64
	reservationCounter uint64
)

// referenceTime is Wednesday 10:00 in UTC+9, an instant inside the default
// fixture setting.
var referenceTime = time.Date(2024, time.January, 3, 1, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ---------------------------- Setting fixtures ----------------------------

// SettingFixture is an availability rule expressed in the storage vocabulary:
// "HH:MM" times, a weekday label and whole minutes.
type SettingFixture struct {
	PriorityOrder   int
	StartTime       string
	EndTime         string
	Weekdays        string
	TimeUnitMinutes int
	MinimumMinutes  int
	MaximumMinutes  int
}

// SettingOption configures the generated setting fixture.
type SettingOption func(*SettingFixture)

// NewSettingFixture returns a weekday 10:00-22:00 rule with 30 minute units,
// one hour minimum and two hour maximum.
func NewSettingFixture(opts ...SettingOption) SettingFixture {
	fixture := SettingFixture{
		PriorityOrder:   1,
		StartTime:       "10:00",
		EndTime:         "22:00",
		Weekdays:        "mon,tue,wed,thu,fri",
		TimeUnitMinutes: 30,
		MinimumMinutes:  60,
		MaximumMinutes:  120,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSettingPriority overrides the priority order.
func WithSettingPriority(order int) SettingOption {
	return func(f *SettingFixture) {
		f.PriorityOrder = order
	}
}

// WithSettingWindow overrides the daily time window.
func WithSettingWindow(start, end string) SettingOption {
	return func(f *SettingFixture) {
		f.StartTime = start
		f.EndTime = end
	}
}

// WithSettingWeekdays overrides the weekday label.
func WithSettingWeekdays(label string) SettingOption {
	return func(f *SettingFixture) {
		f.Weekdays = label
	}
}

// WithSettingDurations overrides the unit and duration bounds, in minutes.
func WithSettingDurations(unit, minimum, maximum int) SettingOption {
	return func(f *SettingFixture) {
		f.TimeUnitMinutes = unit
		f.MinimumMinutes = minimum
		f.MaximumMinutes = maximum
	}
}

// Persistence returns the fixture as a persistence.Setting owned by spaceID.
func (f SettingFixture) Persistence(spaceID string) persistence.Setting {
	return persistence.Setting{
		SpaceID:         spaceID,
		PriorityOrder:   f.PriorityOrder,
		StartTime:       f.StartTime,
		EndTime:         f.EndTime,
		Weekdays:        f.Weekdays,
		TimeUnitMinutes: f.TimeUnitMinutes,
		MinimumMinutes:  f.MinimumMinutes,
		MaximumMinutes:  f.MaximumMinutes,
	}
}

// Input returns the fixture as an application.SettingInput.
func (f SettingFixture) Input() application.SettingInput {
	return application.SettingInput{
		StartTime:     f.StartTime,
		EndTime:       f.EndTime,
		Weekdays:      f.Weekdays,
		TimeUnit:      time.Duration(f.TimeUnitMinutes) * time.Minute,
		MinDuration:   time.Duration(f.MinimumMinutes) * time.Minute,
		MaxDuration:   time.Duration(f.MaximumMinutes) * time.Minute,
		PriorityOrder: f.PriorityOrder,
	}
}

// Availability returns the fixture as an availability.Setting. It panics when
// the fixture holds an unparsable time or weekday label.
func (f SettingFixture) Availability() availability.Setting {
	slot, err := availability.ParseTimeSlot(f.StartTime, f.EndTime)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: setting %d: %v", f.PriorityOrder, err))
	}
	days, err := availability.ParseWeekdays(f.Weekdays)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: setting %d: %v", f.PriorityOrder, err))
	}
	return availability.Setting{
		Slot:          slot,
		Weekdays:      days,
		Unit:          time.Duration(f.TimeUnitMinutes) * time.Minute,
		MinDuration:   time.Duration(f.MinimumMinutes) * time.Minute,
		MaxDuration:   time.Duration(f.MaximumMinutes) * time.Minute,
		PriorityOrder: f.PriorityOrder,
	}
}

// ----------------------------- Space fixtures -----------------------------

// SpaceFixture represents a deterministic space record.
type SpaceFixture struct {
	ID                 string
	Name               string
	Description        string
	ReservationEnabled bool
	Settings           []SettingFixture
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SpaceOption configures the generated space fixture.
type SpaceOption func(*SpaceFixture)

// NewSpaceFixture returns a deterministic, bookable space with the default
// setting fixture.
func NewSpaceFixture(opts ...SpaceOption) SpaceFixture {
	idx := atomic.AddUint64(&spaceCounter, 1)
	id := fmt.Sprintf("space-%03d", idx)
	created := referenceTime.Add(-time.Duration(idx) * time.Hour)
	fixture := SpaceFixture{
		ID:                 id,
		Name:               fmt.Sprintf("Space %03d", idx),
		Description:        "Main office",
		ReservationEnabled: true,
		Settings:           []SettingFixture{NewSettingFixture()},
		CreatedAt:          created,
		UpdatedAt:          created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSpaceID overrides the generated space ID.
func WithSpaceID(id string) SpaceOption {
	return func(f *SpaceFixture) {
		f.ID = id
	}
}

// WithSpaceName overrides the generated space name.
func WithSpaceName(name string) SpaceOption {
	return func(f *SpaceFixture) {
		f.Name = name
	}
}

// WithSpaceDescription overrides the description.
func WithSpaceDescription(description string) SpaceOption {
	return func(f *SpaceFixture) {
		f.Description = description
	}
}

// WithSpaceReservationEnabled sets whether the space accepts reservations.
func WithSpaceReservationEnabled(enabled bool) SpaceOption {
	return func(f *SpaceFixture) {
		f.ReservationEnabled = enabled
	}
}

// WithSpaceSettings replaces the settings list.
func WithSpaceSettings(settings ...SettingFixture) SpaceOption {
	return func(f *SpaceFixture) {
		f.Settings = append([]SettingFixture(nil), settings...)
	}
}

// WithoutSpaceSettings clears the settings list so the default rule applies.
func WithoutSpaceSettings() SpaceOption {
	return func(f *SpaceFixture) {
		f.Settings = nil
	}
}

// WithSpaceTimestamps sets both created and updated timestamps on the fixture.
func WithSpaceTimestamps(created, updated time.Time) SpaceOption {
	return func(f *SpaceFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Space value.
func (f SpaceFixture) Application() application.Space {
	var settings []availability.Setting
	for _, setting := range f.Settings {
		settings = append(settings, setting.Availability())
	}
	return application.Space{
		ID:                 f.ID,
		Name:               f.Name,
		Description:        f.Description,
		ReservationEnabled: f.ReservationEnabled,
		Settings:           settings,
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Space value.
func (f SpaceFixture) Persistence() persistence.Space {
	var settings []persistence.Setting
	for _, setting := range f.Settings {
		settings = append(settings, setting.Persistence(f.ID))
	}
	return persistence.Space{
		ID:                 f.ID,
		Name:               f.Name,
		Description:        f.Description,
		ReservationEnabled: f.ReservationEnabled,
		Settings:           settings,
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
	}
}

// Input returns the fixture as an application.SpaceInput.
func (f SpaceFixture) Input() application.SpaceInput {
	var settings []application.SettingInput
	for _, setting := range f.Settings {
		settings = append(settings, setting.Input())
	}
	return application.SpaceInput{
		Name:               f.Name,
		Description:        f.Description,
		ReservationEnabled: f.ReservationEnabled,
		Settings:           settings,
	}
}

// -------------------------- Reservation fixtures --------------------------

// ReservationFixture represents a deterministic reservation record owned by
// either a member or a guest.
type ReservationFixture struct {
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

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a one hour member reservation. Successive
// fixtures start one day apart so they never overlap each other.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * 24 * time.Hour)
	fixture := ReservationFixture{
		ID:          fmt.Sprintf("reservation-%03d", idx),
		SpaceID:     "space-001",
		Start:       start,
		End:         start.Add(time.Hour),
		MemberID:    fmt.Sprintf("member-%03d", idx),
		Description: fmt.Sprintf("Meeting %03d", idx),
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
	}
}

// WithReservationSpace sets the owning space.
func WithReservationSpace(spaceID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.SpaceID = spaceID
	}
}

// WithReservationInterval overrides the reserved interval.
func WithReservationInterval(start, end time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.Start = start
		f.End = end
	}
}

// WithReservationMember makes the reservation member-owned.
func WithReservationMember(memberID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.MemberID = memberID
		f.GuestName = ""
		f.PasswordHash = ""
	}
}

// WithReservationGuest makes the reservation guest-owned and protected by passwordHash.
func WithReservationGuest(name, passwordHash string) ReservationOption {
	return func(f *ReservationFixture) {
		f.MemberID = ""
		f.GuestName = name
		f.PasswordHash = passwordHash
	}
}

// WithReservationDescription overrides the description.
func WithReservationDescription(description string) ReservationOption {
	return func(f *ReservationFixture) {
		f.Description = description
	}
}

// WithReservationTimestamps sets both created and updated timestamps on the fixture.
func WithReservationTimestamps(created, updated time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Reservation value.
func (f ReservationFixture) Application() application.Reservation {
	return application.Reservation{
		ID:           f.ID,
		SpaceID:      f.SpaceID,
		Start:        f.Start,
		End:          f.End,
		MemberID:     f.MemberID,
		GuestName:    f.GuestName,
		PasswordHash: f.PasswordHash,
		Description:  f.Description,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Reservation value.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:           f.ID,
		SpaceID:      f.SpaceID,
		Start:        f.Start,
		End:          f.End,
		MemberID:     optionalString(f.MemberID),
		GuestName:    optionalString(f.GuestName),
		PasswordHash: optionalString(f.PasswordHash),
		Description:  f.Description,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Input returns the fixture as an application.ReservationInput. password is
// only used for guest reservations.
func (f ReservationFixture) Input(password string) application.ReservationInput {
	input := application.ReservationInput{
		Start:       f.Start,
		End:         f.End,
		Description: f.Description,
	}
	if f.GuestName != "" {
		input.GuestName = f.GuestName
		input.Password = password
	}
	return input
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	v := value
	return &v
}
