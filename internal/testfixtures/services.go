package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/space-reservation/internal/application"
	"github.com/example/space-reservation/internal/reservation"
)

// fastArgon2idParams keeps password hashing cheap in tests.
var fastArgon2idParams = application.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Zone        reservation.Zone
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults. The default
// zone is UTC+9, matching the reference time fixtures.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Zone:        reservation.NewZone(FixtureLocation),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithZone overrides the time zone used to project reservations onto settings.
func WithZone(zone reservation.Zone) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Zone = zone
	}
}

// PasswordHasher returns an argon2id hasher tuned for test speed.
func (f *ServiceFactory) PasswordHasher() application.PasswordHasher {
	return application.NewArgon2idHasher(fastArgon2idParams)
}

// Validator returns a reservation validator bound to the factory zone and clock.
func (f *ServiceFactory) Validator() *reservation.Validator {
	return reservation.NewValidator(f.Zone, f.Clock.NowFunc())
}

// SpaceServiceDeps captures dependencies for constructing a space service.
type SpaceServiceDeps struct {
	Spaces       application.SpaceRepository
	Reservations application.ReservationLedger
	Cache        *application.SpaceCache
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewSpaceService builds a space service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewSpaceService(deps SpaceServiceDeps) *application.SpaceService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewSpaceServiceWithLogger(
		deps.Spaces,
		deps.Reservations,
		deps.Cache,
		idGen,
		now,
		deps.Logger,
	)
}

// ReservationServiceDeps captures dependencies for constructing a reservation service.
type ReservationServiceDeps struct {
	Reservations application.ReservationRepository
	Spaces       application.SpaceReader
	Validator    *reservation.Validator
	Hasher       application.PasswordHasher
	Observer     application.ValidationObserver
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewReservationService builds a reservation service using the supplied
// dependencies. A missing validator or hasher falls back to the factory's.
func (f *ServiceFactory) NewReservationService(deps ReservationServiceDeps) *application.ReservationService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	validator := deps.Validator
	if validator == nil {
		validator = reservation.NewValidator(f.Zone, now)
	}
	hasher := deps.Hasher
	if hasher == nil {
		hasher = f.PasswordHasher()
	}
	return application.NewReservationServiceWithLogger(
		deps.Reservations,
		deps.Spaces,
		validator,
		hasher,
		deps.Observer,
		idGen,
		now,
		deps.Logger,
	)
}
