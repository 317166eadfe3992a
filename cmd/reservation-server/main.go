package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/space-reservation/internal/application"
	"github.com/example/space-reservation/internal/config"
	httptransport "github.com/example/space-reservation/internal/http"
	"github.com/example/space-reservation/internal/logging"
	"github.com/example/space-reservation/internal/metrics"
	"github.com/example/space-reservation/internal/persistence/sqlite"
	"github.com/example/space-reservation/internal/reservation"
)

func main() {
	configPath := flag.String("config", os.Getenv("RESERVATION_CONFIG"), "optional path to a YAML, JSON or TOML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, out)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	srv, err := newServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	defer func() {
		if cerr := srv.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("reservation API listening",
		"addr", server.Addr,
		"timezone", cfg.Timezone,
		"metrics_enabled", cfg.MetricsEnabled,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		return err
	}
	logger.Info("reservation API stopped")
	return nil
}

// server owns the storage pool and the assembled HTTP handler.
type server struct {
	pool    *sqlite.ConnectionPool
	handler http.Handler
}

func newServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*server, error) {
	zone, err := reservation.LoadZone(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(cfg.SQLiteDSN))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	spaceRepo := newSpaceRepositoryAdapter(sqlite.NewSpaceRepository(pool))
	reservationRepo := newReservationRepositoryAdapter(sqlite.NewReservationRepository(pool))

	var (
		cache       *application.SpaceCache
		spaceReader application.SpaceReader = spaceRepo
	)
	if cfg.SpaceCacheSize > 0 {
		cache = application.NewSpaceCache(spaceRepo, cfg.SpaceCacheSize, cfg.SpaceCacheTTL)
		spaceReader = cache
	}

	var (
		requestObserver    httptransport.RequestObserver
		validationObserver application.ValidationObserver
		metricsHandler     http.Handler
	)
	if cfg.MetricsEnabled {
		m := metrics.New()
		requestObserver = m
		validationObserver = m
		metricsHandler = m.Handler()
	}

	idGenerator := uuid.NewString
	now := time.Now

	spaceService := application.NewSpaceServiceWithLogger(spaceRepo, reservationRepo, cache, idGenerator, now, logger)
	reservationService := application.NewReservationServiceWithLogger(
		reservationRepo,
		spaceReader,
		reservation.NewValidator(zone, now),
		application.NewArgon2idHasher(application.Argon2idParams{}),
		validationObserver,
		idGenerator,
		now,
		logger,
	)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Spaces:         httptransport.NewSpaceHandler(spaceService, logger),
		Reservations:   httptransport.NewReservationHandler(reservationService, zone.Location(), now, logger),
		Authenticator:  httptransport.NewAuthenticator(cfg.JWTSecret),
		Metrics:        requestObserver,
		MetricsHandler: metricsHandler,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	return &server{pool: pool, handler: handler}, nil
}

func (s *server) Handler() http.Handler {
	return s.handler
}

func (s *server) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}
