package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig collects the handlers and cross-cutting pieces of the API.
// Nil handlers leave their routes unregistered.
type RouterConfig struct {
	Spaces         *SpaceHandler
	Reservations   *ReservationHandler
	Authenticator  *Authenticator
	Metrics        RequestObserver
	MetricsHandler http.Handler
	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter builds the chi router serving the reservation API.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	responder := newResponder(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(ObserveRequests(cfg.Metrics))
	r.Use(CORS(cfg.AllowedOrigins))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusNotFound, "NOT_FOUND", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", nil)
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		responder.writeJSON(req.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(cfg.Authenticator, logger))

		if cfg.Reservations != nil {
			r.Get("/reservations", cfg.Reservations.ListAll)
			r.Get("/members/me/reservations", cfg.Reservations.ListMine)
			r.Get("/guests/reservations", cfg.Reservations.ListGuest)
		}

		r.Route("/spaces", func(r chi.Router) {
			if cfg.Spaces != nil {
				r.Get("/", cfg.Spaces.List)
				r.Post("/", cfg.Spaces.Create)
				r.Get("/availability", cfg.Spaces.Availability)
			}

			r.Route("/{spaceID}", func(r chi.Router) {
				if cfg.Spaces != nil {
					r.Get("/", cfg.Spaces.Get)
					r.Put("/", cfg.Spaces.Update)
					r.Delete("/", cfg.Spaces.Delete)
				}

				if cfg.Reservations != nil {
					r.Route("/reservations", func(r chi.Router) {
						r.Get("/", cfg.Reservations.List)
						r.Post("/", cfg.Reservations.Create)
						r.Get("/{reservationID}", cfg.Reservations.Get)
						r.Put("/{reservationID}", cfg.Reservations.Update)
						r.Delete("/{reservationID}", cfg.Reservations.Delete)
					})
				}
			})
		})
	})

	return r
}
