package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/space-reservation/internal/application"
)

type spaceService interface {
	CreateSpace(ctx context.Context, params application.CreateSpaceParams) (application.Space, error)
	UpdateSpace(ctx context.Context, params application.UpdateSpaceParams) (application.Space, error)
	GetSpace(ctx context.Context, spaceID string) (application.Space, error)
	ListSpaces(ctx context.Context) ([]application.Space, error)
	DeleteSpace(ctx context.Context, principal application.Principal, spaceID string) error
	Availability(ctx context.Context, params application.AvailabilityParams) ([]application.SpaceAvailability, error)
}

// SpaceHandler serves the /spaces endpoints.
type SpaceHandler struct {
	service   spaceService
	responder responder
	logger    *slog.Logger
}

// NewSpaceHandler creates a SpaceHandler.
func NewSpaceHandler(service spaceService, logger *slog.Logger) *SpaceHandler {
	base := defaultLogger(logger)
	return &SpaceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SpaceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SpaceHandler", operation, attrs...)
}

func (h *SpaceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaces, err := h.service.ListSpaces(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "List", "result_count", len(spaces)).DebugContext(r.Context(), "spaces listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSpacesResponse{Spaces: toSpaceDTOs(spaces)})
}

func (h *SpaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req spaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode space request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}

	space, err := h.service.CreateSpace(r.Context(), application.CreateSpaceParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Location", "/spaces/"+space.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, spaceResponse{Space: toSpaceDTO(space)})
}

func (h *SpaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID, ok := spaceIDParam(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidSpaceID)
		return
	}

	space, err := h.service.GetSpace(r.Context(), spaceID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, spaceResponse{Space: toSpaceDTO(space)})
}

func (h *SpaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID, ok := spaceIDParam(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidSpaceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req spaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "space_id", spaceID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode space update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}

	space, err := h.service.UpdateSpace(r.Context(), application.UpdateSpaceParams{
		Principal: principal,
		SpaceID:   spaceID,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, spaceResponse{Space: toSpaceDTO(space)})
}

func (h *SpaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID, ok := spaceIDParam(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidSpaceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteSpace(r.Context(), principal, spaceID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Availability answers GET /spaces/availability?start=&end= with RFC 3339 bounds.
func (h *SpaceHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	start, err := parseOptionalTime(query.Get("start"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}
	end, err := parseOptionalTime(query.Get("end"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}

	items, err := h.service.Availability(r.Context(), application.AvailabilityParams{Start: start, End: end})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]spaceAvailabilityDTO, 0, len(items))
	for _, item := range items {
		out = append(out, spaceAvailabilityDTO{
			SpaceID:     item.SpaceID,
			SpaceName:   item.SpaceName,
			IsAvailable: item.IsAvailable,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{Spaces: out})
}

func spaceIDParam(r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "spaceID"))
	return id, id != ""
}

type spaceRequest struct {
	Name               string           `json:"name"`
	Description        string           `json:"description"`
	ReservationEnabled *bool            `json:"reservation_enabled"`
	Timezone           string           `json:"timezone"`
	Settings           []settingRequest `json:"settings"`
}

type settingRequest struct {
	PriorityOrder   int    `json:"priority_order"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Weekdays        string `json:"weekdays"`
	TimeUnitMinutes int    `json:"time_unit_minutes"`
	MinimumMinutes  int    `json:"minimum_minutes"`
	MaximumMinutes  int    `json:"maximum_minutes"`
}

func (r spaceRequest) toInput() application.SpaceInput {
	enabled := true
	if r.ReservationEnabled != nil {
		enabled = *r.ReservationEnabled
	}
	var settings []application.SettingInput
	for _, setting := range r.Settings {
		settings = append(settings, application.SettingInput{
			StartTime:     strings.TrimSpace(setting.StartTime),
			EndTime:       strings.TrimSpace(setting.EndTime),
			Weekdays:      strings.TrimSpace(setting.Weekdays),
			TimeUnit:      time.Duration(setting.TimeUnitMinutes) * time.Minute,
			MinDuration:   time.Duration(setting.MinimumMinutes) * time.Minute,
			MaxDuration:   time.Duration(setting.MaximumMinutes) * time.Minute,
			PriorityOrder: setting.PriorityOrder,
		})
	}
	return application.SpaceInput{
		Name:               strings.TrimSpace(r.Name),
		Description:        strings.TrimSpace(r.Description),
		ReservationEnabled: enabled,
		Timezone:           strings.TrimSpace(r.Timezone),
		Settings:           settings,
	}
}

type spaceResponse struct {
	Space spaceDTO `json:"space"`
}

type listSpacesResponse struct {
	Spaces []spaceDTO `json:"spaces"`
}

type availabilityResponse struct {
	Spaces []spaceAvailabilityDTO `json:"spaces"`
}

type spaceDTO struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	ReservationEnabled bool         `json:"reservation_enabled"`
	Timezone           string       `json:"timezone,omitempty"`
	Settings           []settingDTO `json:"settings"`
	CreatedAt          string       `json:"created_at"`
	UpdatedAt          string       `json:"updated_at"`
}

type spaceAvailabilityDTO struct {
	SpaceID     string `json:"space_id"`
	SpaceName   string `json:"space_name"`
	IsAvailable bool   `json:"is_available"`
}

func toSpaceDTO(space application.Space) spaceDTO {
	settings := toSettingDTOs(space.Settings)
	if settings == nil {
		settings = []settingDTO{}
	}
	return spaceDTO{
		ID:                 space.ID,
		Name:               space.Name,
		Description:        space.Description,
		ReservationEnabled: space.ReservationEnabled,
		Timezone:           space.Timezone,
		Settings:           settings,
		CreatedAt:          space.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:          space.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toSpaceDTOs(spaces []application.Space) []spaceDTO {
	out := make([]spaceDTO, 0, len(spaces))
	for _, space := range spaces {
		out = append(out, toSpaceDTO(space))
	}
	return out
}
