package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/space-reservation/internal/application"
)

// passwordHeader carries a guest reservation password on GET and DELETE,
// which have no body.
const passwordHeader = "X-Reservation-Password"

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error)
	UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (application.Reservation, error)
	DeleteReservation(ctx context.Context, ref application.ReservationRef) error
	GetReservation(ctx context.Context, ref application.ReservationRef) (application.Reservation, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
	ListAllReservations(ctx context.Context, params application.ListAllReservationsParams) ([]application.SpaceReservations, error)
	ListMemberReservations(ctx context.Context, params application.MemberReservationsParams) (application.ReservationPage, error)
	ListGuestReservations(ctx context.Context, params application.GuestReservationsParams) (application.ReservationPage, error)
}

// ReservationHandler serves the reservation endpoints under /spaces/{spaceID}
// and the cross-space listings.
type ReservationHandler struct {
	service   reservationService
	location  *time.Location
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

// NewReservationHandler creates a ReservationHandler. loc and now decide
// which day "today" is when a listing omits ?date=.
func NewReservationHandler(service reservationService, loc *time.Location, now func() time.Time, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationHandler{service: service, location: loc, now: now, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	spaceID, ok := spaceIDParam(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidSpaceID)
		return
	}

	date, err := h.dateParam(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}

	items, err := h.service.ListReservations(r.Context(), application.ListReservationsParams{
		SpaceID: spaceID,
		Date:    date,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(items)})
}

// ListAll answers GET /reservations?date= with every space and its
// reservations on that date.
func (h *ReservationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, err := h.dateParam(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}

	groups, err := h.service.ListAllReservations(r.Context(), application.ListAllReservationsParams{Date: date})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]spaceReservationsDTO, 0, len(groups))
	for _, group := range groups {
		out = append(out, spaceReservationsDTO{
			SpaceID:      group.Space.ID,
			SpaceName:    group.Space.Name,
			Reservations: toReservationDTOs(group.Reservations),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAllReservationsResponse{Spaces: out})
}

// ListMine answers GET /members/me/reservations?when=upcoming|previous.
func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	page, err := pageParams(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.ListMemberReservations(r.Context(), application.MemberReservationsParams{
		Principal: principal,
		Period:    application.ReservationPeriod(strings.TrimSpace(r.URL.Query().Get("when"))),
		Page:      page,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationPageResponse(result))
}

// ListGuest answers GET /guests/reservations?name=&from= with the upcoming
// reservations booked under a guest name.
func (h *ReservationHandler) ListGuest(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	page, err := pageParams(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}
	from, err := parseOptionalTime(query.Get("from"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}

	result, err := h.service.ListGuestReservations(r.Context(), application.GuestReservationsParams{
		GuestName: strings.TrimSpace(query.Get("name")),
		From:      from,
		Page:      page,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationPageResponse(result))
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "space_id", spaceID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}

	created, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		SpaceID:   spaceID,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/spaces/%s/reservations/%s", spaceID, created.ID))
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(created)})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ref, ok := h.reference(w, r)
	if !ok {
		return
	}

	item, err := h.service.GetReservation(r.Context(), ref)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(item)})
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ref, ok := h.reference(w, r)
	if !ok {
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "space_id", ref.SpaceID, "reservation_id", ref.ReservationID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode reservation update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}
	if ref.Password == "" {
		ref.Password = req.Password
	}

	updated, err := h.service.UpdateReservation(r.Context(), application.UpdateReservationParams{
		Principal:     ref.Principal,
		SpaceID:       ref.SpaceID,
		ReservationID: ref.ReservationID,
		Password:      ref.Password,
		Input:         input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(updated)})
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ref, ok := h.reference(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteReservation(r.Context(), ref); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// reference collects the path parameters, principal and password header of
// a single-reservation request. It writes the error response itself.
func (h *ReservationHandler) reference(w http.ResponseWriter, r *http.Request) (application.ReservationRef, bool) {
	spaceID, ok := spaceIDParam(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidSpaceID)
		return application.ReservationRef{}, false
	}
	reservationID := strings.TrimSpace(chi.URLParam(r, "reservationID"))
	if reservationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidReservation)
		return application.ReservationRef{}, false
	}

	principal, _ := PrincipalFromContext(r.Context())
	return application.ReservationRef{
		Principal:     principal,
		SpaceID:       spaceID,
		ReservationID: reservationID,
		Password:      r.Header.Get(passwordHeader),
	}, true
}

// dateParam reads ?date= as YYYY-MM-DD. A missing value means today in the
// handler's zone.
func (h *ReservationHandler) dateParam(r *http.Request) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return h.now().In(h.location), nil
	}
	parsed, err := time.ParseInLocation(time.DateOnly, raw, h.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be formatted as YYYY-MM-DD")
	}
	return parsed, nil
}

// pageParams reads ?page= and ?size=. Absent values are left zero for the
// service defaults.
func pageParams(r *http.Request) (application.PageRequest, error) {
	query := r.URL.Query()
	var page application.PageRequest
	for _, field := range []struct {
		name   string
		target *int
	}{
		{name: "page", target: &page.Page},
		{name: "size", target: &page.Size},
	} {
		raw := strings.TrimSpace(query.Get(field.name))
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return application.PageRequest{}, fmt.Errorf("%s must be an integer", field.name)
		}
		*field.target = value
	}
	return page, nil
}

type reservationRequest struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	GuestName   string `json:"guest_name"`
	Password    string `json:"password"`
	Description string `json:"description"`
}

func (r reservationRequest) toInput() (application.ReservationInput, error) {
	start, err := parseOptionalTime(r.Start)
	if err != nil {
		return application.ReservationInput{}, err
	}
	end, err := parseOptionalTime(r.End)
	if err != nil {
		return application.ReservationInput{}, err
	}
	return application.ReservationInput{
		Start:       start,
		End:         end,
		GuestName:   strings.TrimSpace(r.GuestName),
		Password:    r.Password,
		Description: strings.TrimSpace(r.Description),
	}, nil
}

// parseOptionalTime parses an RFC 3339 instant. An empty value yields the
// zero time so the service can report the missing field.
func parseOptionalTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not an RFC 3339 timestamp", value)
	}
	return parsed, nil
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type listAllReservationsResponse struct {
	Spaces []spaceReservationsDTO `json:"spaces"`
}

type spaceReservationsDTO struct {
	SpaceID      string           `json:"space_id"`
	SpaceName    string           `json:"space_name"`
	Reservations []reservationDTO `json:"reservations"`
}

type reservationPageResponse struct {
	Reservations []reservationDTO `json:"reservations"`
	Page         int              `json:"page"`
	HasNext      bool             `json:"has_next"`
}

func toReservationPageResponse(page application.ReservationPage) reservationPageResponse {
	return reservationPageResponse{
		Reservations: toReservationDTOs(page.Items),
		Page:         page.Page,
		HasNext:      page.HasNext,
	}
}

type reservationDTO struct {
	ID          string `json:"id"`
	SpaceID     string `json:"space_id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	MemberID    string `json:"member_id,omitempty"`
	GuestName   string `json:"guest_name,omitempty"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toReservationDTO(item application.Reservation) reservationDTO {
	return reservationDTO{
		ID:          item.ID,
		SpaceID:     item.SpaceID,
		Start:       item.Start.UTC().Format(time.RFC3339),
		End:         item.End.UTC().Format(time.RFC3339),
		MemberID:    item.MemberID,
		GuestName:   item.GuestName,
		Description: item.Description,
		CreatedAt:   item.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   item.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toReservationDTOs(items []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toReservationDTO(item))
	}
	return out
}
