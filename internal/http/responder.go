package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/space-reservation/internal/application"
	"github.com/example/space-reservation/internal/availability"
	"github.com/example/space-reservation/internal/reservation"
)

var (
	errBadRequestBody     = errors.New("request body is not valid JSON")
	errInvalidSpaceID     = errors.New("space id is required")
	errInvalidReservation = errors.New("reservation id is required")
	errInvalidToken       = errors.New("bearer token is invalid or expired")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError answers with a transport-level failure such as a malformed body.
func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, code string, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request rejected", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: message})
}

// handleServiceError maps application and engine errors onto a status code, a
// stable error code and, where the error carries one, a diagnostic payload.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, "UNEXPECTED", errors.New("unknown error"))
		return
	}

	kind := application.ErrorKind(err)
	status, ok := statusByKind[kind]
	if !ok {
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service failure", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			ErrorCode: "UNEXPECTED",
			Message:   "an unexpected error occurred",
		})
		return
	}

	resp := errorResponse{
		ErrorCode: strings.ToUpper(kind),
		Message:   messageFor(err),
		Details:   diagnosticsFor(err),
	}
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		resp.Errors = vErr.FieldErrors
	}
	r.writeJSON(ctx, w, status, resp)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

var statusByKind = map[string]int{
	"validation":                    http.StatusUnprocessableEntity,
	"unauthorized":                  http.StatusForbidden,
	"invalid_password":              http.StatusForbidden,
	"not_found":                     http.StatusNotFound,
	"reservation_exists_on_space":   http.StatusConflict,
	"duplicate_priority_order":      http.StatusUnprocessableEntity,
	"impossible_start_end_time":     http.StatusUnprocessableEntity,
	"non_matching_start_end_date":   http.StatusUnprocessableEntity,
	"past_reservation_time":         http.StatusUnprocessableEntity,
	"no_setting_available":          http.StatusUnprocessableEntity,
	"multiple_settings_matched":     http.StatusUnprocessableEntity,
	"interval_not_within_setting":   http.StatusUnprocessableEntity,
	"invalid_time_unit":             http.StatusUnprocessableEntity,
	"invalid_minimum_duration":      http.StatusUnprocessableEntity,
	"invalid_maximum_duration":      http.StatusUnprocessableEntity,
	"reservation_disabled_on_space": http.StatusConflict,
	"reservation_already_exists":    http.StatusConflict,
	"delete_reservation_in_use":     http.StatusConflict,
	"delete_expired_reservation":    http.StatusConflict,
}

// messageFor strips the package prefix sentinel errors carry.
func messageFor(err error) string {
	message := err.Error()
	for _, prefix := range []string{"reservation: ", "application: ", "availability: "} {
		message = strings.TrimPrefix(message, prefix)
	}
	return message
}

func diagnosticsFor(err error) *errorDetails {
	var (
		noSetting *reservation.NoSettingAvailableError
		multiple  *reservation.MultipleSettingsMatchedError
		notWithin *reservation.IntervalNotWithinSettingError
		conflict  *reservation.ConflictError
	)
	switch {
	case errors.As(err, &noSetting):
		return &errorDetails{Settings: toSettingDTOs(noSetting.Settings)}
	case errors.As(err, &multiple):
		return &errorDetails{Settings: toSettingDTOs(multiple.Matching)}
	case errors.As(err, &notWithin):
		requested := toWindowDTO(notWithin.Requested)
		return &errorDetails{
			Requested:   &requested,
			Unavailable: toWindowDTOs(notWithin.Unavailable),
		}
	case errors.As(err, &conflict):
		return &errorDetails{ConflictingReservationID: conflict.ReservationID}
	}
	return nil
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Details   *errorDetails     `json:"details,omitempty"`
}

type errorDetails struct {
	Settings                 []settingDTO `json:"settings,omitempty"`
	Requested                *windowDTO   `json:"requested,omitempty"`
	Unavailable              []windowDTO  `json:"unavailable,omitempty"`
	ConflictingReservationID string       `json:"conflicting_reservation_id,omitempty"`
}

type settingDTO struct {
	PriorityOrder   int    `json:"priority_order"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Weekdays        string `json:"weekdays"`
	TimeUnitMinutes int    `json:"time_unit_minutes"`
	MinimumMinutes  int    `json:"minimum_minutes"`
	MaximumMinutes  int    `json:"maximum_minutes"`
}

type windowDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func toSettingDTO(setting availability.Setting) settingDTO {
	return settingDTO{
		PriorityOrder:   setting.PriorityOrder,
		StartTime:       setting.Slot.Start().String(),
		EndTime:         setting.Slot.End().String(),
		Weekdays:        setting.Weekdays.String(),
		TimeUnitMinutes: int(setting.Unit / time.Minute),
		MinimumMinutes:  int(setting.MinDuration / time.Minute),
		MaximumMinutes:  int(setting.MaxDuration / time.Minute),
	}
}

func toSettingDTOs(settings []availability.Setting) []settingDTO {
	if len(settings) == 0 {
		return nil
	}
	out := make([]settingDTO, 0, len(settings))
	for _, setting := range settings {
		out = append(out, toSettingDTO(setting))
	}
	return out
}

func toWindowDTO(slot availability.TimeSlot) windowDTO {
	return windowDTO{Start: slot.Start().String(), End: slot.End().String()}
}

func toWindowDTOs(slots []availability.TimeSlot) []windowDTO {
	if len(slots) == 0 {
		return nil
	}
	out := make([]windowDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, toWindowDTO(slot))
	}
	return out
}
