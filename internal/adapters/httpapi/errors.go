package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
	"github.com/rs/zerolog"

	"github.com/aashkara-band/site-api/internal/app/editor"
	"github.com/aashkara-band/site-api/internal/app/identity"
	"github.com/aashkara-band/site-api/internal/app/inquiry"
)

// ErrorResponse is the envelope for every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestId = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, er)
}

// writeAppError maps application errors onto the error envelope. Anything unrecognised is
// logged and answered with a generic 500.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ie *inquiry.Error
		ee *editor.Error
		de *inquiry.DispatchError
		ae *identity.AuthError
	)
	switch {
	case errors.As(err, &ie):
		writeError(w, r, ie.Status, ie.Code, ie.Message, ie.Details)
	case errors.As(err, &ee):
		writeError(w, r, ee.Status, ee.Code, ee.Message, ee.Details)
	case errors.As(err, &de):
		if de.Stage == inquiry.StageConfig {
			writeError(w, r, http.StatusServiceUnavailable, "EMAIL_NOT_CONFIGURED", de.Error(), nil)
			return
		}
		details := map[string]any{"stage": string(de.Stage)}
		if de.Status != 0 {
			details["status"] = de.Status
		}
		writeError(w, r, http.StatusBadGateway, "INQUIRY_SEND_FAILED", de.Error(), details)
	case errors.As(err, &ae):
		writeError(w, r, http.StatusUnauthorized, "AUTH_ERROR", ae.Message, nil)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("unhandled error")
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
