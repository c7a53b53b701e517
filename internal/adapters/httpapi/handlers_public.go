package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/rs/zerolog"

	"github.com/aashkara-band/site-api/internal/app/admin"
	"github.com/aashkara-band/site-api/internal/app/inquiry"
	"github.com/aashkara-band/site-api/internal/domain"
)

type inquiryRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	BookingDate string `json:"bookingDate"`
	Address     string `json:"address"`
	Message     string `json:"message"`
}

type inquiryResponse struct {
	Status        string `json:"status"`
	InquiryID     string `json:"inquiryId"`
	AutoReplySent bool   `json:"autoReplySent"`
}

type whatsAppLinkResponse struct {
	URL string `json:"url"`
}

type statusResponse struct {
	Auth  admin.AuthStatus       `json:"auth"`
	Email inquiry.DispatchStatus `json:"email"`
}

// decodeJSON reads a bounded JSON body into dst and writes the error response itself when
// it fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, strict bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			writeError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
		case errors.Is(err, openapi_types.ErrValidationEmail):
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request", map[string]any{"email": "must be a valid email address"})
		default:
			writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		}
		return false
	}
	return true
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
			writeError(w, r, http.StatusServiceUnavailable, "NOT_READY", "storage unavailable", nil)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.profile.Resolve(r.Context()))
}

// inquiryRecord normalizes and validates the request and stamps it with the band's
// current name and email.
func (s *Server) inquiryRecord(w http.ResponseWriter, r *http.Request) (domain.InquiryRecord, domain.BandProfile, bool) {
	var req inquiryRequest
	if !decodeJSON(w, r, &req, false) {
		return domain.InquiryRecord{}, domain.BandProfile{}, false
	}

	band := s.profile.Resolve(r.Context())
	rec := inquiry.Normalize(domain.InquiryRecord{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		BookingDate: req.BookingDate,
		Address:     req.Address,
		Message:     req.Message,
		BandName:    band.Name,
		BandEmail:   band.Contact.Email,
	})
	if err := inquiry.Validate(rec); err != nil {
		writeAppError(w, r, err)
		return domain.InquiryRecord{}, domain.BandProfile{}, false
	}
	if rec.BookingDate != "" {
		if _, err := time.Parse(openapi_types.DateFormat, rec.BookingDate); err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid inquiry",
				map[string]any{"bookingDate": "must be a date (YYYY-MM-DD)"})
			return domain.InquiryRecord{}, domain.BandProfile{}, false
		}
	}
	return rec, band, true
}

func (s *Server) postInquiry(w http.ResponseWriter, r *http.Request) {
	rec, _, ok := s.inquiryRecord(w, r)
	if !ok {
		return
	}
	receipt, err := s.inquiries.SendInquiry(r.Context(), rec)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inquiryResponse{
		Status:        "sent",
		InquiryID:     string(receipt.ID),
		AutoReplySent: receipt.AutoReplySent,
	})
}

func (s *Server) postWhatsAppLink(w http.ResponseWriter, r *http.Request) {
	rec, band, ok := s.inquiryRecord(w, r)
	if !ok {
		return
	}
	link := inquiry.ComposeWhatsAppLink(rec, band.Name, band.Contact.Phone)
	s.metrics.IncWhatsAppLink()
	writeJSON(w, http.StatusOK, whatsAppLinkResponse{URL: link})
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Auth:  s.authorizer.Status(s.identity.Ready()),
		Email: s.inquiries.DispatchStatus(),
	})
}
