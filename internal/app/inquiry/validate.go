package inquiry

import (
	"net/mail"
	"strings"

	"github.com/aashkara-band/site-api/internal/domain"
)

// Normalize trims every requester-supplied field.
func Normalize(rec domain.InquiryRecord) domain.InquiryRecord {
	rec.Name = domain.NormalizeHumanName(rec.Name)
	rec.Email = strings.TrimSpace(rec.Email)
	rec.Phone = strings.TrimSpace(rec.Phone)
	rec.BookingDate = strings.TrimSpace(rec.BookingDate)
	rec.Address = strings.TrimSpace(rec.Address)
	rec.Message = strings.TrimSpace(rec.Message)
	return rec
}

// Validate checks the fields a submission must carry: name, email, phone and message.
func Validate(rec domain.InquiryRecord) error {
	details := map[string]any{}
	if rec.Name == "" {
		details["name"] = "is required"
	}
	if rec.Email == "" {
		details["email"] = "is required"
	} else if _, err := mail.ParseAddress(rec.Email); err != nil {
		details["email"] = "must be a valid email address"
	}
	if rec.Phone == "" {
		details["phone"] = "is required"
	}
	if rec.Message == "" {
		details["message"] = "is required"
	}
	if len(details) > 0 {
		return &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid inquiry",
			Details: details,
		}
	}
	return nil
}
