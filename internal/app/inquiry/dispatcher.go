// Package inquiry turns booking inquiries into outbound messages: EmailJS email or a
// WhatsApp deep link.
package inquiry

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/aashkara-band/site-api/internal/domain"
	clockport "github.com/aashkara-band/site-api/internal/ports/out/clock"
	"github.com/aashkara-band/site-api/internal/ports/out/mailer"
	"github.com/aashkara-band/site-api/internal/ports/out/reporter"
)

const notSpecified = "Not specified"

// Credentials are the four EmailJS settings. They are only ever checked for presence.
type Credentials struct {
	PublicKey           string
	ServiceID           string
	InquiryTemplateID   string
	AutoReplyTemplateID string
}

func (c Credentials) complete() bool {
	return c.PublicKey != "" && c.ServiceID != "" && c.InquiryTemplateID != "" && c.AutoReplyTemplateID != ""
}

// Metrics records dispatch outcomes.
type Metrics interface {
	IncInquiry(stage, result string)
	IncAutoReplyFailure()
}

type nopMetrics struct{}

func (nopMetrics) IncInquiry(string, string) {}
func (nopMetrics) IncAutoReplyFailure()      {}

type Dispatcher struct {
	mail     mailer.Mailer
	creds    Credentials
	clk      clockport.Clock
	reporter reporter.Reporter
	metrics  Metrics
	log      zerolog.Logger

	newID func(time.Time) (string, error)

	// DateLayout formats the auto-reply inquiry_date.
	DateLayout string
}

func NewDispatcher(
	mail mailer.Mailer,
	creds Credentials,
	clk clockport.Clock,
	rep reporter.Reporter,
	m Metrics,
	newID func(time.Time) (string, error),
	log zerolog.Logger,
) *Dispatcher {
	if m == nil {
		m = nopMetrics{}
	}
	return &Dispatcher{
		mail:       mail,
		creds:      creds,
		clk:        clk,
		reporter:   rep,
		metrics:    m,
		log:        log.With().Str("component", "inquiry").Logger(),
		newID:      newID,
		DateLayout: "1/2/2006",
	}
}

// Receipt describes an accepted inquiry.
type Receipt struct {
	ID            domain.InquiryID
	AutoReplySent bool
}

// SendInquiry emails the band and then, best-effort, the requester.
//
// The band notification must succeed; its failure is returned as *DispatchError and the
// auto-reply is not attempted. An auto-reply failure is logged and reported but does not
// fail the call.
func (d *Dispatcher) SendInquiry(ctx context.Context, rec domain.InquiryRecord) (Receipt, error) {
	if !d.creds.complete() {
		d.metrics.IncInquiry(string(StageConfig), "failed")
		return Receipt{}, &DispatchError{Stage: StageConfig}
	}

	now := d.clk.Now()
	id, err := d.newID(now)
	if err != nil {
		return Receipt{}, err
	}
	receipt := Receipt{ID: domain.InquiryID(id)}
	log := d.log.With().Str("inquiry_id", id).Logger()

	err = d.mail.Send(ctx, mailer.Message{
		ServiceID:  d.creds.ServiceID,
		TemplateID: d.creds.InquiryTemplateID,
		UserID:     d.creds.PublicKey,
		Params: map[string]string{
			"to_email":     rec.BandEmail,
			"from_name":    rec.Name,
			"from_email":   rec.Email,
			"phone":        rec.Phone,
			"booking_date": orNotSpecified(rec.BookingDate),
			"address":      orNotSpecified(rec.Address),
			"message":      rec.Message,
			"band_name":    rec.BandName,
			"reply_to":     rec.Email,
		},
	})
	if err != nil {
		d.metrics.IncInquiry(string(StageInquiry), "failed")
		de := toDispatchError(StageInquiry, err)
		log.Error().Err(err).Int("status", de.Status).Msg("inquiry email failed")
		return Receipt{}, de
	}
	d.metrics.IncInquiry(string(StageInquiry), "sent")

	err = d.mail.Send(ctx, mailer.Message{
		ServiceID:  d.creds.ServiceID,
		TemplateID: d.creds.AutoReplyTemplateID,
		UserID:     d.creds.PublicKey,
		Params: map[string]string{
			"to_email":     rec.Email,
			"to_name":      rec.Name,
			"band_name":    rec.BandName,
			"inquiry_date": now.Format(d.DateLayout),
			"user_message": rec.Message,
		},
	})
	if err != nil {
		d.metrics.IncAutoReplyFailure()
		de := toDispatchError(StageAutoReply, err)
		log.Warn().Err(err).Int("status", de.Status).Msg("auto-reply email failed, but inquiry was sent successfully")
		if d.reporter != nil {
			d.reporter.Report(ctx, de, map[string]string{"stage": string(StageAutoReply), "inquiry_id": id})
		}
		return receipt, nil
	}

	receipt.AutoReplySent = true
	log.Info().Msg("inquiry sent")
	return receipt, nil
}

// FieldStatus reports presence of each credential.
type FieldStatus struct {
	PublicKey           bool `json:"publicKey"`
	ServiceID           bool `json:"serviceId"`
	InquiryTemplateID   bool `json:"inquiryTemplateId"`
	AutoReplyTemplateID bool `json:"autoReplyTemplateId"`
}

type DispatchStatus struct {
	IsConfigured bool              `json:"isConfigured"`
	Fields       FieldStatus       `json:"fields"`
	Messages     map[string]string `json:"config"`
}

// DispatchStatus reports which credentials are present. Diagnostic only.
func (d *Dispatcher) DispatchStatus() DispatchStatus {
	f := FieldStatus{
		PublicKey:           d.creds.PublicKey != "",
		ServiceID:           d.creds.ServiceID != "",
		InquiryTemplateID:   d.creds.InquiryTemplateID != "",
		AutoReplyTemplateID: d.creds.AutoReplyTemplateID != "",
	}
	return DispatchStatus{
		IsConfigured: d.creds.complete(),
		Fields:       f,
		Messages: map[string]string{
			"publicKey":           mark(f.PublicKey),
			"serviceId":           mark(f.ServiceID),
			"inquiryTemplateId":   mark(f.InquiryTemplateID),
			"autoReplyTemplateId": mark(f.AutoReplyTemplateID),
		},
	}
}

func mark(ok bool) string {
	if ok {
		return "✓ Set"
	}
	return "✗ Missing"
}

func orNotSpecified(s string) string {
	if s == "" {
		return notSpecified
	}
	return s
}

func toDispatchError(stage Stage, err error) *DispatchError {
	var se *mailer.StatusError
	if errors.As(err, &se) {
		return &DispatchError{Stage: stage, Status: se.Status, Body: se.Body, Err: err}
	}
	return &DispatchError{Stage: stage, Err: err}
}
