package inquiry

import (
	"net/url"
	"strings"

	"github.com/aashkara-band/site-api/internal/domain"
)

// ComposeWhatsAppLink builds a wa.me link that opens a chat with the band, pre-filled with
// the inquiry. Non-digits are stripped from bandPhone. Optional lines are left out when
// their field is empty.
func ComposeWhatsAppLink(rec domain.InquiryRecord, bandName, bandPhone string) string {
	var b strings.Builder
	b.WriteString("Hi " + bandName + "! 🎸\n\n")
	b.WriteString("*New Booking Inquiry*\n\n")
	b.WriteString("*Name:* " + rec.Name + "\n")
	b.WriteString("*Email:* " + rec.Email + "\n")
	b.WriteString("*Phone:* " + rec.Phone + "\n")
	if rec.BookingDate != "" {
		b.WriteString("*Booking Date:* " + rec.BookingDate + "\n")
	}
	if rec.Address != "" {
		b.WriteString("*Event Address:* " + rec.Address + "\n")
	}
	b.WriteString("\n*Message:*\n")
	b.WriteString(rec.Message + "\n\n")
	b.WriteString("Looking forward to hearing from you!")

	return "https://wa.me/" + domain.DigitsOnly(bandPhone) + "?text=" + encodeComponent(b.String())
}

// componentUnescape undoes the QueryEscape choices that differ from JavaScript's
// encodeURIComponent: spaces become %20 and !'()* stay literal.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func encodeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
