package domain

// InquiryRecord is a booking request as handed to a dispatch path.
//
// BandName and BandEmail are copied from the resolved profile at submission time so
// dispatch does not need to consult the profile store.
type InquiryRecord struct {
	Name        string
	Email       string
	Phone       string
	BookingDate string // optional
	Address     string // optional
	Message     string

	BandName  string
	BandEmail string
}
