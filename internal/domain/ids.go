package domain

// SubjectID is the authenticated subject extracted from ID token claims ("sub").
// We model it as an opaque identifier: its format is controlled by the IdP.
type SubjectID string

// SessionID identifies one browser session bound to the identity provider.
type SessionID string

// InquiryID is a per-submission reference used to correlate logs and reports.
// Inquiries themselves are never stored.
type InquiryID string
