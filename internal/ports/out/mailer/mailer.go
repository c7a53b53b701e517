package mailer

import (
	"context"
	"fmt"
)

// Message is one templated email send request.
type Message struct {
	ServiceID  string
	TemplateID string
	UserID     string
	Params     map[string]string
}

// Mailer sends templated transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// StatusError is returned when the provider answered with a non-success status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("email provider returned status %d: %s", e.Status, e.Body)
}
