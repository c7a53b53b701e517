package inquiry

import "fmt"

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// Stage names the dispatch step that failed.
type Stage string

const (
	StageConfig    Stage = "config"
	StageInquiry   Stage = "inquiry"
	StageAutoReply Stage = "autoreply"
)

// DispatchError reports a failed inquiry send. Status and Body are set when the email
// provider answered with a non-success status; Err holds a transport failure.
type DispatchError struct {
	Stage  Stage
	Status int
	Body   string
	Err    error
}

func (e *DispatchError) Error() string {
	switch {
	case e.Stage == StageConfig:
		return "EmailJS configuration is incomplete. Please check your environment variables."
	case e.Status != 0:
		return fmt.Sprintf("Failed to send %s email: status %d: %s", e.Stage, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("Failed to send %s email: %v", e.Stage, e.Err)
	default:
		return fmt.Sprintf("Failed to send %s email", e.Stage)
	}
}

func (e *DispatchError) Unwrap() error { return e.Err }
