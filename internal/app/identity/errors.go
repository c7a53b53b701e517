package identity

// AuthError reports a failed sign-in. Message is safe to show to the user verbatim.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }
