package clock

import "time"

// Clock provides time to the application.
// Dispatch stamps auto-replies and the session layer checks expiry through it,
// so tests can pin both.
type Clock interface {
	Now() time.Time
}
