package reporter

import "context"

// Reporter is the out-of-band channel for failures that are deliberately not returned to
// the caller.
type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}
