package tasks

import (
	"context"
	"time"

	"github.com/desertthunder/splay/internal/services"
)

// RetryPolicy is a bounded retry with fixed backoff.
//
// Rate-limit responses override the fixed backoff with the server-advised
// wait. All remote call sites share this policy instead of hand-rolling
// retry loops.
type RetryPolicy struct {
	Attempts int           // total attempts, including the first
	Backoff  time.Duration // wait between attempts
}

// DefaultRetry matches the remote service's tolerance: three attempts, two
// seconds apart.
var DefaultRetry = RetryPolicy{Attempts: 3, Backoff: 2 * time.Second}

// Do runs op until it succeeds, the attempt budget is exhausted, or ctx is
// done. The last error is returned on exhaustion.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		wait := p.Backoff
		if apiErr, ok := services.AsAPIError(err); ok && apiErr.RetryAfter > 0 {
			wait = apiErr.RetryAfter
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return err
}
