package transport

import (
	"context"
)

type contextAttemptKey string

const ContextAttemptKey contextAttemptKey = "authAttempt"

// Attempt describes how a request relates to the authorization retry path.
type Attempt struct {
	// Retried marks a request that was already replayed after a refresh. An
	// authorization failure on such a request is terminal.
	Retried bool
}

// WithAttempt returns a context carrying attempt. The round tripper sets
// attempt.Retried when it replays the request.
func WithAttempt(ctx context.Context, attempt *Attempt) context.Context {
	return context.WithValue(ctx, ContextAttemptKey, attempt)
}

func getAttempt(ctx context.Context) *Attempt {
	if v := ctx.Value(ContextAttemptKey); v != nil {
		if attempt, ok := v.(*Attempt); ok {
			return attempt
		}
	}
	return nil
}
