package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nirvana_backend/internal/intake/domain"
)

// ErrNotConfigured is returned by optional collaborators that have no backend.
var ErrNotConfigured = errors.New("collaborator not configured")

// Call runs fn under its own timeout and converts the result into an Outcome.
// Errors, timeouts and panics all become Unavailable; the caller decides the
// fallback.
func Call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (out domain.Outcome[T]) {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			out = domain.Unavailable[T](fmt.Sprintf("panic: %v", r))
		}
	}()

	v, err := fn(callCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return domain.Unavailable[T]("timeout after " + timeout.String())
		}
		return domain.Unavailable[T](err.Error())
	}
	return domain.Available(v)
}
