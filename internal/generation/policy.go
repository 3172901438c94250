package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dohr-michael/dayplan/internal/config"
	"github.com/dohr-michael/dayplan/internal/models"
)

// ErrTimeout marks an attempt that exceeded its per-attempt deadline.
var ErrTimeout = errors.New("upstream call timed out")

// Policy bounds a remote call. Every attempt gets its own deadline; attempts
// are separated by a fixed delay.
type Policy struct {
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
}

// Default policies.
var (
	// DailyTaskPolicy bounds the primary task generator.
	DailyTaskPolicy = Policy{Timeout: 30 * time.Second, MaxAttempts: 1}
	// AssistantPolicy bounds conversational replies.
	AssistantPolicy = Policy{Timeout: 15 * time.Second, MaxAttempts: 2, Backoff: time.Second}
)

// PolicyFrom converts a config policy, filling zero fields from def.
func PolicyFrom(cfg config.PolicyConfig, def Policy) Policy {
	p := def
	if d := cfg.Timeout.Duration(); d > 0 {
		p.Timeout = d
	}
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if d := cfg.Backoff.Duration(); d > 0 {
		p.Backoff = d
	}
	return p
}

// Do runs fn until it succeeds, the attempts are exhausted or ctx is done.
// Model failures that retrying cannot fix end the loop early.
// It returns the number of attempts made and the last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	_, attempts, err := Run(ctx, p, func(actx context.Context) (struct{}, error) {
		return struct{}{}, fn(actx)
	})
	return attempts, err
}

// Run is Do for calls that produce a value. An attempt that outlives its
// deadline is abandoned: Run returns ErrTimeout without waiting for it, and
// whatever it produces later is discarded.
func Run[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(p.Backoff)
	b = backoff.WithMaxRetries(b, uint64(maxAttempts-1))
	b = backoff.WithContext(b, ctx)

	var out T
	attempts := 0
	op := func() error {
		attempts++
		v, err := attempt(ctx, p.Timeout, fn)
		if err != nil && (ctx.Err() != nil || models.IsPermanent(err)) {
			return backoff.Permanent(err)
		}
		if err == nil {
			out = v
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		slog.Debug("retrying upstream call", "attempt", attempts, "next", next, "error", err)
	}

	err := backoff.RetryNotify(op, b, notify)
	return out, attempts, err
}

type attemptResult[T any] struct {
	v   T
	err error
}

func attempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// buffered so an abandoned call can still finish and exit
	done := make(chan attemptResult[T], 1)
	go func() {
		v, err := fn(actx)
		done <- attemptResult[T]{v, err}
	}()

	var r attemptResult[T]
	select {
	case r = <-done:
	case <-actx.Done():
		select {
		case r = <-done:
		default:
			var zero T
			if err := ctx.Err(); err != nil {
				return zero, err
			}
			return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
	}
	if r.err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		return r.v, fmt.Errorf("%w after %s: %v", ErrTimeout, timeout, r.err)
	}
	return r.v, r.err
}
