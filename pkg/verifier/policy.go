package verifier

import (
	"context"
	"errors"
	"time"

	"posemarket-be/pkg/apperrors"
)

// Policy is the retry/fallback discipline over an ordered strategy
// list. It is pure: strategies, the retryable predicate, and the sleep
// function are all injected, so the policy is unit-testable without
// network access.
//
// Per strategy: a rate-limit error moves straight to the next one; any
// other error earns a single retry after a fixed backoff. The first
// success stops the chain. Total time is bounded by
// len(strategies) × 2 attempts × Backoff.
type Policy struct {
	AttemptsPerStrategy int
	Backoff             time.Duration
	IsRateLimited       func(error) bool
	Sleep               func(context.Context, time.Duration) error
}

// DefaultPolicy mirrors the production configuration.
func DefaultPolicy() Policy {
	return Policy{
		AttemptsPerStrategy: 2,
		Backoff:             2 * time.Second,
		IsRateLimited:       func(err error) bool { return errors.Is(err, apperrors.ErrRateLimited) },
		Sleep: func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		},
	}
}

// Strategy is one fallback candidate.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// RunFallback evaluates strategies in order under the policy. When
// every strategy is exhausted it returns ErrVerifierUnavailable: a
// definite "unavailable" result within the fixed bound, never a hang.
func RunFallback[T any](ctx context.Context, p Policy, strategies []Strategy[T]) (T, string, error) {
	var zero T
	attempts := p.AttemptsPerStrategy
	if attempts < 1 {
		attempts = 1
	}

	for _, strat := range strategies {
		for attempt := 0; attempt < attempts; attempt++ {
			if ctx.Err() != nil {
				return zero, "", ctx.Err()
			}
			out, err := strat.Run(ctx)
			if err == nil {
				return out, strat.Name, nil
			}
			if p.IsRateLimited != nil && p.IsRateLimited(err) {
				break // quota errors skip retries, next model
			}
			if attempt+1 < attempts && p.Sleep != nil {
				if serr := p.Sleep(ctx, p.Backoff); serr != nil {
					return zero, "", serr
				}
			}
		}
	}
	return zero, "", apperrors.ErrVerifierUnavailable
}
