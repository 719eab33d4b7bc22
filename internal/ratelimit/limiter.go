// Package ratelimit implements fixed-window rate limiting keyed by subject and action.
// Counters live in a Store so the same Limiter works against process memory
// or a shared Redis instance.
package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

// Well-known actions.
const (
	ActionTranslate = "translate"
	ActionExtract   = "extract"
	ActionLogin     = "login"
)

// Policy is the limit applied to one action.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of a single check.
// Remaining is -1 when the action has no configured policy.
type Decision struct {
	Allowed           bool
	Limit             int
	Remaining         int
	RetryAfterSeconds int
}

// Bucket is the counter state after an increment.
type Bucket struct {
	Count       int
	WindowStart time.Time
}

// Store increments the counter for key in one atomic step. An expired
// window is reset before the increment.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration, now time.Time) (Bucket, error)
}

// Checker is the interface consumers depend on.
type Checker interface {
	Check(ctx context.Context, subject, action string) (Decision, error)
	Enforce(ctx context.Context, subject, action string) error
}

// Limiter evaluates policies against a Store.
type Limiter struct {
	store    Store
	policies map[string]Policy
	prefix   string
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithKeyPrefix sets the prefix prepended to every bucket key.
func WithKeyPrefix(prefix string) Option {
	return func(l *Limiter) { l.prefix = prefix }
}

// New creates a Limiter over store with the given per-action policies.
func New(store Store, policies map[string]Policy, logger *slog.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		store:    store,
		policies: policies,
		now:      time.Now,
		logger:   logger.With("system", "ratelimit"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check increments the (subject, action) bucket and reports whether the call is allowed.
func (l *Limiter) Check(ctx context.Context, subject, action string) (Decision, error) {
	policy, ok := l.policies[action]
	if !ok {
		return Decision{Allowed: true, Remaining: -1}, nil
	}

	now := l.now()
	bucket, err := l.store.Increment(ctx, l.key(subject, action), policy.Window, now)
	if err != nil {
		return Decision{}, apperror.Wrap(apperror.CodeExternalService, err, "rate limit store").
			WithDetail("action", action)
	}

	d := Decision{
		Allowed:   bucket.Count <= policy.Limit,
		Limit:     policy.Limit,
		Remaining: max(policy.Limit-bucket.Count, 0),
	}

	if !d.Allowed {
		d.RetryAfterSeconds = retryAfter(bucket.WindowStart, policy.Window, now)
		l.logger.Warn("rate limit exceeded",
			"subject", subject,
			"action", action,
			"count", bucket.Count,
			"retry_after", d.RetryAfterSeconds,
		)
	}

	return d, nil
}

// Enforce returns a RATE_LIMIT_EXCEEDED AppError when the call is denied.
func (l *Limiter) Enforce(ctx context.Context, subject, action string) error {
	d, err := l.Check(ctx, subject, action)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return apperror.RateLimited(action, d.RetryAfterSeconds)
	}
	return nil
}

func (l *Limiter) key(subject, action string) string {
	return l.prefix + action + ":" + subject
}

func retryAfter(windowStart time.Time, window time.Duration, now time.Time) int {
	remaining := windowStart.Add(window).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}
