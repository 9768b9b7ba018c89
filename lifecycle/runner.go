package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	persons "github.com/getpup/persons-api"
	"github.com/getpup/persons-api/metrics"
	"github.com/getpup/persons-api/store"
	"github.com/google/uuid"
)

const (
	// DefaultMaxRetries is the default number of retries after the first attempt.
	DefaultMaxRetries = 10

	// DefaultInitialDelay is the default wait before the first retry.
	DefaultInitialDelay = 5000 * time.Millisecond

	// DefaultMaxDelay caps the doubling backoff.
	DefaultMaxDelay = 30000 * time.Millisecond
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a MigrationRunner.
type Option func(*MigrationRunner)

// WithMaxRetries sets the number of retries after the first attempt.
// A runner with n retries makes at most n+1 attempts. Negative values are treated as 0.
func WithMaxRetries(n int) Option {
	return func(r *MigrationRunner) {
		if n < 0 {
			n = 0
		}
		r.maxRetries = n
	}
}

// WithInitialDelay sets the wait before the first retry (default: 5s).
func WithInitialDelay(d time.Duration) Option {
	return func(r *MigrationRunner) {
		if d > 0 {
			r.initialDelay = d
		}
	}
}

// WithMaxDelay sets the backoff ceiling (default: 30s).
func WithMaxDelay(d time.Duration) Option {
	return func(r *MigrationRunner) {
		if d > 0 {
			r.maxDelay = d
		}
	}
}

// WithLogger sets the logger (default: nil, no logging).
func WithLogger(logger persons.Logger) Option {
	return func(r *MigrationRunner) {
		r.logger = logger
	}
}

// WithMetrics enables metrics through the given collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *MigrationRunner) {
		r.metrics = c
	}
}

// WithSleep replaces the wait between attempts. Tests use it to record delays.
func WithSleep(sleep SleepFunc) Option {
	return func(r *MigrationRunner) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// MigrationRunner brings the schema up to date before the service accepts traffic.
// Failed attempts are retried with a doubling delay capped at the max delay;
// once the retry budget is exhausted the failure is returned as fatal.
type MigrationRunner struct {
	migrator     store.Migrator
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	logger       persons.Logger
	metrics      *metrics.Collector
	sleep        SleepFunc

	mu       sync.RWMutex
	state    persons.MigrationState
	attempts int
}

// NewMigrationRunner creates a runner for the given migrator.
func NewMigrationRunner(migrator store.Migrator, opts ...Option) *MigrationRunner {
	r := &MigrationRunner{
		migrator:     migrator,
		maxRetries:   DefaultMaxRetries,
		initialDelay: DefaultInitialDelay,
		maxDelay:     DefaultMaxDelay,
		sleep:        Sleep,
		state:        persons.MigrationStateAttempting,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// MaxAttempts returns the total number of attempts the runner will make.
func (r *MigrationRunner) MaxAttempts() int {
	return r.maxRetries + 1
}

// State returns the current runner state.
func (r *MigrationRunner) State() persons.MigrationState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Attempts returns the number of migration calls made so far.
func (r *MigrationRunner) Attempts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.attempts
}

// Run calls the migrator until it succeeds or the retry budget is exhausted.
// Returns nil on success. Otherwise returns an error wrapping
// persons.ErrMigrationFailed and the last migration error; the caller must
// not start serving requests in that case.
func (r *MigrationRunner) Run(ctx context.Context) error {
	if r.migrator == nil {
		return fmt.Errorf("%w: migrator is required", persons.ErrMigrationFailed)
	}

	runID := uuid.New().String()
	maxAttempts := r.MaxAttempts()
	delays := r.newBackOff()
	start := time.Now()

	for attempt := 1; ; attempt++ {
		r.setState(persons.MigrationStateAttempting)
		r.info(ctx, "applying database migrations", "run_id", runID, "attempt", attempt, "max_attempts", maxAttempts)

		outcome, err := r.attempt(ctx, attempt, maxAttempts)
		if r.metrics != nil {
			r.metrics.IncMigrationAttempts(outcome)
		}

		switch outcome {
		case persons.OutcomeSucceeded:
			r.setState(persons.MigrationStateSucceeded)
			r.observeDuration(start)
			r.info(ctx, "database migrations applied", "run_id", runID, "attempts", attempt)
			return nil

		case persons.OutcomeFatal:
			r.setState(persons.MigrationStateFatalFailed)
			r.observeDuration(start)
			r.logError(ctx, "database migration failed, giving up", "run_id", runID, "attempts", attempt, "error", err)
			return fmt.Errorf("%w after %d attempt(s): %w", persons.ErrMigrationFailed, attempt, err)
		}

		delay := min(delays.NextBackOff(), r.maxDelay)
		r.warn(ctx, "database migration attempt failed, retrying", "run_id", runID, "attempt", attempt, "max_attempts", maxAttempts, "delay", delay, "error", err)

		r.setState(persons.MigrationStateBackoffWait)
		if r.metrics != nil {
			r.metrics.ObserveMigrationBackoff(delay.Seconds())
		}

		if err := r.sleep(ctx, delay); err != nil {
			r.setState(persons.MigrationStateFatalFailed)
			r.logError(ctx, "database migration interrupted", "run_id", runID, "attempts", attempt, "error", err)
			return fmt.Errorf("%w: interrupted during backoff: %w", persons.ErrMigrationFailed, err)
		}
	}
}

// attempt makes one migration call and classifies its result.
// Failures are transient while attempts remain and fatal afterwards, or when
// ctx is already done.
func (r *MigrationRunner) attempt(ctx context.Context, attempt, maxAttempts int) (persons.Outcome, error) {
	r.mu.Lock()
	r.attempts = attempt
	r.mu.Unlock()

	err := r.migrator.Migrate(ctx)
	switch {
	case err == nil:
		return persons.OutcomeSucceeded, nil
	case ctx.Err() != nil:
		return persons.OutcomeFatal, errors.Join(err, ctx.Err())
	case attempt >= maxAttempts:
		return persons.OutcomeFatal, err
	default:
		return persons.OutcomeTransient, err
	}
}

// newBackOff returns a jitter-free doubling schedule starting at the initial delay.
func (r *MigrationRunner) newBackOff() backoff.BackOff {
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(min(r.initialDelay, r.maxDelay)),
		backoff.WithRandomizationFactor(0),
		backoff.WithMultiplier(2),
		backoff.WithMaxInterval(r.maxDelay),
		backoff.WithMaxElapsedTime(0),
	)
}

func (r *MigrationRunner) setState(state persons.MigrationState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.SetMigrationState(state)
	}
}

func (r *MigrationRunner) observeDuration(start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveMigrationDuration(time.Since(start).Seconds())
	}
}

func (r *MigrationRunner) info(ctx context.Context, msg string, keyvals ...any) {
	if r.logger != nil {
		r.logger.Info(ctx, msg, keyvals...)
	}
}

func (r *MigrationRunner) warn(ctx context.Context, msg string, keyvals ...any) {
	if r.logger != nil {
		r.logger.Warn(ctx, msg, keyvals...)
	}
}

func (r *MigrationRunner) logError(ctx context.Context, msg string, keyvals ...any) {
	if r.logger != nil {
		r.logger.Error(ctx, msg, keyvals...)
	}
}

// Sleep waits for d, returning early with ctx.Err() if ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
