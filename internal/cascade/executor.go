// Package cascade executes reasoning work against an ordered list of
// providers: bounded exponential-backoff retries against one provider, then
// escalation to the next. Provider unavailability never aborts an
// end-to-end verification; when the whole cascade is exhausted the caller
// falls back to its deterministic local path.
package cascade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okarpov/claimlens/internal/events"
	"github.com/okarpov/claimlens/internal/llm"
	"github.com/okarpov/claimlens/internal/stats"
	"github.com/okarpov/claimlens/internal/worker"
)

// WorkFunc is one unit of reasoning work against a provider. It typically
// calls Generate and parses the reply; a parse failure is a failure of the
// attempt and will be retried.
type WorkFunc func(ctx context.Context, p llm.Provider) error

// ExhaustedError reports that every provider in a cascade failed
type ExhaustedError struct {
	Causes []ProviderFailure
}

// ProviderFailure is the final error of one exhausted provider
type ProviderFailure struct {
	Provider string
	Err      error
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		parts[i] = fmt.Sprintf("%s: %v", c.Provider, c.Err)
	}
	return "all providers exhausted: " + strings.Join(parts, "; ")
}

// Executor wraps work units with admission control, retries, and escalation
type Executor struct {
	limiter    *worker.ProviderLimiter
	collector  *stats.Collector
	sink       events.Sink
	maxRetries int
	backoff    time.Duration

	// sleep is injectable for tests
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an executor. maxRetries defaults to 3 and the backoff base to
// one second, giving the 1s, 2s, 4s retry schedule.
func New(limiter *worker.ProviderLimiter, collector *stats.Collector, sink events.Sink, maxRetries int, backoffBase time.Duration) *Executor {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Executor{
		limiter:    limiter,
		collector:  collector,
		sink:       sink,
		maxRetries: maxRetries,
		backoff:    backoffBase,
		sleep:      sleepContext,
	}
}

// ExecuteWithRetry runs fn against one provider with bounded retries. Every
// attempt is preceded by rate-limiter admission; attempt n waits
// backoff·2^(n-1) after failing. After maxRetries consecutive failures the
// provider failure is recorded, a failure event is emitted, and the last
// error propagates so the caller can escalate.
func (e *Executor) ExecuteWithRetry(ctx context.Context, provider llm.Provider, fn WorkFunc) error {
	var lastErr error

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		if err := e.limiter.Admit(ctx, provider.Name()); err != nil {
			return fmt.Errorf("admission: %w", err)
		}

		err := fn(ctx, provider)
		if err == nil {
			e.collector.RecordSuccess(provider.Name())
			return nil
		}
		lastErr = err

		wait := e.backoff << (attempt - 1)
		if sleepErr := e.sleep(ctx, wait); sleepErr != nil {
			lastErr = sleepErr
			break
		}
	}

	e.collector.RecordFailure(provider.Name(), lastErr)
	e.sink.Emit(events.Event{
		Type:    "provider_failure",
		Message: fmt.Sprintf("provider %s exhausted after %d attempts: %v", provider.Name(), e.maxRetries, lastErr),
		Status:  "failed",
		At:      time.Now().UTC(),
	})

	return fmt.Errorf("provider %s exhausted: %w", provider.Name(), lastErr)
}

// Execute cascades fn across providers in priority order, returning the name
// of the provider that succeeded. When every provider is exhausted it
// returns an ExhaustedError; the caller must then use its deterministic
// local fallback rather than fail the operation.
func (e *Executor) Execute(ctx context.Context, providers []llm.Provider, fn WorkFunc) (string, error) {
	if len(providers) == 0 {
		return "", &ExhaustedError{}
	}

	var causes []ProviderFailure
	for _, p := range providers {
		err := e.ExecuteWithRetry(ctx, p, fn)
		if err == nil {
			return p.Name(), nil
		}
		causes = append(causes, ProviderFailure{Provider: p.Name(), Err: err})

		// A cancelled context fails every remaining provider identically;
		// stop escalating.
		if ctx.Err() != nil {
			break
		}
	}

	return "", &ExhaustedError{Causes: causes}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
