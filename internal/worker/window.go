package worker

import (
	"context"
	"sync"
	"time"
)

// ProviderLimiter bounds the outbound call rate to each reasoning provider
// independently. It guarantees that no more than cap admissions start within
// any window-length interval, per provider. Admission never drops a call;
// a blocked caller waits until the oldest admission ages out of the window.
type ProviderLimiter struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow

	defaultCap int
	defaultWin time.Duration
}

// NewProviderLimiter creates a limiter with the given default cap/window,
// applied to providers without an explicit configuration.
func NewProviderLimiter(defaultCap int, defaultWin time.Duration) *ProviderLimiter {
	if defaultCap <= 0 {
		defaultCap = 10
	}
	if defaultWin <= 0 {
		defaultWin = time.Minute
	}
	return &ProviderLimiter{
		windows:    make(map[string]*slidingWindow),
		defaultCap: defaultCap,
		defaultWin: defaultWin,
	}
}

// SetProviderRate sets a distinct cap/window pair for one provider,
// reflecting its upstream quota.
func (l *ProviderLimiter) SetProviderRate(provider string, cap int, window time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cap <= 0 {
		cap = l.defaultCap
	}
	if window <= 0 {
		window = l.defaultWin
	}
	l.windows[provider] = newSlidingWindow(cap, window)
}

// Admit blocks until a call to the provider may start without exceeding its
// cap within the trailing window. Returns early only on context cancellation.
func (l *ProviderLimiter) Admit(ctx context.Context, provider string) error {
	return l.window(provider).admit(ctx)
}

func (l *ProviderLimiter) window(provider string) *slidingWindow {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[provider]
	if !ok {
		w = newSlidingWindow(l.defaultCap, l.defaultWin)
		l.windows[provider] = w
	}
	return w
}

// slidingWindow records admission start times and serializes admission
// decisions for one provider across all concurrent callers.
type slidingWindow struct {
	mu     sync.Mutex
	cap    int
	win    time.Duration
	starts []time.Time
	now    func() time.Time
}

func newSlidingWindow(cap int, win time.Duration) *slidingWindow {
	return &slidingWindow{
		cap: cap,
		win: win,
		now: time.Now,
	}
}

func (w *slidingWindow) admit(ctx context.Context) error {
	for {
		w.mu.Lock()
		now := w.now()
		w.prune(now)

		if len(w.starts) < w.cap {
			w.starts = append(w.starts, now)
			w.mu.Unlock()
			return nil
		}

		// Wait until the oldest admission falls out of the window, then
		// re-check: another caller may have taken the freed slot.
		wait := w.starts[0].Add(w.win).Sub(now)
		w.mu.Unlock()

		if wait <= 0 {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// prune drops admissions older than the window. Caller holds the lock.
func (w *slidingWindow) prune(now time.Time) {
	cutoff := now.Add(-w.win)
	i := 0
	for i < len(w.starts) && !w.starts[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.starts = append(w.starts[:0], w.starts[i:]...)
	}
}
