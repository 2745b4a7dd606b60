// Package stats tracks per-provider success/failure counters. The counters
// are shared across all concurrent claim pipelines, so every update is
// serialized behind one mutex; readers get consistent snapshots.
package stats

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/okarpov/claimlens/internal/model"
)

// Collector accumulates provider call outcomes for the lifetime of the
// process. Counters reset only on restart.
type Collector struct {
	mu        sync.Mutex
	providers map[string]*counters

	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
}

type counters struct {
	success   int64
	failure   int64
	lastError string
}

// NewCollector creates a collector. When reg is non-nil the counters are
// mirrored to Prometheus for the /metrics endpoint.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		providers: make(map[string]*counters),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "claimlens",
			Name:      "provider_success_total",
			Help:      "Successful reasoning provider calls.",
		}, []string{"provider"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "claimlens",
			Name:      "provider_failure_total",
			Help:      "Exhausted reasoning provider calls.",
		}, []string{"provider"}),
	}

	if reg != nil {
		reg.MustRegister(c.successes, c.failures)
	}
	return c
}

// RecordSuccess records one successful provider call
func (c *Collector) RecordSuccess(provider string) {
	c.mu.Lock()
	c.counters(provider).success++
	c.mu.Unlock()

	c.successes.WithLabelValues(provider).Inc()
}

// RecordFailure records one exhausted provider call with its final error
func (c *Collector) RecordFailure(provider string, err error) {
	c.mu.Lock()
	ctr := c.counters(provider)
	ctr.failure++
	if err != nil {
		ctr.lastError = err.Error()
	}
	c.mu.Unlock()

	c.failures.WithLabelValues(provider).Inc()
}

// Snapshot returns a consistent read-only view of all provider stats,
// sorted by provider name.
func (c *Collector) Snapshot() []model.ProviderStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.ProviderStats, 0, len(c.providers))
	for name, ctr := range c.providers {
		total := ctr.success + ctr.failure
		rate := 0.0
		if total > 0 {
			rate = float64(ctr.success) / float64(total)
		}
		out = append(out, model.ProviderStats{
			Name:         name,
			SuccessCount: ctr.success,
			FailureCount: ctr.failure,
			LastError:    ctr.lastError,
			SuccessRate:  rate,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// counters returns the entry for a provider. Caller holds the lock.
func (c *Collector) counters(provider string) *counters {
	ctr, ok := c.providers[provider]
	if !ok {
		ctr = &counters{}
		c.providers[provider] = ctr
	}
	return ctr
}
