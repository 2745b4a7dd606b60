package stats

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollector_RecordsOutcomes(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordSuccess("openai")
	c.RecordSuccess("openai")
	c.RecordFailure("openai", errors.New("timeout"))
	c.RecordFailure("anthropic", errors.New("rate limited"))

	snap := c.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(snap))
	}

	// Snapshot is sorted by provider name
	if snap[0].Name != "anthropic" || snap[1].Name != "openai" {
		t.Errorf("snapshot not sorted: %+v", snap)
	}

	openai := snap[1]
	if openai.SuccessCount != 2 || openai.FailureCount != 1 {
		t.Errorf("openai counters: %+v", openai)
	}
	if openai.LastError != "timeout" {
		t.Errorf("openai last error: %q", openai.LastError)
	}
	if openai.SuccessRate < 0.66 || openai.SuccessRate > 0.67 {
		t.Errorf("openai success rate: %f", openai.SuccessRate)
	}

	if snap[0].SuccessRate != 0 {
		t.Errorf("anthropic success rate: %f", snap[0].SuccessRate)
	}
}

func TestCollector_ConcurrentUpdates(t *testing.T) {
	c := NewCollector(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordSuccess("gemini")
			c.RecordFailure("gemini", errors.New("boom"))
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 provider, got %d", len(snap))
	}
	if snap[0].SuccessCount != 50 || snap[0].FailureCount != 50 {
		t.Errorf("counters lost updates: %+v", snap[0])
	}
}

func TestCollector_EmptySnapshot(t *testing.T) {
	c := NewCollector(nil)
	if snap := c.Snapshot(); len(snap) != 0 {
		t.Errorf("expected empty snapshot, got %d entries", len(snap))
	}
}
