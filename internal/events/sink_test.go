package events

import (
	"testing"
	"time"
)

func TestMemorySink_BuffersAndDrains(t *testing.T) {
	s := NewMemorySink(4)

	s.Emit(Event{Type: "claim_state", ClaimID: "c1", At: time.Now()})
	s.Emit(Event{Type: "run_complete", At: time.Now()})

	got := s.Drain()
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != "claim_state" || got[1].Type != "run_complete" {
		t.Errorf("events out of order: %+v", got)
	}

	if again := s.Drain(); len(again) != 0 {
		t.Errorf("second drain should be empty, got %d", len(again))
	}
}

func TestMemorySink_DropsWhenFull(t *testing.T) {
	s := NewMemorySink(2)

	// Emitting past the buffer must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			s.Emit(Event{Type: "claim_state"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}

	if got := s.Drain(); len(got) != 2 {
		t.Errorf("expected 2 buffered events, got %d", len(got))
	}
}

func TestMulti_FansOut(t *testing.T) {
	a := NewMemorySink(4)
	b := NewMemorySink(4)
	m := Multi{a, b, NopSink{}}

	m.Emit(Event{Type: "provider_failure"})

	if len(a.Drain()) != 1 || len(b.Drain()) != 1 {
		t.Error("every sink should receive the event")
	}
}
