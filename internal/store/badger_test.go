package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okarpov/claimlens/internal/model"
)

func openTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadger(model.StoreConfig{InMemory: true}, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRun(runID, userID string) *model.VerificationRun {
	return &model.VerificationRun{
		RunID:     runID,
		UserID:    userID,
		InputText: "The Eiffel Tower is in Paris.",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Claims: []model.ClaimResult{
			{
				Claim:   model.Claim{ID: runID + "-claim-1", Text: "The Eiffel Tower is in Paris."},
				Verdict: model.Verdict{Status: model.StatusVerified, Confidence: 95},
				State:   model.StateVerdicted,
			},
		},
		TrustScore: 100,
		Label:      "High Confidence",
	}
}

func TestBadgerStore_SaveAndFindByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := sampleRun("run-1", "user-1")
	if err := s.Save(ctx, run); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.FindByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.RunID != run.RunID || got.TrustScore != run.TrustScore || len(got.Claims) != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Claims[0].Verdict.Status != model.StatusVerified {
		t.Errorf("claim verdict lost: %+v", got.Claims[0])
	}
}

func TestBadgerStore_FindByClaim(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, sampleRun("run-1", "user-1")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.FindByClaim(ctx, "run-1-claim-1")
	if err != nil {
		t.Fatalf("FindByClaim: %v", err)
	}
	if got.RunID != "run-1" {
		t.Errorf("expected run-1, got %s", got.RunID)
	}

	if _, err := s.FindByClaim(ctx, "no-such-claim"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBadgerStore_FindByUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-1", "run-2"} {
		if err := s.Save(ctx, sampleRun(id, "alice")); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	if err := s.Save(ctx, sampleRun("run-3", "bob")); err != nil {
		t.Fatalf("Save run-3: %v", err)
	}

	runs, err := s.FindByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUser: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs for alice, got %d", len(runs))
	}

	runs, err = s.FindByUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("FindByUser: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestBadgerStore_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, sampleRun("run-1", "user-1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(ctx, "run-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := s.FindByID(ctx, "run-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("run should be gone, got %v", err)
	}
	if _, err := s.FindByClaim(ctx, "run-1-claim-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("claim index should be gone, got %v", err)
	}
	runs, err := s.FindByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("FindByUser: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("user index should be gone, got %d runs", len(runs))
	}

	if err := s.Delete(ctx, "run-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleting a missing run: expected ErrNotFound, got %v", err)
	}
}

func TestBadgerStore_FindByID_NotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.FindByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
