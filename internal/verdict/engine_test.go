package verdict

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okarpov/claimlens/internal/cascade"
	"github.com/okarpov/claimlens/internal/llm"
	"github.com/okarpov/claimlens/internal/model"
	"github.com/okarpov/claimlens/internal/stats"
	"github.com/okarpov/claimlens/internal/worker"
)

type mockProvider struct {
	name  string
	reply string
}

func (p *mockProvider) Name() string { return p.name }

func (p *mockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.reply == "" {
		return "", errors.New("provider down")
	}
	return p.reply, nil
}

func (p *mockProvider) IsAvailable(ctx context.Context) bool { return true }

func fastExecutor() *cascade.Executor {
	return cascade.New(worker.NewProviderLimiter(1000, time.Minute), stats.NewCollector(nil), nil, 1, time.Millisecond)
}

func TestJudge_VerifiedClaim(t *testing.T) {
	p := &mockProvider{name: "anthropic", reply: `{"status": "verified", "confidence": 92, "reason": "directly stated"}`}
	e := NewEngine(fastExecutor(), []llm.Provider{p}, nil)

	v := e.Judge(context.Background(),
		model.Claim{ID: "c1", Text: "The Eiffel Tower is in Paris."},
		model.ClaimAnalysis{Intent: "factual"},
		[]model.Evidence{{Source: "Eiffel Tower", VerdictNote: "The Eiffel Tower is in Paris.", Kind: model.EvidenceKindKnowledgeBase}})

	if v.Status != model.StatusVerified {
		t.Errorf("status = %s, want verified", v.Status)
	}
	if v.Confidence != 92 {
		t.Errorf("confidence = %d, want 92", v.Confidence)
	}
	if v.Provider != "anthropic" {
		t.Errorf("provider = %q, want anthropic", v.Provider)
	}
}

func TestJudge_EnforcementAppliesToReply(t *testing.T) {
	// Provider says verified, but confidence is below the floor
	p := &mockProvider{name: "anthropic", reply: `{"status": "verified", "confidence": 70, "reason": "loose match"}`}
	e := NewEngine(fastExecutor(), []llm.Provider{p}, nil)

	v := e.Judge(context.Background(), model.Claim{ID: "c1", Text: "Something happened."}, model.ClaimAnalysis{}, nil)

	if v.Status != model.StatusHallucinated {
		t.Errorf("status = %s, want hallucinated after enforcement", v.Status)
	}
}

func TestJudge_ExhaustionDefaultsToHallucinated(t *testing.T) {
	p := &mockProvider{name: "anthropic"} // always fails
	e := NewEngine(fastExecutor(), []llm.Provider{p}, nil)

	v := e.Judge(context.Background(), model.Claim{ID: "c1", Text: "Unverifiable claim here."}, model.ClaimAnalysis{}, nil)

	if v.Status != model.StatusHallucinated {
		t.Errorf("status = %s, want hallucinated", v.Status)
	}
	if v.Confidence != 0 {
		t.Errorf("confidence = %d, want 0", v.Confidence)
	}
	if v.Reason != "AI verification unavailable" {
		t.Errorf("reason = %q", v.Reason)
	}
	if v.Provider != "" {
		t.Errorf("provider should be empty for the local default, got %q", v.Provider)
	}
}

func TestJudge_InvalidReplyExhaustsCascade(t *testing.T) {
	// Schema-violating reply fails every attempt; conservative default applies
	p := &mockProvider{name: "anthropic", reply: `{"status": "definitely true", "confidence": 92, "reason": "trust me"}`}
	e := NewEngine(fastExecutor(), []llm.Provider{p}, nil)

	v := e.Judge(context.Background(), model.Claim{ID: "c1", Text: "A claim."}, model.ClaimAnalysis{}, nil)

	if v.Status != model.StatusHallucinated || v.Reason != "AI verification unavailable" {
		t.Errorf("expected conservative default, got %+v", v)
	}
}

func TestBuildPrompt(t *testing.T) {
	claim := model.Claim{Text: "The system is officially deployed."}
	analysis := model.ClaimAnalysis{Intent: "factual", Attributes: []string{"deployment status"}}
	evidence := []model.Evidence{
		{Source: "Gov report", VerdictNote: "The agency plans to deploy the system.", Kind: model.EvidenceKindKnowledgeBase},
		{Source: "News", VerdictNote: "Rollout announced.", Kind: model.EvidenceKindWebSearch},
	}

	prompt := BuildPrompt(claim, analysis, evidence, true)

	if !strings.Contains(prompt, "absolutist language") {
		t.Error("prompt should flag absolutist claims")
	}
	if !strings.Contains(prompt, "[TENTATIVE: plans to]") {
		t.Error("prompt should carry normalized hedging markers")
	}
	if !strings.Contains(prompt, "deployment status") {
		t.Error("prompt should list the facets to check")
	}
	if !strings.Contains(prompt, "[Encyclopedia: Gov report]") || !strings.Contains(prompt, "[Web: News]") {
		t.Error("prompt should label evidence by kind")
	}
}

func TestBuildPrompt_NoEvidence(t *testing.T) {
	prompt := BuildPrompt(model.Claim{Text: "A claim."}, model.ClaimAnalysis{}, nil, false)
	if !strings.Contains(prompt, "(no evidence found)") {
		t.Error("prompt should state when no evidence exists")
	}
}

func TestBuildPrompt_CapsWebSnippets(t *testing.T) {
	var evidence []model.Evidence
	for i := 0; i < 10; i++ {
		evidence = append(evidence, model.Evidence{Source: "Hit", VerdictNote: "snippet", Kind: model.EvidenceKindWebSearch})
	}

	prompt := BuildPrompt(model.Claim{Text: "A claim."}, model.ClaimAnalysis{}, evidence, false)

	if got := strings.Count(prompt, "[Web: Hit]"); got != maxWebSnippets {
		t.Errorf("expected %d web snippets in prompt, got %d", maxWebSnippets, got)
	}
}
