package verdict

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/okarpov/claimlens/internal/cascade"
	"github.com/okarpov/claimlens/internal/llm"
	"github.com/okarpov/claimlens/internal/model"
)

// verdictSchema is the strict shape a verdict reply must satisfy. Anything
// else (extra statuses, out-of-range confidence, missing fields) fails the
// attempt so the cascade retries.
const verdictSchema = `{
	"type": "object",
	"required": ["status", "confidence", "reason"],
	"properties": {
		"status": {
			"type": "string",
			"enum": ["verified", "partially_verified", "hallucinated", "uncertain", "insufficient_evidence"]
		},
		"confidence": {"type": "integer", "minimum": 0, "maximum": 100},
		"reason": {"type": "string"}
	}
}`

const (
	maxKnowledgeChars = 800
	maxSnippetChars   = 300
	maxWebSnippets    = 5
)

// exhaustionVerdict is the fixed conservative default when every provider
// failed. Unverifiable must never be reported as verified.
var exhaustionVerdict = model.Verdict{
	Status:     model.StatusHallucinated,
	Confidence: 0,
	Reason:     "AI verification unavailable",
}

// Engine renders the verdict for one claim
type Engine struct {
	exec      *cascade.Executor
	providers []llm.Provider
	log       *zap.Logger
}

// NewEngine creates a verdict engine. The provider order may differ from the
// extraction cascade's; the fastest, most stable provider usually goes first.
func NewEngine(exec *cascade.Executor, providers []llm.Provider, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{exec: exec, providers: providers, log: log}
}

// Judge classifies the claim given its gathered evidence. It never fails:
// cascade exhaustion yields the fixed conservative default.
func (e *Engine) Judge(ctx context.Context, claim model.Claim, analysis model.ClaimAnalysis, evidence []model.Evidence) model.Verdict {
	absolutist := IsAbsolutist(claim.Text)
	prompt := BuildPrompt(claim, analysis, evidence, absolutist)

	var raw rawVerdict
	provider, err := e.exec.Execute(ctx, e.providers, func(ctx context.Context, p llm.Provider) error {
		reply, genErr := p.Generate(ctx, prompt)
		if genErr != nil {
			return genErr
		}
		return llm.ParseJSON(reply, verdictSchema, &raw)
	})

	if err != nil {
		e.log.Warn("verdict cascade exhausted, using conservative default",
			zap.String("claim_id", claim.ID), zap.Error(err))
		return exhaustionVerdict
	}

	verdict := Enforce(raw, absolutist)
	verdict.Provider = provider
	return verdict
}

// BuildPrompt assembles the verdict request: claim, analysis, normalized and
// length-capped evidence, and the decision rubric.
func BuildPrompt(claim model.Claim, analysis model.ClaimAnalysis, evidence []model.Evidence, absolutist bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Verify this claim against the evidence below.\n\nClaim: %q\n", claim.Text)

	if analysis.Intent != "" {
		fmt.Fprintf(&sb, "Claim type: %s\n", analysis.Intent)
	}
	if len(analysis.Attributes) > 0 {
		fmt.Fprintf(&sb, "Facets to check: %s\n", strings.Join(analysis.Attributes, ", "))
	}
	if absolutist {
		sb.WriteString("Note: the claim uses absolutist language; it is only verified if the evidence confirms the totality it asserts.\n")
	}

	sb.WriteString("\nEvidence:\n")
	kbCount, webCount := 0, 0
	for _, ev := range evidence {
		note := NormalizeEvidence(ev.VerdictNote)
		switch ev.Kind {
		case model.EvidenceKindKnowledgeBase:
			kbCount++
			fmt.Fprintf(&sb, "[Encyclopedia: %s] %s\n", ev.Source, capNote(note, maxKnowledgeChars))
		case model.EvidenceKindPageExtract:
			fmt.Fprintf(&sb, "[Page extract: %s] %s\n", ev.Source, capNote(note, maxKnowledgeChars))
		default:
			if webCount >= maxWebSnippets {
				continue
			}
			webCount++
			fmt.Fprintf(&sb, "[Web: %s] %s\n", ev.Source, capNote(note, maxSnippetChars))
		}
	}
	if kbCount == 0 && webCount == 0 {
		sb.WriteString("(no evidence found)\n")
	}

	sb.WriteString(`
Decision rubric:
- "verified" only when the evidence DIRECTLY states the fact, with exact match on names, dates, and places, and without hedging. Text marked [TENTATIVE: ...] is hedged and does not confirm anything.
- Missing, contradicting, or hedged evidence means the claim is NOT supported.
- Use "hallucinated" when evidence contradicts the claim or no direct support exists.
- Use "uncertain" only when evidence is relevant but genuinely inconclusive.
- "partially_verified" means some but not all facets are supported.

Respond with JSON only:
{"status": "verified|partially_verified|hallucinated|uncertain", "confidence": 0-100, "reason": "..."}`)

	return sb.String()
}

func capNote(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
