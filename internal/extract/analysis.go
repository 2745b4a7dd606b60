package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/okarpov/claimlens/internal/cascade"
	"github.com/okarpov/claimlens/internal/llm"
	"github.com/okarpov/claimlens/internal/model"
)

// analysisSchema is the strict shape an analysis reply must satisfy
const analysisSchema = `{
	"type": "object",
	"required": ["entities", "intent", "search_query"],
	"properties": {
		"entities": {"type": "array", "items": {"type": "string"}},
		"intent": {"type": "string"},
		"attributes": {"type": "array", "items": {"type": "string"}},
		"search_query": {"type": "string"}
	}
}`

// stopWords are capitalized words that never count as entities on their own
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "this": true, "that": true,
	"these": true, "those": true, "it": true, "its": true, "in": true,
	"on": true, "at": true, "and": true, "or": true, "but": true,
	"however": true, "also": true, "according": true, "after": true,
	"before": true, "when": true, "where": true, "while": true,
	"officially": true, "recently": true, "currently": true,
}

// IsStopWordOnly reports whether every word of s is a stop word. Titles like
// "The" carry no source information and are filtered from run summaries.
func IsStopWordOnly(s string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return true
	}
	for _, f := range fields {
		w := strings.ToLower(strings.Trim(f, ".,;:!?\"'()[]"))
		if w != "" && !stopWords[w] {
			return false
		}
	}
	return true
}

// Analyzer turns one claim into a ClaimAnalysis driving evidence gathering
type Analyzer struct {
	exec      *cascade.Executor
	providers []llm.Provider
	log       *zap.Logger
}

// NewAnalyzer creates an analyzer using the given cascade order
func NewAnalyzer(exec *cascade.Executor, providers []llm.Provider, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{exec: exec, providers: providers, log: log}
}

// Analyze produces the structured breakdown of a claim. It never fails:
// cascade exhaustion or parse errors fall back to local entity extraction,
// possibly with empty entities.
func (a *Analyzer) Analyze(ctx context.Context, claim model.Claim) model.ClaimAnalysis {
	var reply model.ClaimAnalysis

	_, err := a.exec.Execute(ctx, a.providers, func(ctx context.Context, p llm.Provider) error {
		raw, genErr := p.Generate(ctx, buildAnalysisPrompt(claim.Text))
		if genErr != nil {
			return genErr
		}
		return llm.ParseJSON(raw, analysisSchema, &reply)
	})

	if err != nil {
		a.log.Warn("claim analysis cascade exhausted, using local extraction",
			zap.String("claim_id", claim.ID), zap.Error(err))
		return FallbackAnalysis(claim.Text)
	}

	if reply.SearchQuery == "" {
		reply.SearchQuery = truncate(claim.Text, 120)
	}
	return reply
}

func buildAnalysisPrompt(claim string) string {
	return fmt.Sprintf(`Analyze this factual claim for verification.

Claim: %q

Identify:
- entities: proper nouns worth looking up in an encyclopedia (people, places, organizations, works)
- intent: one of "factual", "attribution", "statistic", "temporal", "existence"
- attributes: the specific facets that must be checked (dates, places, quantities, titles)
- search_query: one concise web search query that would surface direct evidence

Respond with JSON only:
{"entities": [], "intent": "", "attributes": [], "search_query": ""}`, claim)
}

// FallbackAnalysis extracts entities deterministically: runs of capitalized
// words, excluding runs made only of stop words. The claim itself, truncated,
// becomes the search query. Never fails; entities may be empty.
func FallbackAnalysis(text string) model.ClaimAnalysis {
	var entities []string
	var run []string

	flush := func() {
		// Trim stop words off both ends ("The Eiffel Tower" -> "Eiffel Tower")
		for len(run) > 0 && stopWords[strings.ToLower(run[0])] {
			run = run[1:]
		}
		for len(run) > 0 && stopWords[strings.ToLower(run[len(run)-1])] {
			run = run[:len(run)-1]
		}
		if len(run) > 0 {
			entities = append(entities, strings.Join(run, " "))
		}
		run = nil
	}

	for _, word := range strings.Fields(text) {
		trimmed := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if trimmed != "" && unicode.IsUpper([]rune(trimmed)[0]) {
			run = append(run, trimmed)
		} else {
			flush()
		}
		// Punctuation inside the original token ends the run too
		if trimmed != word && len(run) > 0 && strings.ContainsAny(word, ".,;:!?") {
			flush()
		}
	}
	flush()

	return model.ClaimAnalysis{
		Entities:    dedupeStrings(entities),
		Intent:      "factual",
		SearchQuery: truncate(text, 120),
	}
}
