// Package extract turns documents into atomic claims and claims into
// structured analyses. Both operations try the reasoning cascade first and
// fall back to deterministic, never-failing local extraction.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okarpov/claimlens/internal/cascade"
	"github.com/okarpov/claimlens/internal/llm"
	"github.com/okarpov/claimlens/internal/model"
)

// claimsSchema is the strict shape a claim-extraction reply must satisfy
const claimsSchema = `{
	"type": "object",
	"required": ["claims"],
	"properties": {
		"claims": {
			"type": "array",
			"items": {"type": "string", "minLength": 1}
		}
	}
}`

// ClaimSplitter splits a document into atomic factual claims
type ClaimSplitter struct {
	exec      *cascade.Executor
	providers []llm.Provider
	maxClaims int
	log       *zap.Logger
}

// NewClaimSplitter creates a splitter using the given cascade order
func NewClaimSplitter(exec *cascade.Executor, providers []llm.Provider, maxClaims int, log *zap.Logger) *ClaimSplitter {
	if maxClaims <= 0 {
		maxClaims = 20
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ClaimSplitter{
		exec:      exec,
		providers: providers,
		maxClaims: maxClaims,
		log:       log,
	}
}

// Split extracts atomic claims from the document. It never fails: when the
// cascade is exhausted the document is split into sentences instead.
func (s *ClaimSplitter) Split(ctx context.Context, text string) []model.Claim {
	var reply struct {
		Claims []string `json:"claims"`
	}

	provider, err := s.exec.Execute(ctx, s.providers, func(ctx context.Context, p llm.Provider) error {
		raw, genErr := p.Generate(ctx, s.buildPrompt(text))
		if genErr != nil {
			return genErr
		}
		return llm.ParseJSON(raw, claimsSchema, &reply)
	})

	if err != nil {
		s.log.Warn("claim extraction cascade exhausted, using sentence split", zap.Error(err))
		return s.fallbackSplit(text)
	}

	var claims []model.Claim
	for i, c := range dedupeStrings(reply.Claims) {
		if i >= s.maxClaims {
			break
		}
		claims = append(claims, model.Claim{
			ID:       uuid.NewString(),
			Text:     strings.TrimSpace(c),
			Sentence: i,
			Source:   "llm",
		})
	}

	if len(claims) == 0 {
		s.log.Debug("provider returned no claims", zap.String("provider", provider))
		return s.fallbackSplit(text)
	}
	return claims
}

func (s *ClaimSplitter) buildPrompt(text string) string {
	return fmt.Sprintf(`Extract every atomic, independently checkable factual claim from the text below.

Rules:
- One claim per fact. Split compound sentences.
- Keep names, dates, places, and quantities inside the claim.
- Skip opinions, questions, and instructions.
- Return at most %d claims.

Respond with JSON only: {"claims": ["...", "..."]}

Text:
%s`, s.maxClaims, truncate(text, 6000))
}

// fallbackSplit is the deterministic path: each sentence of plausible claim
// length becomes one claim.
func (s *ClaimSplitter) fallbackSplit(text string) []model.Claim {
	var claims []model.Claim
	for i, sentence := range SplitSentences(text) {
		if i >= s.maxClaims {
			break
		}
		claims = append(claims, model.Claim{
			ID:       uuid.NewString(),
			Text:     sentence,
			Sentence: i,
			Source:   "sentence-split",
		})
	}
	return claims
}

// SplitSentences splits text into sentences bounded to a plausible claim
// length (simple terminator heuristic, avoids splitting mid-abbreviation).
func SplitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\t') {
				appendSentence(&sentences, current.String())
				current.Reset()
			}
		}
	}
	appendSentence(&sentences, current.String())

	return sentences
}

func appendSentence(sentences *[]string, raw string) {
	sentence := strings.TrimSpace(raw)
	if len(sentence) >= 20 && len(sentence) <= 500 {
		*sentences = append(*sentences, sentence)
	}
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
