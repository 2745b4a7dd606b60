// Package verdict classifies one claim as Verified, Hallucinated, or
// Uncertain given its evidence. The reasoning engine proposes a raw verdict;
// a deterministic enforcement pass converts it into the final
// classification. The policy is binary-biased: partial or weak support is
// treated as non-support, and total provider exhaustion defaults to
// Hallucinated, so unverifiable content is never reported as verified.
package verdict

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/okarpov/claimlens/internal/model"
)

const (
	// ConfidenceFloor is the minimum confidence for a verified verdict
	ConfidenceFloor = 85

	// AbsolutistFloor applies to claims with absolutist language
	AbsolutistFloor = 90
)

// hedgingTerms are words and phrases that signal tentative, future-intent,
// or non-production language in evidence. They are rewritten with an
// explicit marker so the reasoning prompt cannot mistake a tentative
// statement for confirmation.
var hedgingTerms = []string{
	"may", "might", "could", "would", "should",
	"plans to", "planning to", "intends to", "intended to",
	"expected to", "aims to", "aiming to", "hopes to",
	"exploring", "considering", "evaluating", "investigating",
	"pilot", "piloting", "trial", "prototype", "proof of concept",
	"proposed", "reportedly", "allegedly", "rumored",
}

// absolutistTerms mark claims that assert totality or official status; such
// claims require the stricter confidence floor.
var absolutistTerms = []string{
	"all", "always", "every", "never", "none",
	"officially", "deployed", "launched", "completed",
	"guaranteed", "confirmed", "definitely", "certainly",
	"fully", "completely", "entirely", "100%",
}

var hedgingPattern = buildTermPattern(hedgingTerms)
var absolutistPattern = buildTermPattern(absolutistTerms)

func buildTermPattern(terms []string) *regexp.Regexp {
	escaped := make([]string, len(terms))
	for i, t := range terms {
		escaped[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// NormalizeEvidence rewrites hedging language into explicit uncertainty
// markers, e.g. "plans to deploy" -> "[TENTATIVE: plans to] deploy".
func NormalizeEvidence(text string) string {
	return hedgingPattern.ReplaceAllStringFunc(text, func(match string) string {
		return fmt.Sprintf("[TENTATIVE: %s]", match)
	})
}

// IsAbsolutist reports whether a claim contains absolutist language
func IsAbsolutist(claim string) bool {
	return absolutistPattern.MatchString(claim)
}

// rawVerdict is the schema-validated reply from the reasoning engine
type rawVerdict struct {
	Status     string `json:"status"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
}

// Enforce applies the deterministic post-processing rules to a raw verdict.
// No remote calls happen here; given the same input it always produces the
// same output.
func Enforce(raw rawVerdict, absolutist bool) model.Verdict {
	confidence := clampConfidence(raw.Confidence)
	reason := strings.TrimSpace(raw.Reason)

	switch strings.ToLower(strings.TrimSpace(raw.Status)) {
	case "verified":
		floor := ConfidenceFloor
		if absolutist {
			floor = AbsolutistFloor
		}
		if confidence < floor {
			return model.Verdict{
				Status:     model.StatusHallucinated,
				Confidence: confidence,
				Reason:     fmt.Sprintf("confidence %d below the %d floor for a verified verdict: %s", confidence, floor, reason),
			}
		}
		return model.Verdict{Status: model.StatusVerified, Confidence: confidence, Reason: reason}

	case "partially_verified":
		// Partial evidence does not confirm.
		return model.Verdict{
			Status:     model.StatusHallucinated,
			Confidence: confidence,
			Reason:     "partially supported evidence is treated as non-support: " + reason,
		}

	case "uncertain", "insufficient_evidence":
		return model.Verdict{Status: model.StatusUncertain, Confidence: confidence, Reason: reason}

	default:
		return model.Verdict{Status: model.StatusHallucinated, Confidence: confidence, Reason: reason}
	}
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
