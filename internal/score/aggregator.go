// Package score folds per-claim verdicts into one run-level trust score,
// label, and summary. Aggregation is a pure function of the verdict list:
// re-running it on the same input always yields the same result.
package score

import (
	"fmt"
	"math"

	"github.com/okarpov/claimlens/internal/model"
)

// Verdict weights. Verified claims pull the score up, hallucinated claims
// pull it down harder than a verified claim lifts it.
const (
	weightVerified     = 1.0
	weightUncertain    = 0.3
	weightHallucinated = -1.5
)

// Result is the aggregated trust assessment for one run
type Result struct {
	Score     int                  `json:"score"` // 0..100
	Label     string               `json:"label"`
	Summary   string               `json:"summary"`
	Breakdown model.TrustBreakdown `json:"breakdown"`
}

// Aggregator computes the run-level trust score
type Aggregator struct{}

// NewAggregator creates a new aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate folds the verdict list into a score, a label, and a summary.
// Zero claims is the distinguished neutral case: score 50, label "No Claims".
func (a *Aggregator) Aggregate(verdicts []model.Verdict) Result {
	breakdown := countVerdicts(verdicts)

	if breakdown.Total == 0 {
		return Result{
			Score:     50,
			Label:     "No Claims",
			Summary:   "No verifiable claims were found in the text.",
			Breakdown: breakdown,
		}
	}

	raw := float64(breakdown.Verified)*weightVerified +
		float64(breakdown.Uncertain)*weightUncertain +
		float64(breakdown.Hallucinated)*weightHallucinated

	// Normalize onto [0,100] against the theoretical extremes so that an
	// all-verified run scores exactly 100 and an all-hallucinated run 0.
	min := float64(breakdown.Total) * weightHallucinated
	max := float64(breakdown.Total) * weightVerified
	score := int(math.Round((raw - min) / (max - min) * 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Result{
		Score:     score,
		Label:     label(breakdown),
		Summary:   summary(breakdown),
		Breakdown: breakdown,
	}
}

func countVerdicts(verdicts []model.Verdict) model.TrustBreakdown {
	b := model.TrustBreakdown{Total: len(verdicts)}
	for _, v := range verdicts {
		switch v.Status {
		case model.StatusVerified:
			b.Verified++
		case model.StatusUncertain:
			b.Uncertain++
		case model.StatusHallucinated:
			b.Hallucinated++
		}
	}
	return b
}

// label applies the priority cascade: any hallucination forces a risk tier;
// otherwise the verified ratio selects a confidence tier.
func label(b model.TrustBreakdown) string {
	total := float64(b.Total)

	if b.Hallucinated > 0 {
		ratio := float64(b.Hallucinated) / total
		switch {
		case ratio > 0.5:
			return "High Risk"
		case b.Hallucinated >= 2:
			return "Review Required"
		default:
			return "Caution"
		}
	}

	verifiedRatio := float64(b.Verified) / total
	switch {
	case verifiedRatio >= 0.7:
		return "High Confidence"
	case verifiedRatio >= 0.5:
		return "Moderate Confidence"
	}

	if float64(b.Uncertain)/total >= 0.5 {
		return "Low Confidence"
	}
	return "Review Recommended"
}

// summary names the exact counts so it is re-derivable from the breakdown
func summary(b model.TrustBreakdown) string {
	return fmt.Sprintf("%d of %d claims verified, %d uncertain, %d hallucinated.",
		b.Verified, b.Total, b.Uncertain, b.Hallucinated)
}
