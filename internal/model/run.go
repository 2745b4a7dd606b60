package model

import "time"

// ClaimResult bundles one claim with its analysis outcome
type ClaimResult struct {
	Claim    Claim      `json:"claim"`
	Verdict  Verdict    `json:"verdict"`
	Evidence []Evidence `json:"evidence"`
	State    ClaimState `json:"state"`
}

// VerificationRun is the complete result of analyzing one document.
// It is constructed once per analyze invocation and immutable afterwards.
type VerificationRun struct {
	RunID        string        `json:"run_id"`
	UserID       string        `json:"user_id,omitempty"`
	InputText    string        `json:"input_text"`
	CreatedAt    time.Time     `json:"created_at"`
	Claims       []ClaimResult `json:"claims"`
	TrustScore   int           `json:"trust_score"` // 0..100
	Label        string        `json:"label"`
	Summary      string        `json:"summary"`
	Sources      []string      `json:"sources"`       // Deduplicated evidence source titles
	VerifiedText string        `json:"verified_text"` // Input with hallucinated sentences removed
}

// TrustBreakdown is the verdict distribution behind a trust score
type TrustBreakdown struct {
	Verified     int `json:"verified"`
	Uncertain    int `json:"uncertain"`
	Hallucinated int `json:"hallucinated"`
	Total        int `json:"total"`
}

// ProviderStats are process-wide counters for one reasoning provider.
// Updated through the stats collector only; this struct is the read-only
// snapshot form.
type ProviderStats struct {
	Name         string  `json:"name"`
	SuccessCount int64   `json:"success_count"`
	FailureCount int64   `json:"failure_count"`
	LastError    string  `json:"last_error,omitempty"`
	SuccessRate  float64 `json:"success_rate"`
}
