package model

// Claim represents an atomic factual assertion extracted from a document
type Claim struct {
	ID       string `json:"id"`                 // Unique claim identifier
	Text     string `json:"text"`               // The claim text itself
	Sentence int    `json:"sentence,omitempty"` // Sentence index in source (0-based)
	Source   string `json:"source,omitempty"`   // Which extraction path produced it ("llm", "sentence-split")
}

// ClaimState tracks a claim through the verification pipeline
type ClaimState string

const (
	StatePending          ClaimState = "pending"
	StateAnalyzing        ClaimState = "analyzing"
	StateEvidenceGathered ClaimState = "evidence_gathered"
	StateVerdicted        ClaimState = "verdicted"
)

// ClaimAnalysis is the structured breakdown of one claim, used to drive
// evidence gathering. It is derived per run and never persisted on its own.
type ClaimAnalysis struct {
	Entities    []string `json:"entities"`     // Proper-noun-like lookup targets
	Intent      string   `json:"intent"`       // Claim category (factual, attribution, statistic, ...)
	Attributes  []string `json:"attributes"`   // Facets to verify (dates, places, quantities)
	SearchQuery string   `json:"search_query"` // Optimized web search query
}
