package model

// Evidence represents one corroborating or contradicting artifact gathered
// for a claim. Evidence is accumulated during a run and never mutated.
type Evidence struct {
	Source      string        `json:"source"`              // Title of the source (article title, search hit title)
	VerdictNote string        `json:"verdict_note"`        // Extract or snippet bearing on the claim
	URL         string        `json:"url,omitempty"`       // Source URL when known
	Kind        EvidenceKind  `json:"kind"`                // knowledge_base or web_search
	Authority   AuthorityTier `json:"authority,omitempty"` // Source authority classification
}

// EvidenceKind classifies where the evidence came from
type EvidenceKind string

const (
	EvidenceKindKnowledgeBase EvidenceKind = "knowledge_base" // Encyclopedia extract
	EvidenceKindWebSearch     EvidenceKind = "web_search"     // Search engine snippet
	EvidenceKindPageExtract   EvidenceKind = "page_extract"   // Visible text pulled from a result page
)

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Official documents, academic publishers
	TierSecondary AuthorityTier = 2 // Encyclopedias, major publishers, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, personal websites
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// VerdictStatus is the resolved classification for one claim
type VerdictStatus string

const (
	StatusVerified     VerdictStatus = "verified"
	StatusHallucinated VerdictStatus = "hallucinated"
	StatusUncertain    VerdictStatus = "uncertain"
)

// Verdict is the judgment rendered for a single claim. Produced exactly once
// per claim per run, immutable afterwards.
type Verdict struct {
	Status     VerdictStatus `json:"status"`
	Confidence int           `json:"confidence"` // 0..100
	Reason     string        `json:"reason"`
	Provider   string        `json:"provider,omitempty"` // Which provider rendered it ("" for local fallback)
}

// CitationCheck is the result of probing one evidence URL for accessibility
type CitationCheck struct {
	URL          string        `json:"url"`
	IsAccessible bool          `json:"is_accessible"`
	StatusCode   int           `json:"status_code,omitempty"`
	Authority    AuthorityTier `json:"authority"`
	Error        string        `json:"error,omitempty"`
}
