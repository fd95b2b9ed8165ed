package model

// Claim is a contiguous span of paragraph text treated as one verifiable
// assertion. Never mutated after extraction.
type Claim struct {
	ID        string   `json:"id"`                  // Stable identifier
	Text      string   `json:"text"`                // The claim text itself
	Start     int      `json:"start"`               // Byte offset in the paragraph
	End       int      `json:"end"`                 // Byte offset just past the span
	Citations []string `json:"citations,omitempty"` // Citation marker keys inside the span
	URLs      []string `json:"urls,omitempty"`      // Source URLs behind those markers, as cited
}

// Cited reports whether the claim carries at least one resolvable citation.
// Uncited claims are excluded from factuality scoring.
func (c Claim) Cited() bool {
	return len(c.URLs) > 0
}

// Verdict is the judged relationship between a claim and a source's content.
type Verdict string

const (
	VerdictSupports     Verdict = "supports"
	VerdictContradicts  Verdict = "contradicts"
	VerdictInsufficient Verdict = "insufficient_evidence"
	VerdictUnreachable  Verdict = "unreachable"
)

// VerificationOutcome is the result of judging one (claim, source) pair.
// Immutable once produced.
type VerificationOutcome struct {
	ClaimID       string  `json:"claim_id"`
	SourceURL     string  `json:"source_url"` // Normalized URL of the source
	Verdict       Verdict `json:"verdict"`
	Confidence    float64 `json:"confidence"` // [0,1]
	Explanation   string  `json:"explanation"`
	SourceSummary string  `json:"source_summary,omitempty"` // What the source actually says
}

// ClaimAnalysis pairs a claim with everything verification learned about it:
// one outcome per checked source, plus the quality-weighted overall status.
type ClaimAnalysis struct {
	Claim      Claim                 `json:"claim"`
	Outcomes   []VerificationOutcome `json:"outcomes,omitempty"`
	Status     Verdict               `json:"status"`
	Confidence float64               `json:"confidence"` // Confidence behind Status, [0,1]
}
