package model

import "time"

// FailureKind classifies why a source could not be used.
type FailureKind string

const (
	FailUnreachable FailureKind = "unreachable"        // Network/DNS/timeout, retried
	FailBlocked     FailureKind = "blocked"            // 403/429/paywall, not retried
	FailUnsupported FailureKind = "unsupported_format" // Non-text content, not retried
)

// FetchFailure records a typed fetch failure for a source.
type FetchFailure struct {
	Kind     FailureKind `json:"kind"`
	Detail   string      `json:"detail,omitempty"`
	Attempts int         `json:"attempts"` // How many fetch attempts were made
}

// ReputationTier classifies a source domain's reputation.
type ReputationTier int

const (
	TierUnknown    ReputationTier = 0
	TierPrimary    ReputationTier = 1 // Official documents, academic publishers, .gov/.edu
	TierSecondary  ReputationTier = 2 // Major outlets, encyclopedias, wire services
	TierUnreliable ReputationTier = 3 // Known-unreliable or self-published domains
)

func (t ReputationTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierUnreliable:
		return "unreliable"
	default:
		return "unknown"
	}
}

// Source is the fetched content behind one citation's URL, deduplicated by
// normalized URL across the whole run.
type Source struct {
	URL           string         `json:"url"`            // As cited
	NormalizedURL string         `json:"normalized_url"` // Dedup key: scheme+host+path
	Host          string         `json:"host,omitempty"`
	Title         string         `json:"title,omitempty"`
	Content       string         `json:"-"`                 // Normalized page text, omitted from the report
	ContentChars  int            `json:"content_chars"`     // Length of the normalized text
	HasAuthor     bool           `json:"has_author"`        // Author metadata present
	HasDate       bool           `json:"has_date"`          // Publication date metadata present
	Failure       *FetchFailure  `json:"failure,omitempty"` // Nil when the fetch succeeded
	FetchedAt     time.Time      `json:"fetched_at,omitempty"`
	Tier          ReputationTier `json:"-"`
	TierName      string         `json:"tier"`
	Quality       float64        `json:"quality"` // [0,1], from tier, metadata, and length
	Cluster       int            `json:"cluster"` // Cluster id shared by non-independent sources
}

// Fetched reports whether usable text content is available.
func (s *Source) Fetched() bool {
	return s != nil && s.Failure == nil
}
