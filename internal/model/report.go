package model

import "time"

// Alignment is the aggregate political-alignment label.
type Alignment string

const (
	AlignLeft          Alignment = "left"
	AlignRight         Alignment = "right"
	AlignCenter        Alignment = "center"
	AlignIndeterminate Alignment = "indeterminate"
)

// Scores holds the paragraph-level aggregate scores.
type Scores struct {
	Bias       float64   `json:"bias"`       // 0-10, higher = more biased
	Factuality float64   `json:"factuality"` // 0-10, higher = better supported
	Alignment  Alignment `json:"alignment"`
}

// Diversity summarizes source independence across the run.
type Diversity struct {
	Sources  int     `json:"sources"`  // Fetched sources considered
	Clusters int     `json:"clusters"` // Distinct independence clusters
	Ratio    float64 `json:"ratio"`    // clusters / sources, 0 when no sources
}

// Degradations flags subsystems that exhausted retries or were cancelled.
// A degraded run still produces a complete Report.
type Degradations struct {
	BiasDetection bool `json:"bias_detection,omitempty"` // Detector failed, zero findings reported
	Cancelled     bool `json:"cancelled,omitempty"`      // Run cancelled, remaining work marked unreachable
}

// Report is the final structured output of one run. Created once, immutable
// after assembly.
type Report struct {
	Topic       string          `json:"topic,omitempty"`
	Paragraph   Paragraph       `json:"paragraph"`
	GeneratedAt time.Time       `json:"generated_at"`
	Claims      []ClaimAnalysis `json:"claims"`
	Sources     []Source        `json:"sources"`
	Findings    []BiasFinding   `json:"findings"`
	Diversity   Diversity       `json:"diversity"`
	Scores      Scores          `json:"scores"`
	Degraded    Degradations    `json:"degraded,omitempty"`
	LLMProvider string          `json:"llm_provider,omitempty"`
	LLMModel    string          `json:"llm_model,omitempty"`
}
