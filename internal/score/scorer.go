// Package score turns verification outcomes and bias findings into the
// paragraph-level aggregate scores. Scoring is pure arithmetic over its
// inputs: the same analyses always produce the same numbers.
package score

import (
	"math"

	"github.com/wikilens/wikilens/internal/model"
)

// Scorer computes aggregate scores from configured weights.
type Scorer struct {
	cfg model.ScoringConfig
}

// New creates a scorer.
func New(cfg model.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes all three aggregates.
func (s *Scorer) Score(analyses []model.ClaimAnalysis, findings []model.BiasFinding, lookup func(url string) *model.Source) model.Scores {
	return model.Scores{
		Factuality: s.Factuality(analyses, lookup),
		Bias:       s.Bias(findings),
		Alignment:  s.Alignment(findings),
	}
}

// Factuality starts at 10 and subtracts a penalty per cited claim, floored
// at 0. A contradicted claim costs more when the model is confident, when
// the contradicting sources are high quality, and when few sources were
// checked; inconclusive and unreachable claims cost a small fixed penalty.
// Uncited claims are reported but never scored.
func (s *Scorer) Factuality(analyses []model.ClaimAnalysis, lookup func(url string) *model.Source) float64 {
	score := 10.0

	for _, a := range analyses {
		if !a.Claim.Cited() {
			continue
		}
		switch a.Status {
		case model.VerdictSupports:
		case model.VerdictContradicts:
			score -= s.cfg.ContradictionWeight * a.Confidence * contradictionQuality(a, lookup) / float64(checkedSources(a))
		case model.VerdictInsufficient, model.VerdictUnreachable:
			score -= s.cfg.UncertaintyPenalty
		}
	}

	return math.Max(0, score)
}

// contradictionQuality is the mean quality of the sources that contradicted
// the claim. Unknown sources count at full quality.
func contradictionQuality(a model.ClaimAnalysis, lookup func(url string) *model.Source) float64 {
	sum, n := 0.0, 0
	for _, o := range a.Outcomes {
		if o.Verdict != model.VerdictContradicts {
			continue
		}
		quality := 1.0
		if lookup != nil {
			if src := lookup(o.SourceURL); src != nil {
				quality = src.Quality
			}
		}
		sum += quality
		n++
	}
	if n == 0 {
		return 1.0
	}
	return sum / float64(n)
}

// checkedSources counts the outcomes that produced a verdict. A contradiction
// among many checked sources weighs less than a lone one.
func checkedSources(a model.ClaimAnalysis) int {
	n := 0
	for _, o := range a.Outcomes {
		if o.Verdict != model.VerdictUnreachable {
			n++
		}
	}
	return max(n, 1)
}

// Bias sums severity-weighted finding confidences, capped at 10. No findings
// means 0.
func (s *Scorer) Bias(findings []model.BiasFinding) float64 {
	total := 0.0
	for _, f := range findings {
		total += s.cfg.SeverityFor(f.Type) * f.Confidence * s.cfg.BiasWeight
	}
	return math.Min(10, total)
}

// Alignment takes a severity-weighted vote over finding leans. No findings
// at all, or a vote margin under the configured threshold, is indeterminate.
// Findings that exist but lean nowhere are center.
func (s *Scorer) Alignment(findings []model.BiasFinding) model.Alignment {
	if len(findings) == 0 {
		return model.AlignIndeterminate
	}

	var left, right float64
	for _, f := range findings {
		weight := s.cfg.SeverityFor(f.Type) * f.Confidence
		switch f.Lean {
		case model.LeanLeft:
			left += weight
		case model.LeanRight:
			right += weight
		}
	}

	total := left + right
	if total == 0 {
		// Findings exist but none lean anywhere.
		return model.AlignCenter
	}

	margin := math.Abs(left-right) / total
	if margin < s.cfg.AlignmentMargin {
		return model.AlignIndeterminate
	}
	if left > right {
		return model.AlignLeft
	}
	return model.AlignRight
}
