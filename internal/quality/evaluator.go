// Package quality scores individual sources on credibility signals and
// groups the run's sources into independence clusters.
package quality

import (
	"strings"

	"github.com/wikilens/wikilens/internal/model"
)

// Evaluator computes per-source quality scores from reputation tier,
// metadata presence, and content length.
type Evaluator struct {
	cfg           model.QualityConfig
	primaryMap    map[string]bool
	secondaryMap  map[string]bool
	unreliableMap map[string]bool
}

// NewEvaluator creates an evaluator from the quality configuration.
func NewEvaluator(cfg model.QualityConfig) *Evaluator {
	e := &Evaluator{
		cfg:           cfg,
		primaryMap:    make(map[string]bool),
		secondaryMap:  make(map[string]bool),
		unreliableMap: make(map[string]bool),
	}
	for _, d := range cfg.PrimaryDomains {
		e.primaryMap[strings.ToLower(d)] = true
	}
	for _, d := range cfg.SecondaryDomains {
		e.secondaryMap[strings.ToLower(d)] = true
	}
	for _, d := range cfg.UnreliableDomains {
		e.unreliableMap[strings.ToLower(d)] = true
	}
	return e
}

// Classify maps a host to its reputation tier.
func (e *Evaluator) Classify(host string) model.ReputationTier {
	host = strings.ToLower(host)
	if idx := strings.Index(host, ":"); idx > 0 {
		host = host[:idx]
	}

	if e.cfg.DomainMap != nil {
		if tier, ok := e.cfg.DomainMap[host]; ok {
			return parseTier(tier)
		}
	}

	if matchesDomain(host, e.primaryMap) {
		return model.TierPrimary
	}
	if matchesDomain(host, e.secondaryMap) {
		return model.TierSecondary
	}
	if matchesDomain(host, e.unreliableMap) {
		return model.TierUnreliable
	}

	// Government and academic hosts count as primary even when unlisted.
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") ||
		strings.HasSuffix(host, ".ac.uk") {
		return model.TierPrimary
	}

	return model.TierUnknown
}

// Score evaluates a fetched source. Failed sources score zero: a source that
// produced no content has no evidentiary value and must not inflate anything
// downstream. Score also stamps the tier fields on the source.
func (e *Evaluator) Score(src *model.Source) float64 {
	tier := e.Classify(src.Host)
	src.Tier = tier
	src.TierName = tier.String()

	if !src.Fetched() {
		src.Quality = 0
		return 0
	}

	metadata := 0.0
	if src.HasAuthor {
		metadata += 0.5
	}
	if src.HasDate {
		metadata += 0.5
	}

	quality := 0.5*tierWeight(tier) + 0.2*metadata + 0.3*e.lengthFactor(src.ContentChars)
	src.Quality = quality
	return quality
}

// lengthFactor penalizes very short content as low-evidentiary-value.
func (e *Evaluator) lengthFactor(chars int) float64 {
	if chars < e.cfg.MinContentChars {
		return 0
	}
	if e.cfg.FullContentChars <= 0 || chars >= e.cfg.FullContentChars {
		return 1
	}
	return float64(chars) / float64(e.cfg.FullContentChars)
}

func tierWeight(t model.ReputationTier) float64 {
	switch t {
	case model.TierPrimary:
		return 1.0
	case model.TierSecondary:
		return 0.75
	case model.TierUnreliable:
		return 0.1
	default:
		return 0.4
	}
}

func matchesDomain(host string, domains map[string]bool) bool {
	if domains[host] {
		return true
	}
	for domain := range domains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func parseTier(tier string) model.ReputationTier {
	switch strings.ToLower(tier) {
	case "primary", "1":
		return model.TierPrimary
	case "secondary", "2":
		return model.TierSecondary
	case "unreliable", "3":
		return model.TierUnreliable
	default:
		return model.TierUnknown
	}
}
