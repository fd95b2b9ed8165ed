package model

// BiasType labels one category of the fixed textual-bias taxonomy.
type BiasType string

const (
	BiasLoadedLanguage         BiasType = "loaded_language"
	BiasFraming                BiasType = "framing_bias"
	BiasNarrativeFraming       BiasType = "narrative_framing"
	BiasMissingContext         BiasType = "missing_context"
	BiasOmittedContext         BiasType = "omitted_context"
	BiasMissingAttribution     BiasType = "missing_attribution"
	BiasAsymmetricLabeling     BiasType = "asymmetric_labeling"
	BiasFalseBalance           BiasType = "false_balance"
	BiasPassiveVoice           BiasType = "passive_voice_omitted_actor"
	BiasEmphasisMinimizer      BiasType = "emphasis_minimizer"
	BiasEmphasisMaximizer      BiasType = "emphasis_maximizer"
	BiasHedgingMisuse          BiasType = "hedging_misuse"
	BiasHistoricalRevisionism  BiasType = "historical_revisionism"
	BiasStatisticalAggregation BiasType = "statistical_aggregation"
	BiasMissingDenominator     BiasType = "statistical_missing_denominator"
	BiasTemporalAsymmetric     BiasType = "temporal_framing_asymmetric"
	BiasTemporalSuperlative    BiasType = "temporal_framing_superlative"
	BiasEditorializing         BiasType = "editorializing"
)

// BiasTaxonomy is the closed set of types the detector may emit. Findings with
// any other label are discarded at the component boundary.
var BiasTaxonomy = []BiasType{
	BiasLoadedLanguage,
	BiasFraming,
	BiasNarrativeFraming,
	BiasMissingContext,
	BiasOmittedContext,
	BiasMissingAttribution,
	BiasAsymmetricLabeling,
	BiasFalseBalance,
	BiasPassiveVoice,
	BiasEmphasisMinimizer,
	BiasEmphasisMaximizer,
	BiasHedgingMisuse,
	BiasHistoricalRevisionism,
	BiasStatisticalAggregation,
	BiasMissingDenominator,
	BiasTemporalAsymmetric,
	BiasTemporalSuperlative,
	BiasEditorializing,
}

// KnownBiasType reports whether t is part of the taxonomy.
func KnownBiasType(t BiasType) bool {
	for _, known := range BiasTaxonomy {
		if t == known {
			return true
		}
	}
	return false
}

// Lean is the directional signal a finding may carry.
type Lean string

const (
	LeanLeft    Lean = "left"
	LeanRight   Lean = "right"
	LeanNeutral Lean = "neutral"
)

// BiasFinding is one detected span of biased text. Findings are kept in
// detection order, which is not necessarily text order.
type BiasFinding struct {
	Type        BiasType `json:"type"`
	Start       int      `json:"start"` // Byte offsets into the paragraph text
	End         int      `json:"end"`
	Text        string   `json:"text"`       // The exact span
	Confidence  float64  `json:"confidence"` // [0,1], doubles as severity strength
	Lean        Lean     `json:"lean,omitempty"`
	Explanation string   `json:"explanation"`
}
