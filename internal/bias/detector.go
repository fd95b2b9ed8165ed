// Package bias runs the best-effort bias scan over a paragraph and filters
// the model's findings down to ones the report can stand behind.
package bias

import (
	"context"

	"go.uber.org/zap"

	"github.com/wikilens/wikilens/internal/llm"
	"github.com/wikilens/wikilens/internal/model"
)

// Detector scans paragraphs for biased spans.
type Detector struct {
	provider llm.Provider
	log      *zap.Logger
}

// New creates a detector.
func New(provider llm.Provider, log *zap.Logger) *Detector {
	return &Detector{provider: provider, log: log}
}

// Detect runs one scan over the paragraph. Findings outside the taxonomy or
// with spans that do not fit the text are dropped. Detection is best-effort:
// a failed scan degrades to zero findings and sets the degraded flag instead
// of failing the run.
func (d *Detector) Detect(ctx context.Context, p *model.Paragraph) (findings []model.BiasFinding, degraded bool) {
	raw, err := d.provider.DetectBias(ctx, llm.BiasRequest{Topic: p.Topic, Text: p.Text})
	if err != nil {
		d.log.Warn("bias detection failed, continuing without findings", zap.Error(err))
		return nil, true
	}

	findings = make([]model.BiasFinding, 0, len(raw))
	for _, f := range raw {
		if reason := validate(f, p.Text); reason != "" {
			d.log.Debug("dropping bias finding",
				zap.String("type", string(f.Type)),
				zap.String("reason", reason))
			continue
		}
		if f.Lean == "" {
			f.Lean = model.LeanNeutral
		}
		findings = append(findings, f)
	}
	return findings, false
}

func validate(f model.BiasFinding, text string) string {
	if !model.KnownBiasType(f.Type) {
		return "unknown type"
	}
	if f.Confidence <= 0 {
		return "zero confidence"
	}
	if f.Start < 0 || f.End > len(text) || f.Start >= f.End {
		return "span out of bounds"
	}
	switch f.Lean {
	case "", model.LeanLeft, model.LeanRight, model.LeanNeutral:
	default:
		return "unknown lean"
	}
	return ""
}
