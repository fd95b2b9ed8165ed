package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wikilens/wikilens/internal/model"
)

// Renderer turns a report into its output forms.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// JSON renders the full report as indented JSON.
func (r *Renderer) JSON(report *model.Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

// Markdown renders the report as a readable document.
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Analysis: %s\n\n", report.Topic)
	if report.Paragraph.PageURL != "" {
		fmt.Fprintf(&b, "Paragraph %d of <%s>\n\n", report.Paragraph.Index, report.Paragraph.PageURL)
	}
	fmt.Fprintf(&b, "> %s\n\n", report.Paragraph.Text)

	fmt.Fprintf(&b, "## Scores\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Factuality | %.1f / 10 |\n", report.Scores.Factuality)
	fmt.Fprintf(&b, "| Bias | %.1f / 10 |\n", report.Scores.Bias)
	fmt.Fprintf(&b, "| Political alignment | %s |\n", report.Scores.Alignment)
	fmt.Fprintf(&b, "| Source diversity | %d clusters over %d sources (%.2f) |\n\n",
		report.Diversity.Clusters, report.Diversity.Sources, report.Diversity.Ratio)

	if report.Degraded.BiasDetection || report.Degraded.Cancelled {
		fmt.Fprintf(&b, "## Caveats\n\n")
		if report.Degraded.BiasDetection {
			fmt.Fprintf(&b, "- Bias detection failed; no findings are reported.\n")
		}
		if report.Degraded.Cancelled {
			fmt.Fprintf(&b, "- The run was cancelled; unverified claims are marked unreachable.\n")
		}
		fmt.Fprintf(&b, "\n")
	}

	fmt.Fprintf(&b, "## Claims (%d)\n\n", len(report.Claims))
	for i, a := range report.Claims {
		fmt.Fprintf(&b, "%d. **%s** — %q", i+1, statusLabel(a), a.Claim.Text)
		if !a.Claim.Cited() {
			fmt.Fprintf(&b, " _(uncited, not scored)_")
		}
		fmt.Fprintf(&b, "\n")
		for _, o := range a.Outcomes {
			fmt.Fprintf(&b, "   - %s: %s", o.Verdict, o.SourceURL)
			if o.SourceSummary != "" {
				fmt.Fprintf(&b, " — %s", o.SourceSummary)
			}
			fmt.Fprintf(&b, "\n")
		}
	}
	fmt.Fprintf(&b, "\n")

	if len(report.Findings) > 0 {
		fmt.Fprintf(&b, "## Bias findings (%d)\n\n", len(report.Findings))
		for _, f := range report.Findings {
			fmt.Fprintf(&b, "- `%s` (%.2f, %s): %q — %s\n",
				f.Type, f.Confidence, f.Lean, f.Text, f.Explanation)
		}
		fmt.Fprintf(&b, "\n")
	}

	if len(report.Sources) > 0 {
		fmt.Fprintf(&b, "## Sources (%d)\n\n", len(report.Sources))
		fmt.Fprintf(&b, "| URL | Tier | Quality | Cluster | Status |\n|---|---|---|---|---|\n")
		for _, src := range report.Sources {
			status := "fetched"
			if src.Failure != nil {
				status = string(src.Failure.Kind)
			}
			fmt.Fprintf(&b, "| %s | %s | %.2f | %d | %s |\n",
				src.NormalizedURL, src.TierName, src.Quality, src.Cluster, status)
		}
		fmt.Fprintf(&b, "\n")
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "---\n\nGenerated by wikilens")
		if report.LLMModel != "" {
			fmt.Fprintf(&b, " using %s", report.LLMModel)
		}
		fmt.Fprintf(&b, " at %s.\n", report.GeneratedAt.Format("2006-01-02 15:04 MST"))
	}

	return b.String()
}

// Summary renders the short console digest printed after a run.
func (r *Renderer) Summary(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", report.Topic)
	fmt.Fprintf(&b, "  factuality %.1f/10, bias %.1f/10, alignment %s\n",
		report.Scores.Factuality, report.Scores.Bias, report.Scores.Alignment)

	supported, contradicted, uncertain := 0, 0, 0
	for _, a := range report.Claims {
		switch a.Status {
		case model.VerdictSupports:
			supported++
		case model.VerdictContradicts:
			contradicted++
		default:
			uncertain++
		}
	}
	fmt.Fprintf(&b, "  %d claims: %d supported, %d contradicted, %d uncertain\n",
		len(report.Claims), supported, contradicted, uncertain)
	fmt.Fprintf(&b, "  %d sources in %d independence clusters, %d bias findings\n",
		report.Diversity.Sources, report.Diversity.Clusters, len(report.Findings))

	if report.Degraded.BiasDetection {
		fmt.Fprintf(&b, "  warning: bias detection failed\n")
	}
	if report.Degraded.Cancelled {
		fmt.Fprintf(&b, "  warning: run cancelled before completion\n")
	}

	return b.String()
}

func statusLabel(a model.ClaimAnalysis) string {
	switch a.Status {
	case model.VerdictSupports:
		return fmt.Sprintf("supported (%.2f)", a.Confidence)
	case model.VerdictContradicts:
		return fmt.Sprintf("contradicted (%.2f)", a.Confidence)
	case model.VerdictUnreachable:
		return "unreachable"
	default:
		return "insufficient evidence"
	}
}
