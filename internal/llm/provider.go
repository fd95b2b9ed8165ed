// Package llm talks to a language model for the two judgment calls the
// analyzer cannot make itself: whether a source supports a claim, and
// whether a span of prose is biased.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wikilens/wikilens/internal/model"
)

// Provider is a language-model backend.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Model returns the model identifier requests are sent to
	Model() string

	// VerifyClaim judges one (claim, source) pair
	VerifyClaim(ctx context.Context, req VerifyRequest) (*VerifyResult, error)

	// DetectBias scans a paragraph for biased spans
	DetectBias(ctx context.Context, req BiasRequest) ([]model.BiasFinding, error)
}

// VerifyRequest contains one claim and the content of one cited source.
type VerifyRequest struct {
	Claim       string
	SourceURL   string
	SourceTitle string
	SourceText  string
}

// VerifyResult is the model's judgment of a (claim, source) pair.
type VerifyResult struct {
	Verdict     model.Verdict
	Confidence  float64 // [0,1]
	Summary     string  // What the source actually says
	Explanation string
}

// BiasRequest contains one paragraph to scan for bias.
type BiasRequest struct {
	Topic string
	Text  string
}

// maxSourceChars caps the source content sent per verification call.
const maxSourceChars = 8000

func buildVerifyPrompt(req VerifyRequest) string {
	content := req.SourceText
	if len(content) > maxSourceChars {
		content = content[:maxSourceChars]
	}

	return fmt.Sprintf(`You are a staff fact-checker at a newspaper known for its neutrality. Judge whether the source text below supports the claim.

Claim: %q

Source URL: %s
Source title: %s
Source content:
---
%s
---

Pick exactly one verdict:
- "supports": the source provides clear evidence for the claim
- "contradicts": the source provides clear evidence against the claim
- "insufficient_evidence": the source mentions the topic but neither clearly supports nor contradicts the claim, or does not mention it at all

Also provide:
- confidence: 0.0-1.0, how certain you are of the verdict
- content_summary: one sentence on what the source actually says about the topic
- explanation: why you reached the verdict

IMPORTANT: Escape all double quotes in string values as \".

Output ONLY valid JSON in this format:
{
  "verdict": "supports|contradicts|insufficient_evidence",
  "confidence": <0.0-1.0>,
  "content_summary": "what the source says",
  "explanation": "reasoning behind the verdict"
}`, req.Claim, req.SourceURL, req.SourceTitle, content)
}

func buildBiasPrompt(req BiasRequest) string {
	types := make([]string, len(model.BiasTaxonomy))
	for i, t := range model.BiasTaxonomy {
		types[i] = string(t)
	}

	return fmt.Sprintf(`You are a staff writer at a newspaper well regarded for its neutrality. Scan the following encyclopedia paragraph about %q for biased writing.

Look for loaded or charged wording, one-sided framing, missing context or attribution, asymmetric labeling of opposing groups, false balance, passive voice that hides an actor, emphasis that minimizes or maximizes, misleading hedging, historical revisionism, misleading statistics, and temporal framing that favors one side.

Allowed values for "type" (use no others):
%s

For each finding give the exact text span, its byte offsets into the paragraph, a confidence from 0.0 to 1.0, the political lean it favors ("left", "right", or "neutral" when the bias has no political direction), and a short explanation with a neutral alternative where one exists.

DO NOT flag neutral factual reporting, balanced text that presents both perspectives, or text that merely discusses a controversial topic. Flag only clear evidence of bias. An empty findings list is a valid answer.

Paragraph:
---
%s
---

IMPORTANT: Escape all double quotes in string values as \".

Output ONLY valid JSON in this format:
{
  "findings": [
    {
      "type": "<one of the allowed values>",
      "text": "exact text span",
      "start": <byte offset>,
      "end": <byte offset>,
      "confidence": <0.0-1.0>,
      "lean": "left|right|neutral",
      "explanation": "why this is biased and a neutral alternative"
    }
  ]
}`, req.Topic, strings.Join(types, ", "), req.Text)
}

type verifyPayload struct {
	Verdict        string  `json:"verdict"`
	Confidence     float64 `json:"confidence"`
	ContentSummary string  `json:"content_summary"`
	Explanation    string  `json:"explanation"`
}

type biasPayload struct {
	Findings []findingPayload `json:"findings"`
}

type findingPayload struct {
	Type        string  `json:"type"`
	Text        string  `json:"text"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
	Confidence  float64 `json:"confidence"`
	Lean        string  `json:"lean"`
	Explanation string  `json:"explanation"`
}

func parseVerifyResult(raw string) (*VerifyResult, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var payload verifyPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("parse verification response: %w", err)
	}

	verdict := model.Verdict(strings.TrimSpace(payload.Verdict))
	switch verdict {
	case model.VerdictSupports, model.VerdictContradicts:
	default:
		// Anything off-menu counts as inconclusive, not as evidence.
		verdict = model.VerdictInsufficient
	}

	return &VerifyResult{
		Verdict:     verdict,
		Confidence:  clamp01(payload.Confidence),
		Summary:     payload.ContentSummary,
		Explanation: payload.Explanation,
	}, nil
}

func parseBiasFindings(raw string) ([]model.BiasFinding, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var payload biasPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("parse bias response: %w", err)
	}

	findings := make([]model.BiasFinding, 0, len(payload.Findings))
	for _, f := range payload.Findings {
		findings = append(findings, model.BiasFinding{
			Type:        model.BiasType(strings.TrimSpace(f.Type)),
			Text:        f.Text,
			Start:       f.Start,
			End:         f.End,
			Confidence:  clamp01(f.Confidence),
			Lean:        model.Lean(strings.TrimSpace(f.Lean)),
			Explanation: f.Explanation,
		})
	}
	return findings, nil
}

// extractJSON finds the JSON object inside a model response. Models often
// wrap the payload in prose or markdown fences.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if json.Valid([]byte(s)) {
		return s, nil
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end > start {
		candidate := s[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no JSON object in model response: %.200s", raw)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
