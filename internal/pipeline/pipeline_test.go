package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wikilens/wikilens/internal/llm"
	"github.com/wikilens/wikilens/internal/model"
)

type stubProvider struct {
	verdict  model.Verdict
	findings []model.BiasFinding
	biasErr  error
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-model" }

func (s *stubProvider) VerifyClaim(_ context.Context, req llm.VerifyRequest) (*llm.VerifyResult, error) {
	return &llm.VerifyResult{
		Verdict:     s.verdict,
		Confidence:  0.9,
		Summary:     "summary of " + req.SourceURL,
		Explanation: "stub explanation",
	}, nil
}

func (s *stubProvider) DetectBias(context.Context, llm.BiasRequest) ([]model.BiasFinding, error) {
	return s.findings, s.biasErr
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Fetch.RespectRobots = false
	cfg.Fetch.BackoffBase = time.Millisecond
	cfg.Fetch.RatePerDomain = 1000
	cfg.Fetch.RateBurst = 1000
	cfg.LLM.BackoffBase = time.Millisecond
	return cfg
}

func sourceServer() *httptest.Server {
	body := "<html><head><title>Record</title></head><body><p>" +
		strings.Repeat("The archive confirms the dates and parties involved. ", 50) +
		"</p></body></html>"
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, body)
	}))
}

func testParagraph(srvURL string) *model.Paragraph {
	text := "The treaty was signed in 1848.[1] It ended the war between the two nations.[2]"
	p := &model.Paragraph{Text: text, Topic: "Treaty of 1848"}
	for i, key := range []string{"1", "2"} {
		idx := strings.Index(text, "["+key+"]")
		p.Citations = append(p.Citations, model.CitationMarker{
			Key:   key,
			Start: idx,
			End:   idx + 3,
			URL:   fmt.Sprintf("%s/ref/%d", srvURL, i+1),
		})
	}
	return p
}

func TestPipeline_FullRun(t *testing.T) {
	srv := sourceServer()
	defer srv.Close()

	provider := &stubProvider{
		verdict: model.VerdictSupports,
		findings: []model.BiasFinding{
			{Type: model.BiasLoadedLanguage, Start: 0, End: 10, Text: "The treaty", Confidence: 0.7, Lean: model.LeanNeutral, Explanation: "x"},
		},
	}
	p := New(testConfig(), provider, zap.NewNop())

	report, err := p.Analyze(context.Background(), testParagraph(srv.URL))
	require.NoError(t, err)

	require.Len(t, report.Claims, 2)
	for i, a := range report.Claims {
		assert.Equal(t, model.VerdictSupports, a.Status, "claim %d", i)
		require.Len(t, a.Outcomes, 1)
	}
	assert.True(t, report.Claims[0].Claim.Start < report.Claims[1].Claim.Start,
		"claims must come back in paragraph order")

	assert.Len(t, report.Sources, 2)
	for _, src := range report.Sources {
		assert.Nil(t, src.Failure)
		assert.Greater(t, src.Quality, 0.0)
		assert.Greater(t, src.Cluster, 0)
	}
	assert.Equal(t, 2, report.Diversity.Sources)

	assert.Equal(t, 10.0, report.Scores.Factuality)
	assert.Greater(t, report.Scores.Bias, 0.0)
	require.Len(t, report.Findings, 1)

	assert.False(t, report.Degraded.BiasDetection)
	assert.False(t, report.Degraded.Cancelled)
	assert.Equal(t, "stub", report.LLMProvider)
	assert.Equal(t, "stub-model", report.LLMModel)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestPipeline_MissingParagraph(t *testing.T) {
	p := New(testConfig(), &stubProvider{}, zap.NewNop())

	_, err := p.Analyze(context.Background(), nil)
	assert.Error(t, err)

	_, err = p.Analyze(context.Background(), &model.Paragraph{Text: "   "})
	assert.Error(t, err)
}

func TestPipeline_BiasFailureDegrades(t *testing.T) {
	srv := sourceServer()
	defer srv.Close()

	provider := &stubProvider{verdict: model.VerdictSupports, biasErr: fmt.Errorf("model down")}
	p := New(testConfig(), provider, zap.NewNop())

	report, err := p.Analyze(context.Background(), testParagraph(srv.URL))
	require.NoError(t, err)

	assert.True(t, report.Degraded.BiasDetection)
	assert.Empty(t, report.Findings)
	assert.Equal(t, 0.0, report.Scores.Bias, "no findings means no bias signal")
	assert.Len(t, report.Claims, 2, "verification still ran")
}

func TestPipeline_CancelledRunStillProducesReport(t *testing.T) {
	srv := sourceServer()
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &stubProvider{verdict: model.VerdictSupports}
	p := New(testConfig(), provider, zap.NewNop())

	report, err := p.Analyze(ctx, testParagraph(srv.URL))
	require.NoError(t, err, "cancellation is a degradation, not a failure")

	assert.True(t, report.Degraded.Cancelled)
	require.Len(t, report.Claims, 2)
	for _, a := range report.Claims {
		assert.Equal(t, model.VerdictUnreachable, a.Status)
	}
}

func TestPipeline_UnreachableSource(t *testing.T) {
	srv := sourceServer()
	srv.Close() // Refuse all connections

	cfg := testConfig()
	cfg.Fetch.MaxAttempts = 1
	provider := &stubProvider{verdict: model.VerdictSupports}
	p := New(cfg, provider, zap.NewNop())

	report, err := p.Analyze(context.Background(), testParagraph(srv.URL))
	require.NoError(t, err)

	require.Len(t, report.Claims, 2)
	for _, a := range report.Claims {
		assert.Equal(t, model.VerdictUnreachable, a.Status)
	}
	for _, src := range report.Sources {
		require.NotNil(t, src.Failure)
		assert.Equal(t, model.FailUnreachable, src.Failure.Kind)
	}
	// Two unreachable cited claims cost the fixed penalty each.
	assert.InDelta(t, 9.0, report.Scores.Factuality, 1e-9)
}

func TestRenderer_JSON(t *testing.T) {
	srv := sourceServer()
	defer srv.Close()

	p := New(testConfig(), &stubProvider{verdict: model.VerdictSupports}, zap.NewNop())
	report, err := p.Analyze(context.Background(), testParagraph(srv.URL))
	require.NoError(t, err)

	data, err := NewRenderer(true).JSON(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"factuality": 10`)
	assert.Contains(t, string(data), `"normalized_url"`)
	assert.NotContains(t, string(data), "archive confirms", "source content must not leak into the report")
}

func TestRenderer_Markdown(t *testing.T) {
	report := &model.Report{
		Topic:     "Treaty of 1848",
		Paragraph: model.Paragraph{Text: "The treaty was signed in 1848.[1]"},
		Claims: []model.ClaimAnalysis{
			{Claim: model.Claim{Text: "The treaty was signed in 1848.[1]", URLs: []string{"https://a.example"}},
				Status: model.VerdictSupports, Confidence: 0.9},
			{Claim: model.Claim{Text: "Uncited remark."}, Status: model.VerdictInsufficient},
		},
		Findings: []model.BiasFinding{
			{Type: model.BiasFraming, Text: "signed", Confidence: 0.5, Lean: model.LeanNeutral, Explanation: "e"},
		},
		Diversity: model.Diversity{Sources: 1, Clusters: 1, Ratio: 1},
		Scores:    model.Scores{Factuality: 10, Bias: 1, Alignment: model.AlignCenter},
	}

	md := NewRenderer(false).Markdown(report)
	assert.Contains(t, md, "# Analysis: Treaty of 1848")
	assert.Contains(t, md, "| Factuality | 10.0 / 10 |")
	assert.Contains(t, md, "uncited, not scored")
	assert.Contains(t, md, "`framing_bias`")
	assert.NotContains(t, md, "Generated by wikilens", "footer disabled")
}

func TestRenderer_Summary(t *testing.T) {
	report := &model.Report{
		Topic: "Treaty of 1848",
		Claims: []model.ClaimAnalysis{
			{Status: model.VerdictSupports},
			{Status: model.VerdictContradicts},
			{Status: model.VerdictInsufficient},
		},
		Diversity: model.Diversity{Sources: 3, Clusters: 2, Ratio: 2.0 / 3.0},
		Scores:    model.Scores{Factuality: 6.4, Bias: 2.4, Alignment: model.AlignIndeterminate},
		Degraded:  model.Degradations{BiasDetection: true},
	}

	out := NewRenderer(true).Summary(report)
	assert.Contains(t, out, "factuality 6.4/10")
	assert.Contains(t, out, "3 claims: 1 supported, 1 contradicted, 1 uncertain")
	assert.Contains(t, out, "warning: bias detection failed")
}
