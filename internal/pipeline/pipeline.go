// Package pipeline orchestrates one paragraph analysis end to end: claim
// extraction, source fetching, quality scoring, verification, bias
// detection, and score aggregation.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wikilens/wikilens/internal/bias"
	"github.com/wikilens/wikilens/internal/extract"
	"github.com/wikilens/wikilens/internal/fetch"
	"github.com/wikilens/wikilens/internal/llm"
	"github.com/wikilens/wikilens/internal/model"
	"github.com/wikilens/wikilens/internal/quality"
	"github.com/wikilens/wikilens/internal/score"
	"github.com/wikilens/wikilens/internal/verify"
)

// Pipeline runs the complete analysis for one paragraph.
type Pipeline struct {
	cfg       *model.Config
	provider  llm.Provider
	fetcher   *fetch.Fetcher
	extractor *extract.ClaimExtractor
	evaluator *quality.Evaluator
	clusterer *quality.Clusterer
	verifier  *verify.Verifier
	detector  *bias.Detector
	scorer    *score.Scorer
	log       *zap.Logger
}

// New creates a pipeline. The provider handles both verification and bias
// detection.
func New(cfg *model.Config, provider llm.Provider, log *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		provider:  provider,
		fetcher:   fetch.New(cfg, log),
		extractor: extract.NewClaimExtractor(),
		evaluator: quality.NewEvaluator(cfg.Quality),
		clusterer: quality.NewClusterer(cfg.Quality),
		verifier:  verify.New(provider, cfg, log),
		detector:  bias.New(provider, log),
		scorer:    score.New(cfg.Scoring),
		log:       log,
	}
}

// Analyze runs the full analysis over one paragraph. The only structural
// failure is a missing paragraph; everything downstream degrades into the
// report instead of failing it. Cancellation stops outstanding work, marks
// what never ran, and still assembles a report from the parts that finished.
func (p *Pipeline) Analyze(ctx context.Context, paragraph *model.Paragraph) (*model.Report, error) {
	if paragraph == nil || strings.TrimSpace(paragraph.Text) == "" {
		return nil, fmt.Errorf("no paragraph to analyze")
	}

	claims := p.extractor.Extract(paragraph)
	p.log.Info("extracted claims",
		zap.Int("claims", len(claims)),
		zap.Int("citations", len(paragraph.Citations)))

	var (
		findings     []model.BiasFinding
		biasDegraded bool
		analyses     []model.ClaimAnalysis
		lookup       verify.SourceLookup
	)

	// Bias detection needs only the paragraph text, so it runs alongside
	// the whole fetch/verify chain.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		findings, biasDegraded = p.detector.Detect(gctx, paragraph)
		return nil
	})
	g.Go(func() error {
		lookup = p.fetchSources(gctx, claims)
		analyses = p.verifier.Verify(gctx, claims, lookup)
		return nil
	})
	_ = g.Wait()

	sources := p.fetcher.Sources()
	diversity := p.clusterer.Cluster(sources)

	report := &model.Report{
		Topic:       paragraph.Topic,
		Paragraph:   *paragraph,
		GeneratedAt: time.Now().UTC(),
		Claims:      analyses,
		Sources:     dereference(sources),
		Findings:    findings,
		Diversity:   diversity,
		Scores:      p.scorer.Score(analyses, findings, lookup),
		Degraded: model.Degradations{
			BiasDetection: biasDegraded,
			Cancelled:     ctx.Err() != nil,
		},
	}
	if p.provider != nil {
		report.LLMProvider = p.provider.Name()
		report.LLMModel = p.provider.Model()
	}
	return report, nil
}

// fetchSources fetches every cited URL concurrently. The fetcher dedupes by
// normalized URL and bounds parallelism itself; this only fans out and
// builds the raw-and-normalized lookup the verifier and scorer use.
func (p *Pipeline) fetchSources(ctx context.Context, claims []model.Claim) verify.SourceLookup {
	unique := make(map[string]bool)
	for _, claim := range claims {
		for _, url := range claim.URLs {
			unique[url] = true
		}
	}

	byURL := make(map[string]*model.Source, len(unique)*2)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for url := range unique {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			src := p.fetcher.Fetch(ctx, url)
			mu.Lock()
			byURL[url] = src
			if src.NormalizedURL != "" {
				byURL[src.NormalizedURL] = src
			}
			mu.Unlock()
		}(url)
	}
	wg.Wait()

	// Quality is stamped once per distinct source, before verification
	// weighs verdicts by it.
	for _, src := range p.fetcher.Sources() {
		p.evaluator.Score(src)
	}

	return func(url string) *model.Source {
		mu.Lock()
		defer mu.Unlock()
		return byURL[url]
	}
}

func dereference(sources []*model.Source) []model.Source {
	out := make([]model.Source, 0, len(sources))
	for _, src := range sources {
		out = append(out, *src)
	}
	return out
}
