// Package verify judges each claim against its cited sources and aggregates
// the per-source verdicts into a quality-weighted claim status.
package verify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wikilens/wikilens/internal/llm"
	"github.com/wikilens/wikilens/internal/model"
	"github.com/wikilens/wikilens/internal/worker"
)

// sleepFunc is swapped out in tests so retry backoff does not slow them down.
var sleepFunc = sleepCtx

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SourceLookup resolves a cited URL to its fetched source.
type SourceLookup func(url string) *model.Source

// Verifier runs claim verification with a bounded worker pool.
type Verifier struct {
	provider    llm.Provider
	workers     int
	maxAttempts int
	backoffBase time.Duration
	log         *zap.Logger
}

// New creates a verifier.
func New(provider llm.Provider, cfg *model.Config, log *zap.Logger) *Verifier {
	return &Verifier{
		provider:    provider,
		workers:     cfg.Concurrency.VerifyWorkers,
		maxAttempts: max(cfg.LLM.MaxAttempts, 1),
		backoffBase: cfg.LLM.BackoffBase,
		log:         log,
	}
}

// verifyJob checks one claim against all its cited sources.
type verifyJob struct {
	v       *Verifier
	claim   model.Claim
	lookup  SourceLookup
	mu      *sync.Mutex
	results map[string]*model.ClaimAnalysis
}

func (j *verifyJob) Execute(ctx context.Context) {
	analysis := j.v.verifyClaim(ctx, j.claim, j.lookup)
	j.mu.Lock()
	j.results[j.claim.ID] = analysis
	j.mu.Unlock()
}

// Verify checks every claim against its cited sources. Results come back in
// the order claims were given, regardless of completion order. Claims whose
// verification never ran (cancellation) are marked unreachable.
func (v *Verifier) Verify(ctx context.Context, claims []model.Claim, lookup SourceLookup) []model.ClaimAnalysis {
	results := make(map[string]*model.ClaimAnalysis, len(claims))
	var mu sync.Mutex

	pool := worker.NewPool(v.workers)
	pool.Start(ctx)
	for _, claim := range claims {
		pool.Submit(ctx, &verifyJob{v: v, claim: claim, lookup: lookup, mu: &mu, results: results})
	}
	pool.Wait()

	out := make([]model.ClaimAnalysis, 0, len(claims))
	for _, claim := range claims {
		if analysis := results[claim.ID]; analysis != nil {
			out = append(out, *analysis)
			continue
		}
		out = append(out, model.ClaimAnalysis{
			Claim:  claim,
			Status: model.VerdictUnreachable,
		})
	}
	return out
}

func (v *Verifier) verifyClaim(ctx context.Context, claim model.Claim, lookup SourceLookup) *model.ClaimAnalysis {
	analysis := &model.ClaimAnalysis{Claim: claim}

	for _, url := range claim.URLs {
		src := lookup(url)
		analysis.Outcomes = append(analysis.Outcomes, v.verifyAgainst(ctx, claim, url, src))
	}

	status, confidence := aggregate(analysis.Outcomes, lookup)
	analysis.Status = status
	analysis.Confidence = confidence
	return analysis
}

// verifyAgainst judges one (claim, source) pair. Fetch failures become
// unreachable outcomes without spending a model call.
func (v *Verifier) verifyAgainst(ctx context.Context, claim model.Claim, url string, src *model.Source) model.VerificationOutcome {
	outcome := model.VerificationOutcome{ClaimID: claim.ID, SourceURL: url}
	if src != nil && src.NormalizedURL != "" {
		outcome.SourceURL = src.NormalizedURL
	}

	if !src.Fetched() {
		outcome.Verdict = model.VerdictUnreachable
		if src != nil && src.Failure != nil {
			outcome.Explanation = fmt.Sprintf("source %s: %s", src.Failure.Kind, src.Failure.Detail)
		} else {
			outcome.Explanation = "source was not fetched"
		}
		return outcome
	}

	req := llm.VerifyRequest{
		Claim:       claim.Text,
		SourceURL:   src.NormalizedURL,
		SourceTitle: src.Title,
		SourceText:  src.Content,
	}

	var lastErr error
	for attempt := 1; attempt <= v.maxAttempts; attempt++ {
		res, err := v.provider.VerifyClaim(ctx, req)
		if err == nil {
			outcome.Verdict = res.Verdict
			outcome.Confidence = res.Confidence
			outcome.Explanation = res.Explanation
			outcome.SourceSummary = res.Summary
			return outcome
		}
		lastErr = err

		v.log.Warn("claim verification attempt failed",
			zap.String("claim_id", claim.ID),
			zap.String("source", src.NormalizedURL),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if ctx.Err() != nil || attempt == v.maxAttempts {
			break
		}
		if err := sleepFunc(ctx, v.backoffBase<<(attempt-1)); err != nil {
			break
		}
	}

	// Model budget exhausted: inconclusive, never counted as evidence.
	outcome.Verdict = model.VerdictInsufficient
	outcome.Confidence = 0
	outcome.Explanation = fmt.Sprintf("evaluation failed: %v", lastErr)
	return outcome
}

// aggregate folds per-source outcomes into one claim status. Supports and
// contradicts votes are weighted by source quality times confidence; the
// heavier side wins, a tie is insufficient evidence. A claim with no verdict
// beyond unreachable sources is itself unreachable. The returned confidence
// is the quality-weighted mean confidence of the winning side.
func aggregate(outcomes []model.VerificationOutcome, lookup SourceLookup) (model.Verdict, float64) {
	if len(outcomes) == 0 {
		return model.VerdictInsufficient, 0
	}

	var supportWeight, contraWeight float64
	var supportQuality, contraQuality float64
	sawVerdict := false

	for _, o := range outcomes {
		if o.Verdict == model.VerdictUnreachable {
			continue
		}
		sawVerdict = true

		quality := 1.0
		if src := lookup(o.SourceURL); src != nil {
			quality = src.Quality
		}
		switch o.Verdict {
		case model.VerdictSupports:
			supportWeight += quality * o.Confidence
			supportQuality += quality
		case model.VerdictContradicts:
			contraWeight += quality * o.Confidence
			contraQuality += quality
		}
	}

	if !sawVerdict {
		return model.VerdictUnreachable, 0
	}

	switch {
	case supportWeight > contraWeight:
		return model.VerdictSupports, supportWeight / supportQuality
	case contraWeight > supportWeight:
		return model.VerdictContradicts, contraWeight / contraQuality
	default:
		return model.VerdictInsufficient, 0
	}
}
