package quality

import (
	"testing"

	"github.com/wikilens/wikilens/internal/model"
)

func TestEvaluator_Classify(t *testing.T) {
	e := NewEvaluator(model.DefaultConfig().Quality)

	tests := []struct {
		host string
		want model.ReputationTier
	}{
		{"www.reuters.com", model.TierSecondary},
		{"apnews.com", model.TierSecondary},
		{"data.gov.uk", model.TierPrimary},
		{"history.example.edu", model.TierPrimary},
		{"someone.blogspot.com", model.TierUnreliable},
		{"random-site.io", model.TierUnknown},
	}
	for _, tt := range tests {
		if got := e.Classify(tt.host); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.host, got, tt.want)
		}
	}
}

func TestEvaluator_ClassifyDomainMapOverride(t *testing.T) {
	cfg := model.DefaultConfig().Quality
	cfg.DomainMap = map[string]string{"special.example.com": "primary"}
	e := NewEvaluator(cfg)

	if got := e.Classify("special.example.com"); got != model.TierPrimary {
		t.Errorf("expected domain map override to primary, got %s", got)
	}
}

func TestEvaluator_Score(t *testing.T) {
	cfg := model.DefaultConfig().Quality
	e := NewEvaluator(cfg)

	full := &model.Source{
		Host:         "www.reuters.com",
		ContentChars: cfg.FullContentChars,
		HasAuthor:    true,
		HasDate:      true,
	}
	q := e.Score(full)
	// 0.5*0.75 + 0.2*1.0 + 0.3*1.0 = 0.875
	if q < 0.874 || q > 0.876 {
		t.Errorf("full-signal secondary source quality = %.3f, want 0.875", q)
	}
	if full.TierName != "secondary" {
		t.Errorf("tier name = %q", full.TierName)
	}

	thin := &model.Source{Host: "random-site.io", ContentChars: cfg.MinContentChars - 1}
	if q := e.Score(thin); q >= e.Score(full) {
		t.Errorf("very short unknown-tier content should score lower, got %.3f", q)
	}
}

func TestEvaluator_FailedSourceScoresZero(t *testing.T) {
	e := NewEvaluator(model.DefaultConfig().Quality)
	src := &model.Source{
		Host:    "www.reuters.com",
		Failure: &model.FetchFailure{Kind: model.FailUnreachable},
	}
	if q := e.Score(src); q != 0 {
		t.Errorf("failed source quality = %.3f, want 0", q)
	}
}

func TestEvaluator_LengthFactorMonotonic(t *testing.T) {
	cfg := model.DefaultConfig().Quality
	e := NewEvaluator(cfg)

	prev := -1.0
	for _, chars := range []int{0, cfg.MinContentChars, cfg.MinContentChars + 500, cfg.FullContentChars, cfg.FullContentChars * 2} {
		src := &model.Source{Host: "example.org", ContentChars: chars}
		q := e.Score(src)
		if q < prev {
			t.Errorf("quality dropped from %.3f to %.3f at %d chars", prev, q, chars)
		}
		prev = q
	}
}
