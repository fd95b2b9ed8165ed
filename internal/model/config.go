package model

import "time"

// Config is the complete run configuration. Every tuning parameter the
// pipeline uses lives here so it can be overridden by file, env, or flags.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Fetch       FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Quality     QualityConfig     `yaml:"quality" mapstructure:"quality"`
	Scoring     ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// HTTPConfig configures the outbound HTTP clients.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`             // Per-URL fetch timeout
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// FetchConfig configures source fetching and deduplication.
type FetchConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`       // Attempts for transient failures
	BackoffBase    time.Duration `yaml:"backoff_base" mapstructure:"backoff_base"`       // Base of the exponential backoff
	MaxInFlight    int           `yaml:"max_in_flight" mapstructure:"max_in_flight"`     // Concurrent fetch cap
	RatePerDomain  float64       `yaml:"rate_per_domain" mapstructure:"rate_per_domain"` // Requests/second per host
	RateBurst      int           `yaml:"rate_burst" mapstructure:"rate_burst"`
	CacheTTL       time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	RespectRobots  bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	KeepQueryHosts []string      `yaml:"keep_query_hosts" mapstructure:"keep_query_hosts"` // Hosts whose query strings are load-bearing
}

// LLMConfig configures the language-model capability.
type LLMConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // openai, ollama
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"` // OpenAI-compatible endpoint override
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"` // Verification retry budget
	BackoffBase time.Duration `yaml:"backoff_base" mapstructure:"backoff_base"`
}

// ConcurrencyConfig bounds parallel work.
type ConcurrencyConfig struct {
	VerifyWorkers int `yaml:"verify_workers" mapstructure:"verify_workers"`
}

// QualityConfig configures source quality scoring and clustering.
type QualityConfig struct {
	PrimaryDomains      []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains    []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	UnreliableDomains   []string          `yaml:"unreliable_domains" mapstructure:"unreliable_domains"`
	DomainMap           map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"` // Explicit host -> tier overrides
	MinContentChars     int               `yaml:"min_content_chars" mapstructure:"min_content_chars"`   // Below this, zero evidentiary value
	FullContentChars    int               `yaml:"full_content_chars" mapstructure:"full_content_chars"` // At or above this, full length credit
	SimilarityThreshold float64           `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	ShingleSize         int               `yaml:"shingle_size" mapstructure:"shingle_size"`
}

// ScoringConfig holds the product-tuning weights of the score aggregator.
type ScoringConfig struct {
	ContradictionWeight float64            `yaml:"contradiction_weight" mapstructure:"contradiction_weight"`
	UncertaintyPenalty  float64            `yaml:"uncertainty_penalty" mapstructure:"uncertainty_penalty"`
	BiasWeight          float64            `yaml:"bias_weight" mapstructure:"bias_weight"`
	SeverityMultipliers map[string]float64 `yaml:"severity_multipliers" mapstructure:"severity_multipliers"` // Per bias type
	AlignmentMargin     float64            `yaml:"alignment_margin" mapstructure:"alignment_margin"`         // Below this vote margin -> indeterminate
}

// OutputConfig configures report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// SeverityFor returns the configured multiplier for a bias type, defaulting
// to 1.0 for types without an explicit entry.
func (s ScoringConfig) SeverityFor(t BiasType) float64 {
	if m, ok := s.SeverityMultipliers[string(t)]; ok {
		return m
	}
	return 1.0
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      10 * time.Second,
			UserAgent:    "Wikilens/0.2 (+https://github.com/wikilens/wikilens)",
			MaxBodyBytes: 2_000_000,
		},
		Fetch: FetchConfig{
			MaxAttempts:   3,
			BackoffBase:   time.Second,
			MaxInFlight:   8,
			RatePerDomain: 2,
			RateBurst:     4,
			CacheTTL:      15 * time.Minute,
			RespectRobots: true,
			KeepQueryHosts: []string{
				"www.youtube.com",
				"youtube.com",
				"web.archive.org",
			},
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     60 * time.Second,
			MaxTokens:   2000,
			MaxAttempts: 3,
			BackoffBase: time.Second,
		},
		Concurrency: ConcurrencyConfig{
			VerifyWorkers: 4,
		},
		Quality: QualityConfig{
			PrimaryDomains: []string{
				"gov.uk", "un.org", "who.int", "europa.eu",
				"nature.com", "science.org", "jstor.org", "doi.org",
			},
			SecondaryDomains: []string{
				"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk",
				"nytimes.com", "theguardian.com", "washingtonpost.com",
				"economist.com", "britannica.com", "aljazeera.com",
			},
			UnreliableDomains: []string{
				"medium.com", "blogspot.com", "wordpress.com",
			},
			MinContentChars:     200,
			FullContentChars:    2000,
			SimilarityThreshold: 0.6,
			ShingleSize:         3,
		},
		Scoring: ScoringConfig{
			ContradictionWeight: 4.0,
			UncertaintyPenalty:  0.5,
			BiasWeight:          2.0,
			SeverityMultipliers: map[string]float64{
				string(BiasLoadedLanguage):        1.5,
				string(BiasHistoricalRevisionism): 1.5,
				string(BiasFalseBalance):          1.2,
				string(BiasHedgingMisuse):         0.8,
			},
			AlignmentMargin: 0.15,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
