package fetch

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wikilens/wikilens/internal/cache"
	"github.com/wikilens/wikilens/internal/model"
	"github.com/wikilens/wikilens/internal/util"
	"github.com/wikilens/wikilens/internal/worker"
)

// sleepFunc is the backoff sleep used between retries (injectable for tests).
var sleepFunc = sleepCtx

// Fetcher retrieves and normalizes the text behind cited URLs. Sources are
// deduplicated by normalized URL for the whole run: repeat fetches return the
// recorded result and a concurrent fetch for the same URL joins the one in
// flight instead of duplicating it.
type Fetcher struct {
	httpClient  *http.Client
	userAgent   string
	maxBytes    int64
	maxAttempts int
	backoffBase time.Duration
	keepQuery   []string
	limiter     *worker.Limiter
	robots      *util.RobotsChecker
	memCache    *cache.Memory
	sem         chan struct{}
	log         *zap.Logger

	group singleflight.Group
	mu    sync.Mutex
	store map[string]*model.Source
}

// New creates a Fetcher from configuration.
func New(cfg *model.Config, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}

	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
	}
	if cfg.HTTP.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	maxInFlight := cfg.Fetch.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 8
	}

	var robots *util.RobotsChecker
	if cfg.Fetch.RespectRobots {
		robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.HTTP.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:   cfg.HTTP.UserAgent,
		maxBytes:    cfg.HTTP.MaxBodyBytes,
		maxAttempts: max(cfg.Fetch.MaxAttempts, 1),
		backoffBase: cfg.Fetch.BackoffBase,
		keepQuery:   cfg.Fetch.KeepQueryHosts,
		limiter:     worker.NewLimiter(cfg.Fetch.RatePerDomain, cfg.Fetch.RateBurst),
		robots:      robots,
		memCache:    cache.NewMemory(cfg.Fetch.CacheTTL),
		sem:         make(chan struct{}, maxInFlight),
		log:         log,
		store:       make(map[string]*model.Source),
	}
}

// Fetch resolves a cited URL to a Source. It never returns an error: fetch
// problems become a typed Failure on the Source, per the run's degradation
// policy.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *model.Source {
	norm, err := Normalize(rawURL, f.keepQuery)
	if err != nil {
		return &model.Source{
			URL:           rawURL,
			NormalizedURL: rawURL,
			Failure: &model.FetchFailure{
				Kind:     model.FailUnsupported,
				Detail:   err.Error(),
				Attempts: 0,
			},
		}
	}

	f.mu.Lock()
	if src, ok := f.store[norm]; ok {
		f.mu.Unlock()
		return src
	}
	f.mu.Unlock()

	v, _, _ := f.group.Do(norm, func() (interface{}, error) {
		src := f.fetchOnce(ctx, rawURL, norm)
		f.mu.Lock()
		f.store[norm] = src
		f.mu.Unlock()
		return src, nil
	})
	return v.(*model.Source)
}

// Sources returns every deduplicated source recorded so far, ordered by
// normalized URL so report output is independent of fetch completion order.
func (f *Fetcher) Sources() []*model.Source {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*model.Source, 0, len(f.store))
	for _, src := range f.store {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NormalizedURL < out[j].NormalizedURL
	})
	return out
}

type cachedPage struct {
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	HasAuthor bool      `json:"has_author"`
	HasDate   bool      `json:"has_date"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL, norm string) *model.Source {
	src := &model.Source{
		URL:           rawURL,
		NormalizedURL: norm,
		Host:          Host(norm),
	}

	select {
	case f.sem <- struct{}{}:
		defer func() { <-f.sem }()
	case <-ctx.Done():
		src.Failure = &model.FetchFailure{Kind: model.FailUnreachable, Detail: "run cancelled"}
		return src
	}

	if raw, ok := f.memCache.Get(cache.Key(norm)); ok {
		var page cachedPage
		if err := json.Unmarshal(raw, &page); err == nil {
			f.log.Debug("cache hit", zap.String("url", norm))
			fillSource(src, PageText{Title: page.Title, Text: page.Text, HasAuthor: page.HasAuthor, HasDate: page.HasDate}, page.FetchedAt)
			return src
		}
	}

	if err := f.limiter.Wait(ctx, norm); err != nil {
		src.Failure = &model.FetchFailure{Kind: model.FailUnreachable, Detail: fmt.Sprintf("rate limit wait: %v", err)}
		return src
	}

	if f.robots != nil && !f.robots.Allowed(ctx, norm) {
		src.Failure = &model.FetchFailure{Kind: model.FailBlocked, Detail: "disallowed by robots.txt"}
		return src
	}

	var page PageText
	var failure *model.FetchFailure
	attempts := 0
	for attempts < f.maxAttempts {
		attempts++

		var transient bool
		page, failure, transient = f.attempt(ctx, rawURL)
		if failure == nil || !transient {
			break
		}
		if attempts < f.maxAttempts {
			backoff := f.backoffBase * time.Duration(1<<uint(attempts-1))
			f.log.Debug("retrying fetch",
				zap.String("url", norm),
				zap.Int("attempt", attempts),
				zap.Duration("backoff", backoff),
				zap.String("reason", failure.Detail))
			if err := sleepFunc(ctx, backoff); err != nil {
				failure = &model.FetchFailure{Kind: model.FailUnreachable, Detail: "run cancelled"}
				break
			}
		}
	}

	if failure != nil {
		failure.Attempts = attempts
		src.Failure = failure
		f.log.Warn("fetch failed",
			zap.String("url", norm),
			zap.String("kind", string(failure.Kind)),
			zap.Int("attempts", attempts),
			zap.String("detail", failure.Detail))
		return src
	}

	fetchedAt := time.Now().UTC()
	if raw, err := json.Marshal(cachedPage{
		Title:     page.Title,
		Text:      page.Text,
		HasAuthor: page.HasAuthor,
		HasDate:   page.HasDate,
		FetchedAt: fetchedAt,
	}); err == nil {
		f.memCache.Set(cache.Key(norm), raw)
	}

	fillSource(src, page, fetchedAt)
	return src
}

// attempt performs one HTTP fetch. The bool reports whether the failure is
// transient and worth retrying.
func (f *Fetcher) attempt(ctx context.Context, rawURL string) (PageText, *model.FetchFailure, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return PageText{}, &model.FetchFailure{Kind: model.FailUnreachable, Detail: fmt.Sprintf("create request: %v", err)}, false
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return PageText{}, &model.FetchFailure{Kind: model.FailUnreachable, Detail: fmt.Sprintf("request failed: %v", err)}, true
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusPaymentRequired:
		return PageText{}, &model.FetchFailure{Kind: model.FailBlocked, Detail: fmt.Sprintf("status %d", resp.StatusCode)}, false
	case resp.StatusCode >= 500:
		return PageText{}, &model.FetchFailure{Kind: model.FailUnreachable, Detail: fmt.Sprintf("status %d", resp.StatusCode)}, true
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return PageText{}, &model.FetchFailure{Kind: model.FailUnreachable, Detail: fmt.Sprintf("status %d", resp.StatusCode)}, false
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if contentType != "" && !strings.Contains(contentType, "html") &&
		!strings.Contains(contentType, "text") && !strings.Contains(contentType, "xml") {
		return PageText{}, &model.FetchFailure{Kind: model.FailUnsupported, Detail: "content-type " + contentType}, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return PageText{}, &model.FetchFailure{Kind: model.FailUnreachable, Detail: fmt.Sprintf("read body: %v", err)}, true
	}

	page, err := ExtractText(string(body))
	if err != nil {
		return PageText{}, &model.FetchFailure{Kind: model.FailUnsupported, Detail: fmt.Sprintf("parse html: %v", err)}, false
	}
	return page, nil, false
}

func fillSource(src *model.Source, page PageText, fetchedAt time.Time) {
	src.Title = page.Title
	src.Content = page.Text
	src.ContentChars = len(page.Text)
	src.HasAuthor = page.HasAuthor
	src.HasDate = page.HasDate
	src.FetchedAt = fetchedAt
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
