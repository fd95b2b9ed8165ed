package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsChecker_DisallowedPath(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			hits.Add(1)
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	checker := NewRobotsChecker("wikilens-test", 5*time.Second)
	ctx := context.Background()

	if checker.Allowed(ctx, srv.URL+"/private/page") {
		t.Error("disallowed path should be blocked")
	}
	if !checker.Allowed(ctx, srv.URL+"/public/page") {
		t.Error("allowed path should pass")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("robots.txt fetched %d times, want 1 (cached per host)", got)
	}
}

func TestRobotsChecker_UnreachableRobotsAllows(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	checker := NewRobotsChecker("wikilens-test", time.Second)
	if !checker.Allowed(context.Background(), url+"/page") {
		t.Error("fetch should be allowed when robots.txt is unreachable")
	}
}
