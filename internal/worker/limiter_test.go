package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_SharedPerHost(t *testing.T) {
	l := NewLimiter(1000, 1)

	a := l.hostLimiter("example.com")
	b := l.hostLimiter("example.com")
	if a != b {
		t.Error("expected the same limiter for repeated host lookups")
	}
	if c := l.hostLimiter("other.com"); c == a {
		t.Error("expected a distinct limiter per host")
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	// Rate so low the second Wait cannot clear before the deadline.
	l := NewLimiter(0.01, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "https://slow.test/a"); err != nil {
		t.Fatalf("first wait should pass on burst: %v", err)
	}
	if err := l.Wait(ctx, "https://slow.test/b"); err == nil {
		t.Error("second wait should fail when the context deadline is exceeded")
	}
}

func TestLimiter_InvalidURL(t *testing.T) {
	l := NewLimiter(1, 1)
	if err := l.Wait(context.Background(), "http://bad url with spaces"); err == nil {
		t.Error("expected an error for an unparseable URL")
	}
}
