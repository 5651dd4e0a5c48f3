package middleware

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// ========== Rate limit tests ==========

// TestRateLimit_BurstThenThrottle verifies calls beyond the burst wait for tokens.
func TestRateLimit_BurstThenThrottle(t *testing.T) {
	var calls atomic.Int32
	mw := NewRateLimitMiddleware(rate.Every(30*time.Millisecond), 2)
	complete := mw.Complete(scriptedComplete(&calls))

	start := time.Now()
	for range 3 {
		if _, err := complete(context.Background(), testRequest); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected the third call to be throttled, total %v", elapsed)
	}
}

// TestRateLimit_SharedBucket verifies Complete and Stream draw from the same tokens.
func TestRateLimit_SharedBucket(t *testing.T) {
	var calls atomic.Int32
	mw := NewRateLimitMiddleware(rate.Every(time.Hour), 1)

	if _, err := mw.Stream(scriptedStream(&calls))(context.Background(), testRequest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := mw.Complete(scriptedComplete(&calls))(ctx, testRequest); err == nil {
		t.Fatal("expected the second call to fail waiting for a token")
	}
	if calls.Load() != 1 {
		t.Errorf("expected only the first call to reach the adapter, got %d", calls.Load())
	}
}

func TestRateLimit_ZeroBurstStillAllowsCalls(t *testing.T) {
	var calls atomic.Int32
	mw := NewRateLimitMiddleware(rate.Inf, 0)

	if _, err := mw.Complete(scriptedComplete(&calls))(context.Background(), testRequest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
