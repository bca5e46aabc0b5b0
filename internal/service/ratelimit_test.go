package service

import (
	"context"
	"testing"
	"time"
)

func newTestBucket(t *testing.T, rate, capacity float64) *TokenBucket {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewTokenBucket(ctx, rate, capacity)
}

func TestTokenBucket_AllowsUpToCapacity(t *testing.T) {
	tb := newTestBucket(t, 1, 3)

	for i := range 3 {
		if !tb.Allow("203.0.113.7") {
			t.Fatalf("attempt %d should be allowed (bucket not yet empty)", i+1)
		}
	}
	if tb.Allow("203.0.113.7") {
		t.Fatal("4th attempt should be denied (bucket empty)")
	}
}

func TestTokenBucket_DifferentKeysAreIndependent(t *testing.T) {
	tb := newTestBucket(t, 1, 1)

	if !tb.Allow("ip-a") {
		t.Fatal("ip-a first attempt should be allowed")
	}
	if tb.Allow("ip-a") {
		t.Fatal("ip-a second attempt should be denied")
	}
	if !tb.Allow("ip-b") {
		t.Fatal("ip-b first attempt should be allowed (independent bucket)")
	}
}

func TestTokenBucket_ZeroRateNeverRefills(t *testing.T) {
	tb := newTestBucket(t, 0, 2)

	if !tb.Allow("k") || !tb.Allow("k") {
		t.Fatal("first two attempts should be allowed")
	}
	if tb.Allow("k") {
		t.Fatal("third attempt should be denied (no refill)")
	}
}

func TestTokenBucket_EvictIdle(t *testing.T) {
	tb := newTestBucket(t, 1, 1)
	tb.Allow("stale")
	tb.Allow("fresh")
	tb.buckets["stale"].last = time.Now().Add(-time.Hour)

	tb.evictIdle(time.Now())

	if tb.Len() != 1 {
		t.Fatalf("expected 1 tracked key, got %d", tb.Len())
	}
	if _, ok := tb.buckets["fresh"]; !ok {
		t.Fatal("fresh key should survive eviction")
	}
}
