package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	limiter := New(Config{RequestsPerMinute: 60, BurstSize: 5, CleanupInterval: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		if !limiter.Allow("key") {
			t.Errorf("request %d should be allowed (within burst)", i)
		}
	}

	if limiter.Allow("key") {
		t.Error("request after burst should be denied")
	}

	// One token refills after a second at 60/min.
	time.Sleep(1100 * time.Millisecond)
	if !limiter.Allow("key") {
		t.Error("request after refill should be allowed")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	limiter := New(Config{RequestsPerMinute: 60, BurstSize: 3, CleanupInterval: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		limiter.Allow("chal_a")
	}
	if limiter.Allow("chal_a") {
		t.Error("chal_a should be rate limited")
	}
	if !limiter.Allow("chal_b") {
		t.Error("chal_b should still have tokens")
	}
}
