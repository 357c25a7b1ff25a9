package throttle

import (
	"context"
	"testing"
	"time"
)

func TestAllow(t *testing.T) {
	th := New(10, 10)

	// The full burst is available immediately.
	for i := 0; i < 10; i++ {
		if !th.Allow() {
			t.Fatalf("request %d should be within burst", i)
		}
	}
	if th.Allow() {
		t.Fatal("request should be throttled after burst exhausted")
	}

	// One token refills after 1/10s at 10 req/s.
	time.Sleep(110 * time.Millisecond)
	if !th.Allow() {
		t.Fatal("request should be allowed after refill")
	}
}

func TestWait(t *testing.T) {
	th := New(10, 1)
	ctx := context.Background()

	if err := th.Wait(ctx); err != nil {
		t.Fatalf("first request should pass immediately: %v", err)
	}

	start := time.Now()
	if err := th.Wait(ctx); err != nil {
		t.Fatalf("second request should pass after waiting: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond || elapsed > 200*time.Millisecond {
		t.Fatalf("wait time %v outside expected range 50ms-200ms", elapsed)
	}
}

func TestWaitContextCancellation(t *testing.T) {
	th := New(1, 1)
	if !th.Allow() {
		t.Fatal("first request should be allowed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := th.Wait(ctx); err == nil {
		t.Fatal("Wait should fail when the context expires first")
	}
}

func TestUnlimited(t *testing.T) {
	th := New(0, 0)

	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		if err := th.Wait(ctx); err != nil {
			t.Fatalf("unlimited throttle must never block: %v", err)
		}
	}
}

func TestBurstFloor(t *testing.T) {
	// A positive rate with burst 0 would deadlock Wait; the burst is
	// floored at 1.
	th := New(5, 0)
	if !th.Allow() {
		t.Fatal("floored burst should allow one immediate request")
	}
}
