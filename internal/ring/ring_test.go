package ring

import (
	"sync"
	"testing"
)

func TestNewPanicsOnNonPowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for capacity 3")
		}
	}()
	New[int](3)
}

func TestPushPopSingle(t *testing.T) {
	r := New[int](4)
	if !r.TryPush(42) {
		t.Fatal("push should succeed on empty ring")
	}
	var out int
	if !r.TryPop(&out) {
		t.Fatal("pop should succeed after a push")
	}
	if out != 42 {
		t.Fatalf("expected 42, got %d", out)
	}
	if !r.Empty() {
		t.Fatal("ring should be empty after draining")
	}
}

func TestPopEmptyFails(t *testing.T) {
	r := New[int](4)
	var out int
	if r.TryPop(&out) {
		t.Fatal("pop on empty ring should fail")
	}
}

func TestFillsToUsableCapacity(t *testing.T) {
	r := New[int](4) // usable capacity 3
	for i := 0; i < 3; i++ {
		if !r.TryPush(i) {
			t.Fatalf("push %d should succeed", i)
		}
	}
	if r.TryPush(99) {
		t.Fatal("push should fail once the ring is full")
	}
	if r.Len() != 3 {
		t.Fatalf("expected len 3, got %d", r.Len())
	}
}

func TestWrapAroundPreservesOrder(t *testing.T) {
	r := New[int](4)
	for round := 0; round < 10; round++ {
		if !r.TryPush(round) {
			t.Fatalf("push round %d should succeed", round)
		}
		var out int
		if !r.TryPop(&out) {
			t.Fatalf("pop round %d should succeed", round)
		}
		if out != round {
			t.Fatalf("round %d: expected %d, got %d", round, round, out)
		}
	}
}

// TestSPSCFIFORoundTrip is scenario F: a producer pushes 0..9999 into a
// ring of capacity 1024 while a consumer pops on another goroutine; the
// consumer must observe exactly that sequence, in order (P3).
func TestSPSCFIFORoundTrip(t *testing.T) {
	const n = 10000
	r := New[int](1024)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !r.TryPush(i) {
			}
		}
	}()

	got := make([]int, 0, n)
	go func() {
		defer wg.Done()
		var out int
		for len(got) < n {
			if r.TryPop(&out) {
				got = append(got, out)
			}
		}
	}()

	wg.Wait()

	if len(got) != n {
		t.Fatalf("expected %d items, got %d", n, len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order at index %d: expected %d, got %d", i, i, v)
		}
	}
}
