package pool

import "testing"

func TestAcquireReusesReleasedValue(t *testing.T) {
	var constructed int
	p := New[[]byte](
		func() []byte { constructed++; return make([]byte, 4) },
		func(b *[]byte) { *b = (*b)[:0] },
		0,
	)

	v1, ok := p.Acquire()
	if !ok {
		t.Fatalf("expected Acquire to succeed")
	}
	p.Release(v1)

	v2, ok := p.Acquire()
	if !ok {
		t.Fatalf("expected second Acquire to succeed")
	}
	if constructed != 1 {
		t.Fatalf("expected exactly 1 construction (free-list reuse), got %d", constructed)
	}
	_ = v2
}

func TestResetFnAppliedOnRelease(t *testing.T) {
	p := New[int](
		func() int { return 0 },
		func(v *int) { *v = -1 },
		0,
	)
	v, _ := p.Acquire()
	v = 42
	p.Release(v)

	v2, _ := p.Acquire()
	if v2 != -1 {
		t.Fatalf("expected reset value -1, got %d", v2)
	}
}

func TestAcquireDeniedBeyondMaxSize(t *testing.T) {
	p := New[int](func() int { return 0 }, nil, 1)

	if _, ok := p.Acquire(); !ok {
		t.Fatalf("expected first Acquire within maxSize to succeed")
	}
	if _, ok := p.Acquire(); ok {
		t.Fatalf("expected second Acquire beyond maxSize to fail")
	}
}

// TestConservationInvariant asserts spec §8's object pool conservation
// property: Total constructed objects never shrinks, InUse always equals
// Acquires - Releases, and PeakUse never exceeds the high-water mark.
func TestConservationInvariant(t *testing.T) {
	p := New[int](func() int { return 0 }, nil, 0)

	var held []int
	for i := 0; i < 5; i++ {
		v, ok := p.Acquire()
		if !ok {
			t.Fatalf("Acquire %d: expected ok", i)
		}
		held = append(held, v)
	}
	stats := p.Stats()
	if stats.InUse != 5 {
		t.Fatalf("InUse = %d, want 5", stats.InUse)
	}
	if stats.PeakUse != 5 {
		t.Fatalf("PeakUse = %d, want 5", stats.PeakUse)
	}
	if stats.Total != 5 {
		t.Fatalf("Total = %d, want 5", stats.Total)
	}

	for _, v := range held {
		p.Release(v)
	}
	stats = p.Stats()
	if stats.InUse != 0 {
		t.Fatalf("InUse after releasing all = %d, want 0", stats.InUse)
	}
	if stats.Free != 5 {
		t.Fatalf("Free after releasing all = %d, want 5", stats.Free)
	}
	if stats.PeakUse != 5 {
		t.Fatalf("PeakUse should still reflect the high-water mark, got %d", stats.PeakUse)
	}
	if stats.Total != 5 {
		t.Fatalf("Total should not shrink on Release, got %d", stats.Total)
	}

	// Re-acquiring should draw from the free list, not grow Total.
	if _, ok := p.Acquire(); !ok {
		t.Fatalf("expected Acquire to succeed from free list")
	}
	if stats := p.Stats(); stats.Total != 5 {
		t.Fatalf("Total grew on a free-list reuse: got %d, want 5", stats.Total)
	}
}

func TestBufferPoolZeroesOnRelease(t *testing.T) {
	bp := NewBufferPool(8, 0)
	b, _ := bp.Acquire()
	for i := range b {
		b[i] = 0xFF
	}
	bp.Release(b)

	b2, _ := bp.Acquire()
	for i, v := range b2 {
		if v != 0 {
			t.Fatalf("byte %d not zeroed after release/reacquire: %d", i, v)
		}
	}
}
