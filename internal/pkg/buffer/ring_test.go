package buffer

import (
	"bytes"
	"math/rand"
	"sync"
	"testing"
)

func TestRingFIFOAcrossGrowthAndWrap(t *testing.T) {
	r := NewRing(GrowStep)
	rng := rand.New(rand.NewSource(7))
	var want []byte
	var grew, wrapped bool
	next := byte(0)

	for i := 0; i < 3000; i++ {
		// the first steps only write so the store has to grow, after that the
		// length hovers around 1500 bytes and the head keeps lapping the store
		if i < 100 || (r.Len() < 1500 && rng.Intn(4) > 0) {
			p := make([]byte, 1+rng.Intn(700))
			for j := range p {
				p[j] = next
				next++
			}
			before := r.Cap()
			r.Enqueue(p)
			if r.Cap() > before {
				grew = true
			}
			want = append(want, p...)
		} else {
			dst := make([]byte, 1+rng.Intn(900))
			r.mu.Lock()
			if r.length > 0 && r.head+min(len(dst), r.length) > len(r.data) {
				wrapped = true
			}
			r.mu.Unlock()
			n := r.Dequeue(dst)
			if n != min(len(dst), len(want)) {
				t.Fatalf("step %d: Dequeue() = %d, want %d", i, n, min(len(dst), len(want)))
			}
			if !bytes.Equal(dst[:n], want[:n]) {
				t.Fatalf("step %d: dequeued bytes out of order", i)
			}
			want = want[n:]
		}
		if r.Len() != len(want) {
			t.Fatalf("step %d: Len() = %d, want %d", i, r.Len(), len(want))
		}
	}
	if !grew {
		t.Error("expected at least one growth event")
	}
	if !wrapped {
		t.Error("expected at least one wraparound")
	}
}

func TestRingGrowthIsMultipleOfStep(t *testing.T) {
	tests := []struct {
		name    string
		initial int
		writes  []int
		wantCap int
	}{
		{"fits", 100, []int{2048}, 2048},
		{"one over", 100, []int{2049}, 4096},
		{"accumulated", 2048, []int{2000, 2000, 2000}, 6144},
		{"large initial rounds up", 5000, nil, 6144},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRing(tt.initial)
			for _, n := range tt.writes {
				r.Enqueue(make([]byte, n))
			}
			if r.Cap() != tt.wantCap {
				t.Errorf("Cap() = %d, want %d", r.Cap(), tt.wantCap)
			}
			if r.Cap()%GrowStep != 0 {
				t.Errorf("Cap() = %d is not a multiple of %d", r.Cap(), GrowStep)
			}
		})
	}
}

func TestRingGrowPreservesOrderAcrossWrap(t *testing.T) {
	r := NewRing(GrowStep)
	first := bytes.Repeat([]byte{1}, 1500)
	r.Enqueue(first)
	r.Dequeue(make([]byte, 1000))
	// tail wraps past the end of the 2048 store
	second := bytes.Repeat([]byte{2}, 1200)
	r.Enqueue(second)
	// forces growth while wrapped
	third := bytes.Repeat([]byte{3}, 2000)
	r.Enqueue(third)

	want := append(append(bytes.Repeat([]byte{1}, 500), second...), third...)
	got := make([]byte, len(want)+10)
	n := r.Dequeue(got)
	if n != len(want) {
		t.Fatalf("Dequeue() = %d, want %d", n, len(want))
	}
	if !bytes.Equal(got[:n], want) {
		t.Error("bytes reordered by growth")
	}
	if r.head != 0 || r.tail != 0 {
		t.Errorf("cursors not reset after drain: head=%d tail=%d", r.head, r.tail)
	}
}

func TestRingPeekSegmentStopsAtWrap(t *testing.T) {
	r := NewRing(GrowStep)
	r.Enqueue(make([]byte, 2000))
	r.Dequeue(make([]byte, 1990))
	r.Enqueue(bytes.Repeat([]byte{9}, 60))

	seg := r.PeekSegment(100)
	if len(seg) != GrowStep-1990 {
		t.Errorf("PeekSegment() len = %d, want %d", len(seg), GrowStep-1990)
	}
	if r.Len() != 70 {
		t.Errorf("PeekSegment consumed bytes: Len() = %d", r.Len())
	}
	if got := r.PeekSegment(5); len(got) != 5 {
		t.Errorf("PeekSegment(5) len = %d, want 5", len(got))
	}
	r.Clear()
	if got := r.PeekSegment(5); got != nil {
		t.Errorf("PeekSegment on empty ring = %v, want nil", got)
	}
}

func TestRingAt(t *testing.T) {
	r := NewRing(0)
	if r.At(0) != 0 {
		t.Error("At on empty ring should be zero")
	}
	r.Enqueue([]byte{0x73, 0x05, 0x10})
	if r.At(0) != 0x73 || r.At(1) != 0x05 {
		t.Errorf("At() = %x %x, want 73 05", r.At(0), r.At(1))
	}
	if r.At(3) != 0x73 {
		t.Errorf("At(3) = %x, want index taken modulo length", r.At(3))
	}
}

func TestRingClearKeepsStore(t *testing.T) {
	r := NewRing(0)
	r.Enqueue(make([]byte, 5000))
	c := r.Cap()
	r.Clear()
	if r.Len() != 0 || r.Cap() != c {
		t.Errorf("Clear(): Len=%d Cap=%d, want 0 and %d", r.Len(), r.Cap(), c)
	}
	r.Enqueue([]byte{1, 2, 3})
	got := make([]byte, 3)
	r.Dequeue(got)
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("after Clear got %v", got)
	}
}

func TestRingTake(t *testing.T) {
	r := NewRing(0)
	r.Enqueue([]byte{0xAA, 1, 2, 3, 0xBB})
	scratch := make([]byte, 2)

	n, d := r.Take(&scratch, func(v View) int { return 0 })
	if n != 0 || d != 0 || r.Len() != 5 {
		t.Fatalf("wait verdict consumed data: n=%d d=%d len=%d", n, d, r.Len())
	}

	n, _ = r.Take(&scratch, func(v View) int {
		if v.At(0) != 0xAA {
			t.Errorf("View.At(0) = %x", v.At(0))
		}
		return 4
	})
	if n != 4 || !bytes.Equal(scratch, []byte{0xAA, 1, 2, 3}) {
		t.Errorf("Take() = %d %v", n, scratch)
	}
	if cap(scratch) < 4 {
		t.Errorf("scratch not grown: cap=%d", cap(scratch))
	}

	n, _ = r.Take(&scratch, func(v View) int { return 10 })
	if n != 0 || r.Len() != 1 {
		t.Errorf("Take beyond length should not consume: n=%d len=%d", n, r.Len())
	}

	_, d = r.Take(&scratch, func(v View) int { return -1 })
	if d != 1 || r.Len() != 0 {
		t.Errorf("discard verdict: d=%d len=%d", d, r.Len())
	}
}

func TestRingConcurrentProducer(t *testing.T) {
	r := NewRing(0)
	const frames = 500
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < frames; i++ {
			r.Enqueue([]byte{0x10, byte(i), byte(i), byte(i)})
		}
	}()

	scratch := make([]byte, 4)
	got := 0
	for got < frames {
		n, _ := r.Take(&scratch, func(v View) int {
			if v.Len() < 4 {
				return 0
			}
			return 4
		})
		if n == 0 {
			continue
		}
		if scratch[0] != 0x10 || scratch[1] != scratch[2] || scratch[2] != scratch[3] {
			t.Fatalf("frame %d torn: %v", got, scratch)
		}
		if scratch[1] != byte(got) {
			t.Fatalf("frame %d out of order: %v", got, scratch)
		}
		got++
	}
	wg.Wait()
}
