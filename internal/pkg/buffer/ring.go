package buffer

import "sync"

// GrowStep is the granularity of the backing store.
const GrowStep = 2048

// Ring is a growable FIFO byte buffer. Every method takes the same mutex, so a
// producer on another goroutine can Enqueue while the owner drains with Take.
type Ring struct {
	mu     sync.Mutex
	data   []byte
	head   int
	tail   int
	length int
}

func NewRing(capacity int) *Ring {
	if capacity < GrowStep {
		capacity = GrowStep
	}
	return &Ring{data: make([]byte, roundUp(capacity))}
}

func roundUp(n int) int {
	return (n + GrowStep - 1) / GrowStep * GrowStep
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.length
}

func (r *Ring) Cap() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// Enqueue appends p, growing the backing store when needed.
func (r *Ring) Enqueue(p []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueue(p)
}

func (r *Ring) enqueue(p []byte) {
	n := len(p)
	if n == 0 {
		return
	}
	if r.length+n > len(r.data) {
		r.grow(r.length + n)
	}
	if r.head < r.tail || r.length == 0 {
		right := len(r.data) - r.tail
		if right >= n {
			copy(r.data[r.tail:], p)
		} else {
			copy(r.data[r.tail:], p[:right])
			copy(r.data, p[right:])
		}
	} else {
		copy(r.data[r.tail:], p)
	}
	r.tail = (r.tail + n) % len(r.data)
	r.length += n
}

func (r *Ring) grow(need int) {
	data := make([]byte, roundUp(need))
	if r.length > 0 {
		if r.head < r.tail {
			copy(data, r.data[r.head:r.tail])
		} else {
			k := copy(data, r.data[r.head:])
			copy(data[k:], r.data[:r.tail])
		}
	}
	r.data = data
	r.head = 0
	r.tail = r.length % len(data)
}

// Dequeue copies up to len(dst) buffered bytes into dst and consumes them.
func (r *Ring) Dequeue(dst []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dequeue(dst)
}

func (r *Ring) dequeue(dst []byte) int {
	n := min(len(dst), r.length)
	if n == 0 {
		return 0
	}
	if r.head < r.tail {
		copy(dst, r.data[r.head:r.head+n])
	} else {
		right := len(r.data) - r.head
		if right >= n {
			copy(dst, r.data[r.head:r.head+n])
		} else {
			copy(dst, r.data[r.head:])
			copy(dst[right:n], r.data[:n-right])
		}
	}
	r.head = (r.head + n) % len(r.data)
	r.length -= n
	if r.length == 0 {
		r.head, r.tail = 0, 0
	}
	return n
}

// PeekSegment returns up to limit contiguous bytes from the head without consuming
// them. The result is shorter than limit when the data wraps. The slice aliases the
// backing store and is only valid until the next mutation.
func (r *Ring) PeekSegment(limit int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := min(limit, r.length)
	if n <= 0 {
		return nil
	}
	if r.head+n > len(r.data) {
		n = len(r.data) - r.head
	}
	return r.data[r.head : r.head+n]
}

// At returns the byte i positions after the head, i taken modulo the length.
func (r *Ring) At(i int) byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.at(i)
}

func (r *Ring) at(i int) byte {
	if r.length == 0 {
		return 0
	}
	return r.data[(r.head+i%r.length)%len(r.data)]
}

// Clear drops all buffered bytes and keeps the backing store.
func (r *Ring) Clear() {
	r.mu.Lock()
	r.head, r.tail, r.length = 0, 0, 0
	r.mu.Unlock()
}

// View is the read-only window handed to a Take measure function.
type View struct {
	r *Ring
}

func (v View) Len() int { return v.r.length }
func (v View) At(i int) byte { return v.r.at(i) }

// Take sizes and removes the next frame under one lock hold. measure returns the
// number of bytes to take, 0 to leave the buffer untouched, or a negative value to
// discard everything buffered. Taken bytes land in *scratch, which is grown
// geometrically when too small. Take returns the bytes taken and the bytes discarded.
func (r *Ring) Take(scratch *[]byte, measure func(View) int) (taken, discarded int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.length == 0 {
		return 0, 0
	}
	n := measure(View{r: r})
	switch {
	case n < 0:
		discarded = r.length
		r.head, r.tail, r.length = 0, 0, 0
		return 0, discarded
	case n == 0:
		return 0, 0
	}
	if n > r.length {
		return 0, 0
	}
	if cap(*scratch) < n {
		*scratch = make([]byte, max(cap(*scratch)*2, n))
	}
	*scratch = (*scratch)[:n]
	return r.dequeue(*scratch), 0
}
