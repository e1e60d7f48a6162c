package iterator

import "sync/atomic"

// Iterator hands out its items round robin, starting with the first. It is
// safe for concurrent use; Items must not change after the first Next.
type Iterator[T any] struct {
	Items []T
	index atomic.Uint64
}

func New[T any](items ...T) *Iterator[T] {
	return &Iterator[T]{Items: items}
}

func (it *Iterator[T]) Next() T {
	n := uint64(len(it.Items))
	if n == 0 {
		var zero T
		return zero
	}
	i := it.index.Add(1) - 1
	if n&(n-1) == 0 {
		return it.Items[i&(n-1)]
	}
	return it.Items[i%n]
}

// Peek returns the item the next call to Next will return.
func (it *Iterator[T]) Peek() T {
	n := len(it.Items)
	if n == 0 {
		var zero T
		return zero
	}
	i := it.index.Load()
	return it.Items[i%uint64(n)]
}

func (it *Iterator[T]) Len() int { return len(it.Items) }

// Reset starts the rotation over from the first item.
func (it *Iterator[T]) Reset() { it.index.Store(0) }
