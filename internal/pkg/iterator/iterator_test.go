package iterator

import "testing"

func TestNext(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  []string
	}{
		{"single", []string{"a"}, []string{"a", "a", "a"}},
		{"power of two", []string{"a", "b"}, []string{"a", "b", "a", "b"}},
		{"three", []string{"a", "b", "c"}, []string{"a", "b", "c", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := New(tt.items...)
			for i, want := range tt.want {
				if peek := it.Peek(); peek != want {
					t.Errorf("step %d: Peek() = %q, want %q", i, peek, want)
				}
				if got := it.Next(); got != want {
					t.Errorf("step %d: Next() = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestEmptyAndReset(t *testing.T) {
	var empty Iterator[int]
	if empty.Next() != 0 || empty.Peek() != 0 || empty.Len() != 0 {
		t.Error("empty iterator returned a value")
	}
	it := New(1, 2, 3)
	it.Next()
	it.Next()
	it.Reset()
	if got := it.Next(); got != 1 {
		t.Errorf("Next() after Reset = %d, want 1", got)
	}
}
