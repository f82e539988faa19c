package collections

import (
	"testing"
)

func TestSlicePool(t *testing.T) {
	pool := NewSlicePool[int](256)

	// Get a slice
	s := pool.Get()
	if s == nil {
		t.Fatal("Get returned nil")
	}
	if cap(*s) < 256 {
		t.Errorf("Expected capacity >= 256, got %d", cap(*s))
	}

	// Use the slice
	*s = append(*s, 1, 2, 3)
	if len(*s) != 3 {
		t.Errorf("Expected length 3, got %d", len(*s))
	}

	// Put it back
	pool.Put(s)

	// Get again (should be cleared)
	s2 := pool.Get()
	if len(*s2) != 0 {
		t.Errorf("Expected length 0 after Put, got %d", len(*s2))
	}
}

func TestSlicePool_DefaultCapacity(t *testing.T) {
	pool := NewSlicePool[byte](0)

	s := pool.Get()
	if cap(*s) < 256 {
		t.Errorf("Expected default capacity >= 256, got %d", cap(*s))
	}
	pool.Put(s)
}

func BenchmarkSlicePool_GetPut(b *testing.B) {
	pool := NewSlicePool[byte](4096)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := pool.Get()
		*s = append(*s, 0x2a)
		pool.Put(s)
	}
}
