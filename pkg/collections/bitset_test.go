package collections

import "testing"

func TestBitset_Basic(t *testing.T) {
	b := NewBitset(100)

	b.Set(0)
	b.Set(50)
	b.Set(99)

	if !b.Test(0) {
		t.Error("Expected bit 0 to be set")
	}
	if !b.Test(50) {
		t.Error("Expected bit 50 to be set")
	}
	if !b.Test(99) {
		t.Error("Expected bit 99 to be set")
	}
	if b.Test(1) {
		t.Error("Expected bit 1 to be clear")
	}

	if b.Count() != 3 {
		t.Errorf("Expected count 3, got %d", b.Count())
	}

	b.Clear(50)
	if b.Test(50) {
		t.Error("Expected bit 50 to be clear after Clear")
	}
	if b.Count() != 2 {
		t.Errorf("Expected count 2 after Clear, got %d", b.Count())
	}
}

func TestBitset_Grow(t *testing.T) {
	b := NewBitset(64)

	// Set bit beyond initial size
	b.Set(200)
	if !b.Test(200) {
		t.Error("Expected bit 200 to be set after grow")
	}
	if b.Size() < 200 {
		t.Errorf("Expected size >= 200, got %d", b.Size())
	}
}

func TestBitset_OutOfRange(t *testing.T) {
	b := NewBitset(64)

	b.Set(-1)
	if b.Count() != 0 {
		t.Error("Negative index must be ignored")
	}
	if b.Test(-1) {
		t.Error("Expected Test(-1) to be false")
	}
	if b.Test(1000) {
		t.Error("Expected Test beyond size to be false")
	}
	b.Clear(1000) // no-op, must not panic
}

func TestBitset_ClearAll(t *testing.T) {
	b := NewBitset(100)
	b.Set(3)
	b.Set(77)

	b.ClearAll()
	for i := 0; i < 100; i++ {
		if b.Test(i) {
			t.Errorf("Expected bit %d to be clear after ClearAll", i)
		}
	}
}

func TestBitset_Clone(t *testing.T) {
	a := NewBitset(100)
	a.Set(10)
	a.Set(20)

	b := a.Clone()

	// Modify original
	a.Set(30)

	// Clone should be independent
	if b.Test(30) {
		t.Error("Clone should be independent")
	}
	if !b.Test(10) || !b.Test(20) {
		t.Error("Clone should have original bits")
	}
}

func BenchmarkBitset_Set(b *testing.B) {
	bs := NewBitset(1000000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bs.Set(i % 1000000)
	}
}

func BenchmarkBitset_Test(b *testing.B) {
	bs := NewBitset(1000000)
	for i := 0; i < 1000000; i++ {
		if i%2 == 0 {
			bs.Set(i)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bs.Test(i % 1000000)
	}
}
