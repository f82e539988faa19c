// Package collections provides generic data structures for efficient data processing.
package collections

import "math/bits"

// Bitset is a memory-efficient boolean set over non-negative integer
// indices, using one bit per element. It grows on Set.
type Bitset struct {
	bits []uint64
	size int
}

// NewBitset creates a new bitset with the given size.
func NewBitset(size int) *Bitset {
	if size <= 0 {
		size = 64
	}
	numWords := (size + 63) / 64
	return &Bitset{
		bits: make([]uint64, numWords),
		size: size,
	}
}

// Set sets the bit at index i, growing the bitset if needed.
func (b *Bitset) Set(i int) {
	if i < 0 {
		return
	}
	wordIdx := i / 64
	if wordIdx >= len(b.bits) {
		b.grow(i + 1)
	}
	b.bits[wordIdx] |= 1 << (i % 64)
	if i >= b.size {
		b.size = i + 1
	}
}

// Clear clears the bit at index i.
func (b *Bitset) Clear(i int) {
	if i < 0 || i/64 >= len(b.bits) {
		return
	}
	b.bits[i/64] &^= 1 << (i % 64)
}

// Test returns true if the bit at index i is set. Indices beyond the
// current size are unset.
func (b *Bitset) Test(i int) bool {
	if i < 0 || i/64 >= len(b.bits) {
		return false
	}
	return b.bits[i/64]&(1<<(i%64)) != 0
}

// ClearAll clears all bits to 0.
func (b *Bitset) ClearAll() {
	for i := range b.bits {
		b.bits[i] = 0
	}
}

// Count returns the number of set bits (population count).
func (b *Bitset) Count() int {
	count := 0
	for _, word := range b.bits {
		count += bits.OnesCount64(word)
	}
	return count
}

// Size returns the size of the bitset.
func (b *Bitset) Size() int {
	return b.size
}

// grow expands the bitset to accommodate at least newSize elements.
func (b *Bitset) grow(newSize int) {
	numWords := (newSize + 63) / 64
	if numWords <= len(b.bits) {
		return
	}
	// grow by at least 2x to amortize allocation cost
	newCap := len(b.bits) * 2
	if newCap < numWords {
		newCap = numWords
	}
	newBits := make([]uint64, newCap)
	copy(newBits, b.bits)
	b.bits = newBits
}

// Clone creates a copy of the bitset.
func (b *Bitset) Clone() *Bitset {
	newBits := make([]uint64, len(b.bits))
	copy(newBits, b.bits)
	return &Bitset{
		bits: newBits,
		size: b.size,
	}
}
