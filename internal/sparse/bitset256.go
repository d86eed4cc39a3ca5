// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package sparse

import "math/bits"

// BitSet256 is a fixed-width 256-bit vector, exactly the width of one
// routing byte (0..255). It backs Array's popcount compression: four
// uint64 words fit comfortably in a cache line, and loops over them
// unroll well, matching the same engineering rationale the teacher's
// package doc gives for its own fixed-width bitset.
//
// The teacher's own internal/bitset package (imported by its
// internal/sparse/array.go as "github.com/gaissmai/bart/internal/bitset")
// targets another module's internal package and cannot be a dependency of
// any module other than that one; it was also not present in the
// retrieval pack to adapt byte-for-byte. BitSet256 reconstructs the
// documented Rank0/popcount technique locally instead.
type BitSet256 [4]uint64

// Test reports whether bit i is set.
func (b BitSet256) Test(i uint) bool {
	return b[i/64]&(1<<(i%64)) != 0
}

// Set returns a copy of b with bit i set.
func (b BitSet256) Set(i uint) BitSet256 {
	b[i/64] |= 1 << (i % 64)
	return b
}

// Clear returns a copy of b with bit i cleared.
func (b BitSet256) Clear(i uint) BitSet256 {
	b[i/64] &^= 1 << (i % 64)
	return b
}

// Count returns the total number of set bits.
func (b BitSet256) Count() int {
	return bits.OnesCount64(b[0]) + bits.OnesCount64(b[1]) + bits.OnesCount64(b[2]) + bits.OnesCount64(b[3])
}

// Rank0 returns the zero-based rank (slice index) of bit i among the set
// bits, i.e. popcount of all set bits in [0,i] minus one. Only valid to
// call when Test(i) is true.
func (b BitSet256) Rank0(i uint) int {
	word := i / 64
	mask := uint64(1)<<(i%64+1) - 1
	if i%64 == 63 {
		mask = ^uint64(0)
	}

	rank := bits.OnesCount64(b[word] & mask)
	for w := uint(0); w < word; w++ {
		rank += bits.OnesCount64(b[w])
	}

	return rank - 1
}

// AsSlice appends the positions of all set bits (ascending) to buf and
// returns the result.
func (b BitSet256) AsSlice(buf []uint) []uint {
	for w := 0; w < 4; w++ {
		word := b[w]
		base := uint(w) * 64
		for word != 0 {
			tz := bits.TrailingZeros64(word)
			buf = append(buf, base+uint(tz))
			word &= word - 1
		}
	}
	return buf
}
