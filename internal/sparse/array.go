// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package sparse implements a generic, fixed-width (256-slot) sparse array
// with popcount compression, used to back a Segment's bucket table without
// preallocating 256 entries that, for most key distributions, stay empty.
package sparse

// Array, a generic implementation of a sparse array over 256 byte-indexed
// slots, with popcount compression and payload T.
//
//	 example:
//		                   |
//		                   v
//		BitSet: [0|0|1|0|0|1|0|...] <- two bits set
//		Items:  [*|*]               <- two slots populated
//		           ^
//		           |
//
//		BitSet.Test(5):     true
//		BitSet.Count():     2, for interval [0,5]
//		BitSet.Rank0(5):    1, equal popcount - 1
type Array[T any] struct {
	Bits  BitSet256
	Items []T
}

// Len returns the number of items in the sparse array.
func (s *Array[T]) Len() int {
	return len(s.Items)
}

// Copy returns a shallow copy of the Array. The elements are copied using
// assignment, this is no deep clone.
func (s *Array[T]) Copy() *Array[T] {
	if s == nil {
		return nil
	}

	var items []T
	if s.Items != nil {
		items = make([]T, len(s.Items), cap(s.Items))
		copy(items, s.Items)
	}

	return &Array[T]{
		Bits:  s.Bits,
		Items: items,
	}
}

// Test reports whether slot i is populated.
func (s *Array[T]) Test(i uint) bool {
	return s.Bits.Test(i)
}

// InsertAt a value at i into the sparse array. If the value already
// exists, overwrite it with val and return true.
func (s *Array[T]) InsertAt(i uint, val T) (exists bool) {
	if s.Len() != 0 && s.Bits.Test(i) {
		s.Items[s.Bits.Rank0(i)] = val
		return true
	}

	s.Bits = s.Bits.Set(i)
	s.insertItem(val, s.Bits.Rank0(i))

	return false
}

// DeleteAt a value at i from the sparse array, zeroes the tail.
func (s *Array[T]) DeleteAt(i uint) (val T, exists bool) {
	if s.Len() == 0 || !s.Bits.Test(i) {
		return
	}

	idx := s.Bits.Rank0(i)
	val = s.Items[idx]

	s.deleteItem(idx)
	s.Bits = s.Bits.Clear(i)

	return val, true
}

// Get the value at i from the sparse array.
func (s *Array[T]) Get(i uint) (val T, ok bool) {
	if s.Bits.Test(i) {
		return s.Items[s.Bits.Rank0(i)], true
	}
	return
}

// MustGet, use it only after a successful Test, or the behavior is
// undefined, maybe it panics.
func (s *Array[T]) MustGet(i uint) T {
	return s.Items[s.Bits.Rank0(i)]
}

// AsSlice appends the populated slot indices, ascending, to buf.
func (s *Array[T]) AsSlice(buf []uint) []uint {
	return s.Bits.AsSlice(buf)
}

// insertItem inserts the item at index i, shifting the rest one pos right.
//
// It panics if i is out of range.
func (s *Array[T]) insertItem(item T, i int) {
	if len(s.Items) < cap(s.Items) {
		s.Items = s.Items[:len(s.Items)+1] // fast resize, no alloc
	} else {
		var zero T
		s.Items = append(s.Items, zero) // appends maybe more than just one item
	}
	copy(s.Items[i+1:], s.Items[i:])
	s.Items[i] = item
}

// deleteItem at index i, shift the rest one pos left and clear the tail item.
//
// It panics if i is out of range.
func (s *Array[T]) deleteItem(i int) {
	var zero T
	l := len(s.Items) - 1            // new len
	copy(s.Items[i:], s.Items[i+1:]) // overwrite s[i]
	s.Items[l] = zero                // clear the tail item
	s.Items = s.Items[:l]            // new len, cap is unchanged
}
