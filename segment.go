// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mert

import "mert/internal/sparse"

// Segment is one extendible-hash bucket directory page: a set of Buckets,
// addressed by the full routing byte, all sharing one localDepth. Most
// bucket slots stay empty for realistic key distributions, so buckets are
// kept in a popcount-compressed sparse.Array rather than a plain
// 256-element slice, adapting the teacher's node.go compaction technique
// (there applied to child pointers) to segment storage instead.
type Segment struct {
	localDepth uint8
	buckets    sparse.Array[*Bucket]
}

func newSegment(localDepth uint8) *Segment {
	return &Segment{localDepth: localDepth}
}

// getOrCreateBucket returns the bucket at bi, allocating an empty one on
// first use.
func (s *Segment) getOrCreateBucket(cfg Config, bi uint) *Bucket {
	if b, ok := s.buckets.Get(bi); ok {
		return b
	}
	b := newBucket(cfg)
	s.buckets.InsertAt(bi, b)
	return b
}

// splitDecisionBit returns the nibble bit that distinguishes the two
// halves produced when a segment's local depth grows to newLocalDepth.
// Depth 1 (a freshly materialized segment) consumes the nibble's top bit;
// each further split consumes the next bit down, so that by the time
// local depth reaches cfg.GlobalDepth every directory slot addresses a
// distinct segment.
func splitDecisionBit(newLocalDepth uint8, cfg Config) byte {
	return 1 << (cfg.GlobalDepth - newLocalDepth)
}

// splitSegment grows dir.segments[segIdx] from its current local depth to
// one level deeper, replacing it with two half-width segments and
// repointing every directory slot that aliased the old segment.
//
// The reference source derived this repointing from an old segment index
// that it recomputed for every bucket entry, so the repointing used
// whichever value the last entry produced. Rescanning the directory for
// every slot that currently points at the segment being split avoids
// tracking such an index at all, at the cost of an O(directoryWidth)
// scan -- cheap, since directory width is at most 16.
func splitSegment(dir *PrefixDirectory, segIdx uint, cfg Config) {
	old := dir.segments[segIdx]
	newDepth := old.localDepth + 1

	new0 := newSegment(newDepth)
	new1 := newSegment(newDepth)
	bit := splitDecisionBit(newDepth, cfg)

	for _, bi := range old.buckets.AsSlice(nil) {
		b, _ := old.buckets.Get(bi)
		if byte(bi)&bit != 0 {
			new1.buckets.InsertAt(bi, b)
		} else {
			new0.buckets.InsertAt(bi, b)
		}
	}

	width := uint(cfg.directoryWidth())
	for i := uint(0); i < width; i++ {
		if dir.segments[i] != old {
			continue
		}
		if byte(i)&bit != 0 {
			dir.segments[i] = new1
		} else {
			dir.segments[i] = new0
		}
	}
}
