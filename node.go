// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mert

import "sync"

const maxPromoteRetries = 64

// terminal holds the value associated with a key that ends exactly at one
// of a node's prefix positions. A plain []byte cannot distinguish "no key
// ends here" from "a key ending here was inserted with an empty value",
// so the slot needs an explicit presence flag.
type terminal struct {
	value []byte
	set   bool
}

// node is a MERTNode: up to cfg.PrefixBytes bytes of path-compressed
// shared prefix, stored one byte per PrefixDirectory alongside that
// position's extendible-hash directory of child Segments, plus the
// values of keys that terminate exactly at one of those positions.
//
// This generalizes the teacher's node[V] (a path-compressed prefix plus a
// popcount-compressed child array keyed by the next route byte) by
// splitting "prefix byte" and "where keys after it go" into one
// PrefixDirectory per position, so that the extendible-hash directory's
// aliasing (invariant S2) has somewhere to live that a plain popcount
// array cannot provide.
//
// mu guards n's own fields under ModeParallel; it is never shared with
// any other node, so acquiring a child's mu while a caller still holds
// its parent's (insertToSegmentBucket's recursion into a child slot,
// addChildNode's re-insertion into a freshly promoted child) can never
// self-deadlock, and since every call path locks nodes in strict
// root-to-leaf order, two goroutines can never contend for the same pair
// of locks in opposite order either.
type node struct {
	mu         sync.RWMutex
	prefix     []PrefixDirectory
	totalValue []terminal
}

func newNode(cfg Config) *node {
	return &node{
		prefix:     make([]PrefixDirectory, cfg.PrefixBytes),
		totalValue: make([]terminal, cfg.PrefixBytes),
	}
}

// effectivePrefixLen returns the number of leading prefix positions that
// are filled (invariant N1: once a position is unfilled, every later one
// is too).
func (n *node) effectivePrefixLen() int {
	for i := range n.prefix {
		if n.prefix[i].c == 0 && !n.positionEverWritten(i) {
			return i
		}
	}
	return len(n.prefix)
}

// positionEverWritten disambiguates a prefix byte that is genuinely 0x00
// from one that was never written. c==0 is a legal key byte, so the
// directory/value state at or after position i is the real signal:
// insertToNewNode only ever grows the prefix contiguously from position
// 0, so a later position carrying state implies this one was written too.
func (n *node) positionEverWritten(i int) bool {
	if n.prefix[i].segments != nil || n.totalValue[i].set {
		return true
	}
	for j := i + 1; j < len(n.prefix); j++ {
		if n.prefix[j].c != 0 || n.prefix[j].segments != nil || n.totalValue[j].set {
			return true
		}
	}
	return false
}

func (n *node) setTotalValue(idx int, value []byte) {
	n.totalValue[idx] = terminal{value: append([]byte(nil), value...), set: true}
}

// insertToNewNode dispatches an insert into n starting at key[startPos:],
// following the six-case matrix of the prefix-compressed trie: how far
// the key matches n's stored prefix decides whether the key terminates
// here, extends n's prefix, falls through to a segment directory, or
// cannot possibly belong under n at all (notThisNode).
func (n *node) insertToNewNode(key, value []byte, startPos int, cfg Config) (notThisNode bool) {
	if cfg.Concurrency == ModeParallel {
		n.mu.Lock()
		defer n.mu.Unlock()
	}

	plen := n.effectivePrefixLen()

	keyIdx := startPos
	pIdx := 0
	for keyIdx < len(key) && pIdx < plen && key[keyIdx] == n.prefix[pIdx].c {
		keyIdx++
		pIdx++
	}

	switch {
	case plen == 0:
		// Case A: empty node, claim as much of the key as fits.
		remaining := len(key) - startPos
		take := remaining
		if take > len(n.prefix) {
			take = len(n.prefix)
		}
		for i := 0; i < take; i++ {
			n.prefix[i].c = key[startPos+i]
		}
		if take == remaining {
			n.setTotalValue(take-1, value)
			return false
		}
		return n.insertToSegmentBucket(key, value, startPos+take, len(n.prefix)-1, cfg)

	case pIdx == 0:
		// Case B: first byte already disagrees, key cannot belong here.
		return true

	case pIdx < plen:
		// Case C: matched a strict prefix of n's stored prefix.
		if keyIdx == len(key) {
			n.setTotalValue(pIdx-1, value)
			return false
		}
		return n.insertToSegmentBucket(key, value, keyIdx, pIdx, cfg)

	default: // pIdx == plen > 0
		if keyIdx == len(key) {
			n.setTotalValue(pIdx-1, value)
			return false
		}
		// Cases D/E: matched the entire stored prefix, try to extend it
		// with more of the key before falling through to a directory.
		if plen < len(n.prefix) {
			room := len(n.prefix) - plen
			remaining := len(key) - keyIdx
			take := remaining
			if take > room {
				take = room
			}
			for i := 0; i < take; i++ {
				n.prefix[plen+i].c = key[keyIdx+i]
			}
			keyIdx += take
			pIdx += take
			if keyIdx == len(key) {
				n.setTotalValue(pIdx-1, value)
				return false
			}
		}
		return n.insertToSegmentBucket(key, value, keyIdx, len(n.prefix)-1, cfg)
	}
}

// insertToSegmentBucket routes key[startPos:] through the directory at
// prefix position dirIdx: materializing a fresh segment on first use,
// probing an existing bucket's slots (overwrite, recurse into a child,
// or claim a free slot), and splitting or promoting on overflow.
//
// Called only from insertToNewNode, which already holds n's Mode P lock
// for the duration of this call; recursion into a child node acquires
// that child's own, distinct lock in turn, preserving a top-down lock
// order across the whole tree.
func (n *node) insertToSegmentBucket(key, value []byte, startPos, dirIdx int, cfg Config) (notThisNode bool) {
	dir := &n.prefix[dirIdx]
	dir.ensure(cfg)

	routingByte := key[startPos]
	segIdx := segmentIndex(routingByte, cfg)
	bi := bucketIndex(routingByte)

	if dir.segments[segIdx] == nil {
		seg := newSegment(1)
		b := seg.getOrCreateBucket(cfg, bi)
		b.slots[0].setLeaf(key, value)

		bit := splitDecisionBit(1, cfg)
		width := uint(cfg.directoryWidth())
		for i := uint(0); i < width; i++ {
			if (byte(i)&bit != 0) == (byte(segIdx)&bit != 0) {
				dir.segments[i] = seg
			}
		}
		return false
	}

	for attempt := 0; attempt < maxPromoteRetries; attempt++ {
		seg := dir.segments[segIdx]
		b := seg.getOrCreateBucket(cfg, bi)

		if i := b.findLeaf(key); i >= 0 {
			b.slots[i].value = append([]byte(nil), value...)
			return false
		}

		firstEmpty := -1
		for i := range b.slots {
			switch b.slots[i].kind {
			case slotChild:
				if !b.slots[i].child.insertToNewNode(key, value, startPos, cfg) {
					return false
				}
			case slotEmpty:
				if firstEmpty == -1 {
					firstEmpty = i
				}
			}
		}
		if firstEmpty != -1 {
			b.slots[firstEmpty].setLeaf(key, value)
			return false
		}

		if seg.localDepth < cfg.GlobalDepth {
			splitSegment(dir, segIdx, cfg)
			continue
		}

		child := newNode(cfg)
		addChildNode(child, b, startPos, cfg)
		if slot := b.firstEmpty(); slot != -1 {
			b.slots[slot].setChild(child)
		}
	}
	panic("mert: bucket overflow did not resolve after repeated promotion; the pairwise longest-common-substring chosen for the new child matched none of the bucket's keys")
}

// addChildNode builds child's shared prefix from the longest common
// substring among b's leaf keys (computed pairwise, not as a common
// prefix of all of them at once -- a deliberately preserved quirk of the
// reference algorithm: the winning substring need not start at startPos,
// and need not be shared by every key in the bucket), then re-inserts
// every leaf into child, clearing from b the ones child accepts.
func addChildNode(child *node, b *Bucket, startPos int, cfg Config) {
	leaves := b.leaves(nil)
	if len(leaves) == 0 {
		return
	}

	var common []byte
	if len(leaves) == 1 {
		rest := leaves[0].key[startPos:]
		if len(rest) > len(child.prefix) {
			rest = rest[:len(child.prefix)]
		}
		common = rest
	} else {
		common = longestCommonSubstringAmong(leaves, startPos)
	}
	if len(common) > len(child.prefix) {
		common = common[:len(child.prefix)]
	}
	for i, c := range common {
		child.prefix[i].c = c
	}

	for _, lf := range leaves {
		if !child.insertToNewNode(lf.key, lf.value, startPos, cfg) {
			b.slots[lf.index].clear()
		}
	}
}

// search descends n for key, starting the comparison at startPos, mirroring
// insertToNewNode's prefix-matching dispatch read-only: a strict partial
// match (Case C) routes through the directory at the mismatching position
// itself, while a full match of n's stored prefix (cases D/E) always
// routes through the last prefix position's directory, since that is the
// only position insertToNewNode ever materializes a directory at once the
// node's prefix has been extended to its maximum length.
func (n *node) search(key []byte, startPos int, cfg Config) ([]byte, bool) {
	if cfg.Concurrency == ModeParallel {
		n.mu.RLock()
		defer n.mu.RUnlock()
	}

	plen := n.effectivePrefixLen()

	keyIdx := startPos
	pIdx := 0
	for keyIdx < len(key) && pIdx < plen && key[keyIdx] == n.prefix[pIdx].c {
		keyIdx++
		pIdx++
	}

	switch {
	case plen == 0:
		return nil, false

	case pIdx == 0:
		// Case B: first byte already disagrees.
		return nil, false

	case pIdx < plen:
		// Case C: matched a strict prefix of n's stored prefix.
		if keyIdx == len(key) {
			t := n.totalValue[pIdx-1]
			return t.value, t.set
		}
		return n.searchSegmentBucket(key, keyIdx, pIdx, cfg)

	default: // pIdx == plen > 0
		if keyIdx == len(key) {
			t := n.totalValue[pIdx-1]
			return t.value, t.set
		}
		return n.searchSegmentBucket(key, keyIdx, len(n.prefix)-1, cfg)
	}
}

// searchSegmentBucket looks up key[startPos:] in the directory at prefix
// position dirIdx, recursing into a child node when the bucket slot that
// matches the routing byte holds one.
func (n *node) searchSegmentBucket(key []byte, startPos, dirIdx int, cfg Config) ([]byte, bool) {
	dir := &n.prefix[dirIdx]
	if dir.segments == nil {
		return nil, false
	}

	routingByte := key[startPos]
	segIdx := segmentIndex(routingByte, cfg)
	bi := bucketIndex(routingByte)

	seg := dir.segments[segIdx]
	if seg == nil {
		return nil, false
	}
	b, ok := seg.buckets.Get(bi)
	if !ok {
		return nil, false
	}
	if i := b.findLeaf(key); i >= 0 {
		return b.slots[i].value, true
	}
	for i := range b.slots {
		if b.slots[i].kind == slotChild {
			if v, ok := b.slots[i].child.search(key, startPos, cfg); ok {
				return v, true
			}
		}
	}
	return nil, false
}
