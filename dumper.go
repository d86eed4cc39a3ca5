// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mert

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes a human-readable dump of the tree structure to w: every
// populated root slot, each node's shared prefix and terminal values,
// and every segment/bucket/slot reachable from its directories. Useful
// during development and in tests that assert on tree shape after a
// sequence of inserts.
func (m *MERT) Fprint(w io.Writer) error {
	for b := 0; b < 256; b++ {
		n := m.root.children[b]
		if n == nil {
			continue
		}
		fmt.Fprintf(w, "root[0x%02x]:\n", b)
		n.dump(w, 1)
	}
	return nil
}

func (n *node) dump(w io.Writer, depth int) {
	indent := strings.Repeat("  ", depth)
	plen := n.effectivePrefixLen()

	prefixBytes := make([]byte, plen)
	for i := 0; i < plen; i++ {
		prefixBytes[i] = n.prefix[i].c
	}
	fmt.Fprintf(w, "%sprefix: %q\n", indent, prefixBytes)

	for i := 0; i < plen; i++ {
		if t := n.totalValue[i]; t.set {
			fmt.Fprintf(w, "%svalue@%d: %q\n", indent, i, t.value)
		}
	}

	for i := 0; i < plen; i++ {
		dir := &n.prefix[i]
		if dir.segments == nil {
			continue
		}
		dir.dump(w, depth, i)
	}
}

func (d *PrefixDirectory) dump(w io.Writer, depth, pos int) {
	indent := strings.Repeat("  ", depth)
	seen := make(map[*Segment]bool)
	for i, seg := range d.segments {
		if seg == nil || seen[seg] {
			continue
		}
		seen[seg] = true
		fmt.Fprintf(w, "%sdirectory[%d] segment (localDepth=%d, first slot=%d):\n", indent, pos, seg.localDepth, i)
		seg.dump(w, depth+1)
	}
}

func (s *Segment) dump(w io.Writer, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, bi := range s.buckets.AsSlice(nil) {
		b, _ := s.buckets.Get(bi)
		fmt.Fprintf(w, "%sbucket[0x%02x]:\n", indent, bi)
		b.dump(w, depth+1)
	}
}

func (b *Bucket) dump(w io.Writer, depth int) {
	indent := strings.Repeat("  ", depth)
	for i, s := range b.slots {
		switch s.kind {
		case slotLeaf:
			fmt.Fprintf(w, "%s[%d] leaf key=%q value=%q\n", indent, i, s.key, s.value)
		case slotChild:
			fmt.Fprintf(w, "%s[%d] child:\n", indent, i)
			s.child.dump(w, depth+1)
		}
	}
}
