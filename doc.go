// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package mert implements a Multi-level Extendible Radix Tree (MERT), an
// in-memory ordered/associative index mapping variable-length byte-string
// keys to variable-length byte-string values.
//
// MERT combines radix path compression (each internal node carries a
// shared key prefix of up to PrefixBytes bytes) with extendible hashing
// (per-prefix-position directories that route the remaining key bytes into
// segments and buckets). This is well suited to workloads where many keys
// share long common prefixes and where per-segment elasticity avoids the
// rigid fan-out of a plain radix tree, such as digit-only identifiers.
//
// The design is popcount-compressed in the same spirit as a routing-table
// multibit trie: segments only materialize the bucket slots that are
// actually populated, instead of preallocating the full 256-wide bucket
// array described by the reference model.
package mert
