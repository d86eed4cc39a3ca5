// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mert_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mert"
	"mert/internal/golden"
)

func TestEmptyKeyRejected(t *testing.T) {
	m := mert.New()

	require.ErrorIs(t, m.Insert(nil, []byte("v")), mert.ErrEmptyKey)

	_, _, err := m.Search(nil)
	require.ErrorIs(t, err, mert.ErrEmptyKey)
}

func TestBasicInsertSearch(t *testing.T) {
	m := mert.New()

	cases := map[string]string{
		"a":      "1",
		"ab":     "2",
		"abc":    "3",
		"abd":    "4",
		"b":      "5",
		"banana": "6",
		"band":   "7",
	}

	for k, v := range cases {
		require.NoError(t, m.Insert([]byte(k), []byte(v)))
	}

	for k, v := range cases {
		got, ok, err := m.Search([]byte(k))
		require.NoError(t, err)
		require.True(t, ok, "key %q should be found", k)
		assert.Equal(t, v, string(got))
	}

	_, ok, err := m.Search([]byte("nope"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOverwriteExistingKey(t *testing.T) {
	m := mert.New()

	require.NoError(t, m.Insert([]byte("key"), []byte("first")))
	require.NoError(t, m.Insert([]byte("key"), []byte("second")))

	got, ok, err := m.Search([]byte("key"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", string(got))
}

func TestSharedPrefixDisambiguation(t *testing.T) {
	m := mert.New()

	keys := []string{"1234", "1235", "1236", "1200", "12345678"}
	for i, k := range keys {
		require.NoError(t, m.Insert([]byte(k), []byte{byte(i)}))
	}
	for i, k := range keys {
		got, ok, err := m.Search([]byte(k))
		require.NoError(t, err)
		require.True(t, ok, "key %q", k)
		assert.Equal(t, byte(i), got[0])
	}
}

// TestBulkRandomGolden inserts universe/4 random 12-byte keys into both a
// MERT and a golden.Table, recording in a bitset the index drawn from the
// universe to name each value, then verifies that every inserted key
// resolves identically in both and that a sample of never-inserted keys
// is absent from the tree.
func TestBulkRandomGolden(t *testing.T) {
	const universe = 400_000
	const keyLen = 12

	rng := rand.New(rand.NewSource(42))
	chosen := bitset.New(universe)

	var gold golden.Table
	m := mert.New()

	for i := 0; i < universe/4; i++ {
		n := uint(rng.Intn(universe))
		chosen.Set(n)

		key := make([]byte, keyLen)
		rng.Read(key)
		value := []byte(fmt.Sprintf("v-%d", n))

		gold.Insert(key, value)
		require.NoError(t, m.Insert(key, value))
	}

	gold.Each(func(key, value []byte) {
		got, ok, err := m.Search(key)
		require.NoError(t, err)
		require.True(t, ok, "key %x missing from tree", key)
		assert.Equal(t, value, got)
	})

	for i := 0; i < universe/100; i++ {
		key := make([]byte, keyLen)
		rng.Read(key)
		if _, inserted := gold.Get(key); inserted {
			continue
		}
		_, ok, err := m.Search(key)
		require.NoError(t, err)
		assert.False(t, ok, "never-inserted key %x found in tree", key)
	}
}

func TestConcurrentModeParallel(t *testing.T) {
	m := mert.New(mert.WithConcurrencyMode(mert.ModeParallel))

	const n = 2000
	done := make(chan struct{})
	for w := 0; w < 8; w++ {
		w := w
		go func() {
			for i := 0; i < n; i++ {
				key := []byte(fmt.Sprintf("w%d-k%d", w, i))
				_ = m.Insert(key, key)
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < 8; w++ {
		<-done
	}

	for w := 0; w < 8; w++ {
		for i := 0; i < n; i++ {
			key := []byte(fmt.Sprintf("w%d-k%d", w, i))
			got, ok, err := m.Search(key)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, key, got)
		}
	}
}
