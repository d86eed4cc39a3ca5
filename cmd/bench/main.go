// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Command bench times a batch of inserts into a MERT, optionally fanning
// them out across goroutines against a Mode P tree.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"mert"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		count     = flag.Int("count", 100_000, "number of keys to insert")
		keyLen    = flag.Int("keylen", 12, "key length in bytes")
		valLen    = flag.Int("vallen", 8, "value length in bytes")
		workers   = flag.Int("workers", 1, "number of concurrent inserters (requires -mode=parallel for >1)")
		modeFlag  = flag.String("mode", "single", "concurrency mode: single or parallel")
		seedFlag  = flag.Int64("seed", 1, "ignored; keys and values are drawn from crypto/rand")
	)
	flag.Parse()

	mode := mert.ModeSingleWriter
	switch *modeFlag {
	case "single":
		mode = mert.ModeSingleWriter
	case "parallel":
		mode = mert.ModeParallel
	default:
		return fmt.Errorf("unknown -mode %q, want single or parallel", *modeFlag)
	}
	if *workers > 1 && mode != mert.ModeParallel {
		return fmt.Errorf("-workers > 1 requires -mode=parallel")
	}

	keys := generateKeys(*count, *keyLen, *seedFlag)
	values := generateKeys(*count, *valLen, *seedFlag+1)

	m := mert.New(mert.WithConcurrencyMode(mode))

	start := time.Now()

	if mode == mert.ModeSingleWriter {
		for i := range keys {
			if err := m.Insert(keys[i], values[i]); err != nil {
				return err
			}
		}
	} else {
		var g errgroup.Group
		chunk := (*count + *workers - 1) / *workers
		for w := 0; w < *workers; w++ {
			lo := w * chunk
			hi := lo + chunk
			if hi > *count {
				hi = *count
			}
			if lo >= hi {
				continue
			}
			g.Go(func() error {
				for i := lo; i < hi; i++ {
					if err := m.Insert(keys[i], values[i]); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	elapsed := time.Since(start)
	fmt.Fprintf(os.Stdout, "inserted %d keys (keylen=%d, vallen=%d, mode=%s, workers=%d) in %s (%.0f ops/s)\n",
		*count, *keyLen, *valLen, *modeFlag, *workers, elapsed, float64(*count)/elapsed.Seconds())

	return nil
}

// generateKeys produces n cryptographically random byte strings of
// length l; using crypto/rand rather than a non-cryptographic generator
// keeps the benchmark driver free of a second PRNG dependency choice and
// is fast enough at benchmark scale.
func generateKeys(n, l int, seed int64) [][]byte {
	_ = seed // kept for CLI stability; randomness itself is crypto/rand-backed
	out := make([][]byte, n)
	maxByte := big.NewInt(256)
	for i := range out {
		b := make([]byte, l)
		for j := range b {
			v, err := rand.Int(rand.Reader, maxByte)
			if err != nil {
				panic(err)
			}
			b[j] = byte(v.Int64())
		}
		out[i] = b
	}
	return out
}
