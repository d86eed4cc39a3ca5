// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mert_test

import (
	"fmt"
	"os"

	"mert"
)

func ExampleMERT_Insert() {
	m := mert.New()

	_ = m.Insert([]byte("apple"), []byte("fruit"))
	_ = m.Insert([]byte("apricot"), []byte("fruit"))
	_ = m.Insert([]byte("application"), []byte("software"))

	for _, key := range []string{"apple", "apricot", "application", "ape"} {
		val, ok, _ := m.Search([]byte(key))
		fmt.Printf("%s: %q %v\n", key, val, ok)
	}

	// Output:
	// apple: "fruit" true
	// apricot: "fruit" true
	// application: "software" true
	// ape: "" false
}

func ExampleMERT_Search_empty() {
	m := mert.New()

	_, ok, err := m.Search([]byte(""))
	fmt.Println(ok, err)

	// Output:
	// false mert: key must not be empty
}

func ExampleMERT_Fprint() {
	m := mert.New()
	_ = m.Insert([]byte("go"), []byte("1"))
	_ = m.Insert([]byte("gopher"), []byte("2"))
	_ = m.Insert([]byte("gopherx"), []byte("3"))

	_ = m.Fprint(os.Stdout)

	// Output:
	// root[0x67]:
	//   prefix: "gopher"
	//   value@1: "1"
	//   value@5: "2"
	//   directory[5] segment (localDepth=1, first slot=8):
	//     bucket[0x78]:
	//       [0] leaf key="gopherx" value="3"
}
