// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mert

import "errors"

// ErrEmptyKey is returned by Insert and Search when the supplied key is
// the empty byte string. The reference C++ source silently routed empty
// keys to bucket/segment index 0; this is a precondition failure instead.
var ErrEmptyKey = errors.New("mert: key must not be empty")
