// SPDX-License-Identifier: MIT

// Package datrie implements a static double-array trie: a compact,
// immutable associative structure mapping byte-string keys to 31-bit
// unsigned values, queried by exact match or common-prefix enumeration
// over a single contiguous binary image.
//
// Construction ([Build]) and querying ([NewReader]) are two cleanly
// separated phases sharing only the image's byte layout: a flat sequence
// of bit-packed 32-bit little-endian words, no header, no magic, no
// trailer. A [Reader] is safe for concurrent use by multiple goroutines —
// there is no writer once Build has returned, and a Reader holds only a
// read view into the image.
//
// Values are limited to 31 bits (0 <= v < 2^31); keys are treated as
// opaque byte sequences plus an implicit terminating transition, so a key
// with or without a trailing NUL byte is the same key, and the engine
// never reproduces key bytes on lookup — it maps keys to values, nothing
// more.
package datrie
