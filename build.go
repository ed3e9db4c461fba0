// SPDX-License-Identifier: MIT

package datrie

import "github.com/doublearray/datrie/internal/builder"

// Entry is one key/value pair fed to Build. Keys must be supplied sorted
// ascending by byte value and distinct once normalized (a trailing NUL
// byte is stripped before comparison, so "ab" and "ab\x00" are the same
// key and a duplicate).
type Entry struct {
	Key   []byte
	Value uint32
}

// BuildConfig tunes construction. The zero value is ready to use and
// picks the same defaults as an unconfigured Build.
type BuildConfig struct {
	// InitialCapacity presizes the builder's per-unit bookkeeping (slot
	// occupancy and claimed bases) to this many units, amortizing its
	// early growth for a caller who knows roughly how large the resulting
	// image will be. The image array itself is not preallocated; it grows
	// as units are placed. Ignored if <= 0.
	InitialCapacity int
}

// Build constructs a double-array image from a sorted, distinct keyset.
// An empty entries slice is not an error: it produces an image containing
// only the root unit, against which every lookup reports no match.
//
// On failure Build returns a nil image and one of ErrInputNotSorted,
// ErrDuplicateKey, ErrValueOutOfRange or ErrOffsetOverflow (the first three
// wrapped with the offending key or value; ErrOffsetOverflow unwrapped),
// never a partial image.
func Build(entries []Entry, cfg BuildConfig) ([]byte, error) {
	bentries := make([]builder.Entry, len(entries))
	for i, e := range entries {
		bentries[i] = builder.Entry{Key: e.Key, Value: e.Value}
	}

	return builder.Build(bentries, builder.Config{InitialCapacity: cfg.InitialCapacity})
}
