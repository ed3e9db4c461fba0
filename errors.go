// SPDX-License-Identifier: MIT

package datrie

import (
	"github.com/doublearray/datrie/internal/builder"
	"github.com/doublearray/datrie/internal/image"
)

// Build error sentinels. Build always also returns a nil image on
// failure, so a caller who only wants the spec's coarse "no image
// produced" outcome can ignore these and just check err != nil; a caller
// who wants to distinguish the cause uses errors.Is against one of these.
var (
	ErrInputNotSorted  = builder.ErrInputNotSorted
	ErrDuplicateKey    = builder.ErrDuplicateKey
	ErrValueOutOfRange = builder.ErrValueOutOfRange
	ErrOffsetOverflow  = builder.ErrOffsetOverflow
)

// ErrImageMalformed is returned by NewReader when the buffer length is
// not a multiple of 4.
var ErrImageMalformed = image.ErrMalformed
