// SPDX-License-Identifier: MIT

// Package image provides a bounds-guarded, typed view over a byte buffer
// as a sequence of 32-bit double-array units.
package image

import (
	"encoding/binary"
	"fmt"

	"github.com/doublearray/datrie/internal/unit"
)

// ErrMalformed is returned by New when the buffer length is not a
// multiple of 4.
var ErrMalformed = fmt.Errorf("datrie: image length is not a multiple of 4")

// Image is a read view over a byte buffer, native little-endian 32-bit
// words. The zero value is not usable; construct with New.
type Image struct {
	buf []byte
}

// New wraps buf as an Image. buf is borrowed, not copied: the caller must
// not mutate it while the Image is in use.
func New(buf []byte) (Image, error) {
	if len(buf)%4 != 0 {
		return Image{}, ErrMalformed
	}
	return Image{buf: buf}, nil
}

// Len returns the number of units in the image.
func (im Image) Len() int {
	return len(im.buf) / 4
}

// Unit returns the unit at index i. ok is false iff i is out of range —
// the search engine treats that exactly like a failed check-byte test,
// never as a panic.
func (im Image) Unit(i int) (w unit.Word, ok bool) {
	if i < 0 || i >= im.Len() {
		return 0, false
	}
	off := i * 4
	return unit.Word(binary.LittleEndian.Uint32(im.buf[off : off+4])), true
}

// Bytes returns the underlying buffer.
func (im Image) Bytes() []byte {
	return im.buf
}
