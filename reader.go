// SPDX-License-Identifier: MIT

package datrie

import (
	"iter"

	"github.com/doublearray/datrie/internal/image"
	"github.com/doublearray/datrie/internal/unit"
)

const terminator = 0

// Reader queries a double-array image built by Build. The zero value is
// not usable; construct with NewReader.
//
// Reader is safe for concurrent use by multiple goroutines: a query never
// mutates the image, and there is no writer once Build has returned.
type Reader struct {
	img image.Image
}

// NewReader wraps buf, a double-array image, for querying. buf is
// borrowed, not copied: the caller must not mutate it while the Reader is
// in use. NewReader fails with ErrImageMalformed if len(buf) is not a
// multiple of 4.
func NewReader(buf []byte) (*Reader, error) {
	im, err := image.New(buf)
	if err != nil {
		return nil, err
	}
	return &Reader{img: im}, nil
}

// ExactMatch looks up key and reports its value, or ok == false if key
// was not stored. It never fails for any other reason: any image,
// however malformed, is traversal-safe.
func (r *Reader) ExactMatch(key []byte) (value uint32, ok bool) {
	node := 0

	w, present := r.img.Unit(node)
	if !present {
		return 0, false
	}

	for _, b := range key {
		_, base, leafFlag, _ := unit.Decode(w)
		if leafFlag {
			return 0, false
		}

		t := int(base) ^ int(b)
		tw, present := r.img.Unit(t)
		if !present || tw.Check() != b || tw.IsLeaf() {
			return 0, false
		}
		w = tw
	}

	hasLeaf, base, _, _ := unit.Decode(w)
	if !hasLeaf {
		return 0, false
	}

	leafIdx := int(base) ^ terminator
	lw, present := r.img.Unit(leafIdx)
	if !present || !lw.IsLeaf() {
		return 0, false
	}

	return unit.DecodeValue(lw), true
}

// Cursor is the pull-style state for a CommonPrefix search: a POD value
// holding the current node, the number of query bytes consumed so far,
// and the query itself. It performs no heap allocations per Next call and
// is not restartable once exhausted.
type Cursor struct {
	img            image.Image
	key            []byte
	node           int
	pos            int
	checkedCurrent bool
	done           bool
}

// CommonPrefix starts a lazy common-prefix search for key. The returned
// Cursor is pulled with Next; between pulls it does no work and never
// blocks.
func (r *Reader) CommonPrefix(key []byte) *Cursor {
	return &Cursor{img: r.img, key: key}
}

// Next advances the cursor to the next stored key that is a prefix of the
// query, returning its value and the matched prefix length. ok is false
// once every prefix has been considered; the cursor is then exhausted and
// further Next calls keep returning ok == false.
func (c *Cursor) Next() (value uint32, length int, ok bool) {
	if c.done {
		return 0, 0, false
	}

	if !c.checkedCurrent {
		c.checkedCurrent = true
		if v, ok := c.checkLeafAt(c.node); ok {
			return v, c.pos, true
		}
	}

	for c.pos < len(c.key) {
		w, present := c.img.Unit(c.node)
		if !present {
			c.done = true
			return 0, 0, false
		}

		_, base, leafFlag, _ := unit.Decode(w)
		if leafFlag {
			c.done = true
			return 0, 0, false
		}

		b := c.key[c.pos]
		t := int(base) ^ int(b)
		tw, present := c.img.Unit(t)
		if !present || tw.Check() != b || tw.IsLeaf() {
			c.done = true
			return 0, 0, false
		}

		c.node = t
		c.pos++

		if v, ok := c.checkLeafAtWord(tw); ok {
			return v, c.pos, true
		}
	}

	c.done = true
	return 0, 0, false
}

func (c *Cursor) checkLeafAt(node int) (uint32, bool) {
	w, present := c.img.Unit(node)
	if !present {
		return 0, false
	}
	return c.checkLeafAtWord(w)
}

func (c *Cursor) checkLeafAtWord(w unit.Word) (uint32, bool) {
	hasLeaf, base, _, _ := unit.Decode(w)
	if !hasLeaf {
		return 0, false
	}

	leafIdx := int(base) ^ terminator
	lw, present := c.img.Unit(leafIdx)
	if !present || !lw.IsLeaf() {
		return 0, false
	}

	return unit.DecodeValue(lw), true
}

// All is a range-over-func convenience wrapper over CommonPrefix/Next,
// yielding (length, value) pairs in ascending length order. It performs
// one allocation for the Cursor, none per element.
func (r *Reader) All(key []byte) iter.Seq2[int, uint32] {
	return func(yield func(int, uint32) bool) {
		cur := r.CommonPrefix(key)
		for {
			value, length, ok := cur.Next()
			if !ok {
				return
			}
			if !yield(length, value) {
				return
			}
		}
	}
}
