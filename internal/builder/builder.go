// SPDX-License-Identifier: MIT

// Package builder constructs a double-array image from a sorted, distinct
// keyset via recursive partitioning and a free-slot placement strategy.
//
// The overall recursion (partition a keyset slice by the next byte,
// recurse per child, pick a base offset so every child's check slot is
// simultaneously free) is grounded on colin0000007/darts-go's
// fetch/insert pair, the reference pack's other complete double-array
// implementation. Kept idiomatic to the rest of this module: explicit
// error returns instead of log.Fatal, XOR transitions per this module's
// image format instead of darts-go's addition, and the free-slot and
// used-base bookkeeping backed by *bitset.BitSet (see chooseBase) instead
// of darts-go's linear scan of a plain []int.
package builder

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/doublearray/datrie/internal/childset"
	"github.com/doublearray/datrie/internal/unit"
)

// Sentinel errors, collapsed by callers into a single "no image" outcome
// if they don't care to distinguish (see package datrie's Build).
var (
	ErrInputNotSorted  = errors.New("datrie: input keys are not in strictly ascending order")
	ErrDuplicateKey    = errors.New("datrie: duplicate normalized key")
	ErrValueOutOfRange = errors.New("datrie: value has the high bit set")
	ErrOffsetOverflow  = errors.New("datrie: no base offset below the 22-bit node base limit satisfies this node's children")
)

// terminator is the reserved end-of-key transition label.
const terminator = 0

// DefaultInitialCapacity is used when Config.InitialCapacity is <= 0.
const DefaultInitialCapacity = 256

// Entry is one input key/value pair.
type Entry struct {
	Key   []byte
	Value uint32
}

// Config tunes construction. The zero value is valid and picks the same
// defaults as an unconfigured build.
type Config struct {
	// InitialCapacity is the number of units the slot-occupancy and
	// used-base bit sets are presized to, amortizing their early growth
	// for a caller who knows roughly how large the keyset is. The image
	// array itself is not preallocated; it grows as units are placed.
	InitialCapacity int
}

// Build constructs a double-array image from sorted, distinct entries.
// An empty entries slice produces an image containing only the root unit.
func Build(entries []Entry, cfg Config) ([]byte, error) {
	norm, err := normalize(entries)
	if err != nil {
		return nil, err
	}

	initCap := cfg.InitialCapacity
	if initCap <= 0 {
		initCap = DefaultInitialCapacity
	}

	b := &builder{
		entries:  norm,
		occupied: bitset.New(uint(initCap)),
		usedBase: bitset.New(uint(initCap)),
	}
	b.ensureLen(1)
	b.occupy(0) // root

	if len(norm) > 0 {
		if err := b.expand(0, 0, len(norm), 0); err != nil {
			return nil, err
		}
	}

	return b.bytes(), nil
}

// normalize strips a single trailing terminator byte (treating a key with
// or without it as equal) and validates strict ascending order with no
// duplicates.
func normalize(entries []Entry) ([]Entry, error) {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if e.Value > unit.MaxValue {
			return nil, fmt.Errorf("%w: %d", ErrValueOutOfRange, e.Value)
		}

		key := e.Key
		if len(key) > 0 && key[len(key)-1] == terminator {
			key = key[:len(key)-1]
		}
		out[i] = Entry{Key: key, Value: e.Value}
	}

	for i := 1; i < len(out); i++ {
		switch bytes.Compare(out[i-1].Key, out[i].Key) {
		case 0:
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, out[i].Key)
		case 1:
			return nil, fmt.Errorf("%w: %q before %q", ErrInputNotSorted, out[i].Key, out[i-1].Key)
		}
	}

	return out, nil
}

type builder struct {
	words    []unit.Word
	occupied *bitset.BitSet // image indices currently holding a unit
	usedBase *bitset.BitSet // base offsets already claimed by some node
	entries  []Entry

	// nextFree is the free-slot scan's amortized high-water mark: the first
	// unoccupied index the previous chooseBase scan reached. A scan starts
	// at nextFree or just past its smallest label, whichever is higher, so
	// free indices below nextFree are not revisited.
	nextFree int
}

func (b *builder) bytes() []byte {
	buf := make([]byte, len(b.words)*4)
	for i, w := range b.words {
		off := i * 4
		buf[off] = byte(w)
		buf[off+1] = byte(w >> 8)
		buf[off+2] = byte(w >> 16)
		buf[off+3] = byte(w >> 24)
	}
	return buf
}

func (b *builder) ensureLen(n int) {
	if n <= len(b.words) {
		return
	}
	grown := make([]unit.Word, n)
	copy(grown, b.words)
	b.words = grown
}

func (b *builder) isOccupied(i int) bool {
	if i < 0 {
		return true // never a usable slot
	}
	if i >= len(b.words) {
		return false // not yet allocated, therefore free
	}
	return b.occupied.Test(uint(i))
}

func (b *builder) occupy(i int) {
	b.ensureLen(i + 1)
	b.occupied.Set(uint(i))
}

// group is a run of entries[lo:hi] sharing the same byte at depth.
type group struct {
	label  byte
	lo, hi int
}

// partition splits entries[lo:hi], which all share a prefix of length
// depth, into the terminal bucket (a key ending exactly at depth, if any)
// and the child groups keyed by entries[i][depth].
func partition(entries []Entry, lo, hi, depth int) (groups []group, hasTerminal bool, terminalValue uint32) {
	i := lo
	if i < hi && len(entries[i].Key) == depth {
		hasTerminal = true
		terminalValue = entries[i].Value
		i++
	}

	for i < hi {
		label := entries[i].Key[depth]
		j := i + 1
		for j < hi && entries[j].Key[depth] == label {
			j++
		}
		groups = append(groups, group{label: label, lo: i, hi: j})
		i = j
	}

	return groups, hasTerminal, terminalValue
}

// expand places parentIdx's children (and, if present, its value leaf),
// recursing depth-first, then finalizes parentIdx's own word once its
// base and has-leaf bit are known.
func (b *builder) expand(parentIdx, lo, hi, depth int) error {
	groups, hasTerminal, terminalValue := partition(b.entries, lo, hi, depth)

	var cs childset.Set
	if hasTerminal {
		cs.Add(terminator)
	}
	for _, g := range groups {
		cs.Add(g.label)
	}
	labels := cs.Labels(make([]byte, 0, cs.Len()))

	base, err := b.chooseBase(labels)
	if err != nil {
		return err
	}
	b.usedBase.Set(uint(base))

	if hasTerminal {
		leafIdx := int(base) ^ terminator
		b.occupy(leafIdx)
		b.words[leafIdx] = unit.EncodeValue(terminalValue)
	}

	for _, g := range groups {
		childIdx := int(base) ^ int(g.label)
		b.occupy(childIdx)
		b.words[childIdx] = unit.Encode(false, 0, g.label)
	}

	for _, g := range groups {
		if err := b.expand(int(base)^int(g.label), g.lo, g.hi, depth+1); err != nil {
			return err
		}
	}

	check := byte(0)
	if parentIdx != 0 {
		check = b.words[parentIdx].Check()
	}
	b.words[parentIdx] = unit.Encode(hasTerminal, base, check)

	return nil
}

// maxScanSpan bounds how far past MaxNodeBase the free-slot scan is
// allowed to drift before giving up: a single failed candidate whose
// XOR-derived base exceeds the limit doesn't itself prove no smaller
// base exists further along the free list.
//
// A var, not a const: tests shrink it to force ErrOffsetOverflow without
// constructing a multi-million-slot image.
var maxScanSpan = unit.MaxNodeBase + 1<<16

// chooseBase scans the free list (the set of currently unoccupied image
// indices) starting at the amortized high-water mark, looking for a slot
// t such that base = t XOR labels[0] leaves every base XOR labels[k] free
// and base itself unclaimed by another node. labels is sorted ascending.
func (b *builder) chooseBase(labels []byte) (uint32, error) {
	first := labels[0]

	pos := int(first)
	if b.nextFree > pos {
		pos = b.nextFree - 1
	}

	sawFirstFree := false

outer:
	for {
		pos++
		if pos > maxScanSpan {
			return 0, ErrOffsetOverflow
		}

		if b.isOccupied(pos) {
			continue
		}
		if !sawFirstFree {
			b.nextFree = pos
			sawFirstFree = true
		}

		begin := pos ^ int(first)
		if begin < 0 || begin > unit.MaxNodeBase {
			continue
		}
		if b.usedBase.Test(uint(begin)) {
			continue
		}

		for _, l := range labels[1:] {
			if b.isOccupied(begin ^ int(l)) {
				continue outer
			}
		}

		return uint32(begin), nil
	}
}
