// SPDX-License-Identifier: MIT

package builder

import (
	"errors"
	"testing"

	"github.com/bits-and-blooms/bitset"

	"github.com/doublearray/datrie/internal/image"
	"github.com/doublearray/datrie/internal/unit"
)

func mustImage(t *testing.T, buf []byte) image.Image {
	t.Helper()
	im, err := image.New(buf)
	if err != nil {
		t.Fatalf("image.New: %v", err)
	}
	return im
}

func exactMatch(t *testing.T, im image.Image, key []byte) (uint32, bool) {
	t.Helper()
	node := 0
	w, ok := im.Unit(node)
	if !ok {
		return 0, false
	}
	for _, b := range key {
		_, base, leafFlag, _ := unit.Decode(w)
		if leafFlag {
			return 0, false
		}
		tw, ok := im.Unit(int(base) ^ int(b))
		if !ok || tw.Check() != b || tw.IsLeaf() {
			return 0, false
		}
		w = tw
	}
	hasLeaf, base, _, _ := unit.Decode(w)
	if !hasLeaf {
		return 0, false
	}
	lw, ok := im.Unit(int(base) ^ int(terminator))
	if !ok || !lw.IsLeaf() {
		return 0, false
	}
	return unit.DecodeValue(lw), true
}

func TestBuildEmpty(t *testing.T) {
	buf, err := Build(nil, Config{})
	if err != nil {
		t.Fatalf("Build(nil): %v", err)
	}
	im := mustImage(t, buf)
	if im.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (root only)", im.Len())
	}
	if _, ok := exactMatch(t, im, []byte("anything")); ok {
		t.Fatal("exact match found in an empty trie")
	}
}

func TestBuildSingleKey(t *testing.T) {
	buf, err := Build([]Entry{{Key: []byte("a"), Value: 7}}, Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	im := mustImage(t, buf)

	if v, ok := exactMatch(t, im, []byte("a")); !ok || v != 7 {
		t.Fatalf("exactMatch(a) = (%d, %v), want (7, true)", v, ok)
	}
	if _, ok := exactMatch(t, im, []byte("ab")); ok {
		t.Fatal("exactMatch(ab) found, want no match")
	}
	if _, ok := exactMatch(t, im, []byte{}); ok {
		t.Fatal("exactMatch('') found, want no match")
	}
}

func TestBuildMultipleKeysWithSharedPrefixes(t *testing.T) {
	entries := []Entry{
		{Key: []byte("a"), Value: 0},
		{Key: []byte("ab"), Value: 1},
		{Key: []byte("abc"), Value: 2},
		{Key: []byte("abd"), Value: 3},
		{Key: []byte("b"), Value: 4},
	}
	buf, err := Build(entries, Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	im := mustImage(t, buf)

	for _, e := range entries {
		v, ok := exactMatch(t, im, e.Key)
		if !ok || v != e.Value {
			t.Fatalf("exactMatch(%q) = (%d, %v), want (%d, true)", e.Key, v, ok, e.Value)
		}
	}
	for _, miss := range []string{"", "ac", "abcd", "c"} {
		if _, ok := exactMatch(t, im, []byte(miss)); ok {
			t.Fatalf("exactMatch(%q) found, want no match", miss)
		}
	}
}

func TestNormalizeStripsTrailingTerminator(t *testing.T) {
	entries := []Entry{
		{Key: []byte("ab\x00"), Value: 9},
	}
	buf, err := Build(entries, Config{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	im := mustImage(t, buf)
	if v, ok := exactMatch(t, im, []byte("ab")); !ok || v != 9 {
		t.Fatalf("exactMatch(ab) = (%d, %v), want (9, true)", v, ok)
	}
}

func TestNormalizeDuplicateAfterStrip(t *testing.T) {
	entries := []Entry{
		{Key: []byte("ab"), Value: 1},
		{Key: []byte("ab\x00"), Value: 2},
	}
	if _, err := Build(entries, Config{}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("Build: err = %v, want ErrDuplicateKey", err)
	}
}

func TestBuildRejectsUnsortedInput(t *testing.T) {
	entries := []Entry{
		{Key: []byte("b"), Value: 0},
		{Key: []byte("a"), Value: 1},
	}
	if _, err := Build(entries, Config{}); !errors.Is(err, ErrInputNotSorted) {
		t.Fatalf("Build: err = %v, want ErrInputNotSorted", err)
	}
}

func TestBuildRejectsDuplicateKey(t *testing.T) {
	entries := []Entry{
		{Key: []byte("a"), Value: 0},
		{Key: []byte("a"), Value: 1},
	}
	if _, err := Build(entries, Config{}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("Build: err = %v, want ErrDuplicateKey", err)
	}
}

func TestBuildRejectsValueOutOfRange(t *testing.T) {
	entries := []Entry{
		{Key: []byte("a"), Value: unit.MaxValue + 1},
	}
	if _, err := Build(entries, Config{}); !errors.Is(err, ErrValueOutOfRange) {
		t.Fatalf("Build: err = %v, want ErrValueOutOfRange", err)
	}
}

func TestChooseBaseReportsOffsetOverflow(t *testing.T) {
	origSpan := maxScanSpan
	maxScanSpan = 16
	defer func() { maxScanSpan = origSpan }()

	b := &builder{
		occupied: bitset.New(uint(maxScanSpan) + 1),
		usedBase: bitset.New(uint(maxScanSpan) + 1),
	}
	b.ensureLen(maxScanSpan + 1)
	for i := 0; i <= maxScanSpan; i++ {
		b.occupied.Set(uint(i))
	}

	if _, err := b.chooseBase([]byte{0}); !errors.Is(err, ErrOffsetOverflow) {
		t.Fatalf("chooseBase: err = %v, want ErrOffsetOverflow", err)
	}
}

func TestPartitionGroupsByNextByte(t *testing.T) {
	entries := []Entry{
		{Key: []byte(""), Value: 100},
		{Key: []byte("a"), Value: 0},
		{Key: []byte("ax"), Value: 1},
		{Key: []byte("b"), Value: 2},
	}
	groups, hasTerminal, terminalValue := partition(entries, 0, len(entries), 0)

	if !hasTerminal || terminalValue != 100 {
		t.Fatalf("partition: hasTerminal=%v terminalValue=%d, want true/100", hasTerminal, terminalValue)
	}
	if len(groups) != 2 {
		t.Fatalf("partition: %d groups, want 2", len(groups))
	}
	if groups[0].label != 'a' || groups[1].label != 'b' {
		t.Fatalf("partition: labels = %q, %q, want a, b", groups[0].label, groups[1].label)
	}
}
