// Package huffman builds canonical prefix codes for the DEFLATE and VP8L
// codecs: length-limited code lengths from symbol histograms, canonical
// codeword assignment, code-length run-length tokens, and two-level lookup
// tables for decoding.
//
// Both bitstreams are LSB-first, so codewords are stored bit-reversed and
// lookup tables are indexed by the next bits of the stream as read.
package huffman

import (
	"errors"

	"github.com/deepteams/snapshot/internal/bitio"
)

// MaxCodeLength is the longest codeword either format allows.
const MaxCodeLength = 15

// invalidSymbol marks table slots no codeword maps to.
const invalidSymbol = 0xffff

// Errors returned by BuildTable.
var (
	ErrInvalidTree = errors.New("huffman: invalid code lengths")
	ErrEmptyCode   = errors.New("huffman: all code lengths are zero")
)

// Entry is a single slot of a lookup table. Bits is the number of bits
// consumed; Value is the decoded symbol, or a sub-table offset when Bits
// exceeds the root width.
type Entry struct {
	Bits  uint8
	Value uint16
}

// Table is a two-level lookup table built from canonical code lengths.
type Table struct {
	rootBits int
	entries  []Entry
}

// BuildTable constructs a lookup table from code lengths indexed by symbol.
// The lengths must describe a complete prefix code, except that a single
// used symbol is accepted and decodes without consuming any bits (VP8L's
// convention for trivial codes).
func BuildTable(lengths []uint8, rootBits int) (*Table, error) {
	var count [MaxCodeLength + 1]int
	for _, l := range lengths {
		if l > MaxCodeLength {
			return nil, ErrInvalidTree
		}
		count[l]++
	}
	numSymbols := len(lengths) - count[0]
	if numSymbols == 0 {
		return nil, ErrEmptyCode
	}

	// Sort symbols by (length, symbol).
	var offset [MaxCodeLength + 2]int
	for l := 1; l <= MaxCodeLength; l++ {
		offset[l+1] = offset[l] + count[l]
	}
	sorted := make([]uint16, numSymbols)
	for sym, l := range lengths {
		if l > 0 {
			sorted[offset[l]] = uint16(sym)
			offset[l]++
		}
	}

	t := &Table{rootBits: rootBits, entries: make([]Entry, 1<<rootBits)}
	tableSize := 1 << rootBits

	if numSymbols == 1 {
		replicate(t.entries, 1, tableSize, Entry{Bits: 0, Value: sorted[0]})
		return t, nil
	}

	mask := uint32(tableSize - 1)
	low := ^uint32(0)
	var key uint32
	numNodes, numOpen := 1, 1
	symbol := 0
	tableOff := 0

	// Root table entries for codes no longer than rootBits.
	for l, step := 1, 2; l <= rootBits; l, step = l+1, step<<1 {
		numOpen <<= 1
		numNodes += numOpen
		numOpen -= count[l]
		if numOpen < 0 {
			return nil, ErrInvalidTree
		}
		for ; count[l] > 0; count[l]-- {
			replicate(t.entries[key:], step, tableSize, Entry{Bits: uint8(l), Value: sorted[symbol]})
			symbol++
			key = nextKey(key, l)
		}
	}

	// Second-level tables for longer codes.
	for l, step := rootBits+1, 2; l <= MaxCodeLength; l, step = l+1, step<<1 {
		numOpen <<= 1
		numNodes += numOpen
		numOpen -= count[l]
		if numOpen < 0 {
			return nil, ErrInvalidTree
		}
		for ; count[l] > 0; count[l]-- {
			if key&mask != low {
				tableOff += tableSize
				tableBits := nextTableBits(count[:], l, rootBits)
				tableSize = 1 << tableBits
				t.entries = append(t.entries, make([]Entry, tableSize)...)
				low = key & mask
				t.entries[low] = Entry{Bits: uint8(tableBits + rootBits), Value: uint16(tableOff)}
			}
			sub := t.entries[tableOff+int(key>>uint(rootBits)):]
			replicate(sub, step, tableSize, Entry{Bits: uint8(l - rootBits), Value: sorted[symbol]})
			symbol++
			key = nextKey(key, l)
		}
	}

	if numNodes != 2*numSymbols-1 {
		return nil, ErrInvalidTree
	}
	return t, nil
}

// BuildSingleCodeTable returns a table for a one-symbol code whose only
// codeword is the single bit 0. DEFLATE permits this for distance codes;
// reading the bit pattern 1 yields an invalid symbol.
func BuildSingleCodeTable(symbol int, rootBits int) *Table {
	t := &Table{rootBits: rootBits, entries: make([]Entry, 1<<rootBits)}
	for i := range t.entries {
		if i&1 == 0 {
			t.entries[i] = Entry{Bits: 1, Value: uint16(symbol)}
		} else {
			t.entries[i] = Entry{Bits: 1, Value: invalidSymbol}
		}
	}
	return t
}

// ReadSymbol decodes the next symbol from br. It returns -1 if the bits
// do not form a codeword of the table.
func (t *Table) ReadSymbol(br *bitio.Reader) int {
	bits := br.Peek(MaxCodeLength)
	e := t.entries[bits&(1<<uint(t.rootBits)-1)]
	if int(e.Bits) > t.rootBits {
		br.Skip(t.rootBits)
		sub := int(e.Bits) - t.rootBits
		idx := int(e.Value) + int((bits>>uint(t.rootBits))&(1<<uint(sub)-1))
		if idx >= len(t.entries) {
			return -1
		}
		e = t.entries[idx]
	}
	br.Skip(int(e.Bits))
	if e.Value == invalidSymbol {
		return -1
	}
	return int(e.Value)
}

// nextKey returns reverse(reverse(key, length) + 1, length).
func nextKey(key uint32, length int) uint32 {
	step := uint32(1) << uint(length-1)
	for key&step != 0 {
		step >>= 1
	}
	if step != 0 {
		return (key & (step - 1)) + step
	}
	return key
}

// replicate fills table[0], table[step], ..., table[end-step] with e.
func replicate(table []Entry, step, end int, e Entry) {
	for i := end - step; i >= 0; i -= step {
		table[i] = e
	}
}

// nextTableBits returns the width of the next second-level table, large
// enough to cover all remaining codes sharing its root prefix.
func nextTableBits(count []int, length, rootBits int) int {
	left := 1 << uint(length-rootBits)
	for length < MaxCodeLength {
		left -= count[length]
		if left <= 0 {
			break
		}
		length++
		left <<= 1
	}
	return length - rootBits
}
