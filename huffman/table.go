/*
DESCRIPTION
  table.go implements a single Huffman table as described in section 4.3:
  canonical code assignment over a sorted symbol list, a 2^10-entry small
  LUT for codes of 10 bits or fewer, and a sorted overflow list (with a
  per-length index) for everything longer, binary-searched bit-size by
  bit-size. Construction mirrors generateCodesAndIndices /
  generateCodesAndLut in the reference Huffman implementation; the
  sentinel encodings for empty and single-symbol tables are handled by
  ParseTable in parse.go, and BuildTable also returns an empty or
  single-symbol table itself when given zero or one symbols.

AUTHORS
  LCEVC enhancement core contributors.
*/

// Package huffman implements the enhancement bitstream's Huffman table
// serialization, canonical-code construction, small-LUT/overflow-list
// decoding, and the fused triple-stream coefficient decoder described in
// section 4.3 of the enhancement core specification.
package huffman

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/v-nova-go/lcevc-enhancement/bitstream"
)

// MaxSymbols is the largest number of distinct symbols a table may carry.
const MaxSymbols = 256

// MaxCodeLength is the longest permitted canonical Huffman code.
const MaxCodeLength = 31

// smallLUTBits is the width of the accelerated lookup table; codes this
// length or shorter decode in one table probe.
const smallLUTBits = 10
const smallLUTSize = 1 << smallLUTBits

// ErrInvalid is returned, wrapped with context, for any malformed table
// or undecodable bit sequence.
var ErrInvalid = errors.New("huffman: invalid table or code")

type entry struct {
	symbol uint8
	length uint8
	code   uint32
}

type lutEntry struct {
	symbol uint8
	bits   uint8 // 0 means "no entry here", since a valid code is always >=1 bit once a table has more than one symbol.
}

// Table is one parsed/constructed Huffman table.
type Table struct {
	empty        bool
	singleSymbol bool
	singleValue  uint8

	minLength uint8
	maxLength uint8

	lut [smallLUTSize]lutEntry

	// overflow holds every entry whose code is longer than smallLUTBits,
	// sorted ascending by length and, within a length, ascending by code
	// (canonical assignment naturally produces both orderings at once).
	overflow []entry
	// idxOfLength[l] is the first index in overflow whose length is l;
	// ranges for absent lengths point at the start of the next present
	// length, identical in spirit to idx_of_each_bit_size in the
	// reference, used to bound the binary search to one length at a time.
	idxOfLength [MaxCodeLength + 2]int
}

// IsEmpty reports whether the table carries no symbols at all (the
// (31,31) sentinel).
func (t *Table) IsEmpty() bool { return t.empty }

// BuildTable assigns canonical Huffman codes to symbols (sorted ascending
// by length, then descending by symbol, per section 4.3) and constructs
// the small-LUT/overflow acceleration structures. lengths[i] is the code
// length, in bits, of symbols[i]; both slices must have the same length
// and every length must be in [1, MaxCodeLength].
func BuildTable(symbols []uint8, lengths []uint8) (*Table, error) {
	if len(symbols) != len(lengths) {
		return nil, errors.New("huffman: symbols/lengths length mismatch")
	}
	if len(symbols) == 0 {
		return &Table{empty: true}, nil
	}
	if len(symbols) == 1 {
		return &Table{singleSymbol: true, singleValue: symbols[0]}, nil
	}

	entries := make([]entry, len(symbols))
	for i := range symbols {
		if lengths[i] == 0 || lengths[i] > MaxCodeLength {
			return nil, errors.Wrapf(ErrInvalid, "symbol %d has invalid length %d", symbols[i], lengths[i])
		}
		entries[i] = entry{symbol: symbols[i], length: lengths[i]}
	}

	// Ascending by length, then descending by symbol — this ordering
	// (not ascending symbol) is the one the reference canonical
	// assignment actually sorts by, confirmed from its list comparator.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].length != entries[j].length {
			return entries[i].length < entries[j].length
		}
		return entries[i].symbol > entries[j].symbol
	})

	var code uint32
	var prevLen uint8
	for i := range entries {
		if entries[i].length != prevLen {
			code <<= uint(entries[i].length - prevLen)
			prevLen = entries[i].length
		}
		entries[i].code = code
		code++
	}

	t := &Table{
		minLength: entries[0].length,
		maxLength: entries[len(entries)-1].length,
	}

	for i := range t.idxOfLength {
		t.idxOfLength[i] = -1
	}

	for _, e := range entries {
		if e.length <= smallLUTBits {
			shift := uint(smallLUTBits - e.length)
			start := e.code << shift
			end := (e.code + 1) << shift
			for idx := start; idx < end; idx++ {
				t.lut[idx] = lutEntry{symbol: e.symbol, bits: e.length}
			}
			continue
		}
		if t.idxOfLength[e.length] == -1 {
			t.idxOfLength[e.length] = len(t.overflow)
		}
		t.overflow = append(t.overflow, e)
	}

	// Fill absent lengths with the next present length's start index so
	// a binary search bound lookup never has to special-case -1.
	next := len(t.overflow)
	for l := MaxCodeLength + 1; l >= 0; l-- {
		if t.idxOfLength[l] == -1 {
			t.idxOfLength[l] = next
		} else {
			next = t.idxOfLength[l]
		}
	}

	return t, nil
}

// Decode reads one symbol from br. Empty tables always error; a
// single-symbol table returns its symbol without consuming any bits,
// matching section 4.3's "if the table is single-symbol, return it."
func (t *Table) Decode(br *bitstream.BitReader) (uint8, error) {
	if t.empty {
		return 0, errors.Wrap(ErrInvalid, "decode from empty table")
	}
	if t.singleSymbol {
		return t.singleValue, nil
	}

	peek, err := br.PeekBits(smallLUTBits)
	if err != nil {
		return 0, errors.Wrap(err, "huffman: peek small LUT window")
	}
	if e := t.lut[peek]; e.bits > 0 {
		if _, err := br.ReadBits(int(e.bits)); err != nil {
			return 0, errors.Wrap(err, "huffman: consume small-LUT code")
		}
		return e.symbol, nil
	}

	for length := smallLUTBits + 1; length <= int(t.maxLength); length++ {
		peek, err := br.PeekBits(length)
		if err != nil {
			return 0, errors.Wrap(err, "huffman: peek overflow window")
		}
		lo, hi := t.idxOfLength[length], t.idxOfLength[length+1]
		group := t.overflow[lo:hi]
		i := sort.Search(len(group), func(i int) bool { return group[i].code >= peek })
		if i < len(group) && group[i].code == peek && group[i].length == uint8(length) {
			if _, err := br.ReadBits(length); err != nil {
				return 0, errors.Wrap(err, "huffman: consume overflow code")
			}
			return group[i].symbol, nil
		}
	}

	return 0, errors.Wrap(ErrInvalid, "no matching Huffman code found")
}
