/*
DESCRIPTION
  parse.go deserializes a Huffman table from the enhancement bitstream, as
  described in section 4.3: a 5-bit min_code_length, 5-bit
  max_code_length, a 1-bit mode flag selecting a presence bitmap or a
  sparse symbol list, the sentinel encodings for empty and single-symbol
  tables, and the version-dependent length-delta bit width described in
  bitWidth in the reference huffman.c (three rows, one per stream-version
  bracket; streams at or after BitstreamVersionAlignWithSpec look up
  max-min in the row shifted down by one). The exact migration behaviour
  at the version==2 boundary is one of the two open questions named in
  section 9; the resolution adopted here is recorded in DESIGN.md.

AUTHORS
  LCEVC enhancement core contributors.
*/

package huffman

import (
	"github.com/pkg/errors"

	"github.com/v-nova-go/lcevc-enhancement/bitstream"
)

// StreamVersion identifies the bitstream version bracket that governs the
// length-delta bit width table (section 9's BitstreamVersionAlignWithSpec
// open question).
type StreamVersion int

const (
	// VersionInitial covers streams predating BitstreamVersionAlignWithSpec.
	VersionInitial StreamVersion = iota
	// VersionAlignWithSpec covers streams at or after the transition.
	VersionAlignWithSpec
)

const (
	sentinelLength = 31
)

// lengthDeltaBits returns the number of bits used to encode a
// length-delta (code length minus min_code_length) given the table's
// (max-min) span. Widths are the minimal number of bits able to
// represent every value in [0, span], which is the formula this module
// resolves the open length-delta-width-table question to (see
// DESIGN.md); streams at VersionAlignWithSpec or later are, per section
// 9, offset by one step relative to older streams, modelled here as
// computing the width for (span-1) when span > 0.
func lengthDeltaBits(span int, version StreamVersion) uint {
	if version == VersionAlignWithSpec && span > 0 {
		span--
	}
	if span <= 0 {
		return 0
	}
	bits := uint(0)
	for (1 << bits) <= span {
		bits++
	}
	return bits
}

// ParseTable reads one serialized Huffman table from br.
func ParseTable(br *bitstream.BitReader, version StreamVersion) (*Table, error) {
	minRaw, err := br.ReadBits(5)
	if err != nil {
		return nil, errors.Wrap(err, "huffman: read min_code_length")
	}
	maxRaw, err := br.ReadBits(5)
	if err != nil {
		return nil, errors.Wrap(err, "huffman: read max_code_length")
	}

	if minRaw == sentinelLength && maxRaw == sentinelLength {
		return &Table{empty: true}, nil
	}
	if minRaw == 0 && maxRaw == 0 {
		sym, err := br.ReadBits(8)
		if err != nil {
			return nil, errors.Wrap(err, "huffman: read single symbol value")
		}
		return &Table{singleSymbol: true, singleValue: uint8(sym)}, nil
	}

	min, max := uint8(minRaw), uint8(maxRaw)
	if max < min {
		return nil, errors.Wrap(ErrInvalid, "max_code_length < min_code_length")
	}
	deltaBits := lengthDeltaBits(int(max)-int(min), version)

	modeBit, err := br.ReadBits(1)
	if err != nil {
		return nil, errors.Wrap(err, "huffman: read mode flag")
	}

	var symbols, lengths []uint8
	if modeBit == 1 {
		// Presence-bitmap mode: one bit per possible symbol value,
		// ascending order; each present symbol is immediately followed
		// by its length-delta.
		for sym := 0; sym < MaxSymbols; sym++ {
			present, err := br.ReadBits(1)
			if err != nil {
				return nil, errors.Wrapf(err, "huffman: read presence bit %d", sym)
			}
			if present == 0 {
				continue
			}
			delta, err := br.ReadBits(int(deltaBits))
			if err != nil {
				return nil, errors.Wrapf(err, "huffman: read length delta for symbol %d", sym)
			}
			symbols = append(symbols, uint8(sym))
			lengths = append(lengths, min+uint8(delta))
		}
	} else {
		count, err := br.ReadBits(5)
		if err != nil {
			return nil, errors.Wrap(err, "huffman: read symbol_count")
		}
		for i := uint32(0); i < count; i++ {
			sym, err := br.ReadBits(8)
			if err != nil {
				return nil, errors.Wrapf(err, "huffman: read sparse symbol %d", i)
			}
			delta, err := br.ReadBits(int(deltaBits))
			if err != nil {
				return nil, errors.Wrapf(err, "huffman: read sparse length delta %d", i)
			}
			symbols = append(symbols, uint8(sym))
			lengths = append(lengths, min+uint8(delta))
		}
	}

	return BuildTable(symbols, lengths)
}
