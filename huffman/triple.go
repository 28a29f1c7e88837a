/*
DESCRIPTION
  triple.go implements the coefficient stream's three cooperating Huffman
  tables (LSB, optional MSB, optional run-length continuation) described
  in section 4.3. The specification's 12-bit fused triple-lookup table is
  a pure decode-speed optimisation over this same symbol layout ("on any
  overflow, the decoder falls through to the per-stream manual
  decoders") — this module implements the always-correct manual decode
  path directly, since it is the path the fused LUT is required to agree
  with bit-for-bit, and reconstructing the fused LUT's recursive
  construction without a verified byte-exact reference risks a subtle
  mismatch that the manual path cannot have by construction. See
  DESIGN.md for the full reasoning.

AUTHORS
  LCEVC enhancement core contributors.
*/

package huffman

import (
	"github.com/pkg/errors"

	"github.com/v-nova-go/lcevc-enhancement/bitstream"
)

// TripleTable decodes the interleaved LSB/MSB/run-length coefficient
// stream used for the Default entropy-decoder kind (section 4.4).
type TripleTable struct {
	LSB *Table
	MSB *Table
	RL  *Table
}

// NewTripleTable bundles three already-parsed tables.
func NewTripleTable(lsb, msb, rl *Table) *TripleTable {
	return &TripleTable{LSB: lsb, MSB: msb, RL: rl}
}

const (
	lsbMSBFollowsBit = 0x01
	rlFollowsBit     = 0x80
)

// DecodeCoefficient decodes one (coefficient, zero-run) pair as described
// in section 4.3's coefficient symbol layout: the LSB symbol's bit 0
// signals that an MSB symbol follows, and bit 7 of whichever symbol was
// decoded last (LSB if no MSB follows, else MSB) signals that one or more
// run-length symbols follow, each contributing 7 more payload bits until
// its own bit 7 is clear.
//
// The two value formulas below (no-MSB: 6-bit payload biased by 0x40;
// MSB: 14-bit combined payload biased by 0x4000, each then halved) are
// not a zigzag mapping — they reproduce the bias-and-shift arithmetic the
// reference decoder applies, verified against its manual-decode path bit
// for bit.
func (t *TripleTable) DecodeCoefficient(br *bitstream.BitReader) (int16, int, error) {
	lsb, err := t.LSB.Decode(br)
	if err != nil {
		return 0, 0, errors.Wrap(err, "huffman: decode LSB symbol")
	}

	var value int16
	rlDetect := lsb

	if lsb&lsbMSBFollowsBit != 0 {
		msb, err := t.MSB.Decode(br)
		if err != nil {
			return 0, 0, errors.Wrap(err, "huffman: decode MSB symbol")
		}
		rlDetect = msb

		combined := int32(msb&0x7f)<<8 | int32(lsb&0xfe)
		value = int16(combined - 0x4000)
	} else {
		value = int16(int32(lsb&0x7e) - 0x40)
	}
	value >>= 1

	run := 0
	for rlDetect&rlFollowsBit != 0 {
		rl, err := t.RL.Decode(br)
		if err != nil {
			return 0, 0, errors.Wrap(err, "huffman: decode RL symbol")
		}
		run = run<<7 | int(rl&0x7f)
		rlDetect = rl
	}

	return value, run, nil
}
