/*
DESCRIPTION
  entropy.go implements C4: the entropy decoder wrappers used by the tile
  decode loop. Each chunk carries its own independent bit-level stream
  (its Huffman table headers followed by its coded symbols), so every
  decoder here owns its own bitstream.BitReader constructed directly from
  a ChunkDescriptor rather than sharing one reader across layers.

  Three decoder kinds are exposed: CoefficientDecoder (residual value +
  zero-run, the "Default" kind, built from three tables: LSB/MSB/RL),
  TemporalDecoder (the two-state inter/intra run-length automaton, built
  from two per-state tables), and SizeDecoder (small-integer decoding
  built from an LSB/MSB table pair). The CoefficientDecoder and
  TemporalDecoder constructors also accept RLE-only chunks, whose
  "symbols" are just the chunk's raw bytes read in order — both symbol
  sources go through the identical bias/shift/run-chain arithmetic,
  mirroring the reference decoder's generic decode logic that is itself
  written once and driven by either symbol source. SizeDecoder always
  parses its Huffman table pair; it has no RLE-only path.

AUTHORS
  LCEVC enhancement core contributors.
*/

package enhancement

import (
	"github.com/pkg/errors"

	"github.com/v-nova-go/lcevc-enhancement/bitstream"
	"github.com/v-nova-go/lcevc-enhancement/huffman"
)

// rawSymbolReader pulls raw chunk bytes in order, used by the RLE-only
// variant of every decoder kind below in place of a Huffman table.
type rawSymbolReader struct {
	data []byte
	pos  int
}

func (r *rawSymbolReader) next() (uint8, error) {
	if r.pos >= len(r.data) {
		return 0, newError(ErrEntropyOverflow, nil, "rle-only symbol stream exhausted")
	}
	s := r.data[r.pos]
	r.pos++
	return s, nil
}

// newChunkBitReader builds a bit reader over chunk's payload, used by
// every from-chunk Huffman-table-backed constructor below.
func newChunkBitReader(data []byte) *bitstream.BitReader {
	return bitstream.NewBitReader(bitstream.NewByteReader(data))
}

// CoefficientDecoder decodes a chunk's residual coefficient stream: one
// (value, run) pair per call, where run is the number of TUs to skip
// before the next TU's residual begins.
type CoefficientDecoder struct {
	enabled bool
	raw     *rawSymbolReader
	br      *bitstream.BitReader
	triple  *huffman.TripleTable
}

// NewCoefficientDecoderFromChunk builds a CoefficientDecoder for one
// residual layer's chunk. A chunk with entropy coding disabled, or with
// no payload, decodes as "no data" on every call; an RLE-only chunk
// reads its raw bytes directly; otherwise the chunk's LSB/MSB/RL table
// triplet is parsed from its payload header before the coded stream.
func NewCoefficientDecoderFromChunk(chunk ChunkDescriptor, version huffman.StreamVersion) (*CoefficientDecoder, error) {
	if !chunk.EntropyEnabled || len(chunk.Data) == 0 {
		return &CoefficientDecoder{enabled: false}, nil
	}
	if chunk.RLEOnly {
		return &CoefficientDecoder{enabled: true, raw: &rawSymbolReader{data: chunk.Data}}, nil
	}

	br := newChunkBitReader(chunk.Data)
	lsb, err := huffman.ParseTable(br, version)
	if err != nil {
		return nil, errors.Wrap(err, "enhancement: parse LSB table")
	}
	msb, err := huffman.ParseTable(br, version)
	if err != nil {
		return nil, errors.Wrap(err, "enhancement: parse MSB table")
	}
	rl, err := huffman.ParseTable(br, version)
	if err != nil {
		return nil, errors.Wrap(err, "enhancement: parse RL table")
	}

	return &CoefficientDecoder{enabled: true, br: br, triple: huffman.NewTripleTable(lsb, msb, rl)}, nil
}

// Decode returns the next (value, run) pair. hasData is false whenever
// this chunk carried no transmitted data, in which case the caller
// should treat the layer as silent for the remainder of the tile.
func (d *CoefficientDecoder) Decode() (value int16, run int, hasData bool, err error) {
	if !d.enabled {
		return 0, 0, false, nil
	}
	if d.raw != nil {
		value, run, err = decodeCoefficientFrom(d.raw.next)
		return value, run, true, err
	}
	value, run, err = d.triple.DecodeCoefficient(d.br)
	if err != nil {
		return 0, 0, true, errors.Wrap(err, "enhancement: decode coefficient")
	}
	return value, run, true, nil
}

// decodeCoefficientFrom applies the coefficient symbol layout (section
// 4.3) to a generic next-symbol source: an LSB symbol whose bit 0
// signals an MSB symbol follows, and whichever symbol was decoded last
// has bit 7 signalling one or more run-length symbols follow. The
// bias-and-shift value formulas reproduce the reference decoder's
// arithmetic exactly (see huffman.TripleTable.DecodeCoefficient, which
// shares this same layout for the Huffman-coded case).
func decodeCoefficientFrom(next func() (uint8, error)) (int16, int, error) {
	lsb, err := next()
	if err != nil {
		return 0, 0, err
	}

	var value int16
	rlDetect := lsb
	if lsb&0x01 != 0 {
		msb, err := next()
		if err != nil {
			return 0, 0, err
		}
		rlDetect = msb
		combined := int32(msb&0x7f)<<8 | int32(lsb&0xfe)
		value = int16(combined - 0x4000)
	} else {
		value = int16(int32(lsb&0x7e) - 0x40)
	}
	value >>= 1

	run := 0
	for rlDetect&0x80 != 0 {
		rl, err := next()
		if err != nil {
			return 0, 0, err
		}
		run = run<<7 | int(rl&0x7f)
		rlDetect = rl
	}

	return value, run, nil
}

// kTemporalTransition mirrors the reference decoder's
// kNextTemporalContext table: given the current state and a symbol's bit
// 7, what state comes next.
var kTemporalTransition = [2][2]int{
	{1, 0},
	{0, 1},
}

// TemporalDecoder decodes the temporal-signal run-length chunk described
// in the glossary's "two-valued prediction signal" entry: the first
// symbol is always sent raw to fix the initial state, and every
// subsequent symbol's bit 7 both extends the current run-length count
// and drives the 2-state transition table above, selecting which of two
// Huffman tables decodes the following symbol.
type TemporalDecoder struct {
	enabled bool
	raw     *rawSymbolReader
	br      *bitstream.BitReader
	tables  [2]*huffman.Table

	symbolsRead int
	currState   int
}

// NewTemporalDecoderFromChunk builds a TemporalDecoder from a tile's
// temporal chunk, or a disabled decoder if chunk is nil, has no
// transmitted data, or no payload.
func NewTemporalDecoderFromChunk(chunk *ChunkDescriptor, version huffman.StreamVersion) (*TemporalDecoder, error) {
	if chunk == nil || !chunk.EntropyEnabled || len(chunk.Data) == 0 {
		return &TemporalDecoder{enabled: false}, nil
	}
	if chunk.RLEOnly {
		return &TemporalDecoder{enabled: true, raw: &rawSymbolReader{data: chunk.Data}}, nil
	}

	br := newChunkBitReader(chunk.Data)
	stateZero, err := huffman.ParseTable(br, version)
	if err != nil {
		return nil, errors.Wrap(err, "enhancement: parse temporal state-0 table")
	}
	stateOne, err := huffman.ParseTable(br, version)
	if err != nil {
		return nil, errors.Wrap(err, "enhancement: parse temporal state-1 table")
	}

	return &TemporalDecoder{enabled: true, br: br, tables: [2]*huffman.Table{stateZero, stateOne}}, nil
}

func (d *TemporalDecoder) nextSymbol() (uint8, error) {
	var symbol uint8
	switch {
	case d.raw != nil:
		s, err := d.raw.next()
		if err != nil {
			return 0, err
		}
		symbol = s
	case d.symbolsRead == 0:
		v, err := d.br.ReadBits(8)
		if err != nil {
			return 0, err
		}
		symbol = uint8(v)
	default:
		s, err := d.tables[d.currState].Decode(d.br)
		if err != nil {
			return 0, err
		}
		symbol = s
	}

	d.symbolsRead++
	if d.symbolsRead == 1 {
		d.currState = int(symbol & 0x01)
	} else {
		d.currState = kTemporalTransition[d.currState][(symbol>>7)&1]
	}
	return symbol, nil
}

// NextRun decodes the next run length and the TemporalSignal that
// applies to it. hasData is false only for a decoder with no transmitted
// data.
func (d *TemporalDecoder) NextRun() (run int, signal TemporalSignal, hasData bool, err error) {
	if !d.enabled {
		return 0, TemporalInter, false, nil
	}

	value := d.currState
	if d.symbolsRead == 0 {
		symbol, err := d.nextSymbol()
		if err != nil {
			return 0, 0, true, errors.Wrap(err, "enhancement: decode temporal initial state")
		}
		value = int(symbol & 0x01)
	}

	count := 0
	for {
		symbol, err := d.nextSymbol()
		if err != nil {
			return 0, 0, true, errors.Wrap(err, "enhancement: decode temporal run symbol")
		}
		count = count<<7 | int(symbol&0x7f)
		if symbol&0x80 == 0 {
			break
		}
	}

	if count < 0 {
		return 0, 0, true, newError(ErrNegativeTemporalRun, nil, "temporal run length went negative")
	}

	return count, TemporalSignal(value), true, nil
}

// SizeKind selects the integer-decoding convention a SizeDecoder applies:
// Unsigned reads a plain magnitude, Signed applies the reference
// decoder's bit-broadcast sign-extension convention.
type SizeKind int

const (
	SizeUnsigned SizeKind = iota
	SizeSigned
)

// SizeDecoder decodes small integers, such as per-tile chunk size
// deltas when a stream signals them via a dedicated Huffman-coded
// sub-stream rather than the multi-byte VLC path in chunk.go.
type SizeDecoder struct {
	br       *bitstream.BitReader
	lsb, msb *huffman.Table
	kind     SizeKind
}

// NewSizeDecoderFromData builds a SizeDecoder over data, parsing its
// LSB/MSB table pair from the start of data.
func NewSizeDecoderFromData(data []byte, kind SizeKind, version huffman.StreamVersion) (*SizeDecoder, error) {
	br := newChunkBitReader(data)
	lsb, err := huffman.ParseTable(br, version)
	if err != nil {
		return nil, errors.Wrap(err, "enhancement: parse size LSB table")
	}
	msb, err := huffman.ParseTable(br, version)
	if err != nil {
		return nil, errors.Wrap(err, "enhancement: parse size MSB table")
	}
	return &SizeDecoder{br: br, lsb: lsb, msb: msb, kind: kind}, nil
}

// Decode returns the next decoded integer.
func (d *SizeDecoder) Decode() (int, error) {
	lsb, err := d.lsb.Decode(d.br)
	if err != nil {
		return 0, errors.Wrap(err, "enhancement: decode size LSB symbol")
	}

	if lsb&0x01 != 0 {
		msb, err := d.msb.Decode(d.br)
		if err != nil {
			return 0, errors.Wrap(err, "enhancement: decode size MSB symbol")
		}
		val := uint16(msb)<<7 | uint16(lsb>>1)
		if d.kind == SizeSigned {
			return int(int16((val&0x4000)<<1 | val)), nil
		}
		return int(val), nil
	}

	val := lsb >> 1
	if d.kind == SizeSigned {
		return int(int8((val&0x40)<<1 | val)), nil
	}
	return int(val), nil
}
