/*
DESCRIPTION
  bitreader.go implements the bit-level reader that sits on top of
  ByteReader, as specified in section 4.1: it refills a 32-bit word from
  up to 4 bytes at a time, tracks the number of bits already consumed from
  the word, and exposes bit-granular reads plus unsigned Exp-Golomb
  decoding. When fewer than 4 bytes remain, the residual bytes are
  left-shifted into the high end of the word so reads still see
  MSB-first data, matching loadWordUnchecked in the reference bit-stream
  reader.

AUTHORS
  LCEVC enhancement core contributors.
*/

package bitstream

import "github.com/pkg/errors"

// BitReader reads individual bits from a ByteReader, refilling a 32-bit
// word on demand. word holds its valid bits left-aligned (MSB-first);
// consumed counts how many of those valid bits have already been
// returned, and valid is the total number of real (non-padding) bits
// currently loaded — fewer than 32 only for the final, partial word at
// the end of the buffer.
type BitReader struct {
	bytes    *ByteReader
	word     uint32
	consumed uint8
	valid    uint8
}

// NewBitReader returns a BitReader over br. br must not be used directly
// by the caller once wrapped, since BitReader buffers ahead of it.
func NewBitReader(br *ByteReader) *BitReader {
	return &BitReader{bytes: br}
}

// refill reloads word with up to 4 fresh bytes once the previously loaded
// bits have been fully consumed. If fewer than 4 bytes remain in the byte
// stream, the partial fill is left-shifted into the high end of the word
// so that reads still see MSB-first data, and valid is set to the actual
// number of bits backed by real data (matching loadWordUnchecked in the
// reference bit-stream reader). Attempting to refill with no bytes left
// is an overflow.
func (r *BitReader) refill() error {
	avail := r.bytes.Remaining()
	if avail <= 0 {
		return errors.Wrap(ErrOverflow, "bit reader: no more bytes to refill word")
	}
	n := avail
	if n > 4 {
		n = 4
	}
	buf, err := r.bytes.ReadN(n)
	if err != nil {
		return errors.Wrap(err, "bit reader: refill")
	}
	var word uint32
	for _, b := range buf {
		word = word<<8 | uint32(b)
	}
	word <<= uint(8 * (4 - n))
	r.word = word
	r.consumed = 0
	r.valid = uint8(8 * n)
	return nil
}

// ReadBit reads a single bit.
func (r *BitReader) ReadBit() (uint32, error) {
	return r.ReadBits(1)
}

// ReadBits reads n bits (n must be in [0, 31]) and returns them in the
// low-order bits of the result, refilling across word boundaries as
// needed.
func (r *BitReader) ReadBits(n int) (uint32, error) {
	if n < 0 || n > 31 {
		return 0, errors.Errorf("bit reader: ReadBits n=%d out of range", n)
	}
	if n == 0 {
		return 0, nil
	}
	var result uint32
	remaining := n
	for remaining > 0 {
		availableInWord := int(r.valid) - int(r.consumed)
		if availableInWord <= 0 {
			if err := r.refill(); err != nil {
				return 0, err
			}
			availableInWord = int(r.valid) - int(r.consumed)
		}
		take := remaining
		if take > availableInWord {
			take = availableInWord
		}
		shift := uint(32 - int(r.consumed) - take)
		bits := (r.word >> shift) & ((1 << uint(take)) - 1)
		result = result<<uint(take) | bits
		r.consumed += uint8(take)
		remaining -= take
	}
	return result, nil
}

// ReadExpGolomb decodes an unsigned Exp-Golomb value: count leading zero
// bits, then read that many payload bits; the value is
// (1<<count | payload) - 1.
func (r *BitReader) ReadExpGolomb() (uint32, error) {
	count := 0
	for {
		b, err := r.ReadBits(1)
		if err != nil {
			return 0, errors.Wrap(err, "bit reader: exp-golomb leading zeros")
		}
		if b != 0 {
			break
		}
		count++
		if count > 31 {
			return 0, errors.New("bit reader: exp-golomb prefix too long")
		}
	}
	if count == 0 {
		return 0, nil
	}
	payload, err := r.ReadBits(count)
	if err != nil {
		return 0, errors.Wrap(err, "bit reader: exp-golomb payload")
	}
	return (uint32(1)<<uint(count) | payload) - 1, nil
}

// ConsumedBits returns the total number of bits consumed from the
// underlying byte stream so far, counting only bits that have actually
// been read out (not unread residual bits sitting in the word after a
// partial final refill).
func (r *BitReader) ConsumedBits() int {
	return r.bytes.Offset()*8 - int(r.valid-r.consumed)
}

// ConsumedBytes returns ConsumedBits rounded up to the nearest byte.
func (r *BitReader) ConsumedBytes() int {
	bits := r.ConsumedBits()
	return (bits + 7) / 8
}

// ByteAligned reports whether the reader sits on a byte boundary.
func (r *BitReader) ByteAligned() bool {
	return r.ConsumedBits()%8 == 0
}

// AlignToByte discards bits until the reader reaches the next byte
// boundary (a no-op if already aligned).
func (r *BitReader) AlignToByte() error {
	rem := r.ConsumedBits() % 8
	if rem == 0 {
		return nil
	}
	_, err := r.ReadBits(8 - rem)
	return err
}

// PeekBits returns the next n bits without advancing the reader. If the
// underlying stream does not have n real bits remaining, the missing
// low-order bits are returned as zero rather than erroring — callers that
// need an exact bit-accurate remaining-length check should compare
// against ConsumedBits/Underlying().Remaining() themselves; PeekBits
// exists purely to let table-driven decoders (the Huffman small-LUT
// lookup) speculatively inspect upcoming bits near the end of a chunk.
func (r *BitReader) PeekBits(n int) (uint32, error) {
	if n < 0 || n > 31 {
		return 0, errors.Errorf("bit reader: PeekBits n=%d out of range", n)
	}
	savedWord, savedConsumed, savedValid := r.word, r.consumed, r.valid
	savedOffset := r.bytes.offset

	var result uint32
	remaining := n
	for remaining > 0 {
		bit, err := r.ReadBits(1)
		if err != nil {
			result <<= uint(remaining)
			remaining = 0
			break
		}
		result = result<<1 | bit
		remaining--
	}

	r.word, r.consumed, r.valid = savedWord, savedConsumed, savedValid
	r.bytes.offset = savedOffset
	return result, nil
}

// Underlying returns the ByteReader backing this BitReader, for callers
// that need to resume byte-aligned reads (for example, chunk data slices
// or multi-byte VLC fields that follow a run of bit-level fields).
// refill reads up to 4 bytes ahead of what ReadBits has actually
// returned, so the byte reader's raw offset can sit past the bits this
// BitReader has logically consumed; Underlying rewinds it to the true
// consumed-byte position (rounding up through any partial final byte,
// the same rounding AlignToByte would produce) before handing it back,
// and discards the now-stale buffered word so the next bit-level read
// refills from the correct position.
func (r *BitReader) Underlying() *ByteReader {
	r.bytes.offset = r.ConsumedBytes()
	r.word, r.consumed, r.valid = 0, 0, 0
	return r.bytes
}
