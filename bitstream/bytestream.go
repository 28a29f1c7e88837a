/*
DESCRIPTION
  bytestream.go provides a big-endian byte-stream reader over a borrowed
  []byte, with bounds checking on every read as specified in section 4.1:
  overflow is rejected both when the proposed offset exceeds the buffer
  size and when it is numerically less than the current offset (a wrap
  check), mirroring offsetValidation in the reference byte-stream reader.

AUTHORS
  LCEVC enhancement core contributors.
*/

// Package bitstream provides the two-layer byte/bit reader that every
// other package in this module parses through: a bounds-checked
// big-endian ByteReader, and a BitReader that refills a 32-bit word from
// it for sub-byte access, Exp-Golomb codes, and the bitstream's
// multi-byte variable-length integer encoding.
package bitstream

import "github.com/pkg/errors"

// ErrOverflow is returned when a read would advance the offset past the
// end of the buffer, or would wrap the offset backwards.
var ErrOverflow = errors.New("bitstream: read overflows buffer")

// ByteReader reads big-endian values from a borrowed byte slice. It never
// copies the slice; ByteReader.data is a view into the caller's buffer.
type ByteReader struct {
	data   []byte
	offset int
}

// NewByteReader returns a ByteReader over data. data is not copied; the
// caller must keep it alive and unmodified for the ByteReader's lifetime.
func NewByteReader(data []byte) *ByteReader {
	return &ByteReader{data: data}
}

// validate checks that advancing the offset by n bytes does not overflow
// the buffer and does not wrap (the reference implementation's
// offsetValidation performs both checks independently).
func (b *ByteReader) validate(n int) error {
	newOffset := b.offset + n
	if newOffset > len(b.data) {
		return errors.Wrapf(ErrOverflow, "offset %d + %d exceeds size %d", b.offset, n, len(b.data))
	}
	if newOffset < b.offset {
		return errors.Wrap(ErrOverflow, "offset wrapped")
	}
	return nil
}

// ReadU8 reads one byte.
func (b *ByteReader) ReadU8() (uint8, error) {
	if err := b.validate(1); err != nil {
		return 0, err
	}
	v := b.data[b.offset]
	b.offset++
	return v, nil
}

// ReadU16 reads a big-endian 16-bit value.
func (b *ByteReader) ReadU16() (uint16, error) {
	if err := b.validate(2); err != nil {
		return 0, err
	}
	v := uint16(b.data[b.offset])<<8 | uint16(b.data[b.offset+1])
	b.offset += 2
	return v, nil
}

// ReadU32 reads a big-endian 32-bit value.
func (b *ByteReader) ReadU32() (uint32, error) {
	if err := b.validate(4); err != nil {
		return 0, err
	}
	v := uint32(b.data[b.offset])<<24 | uint32(b.data[b.offset+1])<<16 |
		uint32(b.data[b.offset+2])<<8 | uint32(b.data[b.offset+3])
	b.offset += 4
	return v, nil
}

// ReadU64 reads a big-endian 64-bit value.
func (b *ByteReader) ReadU64() (uint64, error) {
	if err := b.validate(8); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b.data[b.offset+i])
	}
	b.offset += 8
	return v, nil
}

// ReadN returns the next n bytes as a sub-slice (a borrow, not a copy) and
// advances the offset by n.
func (b *ByteReader) ReadN(n int) ([]byte, error) {
	if err := b.validate(n); err != nil {
		return nil, err
	}
	v := b.data[b.offset : b.offset+n]
	b.offset += n
	return v, nil
}

// kMultiByteMaxBytes bounds the multi-byte VLC to a 64-bit result: 10
// bytes of 7 payload bits each covers 70 bits, comfortably enough for 64,
// and matches the reference decoder's constant exactly.
const kMultiByteMaxBytes = 10

// ReadMultiByte reads the bitstream's variable-length integer encoding:
// bytes are consumed MSB-first, the top bit of each byte signals whether
// another byte follows, and the low 7 bits of each byte are the payload,
// accumulated into the result most-significant-byte first. A 10th byte
// that still has its continuation bit set is rejected.
func (b *ByteReader) ReadMultiByte() (uint64, error) {
	var v uint64
	for i := 0; i < kMultiByteMaxBytes; i++ {
		byt, err := b.ReadU8()
		if err != nil {
			return 0, errors.Wrap(err, "could not read multi-byte VLC byte")
		}
		v = v<<7 | uint64(byt&0x7f)
		if byt&0x80 == 0 {
			return v, nil
		}
		if i == kMultiByteMaxBytes-1 {
			return 0, errors.New("bitstream: multi-byte VLC exceeds 10 bytes")
		}
	}
	return v, nil
}

// Seek advances the offset forward by delta bytes. The reference
// byte-stream reader only ever seeks forward; this matches that
// restriction rather than allowing arbitrary repositioning.
func (b *ByteReader) Seek(delta int) error {
	if delta < 0 {
		return errors.New("bitstream: Seek does not support negative delta")
	}
	if err := b.validate(delta); err != nil {
		return err
	}
	b.offset += delta
	return nil
}

// Remaining returns the number of unread bytes.
func (b *ByteReader) Remaining() int { return len(b.data) - b.offset }

// Offset returns the current byte offset.
func (b *ByteReader) Offset() int { return b.offset }

// Len returns the total buffer length.
func (b *ByteReader) Len() int { return len(b.data) }

// CurrentPtr returns the unread remainder of the buffer as a sub-slice,
// corresponding to the reference's current_ptr accessor.
func (b *ByteReader) CurrentPtr() []byte { return b.data[b.offset:] }
