/*
DESCRIPTION
  nal.go unencapsulates a single enhancement-layer NAL unit: it strips the
  start code, the 16-bit NAL header, the RBSP trailing stop byte, and
  removes emulation-prevention bytes from the body, following the same
  peek-three-bytes-then-copy approach as NewNALUnit in the reference H.264
  NAL parser, adapted to the simpler fixed 16-bit LCEVC header (section
  4.2 of the enhancement-core specification).

AUTHORS
  LCEVC enhancement core contributors.
*/

// Package nal strips start codes, headers, and emulation-prevention bytes
// from an enhancement-layer NAL unit, classifying it as IDR or non-IDR.
package nal

import "github.com/pkg/errors"

// Type distinguishes an IDR (keyframe-aligned) NAL from a non-IDR one.
type Type int

const (
	// NonIDR indicates nal_unit_type identifies a non-IDR enhancement
	// picture.
	NonIDR Type = iota
	// IDR indicates nal_unit_type identifies an IDR enhancement picture.
	IDR
)

func (t Type) String() string {
	if t == IDR {
		return "IDR"
	}
	return "non-IDR"
}

// nal_unit_type values carried in the 5-bit type field (bits [13:9]) of
// the 16-bit NAL header (section 4.2): 2-bit forbidden, 5-bit type,
// 9-bit reserved. Only IDR and non-IDR are valid for the enhancement
// layer; any other value is a malformed NAL.
const (
	nalTypeNonIDR uint8 = 0
	nalTypeIDR    uint8 = 1
)

// forbiddenBits is the required value of the header's 2-bit forbidden
// field.
const forbiddenBits = 0x1

// reservedFlags is the 9-bit reserved field that must read all-ones.
const reservedFlags = 0x1ff

// ErrMalformedNAL is returned for any of the structural checks in section
// 4.2: bad start code, bad forbidden bits, unsupported type, non-all-ones
// reserved bits, or a missing/incorrect RBSP stop byte.
var ErrMalformedNAL = errors.New("nal: malformed NAL unit")

// Unit is the unencapsulated result of parsing one NAL: the emulation-
// prevention-stripped body (everything between the header and the stop
// byte) and whether the picture is IDR.
type Unit struct {
	Body   []byte
	IsIDR  bool
	NALRef uint8 // the raw 5-bit nal_unit_type, kept for diagnostics.
}

// startCode3 and startCode4 are the two permitted NAL prefixes.
var (
	startCode3 = [3]byte{0x00, 0x00, 0x01}
	startCode4 = [4]byte{0x00, 0x00, 0x00, 0x01}
)

const rbspStopByte = 0x80

// Unencapsulate parses buf as a single NAL unit: start code, 16-bit
// header, emulation-prevention-stripped body, and RBSP trailing stop
// byte. It does not search for a following start code; callers that
// demultiplex a stream of concatenated NALs must locate NAL boundaries
// themselves before calling Unencapsulate (this core treats one call as
// one picture's enhancement NAL, per section 1's scope).
func Unencapsulate(buf []byte) (*Unit, error) {
	hdrStart, err := stripStartCode(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[hdrStart:]

	if len(buf) < 2 {
		return nil, errors.Wrap(ErrMalformedNAL, "buffer too short for NAL header")
	}
	header := uint16(buf[0])<<8 | uint16(buf[1])

	forbidden := uint8(header>>14) & 0x3
	nalType := uint8(header>>9) & 0x1f
	reserved := header & reservedFlags

	if forbidden != forbiddenBits {
		return nil, errors.Wrap(ErrMalformedNAL, "forbidden bits must be 01b")
	}
	if nalType != nalTypeIDR && nalType != nalTypeNonIDR {
		return nil, errors.Wrapf(ErrMalformedNAL, "unsupported nal_unit_type %d", nalType)
	}
	if reserved != reservedFlags {
		return nil, errors.Wrap(ErrMalformedNAL, "reserved bits are not all-ones")
	}

	payload := buf[2:]
	if len(payload) == 0 || payload[len(payload)-1] != rbspStopByte {
		return nil, errors.Wrap(ErrMalformedNAL, "missing RBSP stop byte")
	}
	payload = payload[:len(payload)-1]

	body := removeEmulationPrevention(payload)

	return &Unit{
		Body:   body,
		IsIDR:  nalType == nalTypeIDR,
		NALRef: nalType,
	}, nil
}

// stripStartCode recognises the 3- or 4-byte start code at the front of
// buf and returns the offset of the byte immediately following it.
func stripStartCode(buf []byte) (int, error) {
	if len(buf) >= 4 && [4]byte(buf[:4]) == startCode4 {
		return 4, nil
	}
	if len(buf) >= 3 && [3]byte(buf[:3]) == startCode3 {
		return 3, nil
	}
	return 0, errors.Wrap(ErrMalformedNAL, "missing start code")
}

// removeEmulationPrevention collapses every 00 00 03 sequence in payload
// to 00 00, following the same peek-and-copy loop as NewNALUnit in the
// reference H.264 NAL parser: scan for the 3-byte pattern, copy the two
// leading zero bytes, and discard the emulation-prevention byte, rather
// than copying byte-by-byte with an explicit lookback window.
func removeEmulationPrevention(payload []byte) []byte {
	out := make([]byte, 0, len(payload))
	i := 0
	for i < len(payload) {
		if i+2 < len(payload) && payload[i] == 0x00 && payload[i+1] == 0x00 && payload[i+2] == 0x03 {
			out = append(out, 0x00, 0x00)
			i += 3
			continue
		}
		out = append(out, payload[i])
		i++
	}
	return out
}

// Encapsulate is the inverse of Unencapsulate's body transform: it
// reinserts an emulation-prevention byte after every 00 00 sequence that
// would otherwise be followed by a byte <= 0x03, and appends the RBSP
// stop byte. It does not prepend a start code or header, since a caller
// re-encapsulating a body already has those. Testable property in
// section 8 ("emulation-prevention inverse") exercises Unencapsulate and
// Encapsulate's body transforms round-tripping to the original body.
func Encapsulate(body []byte) []byte {
	out := make([]byte, 0, len(body)+len(body)/2+1)
	zeroRun := 0
	for _, b := range body {
		if zeroRun >= 2 && b <= 0x03 {
			out = append(out, 0x03)
			zeroRun = 0
		}
		out = append(out, b)
		if b == 0x00 {
			zeroRun++
		} else {
			zeroRun = 0
		}
	}
	out = append(out, rbspStopByte)
	return out
}
