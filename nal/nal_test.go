package nal

import (
	"bytes"
	"testing"
)

func header(nalType uint8) []byte {
	h := uint16(forbiddenBits)<<14 | uint16(nalType&0x1f)<<9 | reservedFlags
	return []byte{byte(h >> 8), byte(h)}
}

func TestUnencapsulateIDR(t *testing.T) {
	buf := append([]byte{0x00, 0x00, 0x01}, header(nalTypeIDR)...)
	buf = append(buf, 0x11, 0x22, 0x33, rbspStopByte)

	u, err := Unencapsulate(buf)
	if err != nil {
		t.Fatalf("Unencapsulate: %v", err)
	}
	if !u.IsIDR {
		t.Fatal("expected IDR")
	}
	want := []byte{0x11, 0x22, 0x33}
	if !bytes.Equal(u.Body, want) {
		t.Fatalf("Body = %x, want %x", u.Body, want)
	}
}

func TestUnencapsulate4ByteStartCode(t *testing.T) {
	buf := append([]byte{0x00, 0x00, 0x00, 0x01}, header(nalTypeNonIDR)...)
	buf = append(buf, 0xaa, rbspStopByte)

	u, err := Unencapsulate(buf)
	if err != nil {
		t.Fatalf("Unencapsulate: %v", err)
	}
	if u.IsIDR {
		t.Fatal("expected non-IDR")
	}
}

func TestUnencapsulateRejectsMissingStartCode(t *testing.T) {
	buf := append(header(nalTypeIDR), 0x00, rbspStopByte)
	if _, err := Unencapsulate(buf); err == nil {
		t.Fatal("expected error for missing start code")
	}
}

func TestUnencapsulateRejectsBadStopByte(t *testing.T) {
	buf := append([]byte{0x00, 0x00, 0x01}, header(nalTypeIDR)...)
	buf = append(buf, 0x11, 0x00)
	if _, err := Unencapsulate(buf); err == nil {
		t.Fatal("expected error for missing RBSP stop byte")
	}
}

func TestUnencapsulateRejectsBadForbiddenBits(t *testing.T) {
	h := uint16(0)<<14 | uint16(nalTypeIDR&0x1f)<<9 | reservedFlags
	buf := append([]byte{0x00, 0x00, 0x01}, byte(h>>8), byte(h))
	buf = append(buf, rbspStopByte)
	if _, err := Unencapsulate(buf); err == nil {
		t.Fatal("expected error for forbidden bits != 01b")
	}
}

func TestUnencapsulateRejectsUnsupportedType(t *testing.T) {
	buf := append([]byte{0x00, 0x00, 0x01}, header(5)...)
	buf = append(buf, rbspStopByte)
	if _, err := Unencapsulate(buf); err == nil {
		t.Fatal("expected error for unsupported nal_unit_type")
	}
}

func TestEmulationPreventionRoundTrip(t *testing.T) {
	body := []byte{0x00, 0x00, 0x00}

	encapsulated := Encapsulate(body)
	buf := append([]byte{0x00, 0x00, 0x01}, header(nalTypeIDR)...)
	buf = append(buf, encapsulated...)

	u, err := Unencapsulate(buf)
	if err != nil {
		t.Fatalf("Unencapsulate: %v", err)
	}
	if !bytes.Equal(u.Body, body) {
		t.Fatalf("round trip: got %x, want %x", u.Body, body)
	}
}
