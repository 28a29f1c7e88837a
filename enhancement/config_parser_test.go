package enhancement

import (
	"testing"

	"github.com/v-nova-go/lcevc-enhancement/bitstream"
)

func TestReadBlockHeaderTableSizeClass(t *testing.T) {
	// size_class=0 (3 bits) -> table size 0, type=blockFiller (5 bits).
	br := bitstream.NewBitReader(bitstream.NewByteReader([]byte{0x06}))
	hdr, err := readBlockHeader(br)
	if err != nil {
		t.Fatalf("readBlockHeader: %v", err)
	}
	if hdr.typ != blockFiller || hdr.size != 0 {
		t.Fatalf("header: got %+v, want {typ:%d size:0}", hdr, blockFiller)
	}
}

func TestReadBlockHeaderCustomSizeClass(t *testing.T) {
	// size_class=7 (custom), type=blockFiller, followed by a multi-byte
	// VLC size of 5.
	br := bitstream.NewBitReader(bitstream.NewByteReader([]byte{0xe6, 0x05}))
	hdr, err := readBlockHeader(br)
	if err != nil {
		t.Fatalf("readBlockHeader: %v", err)
	}
	if hdr.typ != blockFiller || hdr.size != 5 {
		t.Fatalf("header: got %+v, want {typ:%d size:5}", hdr, blockFiller)
	}
}

func TestReadBlockHeaderReservedSizeClassErrors(t *testing.T) {
	br := bitstream.NewBitReader(bitstream.NewByteReader([]byte{0xc0}))
	if _, err := readBlockHeader(br); err == nil {
		t.Fatal("expected error for reserved size class, got nil")
	}
}

func TestConfigsParseFillerBlocksConsumeDeclaredSize(t *testing.T) {
	// Two filler blocks back to back: the first of size class 0 (no
	// payload, i.e. the header byte itself with nothing following), the
	// second of size class 2 (2 payload bytes after the header byte that
	// must be skipped).
	data := []byte{
		0x06,             // size_class=0 (size 0), type=blockFiller
		0x46, 0xff, 0xff, // size_class=2 (size 2), type=blockFiller, 2 padding bytes
	}
	global := GlobalConfigInit(Options{})
	frame := FrameConfigInit(nil)
	defer FrameConfigRelease(frame)

	modified, err := ConfigsParse(data, global, frame)
	if err != nil {
		t.Fatalf("ConfigsParse: %v", err)
	}
	if modified {
		t.Fatal("filler-only stream should not report global config as modified")
	}
}

func TestConfigsParseUnknownBlockTypeErrors(t *testing.T) {
	// size_class=0 (size 0), type=31 (0b11111, unassigned).
	data := []byte{0x1f}
	global := GlobalConfigInit(Options{})
	frame := FrameConfigInit(nil)
	defer FrameConfigRelease(frame)

	if _, err := ConfigsParse(data, global, frame); err == nil {
		t.Fatal("expected error for unknown block type, got nil")
	}
}

func TestResolutionTableStandardIndices(t *testing.T) {
	cases := []struct {
		idx          int
		w, h         int
	}{
		{1, 1280, 720},
		{2, 1920, 1080},
		{3, 3840, 2160},
	}
	for _, c := range cases {
		w, h := resolutionTable(c.idx)
		if w != c.w || h != c.h {
			t.Fatalf("resolutionTable(%d): got (%d,%d), want (%d,%d)", c.idx, w, h, c.w, c.h)
		}
	}
}

func TestResolutionTableFallbackIsMonotonicAndDistinct(t *testing.T) {
	w7, h7 := resolutionTable(7)
	w8, h8 := resolutionTable(8)
	if w8 <= w7 || h8 <= h7 {
		t.Fatalf("fallback resolutions should grow with index: (%d,%d) then (%d,%d)", w7, h7, w8, h8)
	}
}

func TestParseQuantMatrixLOQUseDefault(t *testing.T) {
	f := &FrameConfig{}
	if err := parseQuantMatrixLOQ(nil, &GlobalConfig{}, f, LOQ0, QMMUseDefault); err != nil {
		t.Fatalf("parseQuantMatrixLOQ: %v", err)
	}
	if f.QuantMatrix[LOQ0] != defaultQuantMatrix {
		t.Fatalf("QuantMatrix[LOQ0]: got %v, want default", f.QuantMatrix[LOQ0])
	}
}

func TestParseQuantMatrixLOQUsePreviousFallsBackWithoutPriorMatrix(t *testing.T) {
	f := &FrameConfig{}
	g := &GlobalConfig{QuantMatrixEverSet: false}
	if err := parseQuantMatrixLOQ(nil, g, f, LOQ1, QMMUsePrevious); err != nil {
		t.Fatalf("parseQuantMatrixLOQ: %v", err)
	}
	if f.QuantMatrix[LOQ1] != defaultQuantMatrix {
		t.Fatalf("QuantMatrix[LOQ1]: got %v, want default fallback", f.QuantMatrix[LOQ1])
	}
}

func TestParseQuantMatrixLOQUsePreviousKeepsCarriedMatrix(t *testing.T) {
	f := &FrameConfig{}
	f.QuantMatrix[LOQ0] = [16]uint8{9, 9, 9, 9}
	g := &GlobalConfig{QuantMatrixEverSet: true}
	if err := parseQuantMatrixLOQ(nil, g, f, LOQ0, QMMUsePrevious); err != nil {
		t.Fatalf("parseQuantMatrixLOQ: %v", err)
	}
	if f.QuantMatrix[LOQ0][0] != 9 {
		t.Fatalf("QuantMatrix[LOQ0] should be left untouched: got %v", f.QuantMatrix[LOQ0])
	}
}

func TestParseQuantMatrixLOQCustomBothCopyMirrorsOtherLOQ(t *testing.T) {
	br := bitstream.NewBitReader(bitstream.NewByteReader(bytesOf(16, 7)))
	f := &FrameConfig{}
	g := &GlobalConfig{}
	if err := parseQuantMatrixLOQ(br, g, f, LOQ0, QMMCustomBothCopy); err != nil {
		t.Fatalf("parseQuantMatrixLOQ: %v", err)
	}
	if f.QuantMatrix[LOQ0] != f.QuantMatrix[LOQ1] {
		t.Fatalf("QMMCustomBothCopy should mirror LOQ0 into LOQ1: got %v vs %v", f.QuantMatrix[LOQ0], f.QuantMatrix[LOQ1])
	}
	if !g.QuantMatrixEverSet {
		t.Fatal("QuantMatrixEverSet should be set after a custom matrix read")
	}
}

func bytesOf(n int, v byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	return b
}
