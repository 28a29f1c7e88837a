package enhancement

import (
	"testing"

	"github.com/v-nova-go/lcevc-enhancement/bitstream"
	"github.com/v-nova-go/lcevc-enhancement/huffman"
)

func emptyBitReader() *bitstream.BitReader {
	return bitstream.NewBitReader(bitstream.NewByteReader(nil))
}

// singleSymbolTable builds a Huffman table that always decodes to symbol
// without consuming any bits, letting these tests drive the size/value
// formulas directly without a real bitstream.
func singleSymbolTable(t *testing.T, symbol uint8) *huffman.Table {
	t.Helper()
	tbl, err := huffman.BuildTable([]uint8{symbol}, []uint8{1})
	if err != nil {
		t.Fatalf("BuildTable: %v", err)
	}
	return tbl
}

func TestCoefficientDecoderDisabledHasNoData(t *testing.T) {
	d, err := NewCoefficientDecoderFromChunk(ChunkDescriptor{EntropyEnabled: false}, huffman.StreamVersion(0))
	if err != nil {
		t.Fatalf("NewCoefficientDecoderFromChunk: %v", err)
	}
	_, _, hasData, err := d.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if hasData {
		t.Fatal("disabled chunk should report hasData=false")
	}
}

func TestCoefficientDecoderRLEOnlyNoMSB(t *testing.T) {
	chunk := ChunkDescriptor{EntropyEnabled: true, RLEOnly: true, Data: []byte{0x40}}
	d, err := NewCoefficientDecoderFromChunk(chunk, huffman.StreamVersion(0))
	if err != nil {
		t.Fatalf("NewCoefficientDecoderFromChunk: %v", err)
	}
	value, run, hasData, err := d.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !hasData {
		t.Fatal("expected hasData=true")
	}
	if value != 0 || run != 0 {
		t.Fatalf("Decode: got value=%d run=%d, want 0,0", value, run)
	}
}

func TestCoefficientDecoderRLEOnlyMSBAndRun(t *testing.T) {
	// lsb=0x03 (bit0 set, MSB follows), msb=0x80 (bit7 set, RL follows),
	// rl=0x05 (bit7 clear, chain ends).
	chunk := ChunkDescriptor{EntropyEnabled: true, RLEOnly: true, Data: []byte{0x03, 0x80, 0x05}}
	d, err := NewCoefficientDecoderFromChunk(chunk, huffman.StreamVersion(0))
	if err != nil {
		t.Fatalf("NewCoefficientDecoderFromChunk: %v", err)
	}
	value, run, hasData, err := d.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !hasData {
		t.Fatal("expected hasData=true")
	}
	if value != -8191 || run != 5 {
		t.Fatalf("Decode: got value=%d run=%d, want -8191,5", value, run)
	}
}

func TestCoefficientDecoderRLEOnlyExhaustedStream(t *testing.T) {
	chunk := ChunkDescriptor{EntropyEnabled: true, RLEOnly: true, Data: []byte{}}
	// Data is empty, so NewCoefficientDecoderFromChunk treats it as having
	// no transmitted data at all (same as an empty chunk).
	d, err := NewCoefficientDecoderFromChunk(chunk, huffman.StreamVersion(0))
	if err != nil {
		t.Fatalf("NewCoefficientDecoderFromChunk: %v", err)
	}
	_, _, hasData, err := d.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if hasData {
		t.Fatal("empty chunk data should report hasData=false")
	}
}

func TestTemporalDecoderDisabledOnNilChunk(t *testing.T) {
	d, err := NewTemporalDecoderFromChunk(nil, huffman.StreamVersion(0))
	if err != nil {
		t.Fatalf("NewTemporalDecoderFromChunk: %v", err)
	}
	_, _, hasData, err := d.NextRun()
	if err != nil {
		t.Fatalf("NextRun: %v", err)
	}
	if hasData {
		t.Fatal("nil chunk should report hasData=false")
	}
}

func TestTemporalDecoderRLEOnlySequence(t *testing.T) {
	chunk := &ChunkDescriptor{EntropyEnabled: true, RLEOnly: true, Data: []byte{0x01, 0x03, 0x07}}
	d, err := NewTemporalDecoderFromChunk(chunk, huffman.StreamVersion(0))
	if err != nil {
		t.Fatalf("NewTemporalDecoderFromChunk: %v", err)
	}

	run, signal, hasData, err := d.NextRun()
	if err != nil {
		t.Fatalf("NextRun: %v", err)
	}
	if !hasData {
		t.Fatal("expected hasData=true")
	}
	if run != 3 || signal != TemporalIntra {
		t.Fatalf("first NextRun: got run=%d signal=%v, want 3,%v", run, signal, TemporalIntra)
	}

	run, signal, hasData, err = d.NextRun()
	if err != nil {
		t.Fatalf("NextRun: %v", err)
	}
	if !hasData {
		t.Fatal("expected hasData=true")
	}
	if run != 7 || signal != TemporalInter {
		t.Fatalf("second NextRun: got run=%d signal=%v, want 7,%v", run, signal, TemporalInter)
	}
}

func TestSizeDecoderUnsignedSmallValue(t *testing.T) {
	d := &SizeDecoder{lsb: singleSymbolTable(t, 0x0a), msb: singleSymbolTable(t, 0), kind: SizeUnsigned}
	d.br = emptyBitReader()
	got, err := d.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != 5 {
		t.Fatalf("Decode: got %d, want 5", got)
	}
}

func TestSizeDecoderSignedSmallValueNegative(t *testing.T) {
	d := &SizeDecoder{lsb: singleSymbolTable(t, 0xfe), msb: singleSymbolTable(t, 0), kind: SizeSigned}
	d.br = emptyBitReader()
	got, err := d.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != -1 {
		t.Fatalf("Decode: got %d, want -1", got)
	}
}

func TestSizeDecoderUnsignedWithMSB(t *testing.T) {
	d := &SizeDecoder{lsb: singleSymbolTable(t, 0x05), msb: singleSymbolTable(t, 0x03), kind: SizeUnsigned}
	d.br = emptyBitReader()
	got, err := d.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != 386 {
		t.Fatalf("Decode: got %d, want 386", got)
	}
}

func TestSizeDecoderSignedWithMSBNegative(t *testing.T) {
	d := &SizeDecoder{lsb: singleSymbolTable(t, 0x01), msb: singleSymbolTable(t, 0x80), kind: SizeSigned}
	d.br = emptyBitReader()
	got, err := d.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != -16384 {
		t.Fatalf("Decode: got %d, want -16384", got)
	}
}
