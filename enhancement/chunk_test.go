package enhancement

import (
	"testing"

	"github.com/v-nova-go/lcevc-enhancement/bitstream"
)

func encodeMultiByteForTest(v uint64) []byte {
	var groups []uint8
	groups = append(groups, uint8(v&0x7f))
	v >>= 7
	for v > 0 {
		groups = append(groups, uint8(v&0x7f))
		v >>= 7
	}
	out := make([]byte, len(groups))
	for i := range groups {
		b := groups[len(groups)-1-i]
		if i != len(groups)-1 {
			b |= 0x80
		}
		out[i] = b
	}
	return out
}

func TestReadChunkSizesNone(t *testing.T) {
	var data []byte
	for _, v := range []uint64{10, 0, 300} {
		data = append(data, encodeMultiByteForTest(v)...)
	}
	br := bitstream.NewBitReader(bitstream.NewByteReader(data))
	g := &GlobalConfig{TileSizeCompression: TileSizeCompressionNone}

	sizes, err := readChunkSizes(br, g, 3)
	if err != nil {
		t.Fatalf("readChunkSizes: %v", err)
	}
	want := []int{10, 0, 300}
	for i, w := range want {
		if sizes[i] != w {
			t.Fatalf("sizes[%d]: got %d, want %d", i, sizes[i], w)
		}
	}
}

func TestReadChunkSizesPrefix(t *testing.T) {
	var data []byte
	data = append(data, encodeMultiByteForTest(100)...) // max
	data = append(data, encodeMultiByteForTest(0)...)   // delta -> 100
	data = append(data, encodeMultiByteForTest(40)...)  // delta -> 60
	br := bitstream.NewBitReader(bitstream.NewByteReader(data))
	g := &GlobalConfig{TileSizeCompression: TileSizeCompressionPrefix}

	sizes, err := readChunkSizes(br, g, 2)
	if err != nil {
		t.Fatalf("readChunkSizes: %v", err)
	}
	if sizes[0] != 100 || sizes[1] != 60 {
		t.Fatalf("sizes: got %v, want [100 60]", sizes)
	}
}

func TestReadChunkSizesPrefixRejectsDeltaAboveMax(t *testing.T) {
	var data []byte
	data = append(data, encodeMultiByteForTest(10)...) // max
	data = append(data, encodeMultiByteForTest(20)...) // delta > max
	br := bitstream.NewBitReader(bitstream.NewByteReader(data))
	g := &GlobalConfig{TileSizeCompression: TileSizeCompressionPrefix}

	if _, err := readChunkSizes(br, g, 1); err == nil {
		t.Fatal("expected error for delta exceeding max, got nil")
	}
}

func TestReadChunkSizesPrefixOnDiff(t *testing.T) {
	var data []byte
	data = append(data, encodeMultiByteForTest(50)...) // first size
	data = append(data, encodeMultiByteForTest(0)...)  // zigzag 0 -> +0
	data = append(data, encodeMultiByteForTest(1)...)  // zigzag 1 -> -1
	br := bitstream.NewBitReader(bitstream.NewByteReader(data))
	g := &GlobalConfig{TileSizeCompression: TileSizeCompressionPrefixOnDiff}

	sizes, err := readChunkSizes(br, g, 3)
	if err != nil {
		t.Fatalf("readChunkSizes: %v", err)
	}
	want := []int{50, 50, 49}
	for i, w := range want {
		if sizes[i] != w {
			t.Fatalf("sizes[%d]: got %d, want %d", i, sizes[i], w)
		}
	}
}

func TestReadChunkSizesZeroCount(t *testing.T) {
	br := bitstream.NewBitReader(bitstream.NewByteReader(nil))
	g := &GlobalConfig{TileSizeCompression: TileSizeCompressionNone}

	sizes, err := readChunkSizes(br, g, 0)
	if err != nil {
		t.Fatalf("readChunkSizes: %v", err)
	}
	if len(sizes) != 0 {
		t.Fatalf("sizes: got %v, want empty", sizes)
	}
}

func TestZigzagUnsigned(t *testing.T) {
	cases := []struct {
		in   uint64
		want int
	}{
		{0, 0},
		{1, -1},
		{2, 1},
		{3, -2},
		{4, 2},
	}
	for _, c := range cases {
		if got := zigzagUnsigned(c.in); got != c.want {
			t.Fatalf("zigzagUnsigned(%d): got %d, want %d", c.in, got, c.want)
		}
	}
}

func TestReadRunLengthBitmap(t *testing.T) {
	// Runs: 2 false, 3 true, 1 false -> [F,F,T,T,T,F]. The three
	// Exp-Golomb codes are packed back to back in one bitstream:
	// "011" (2) + "00100" (3) + "010" (1), zero-padded to 16 bits.
	data := []byte{0x64, 0x40}
	br := bitstream.NewBitReader(bitstream.NewByteReader(data))

	dst := make([]bool, 6)
	if err := readRunLengthBitmap(br, dst); err != nil {
		t.Fatalf("readRunLengthBitmap: %v", err)
	}
	want := []bool{false, false, true, true, true, false}
	for i, w := range want {
		if dst[i] != w {
			t.Fatalf("dst[%d]: got %v, want %v", i, dst[i], w)
		}
	}
}

// encodeExpGolombForTest encodes v using the same Exp-Golomb convention
// bitstream.BitReader.ReadExpGolomb decodes (leading zero-bit count equal
// to the payload's bit length minus one, then the payload itself).
func encodeExpGolombForTest(v uint32) []byte {
	v++
	bits := 0
	for t := v; t > 0; t >>= 1 {
		bits++
	}
	var bitBuf []byte
	for i := 0; i < bits-1; i++ {
		bitBuf = append(bitBuf, 0)
	}
	for i := bits - 1; i >= 0; i-- {
		bitBuf = append(bitBuf, byte((v>>uint(i))&1))
	}
	var out []byte
	var cur byte
	var n int
	for _, b := range bitBuf {
		cur = cur<<1 | b
		n++
		if n == 8 {
			out = append(out, cur)
			cur, n = 0, 0
		}
	}
	if n > 0 {
		cur <<= uint(8 - n)
		out = append(out, cur)
	}
	return out
}

func TestChunkAtAndTemporalChunkAt(t *testing.T) {
	f := &FrameConfig{}
	f.ResidualChunkBase[PlaneLuma][LOQ0] = 0
	f.ResidualChunkBase[PlaneLuma][LOQ1] = -1
	f.TemporalChunkBase[PlaneLuma] = 4
	f.TemporalChunkBase[PlaneCb] = -1

	f.Chunks = make([]ChunkDescriptor, 5)
	f.Chunks[2] = ChunkDescriptor{Data: []byte{0xaa}}
	f.Chunks[4] = ChunkDescriptor{Data: []byte{0xbb}}

	const numLayers = 2
	got, ok := f.ChunkAt(PlaneLuma, LOQ0, 1, 0, numLayers)
	if !ok || len(got.Data) != 1 || got.Data[0] != 0xaa {
		t.Fatalf("ChunkAt: got %+v, ok=%v", got, ok)
	}

	if _, ok := f.ChunkAt(PlaneLuma, LOQ1, 0, 0, numLayers); ok {
		t.Fatal("ChunkAt: expected ok=false for disabled LOQ")
	}

	tGot, ok := f.TemporalChunkAt(PlaneLuma, 0)
	if !ok || len(tGot.Data) != 1 || tGot.Data[0] != 0xbb {
		t.Fatalf("TemporalChunkAt: got %+v, ok=%v", tGot, ok)
	}

	if _, ok := f.TemporalChunkAt(PlaneCb, 0); ok {
		t.Fatal("TemporalChunkAt: expected ok=false for absent plane base")
	}
}
