/*
DESCRIPTION
  chunk.go implements C6: the EncodedData / EncodedDataTiled block parsers
  and the flat chunk-descriptor layout described in section 4.6. It
  builds FrameConfig's Chunks array and the two index tables
  (ResidualChunkBase, TemporalChunkBase) tile and decode.go use to find a
  given (plane, LOQ, tile[, layer]) chunk without scanning.

AUTHORS
  LCEVC enhancement core contributors.
*/

package enhancement

import (
	"github.com/pkg/errors"

	"github.com/v-nova-go/lcevc-enhancement/bitstream"
)

// ensureChunkCapacity grows f.Chunks by the check-then-commit discipline
// FrameConfigReset's doc comment describes: callers first ensure
// capacity, then append, so repeated pictures at a stable resolution
// never reallocate after the first.
func ensureChunkCapacity(f *FrameConfig, additional int) {
	if cap(f.Chunks)-len(f.Chunks) >= additional {
		return
	}
	grown := make([]ChunkDescriptor, len(f.Chunks), len(f.Chunks)+additional)
	copy(grown, f.Chunks)
	f.Chunks = grown
}

// parseEncodedData implements section 4.5 items 4a/4b (EncodedData and
// EncodedDataTiled share a body once the tiled flag gates whether a
// tile_id is present per chunk run). It lays out FrameConfig's flat chunk
// array in (plane, LOQ, tile, layer) order for residual chunks followed
// by (plane, tile) order for temporal chunks, recording each dimension's
// starting index in ResidualChunkBase / TemporalChunkBase as it goes, per
// section 3's "flat array plus two base-offset index tables" design.
func parseEncodedData(br *bitstream.BitReader, g *GlobalConfig, f *FrameConfig, tiled bool) error {
	numPlanes := g.Chroma.numPlanes()
	numLayers := g.Transform.NumLayers()

	rleOnlyBitmap, entropyEnabledBitmap, err := readChunkFlagBitmaps(br, g, f, numPlanes, numLayers)
	if err != nil {
		return err
	}

	if err := br.AlignToByte(); err != nil {
		return errors.Wrap(err, "enhancement: align to byte before chunk sizes")
	}

	totalResidualChunks := 0
	for p := 0; p < numPlanes; p++ {
		for loq := 0; loq < int(numLOQ); loq++ {
			if !f.LOQEnabled[loq] {
				continue
			}
			totalResidualChunks += g.PlaneTileCount[p][loq] * numLayers
		}
	}
	totalTemporalChunks := 0
	if g.TemporalEnabled && f.TemporalSignallingPresent {
		for p := 0; p < numPlanes; p++ {
			totalTemporalChunks += g.PlaneTileCount[p][LOQ0]
		}
	}

	ensureChunkCapacity(f, totalResidualChunks+totalTemporalChunks)

	// With TileSizeCompressionNone each chunk's size is a multi-byte VLC
	// immediately before that chunk's data, read in nextDescriptor; the
	// other modes read every size up front.
	var sizes []int
	if g.TileSizeCompression != TileSizeCompressionNone {
		sizes, err = readChunkSizes(br, g, totalResidualChunks+totalTemporalChunks)
		if err != nil {
			return err
		}
	}

	bitIdx := 0
	nextDescriptor := func() (ChunkDescriptor, error) {
		var size int
		if sizes != nil {
			size = sizes[bitIdx]
		} else {
			v, err := br.Underlying().ReadMultiByte()
			if err != nil {
				return ChunkDescriptor{}, errors.Wrapf(err, "enhancement: read chunk size %d", bitIdx)
			}
			size = int(v)
		}
		data, err := br.Underlying().ReadN(size)
		if err != nil {
			return ChunkDescriptor{}, errors.Wrap(err, "enhancement: read chunk payload")
		}
		desc := ChunkDescriptor{
			Data:           data,
			RLEOnly:        rleOnlyBitmap[bitIdx],
			EntropyEnabled: entropyEnabledBitmap[bitIdx],
		}
		bitIdx++
		return desc, nil
	}

	for p := 0; p < numPlanes; p++ {
		for loq := 0; loq < int(numLOQ); loq++ {
			if !f.LOQEnabled[loq] {
				f.ResidualChunkBase[p][loq] = -1
				continue
			}
			f.ResidualChunkBase[p][loq] = len(f.Chunks)
			tileCount := g.PlaneTileCount[p][loq]
			for t := 0; t < tileCount; t++ {
				for layer := 0; layer < numLayers; layer++ {
					desc, err := nextDescriptor()
					if err != nil {
						return err
					}
					f.Chunks = append(f.Chunks, desc)
				}
			}
		}
	}

	if g.TemporalEnabled && f.TemporalSignallingPresent {
		for p := 0; p < numPlanes; p++ {
			f.TemporalChunkBase[p] = len(f.Chunks)
			tileCount := g.PlaneTileCount[p][LOQ0]
			for t := 0; t < tileCount; t++ {
				desc, err := nextDescriptor()
				if err != nil {
					return err
				}
				f.Chunks = append(f.Chunks, desc)
			}
		}
	} else {
		for p := 0; p < numPlanes; p++ {
			f.TemporalChunkBase[p] = -1
		}
	}

	_ = tiled // tile_id values themselves are positional (section 4.6); the
	// count and order above already match the tiled-vs-untiled chunk
	// count, so no separate branch is needed once PlaneTileCount is 1 for
	// the untiled case.

	return nil
}

// readChunkFlagBitmaps reads the per-chunk flag bitmaps in order: an
// RLE-only bitmap, then an entropy-enabled bitmap that is itself
// optionally run-length coded when g.PerTileCompressionEnabled is set.
// parseEncodedData byte-aligns and reads the chunk sizes afterwards.
func readChunkFlagBitmaps(br *bitstream.BitReader, g *GlobalConfig, f *FrameConfig, numPlanes, numLayers int) (rleOnly, entropyEnabled []bool, err error) {
	total := 0
	for p := 0; p < numPlanes; p++ {
		for loq := 0; loq < int(numLOQ); loq++ {
			if !f.LOQEnabled[loq] {
				continue
			}
			total += g.PlaneTileCount[p][loq] * numLayers
		}
	}
	if g.TemporalEnabled && f.TemporalSignallingPresent {
		for p := 0; p < numPlanes; p++ {
			total += g.PlaneTileCount[p][LOQ0]
		}
	}

	rleOnly = make([]bool, total)
	for i := range rleOnly {
		v, err := br.ReadBit()
		if err != nil {
			return nil, nil, errors.Wrap(err, "enhancement: read rle_only bitmap")
		}
		rleOnly[i] = v == 1
	}

	entropyEnabled = make([]bool, total)
	if g.PerTileCompressionEnabled {
		if err := readRunLengthBitmap(br, entropyEnabled); err != nil {
			return nil, nil, errors.Wrap(err, "enhancement: read run-length-coded entropy_enabled bitmap")
		}
	} else {
		for i := range entropyEnabled {
			v, err := br.ReadBit()
			if err != nil {
				return nil, nil, errors.Wrap(err, "enhancement: read entropy_enabled bitmap")
			}
			entropyEnabled[i] = v == 1
		}
	}

	return rleOnly, entropyEnabled, nil
}

// readRunLengthBitmap decodes a boolean bitmap coded as alternating
// Exp-Golomb run lengths starting with a run of false.
func readRunLengthBitmap(br *bitstream.BitReader, dst []bool) error {
	value := false
	i := 0
	for i < len(dst) {
		run, err := br.ReadExpGolomb()
		if err != nil {
			return err
		}
		for n := uint32(0); n < run && i < len(dst); n++ {
			dst[i] = value
			i++
		}
		value = !value
	}
	return nil
}

// readChunkSizes reads count chunk sizes using the scheme selected by
// g.TileSizeCompression (section 4.6): None reads an independent
// multi-byte VLC per chunk; Prefix reads one multi-byte VLC giving the
// largest chunk's size followed by per-chunk multi-byte deltas from that
// maximum; PrefixOnDiff is the inclusive-prefix-sum variant where each
// entry after the first is a signed delta from the previous chunk's size
// rather than from the maximum.
func readChunkSizes(br *bitstream.BitReader, g *GlobalConfig, count int) ([]int, error) {
	sizes := make([]int, count)
	if count == 0 {
		return sizes, nil
	}

	switch g.TileSizeCompression {
	case TileSizeCompressionNone:
		for i := range sizes {
			v, err := br.Underlying().ReadMultiByte()
			if err != nil {
				return nil, errors.Wrapf(err, "enhancement: read chunk size %d", i)
			}
			sizes[i] = int(v)
		}
	case TileSizeCompressionPrefix:
		maxSize, err := br.Underlying().ReadMultiByte()
		if err != nil {
			return nil, errors.Wrap(err, "enhancement: read max chunk size")
		}
		for i := range sizes {
			delta, err := br.Underlying().ReadMultiByte()
			if err != nil {
				return nil, errors.Wrapf(err, "enhancement: read chunk size delta %d", i)
			}
			if delta > maxSize {
				return nil, newErrorf(ErrStreamDesync, nil, "chunk size delta %d exceeds max %d", delta, maxSize)
			}
			sizes[i] = int(maxSize - delta)
		}
	case TileSizeCompressionPrefixOnDiff:
		v, err := br.Underlying().ReadMultiByte()
		if err != nil {
			return nil, errors.Wrap(err, "enhancement: read first chunk size")
		}
		sizes[0] = int(v)
		for i := 1; i < count; i++ {
			deltaRaw, err := br.Underlying().ReadMultiByte()
			if err != nil {
				return nil, errors.Wrapf(err, "enhancement: read chunk size diff %d", i)
			}
			delta := zigzagUnsigned(deltaRaw)
			next := sizes[i-1] + delta
			if next < 0 {
				return nil, newErrorf(ErrStreamDesync, nil, "chunk size diff underflowed at %d", i)
			}
			sizes[i] = next
		}
	default:
		return nil, newErrorf(ErrStreamDesync, nil, "invalid tile size compression mode %d", g.TileSizeCompression)
	}

	return sizes, nil
}

// zigzagUnsigned maps an unsigned VLC value back to a signed delta: even
// values v map to v/2, odd values to -(v+1)/2.
func zigzagUnsigned(v uint64) int {
	if v&1 == 0 {
		return int(v >> 1)
	}
	return -int((v + 1) >> 1)
}

// ChunkAt returns the residual chunk descriptor for (plane, loq, tile,
// layer), or (ChunkDescriptor{}, false) if that LOQ is disabled for this
// picture.
func (f *FrameConfig) ChunkAt(plane Plane, loq LOQ, tile, layer, numLayers int) (ChunkDescriptor, bool) {
	base := f.ResidualChunkBase[plane][loq]
	if base < 0 {
		return ChunkDescriptor{}, false
	}
	idx := base + tile*numLayers + layer
	if idx < 0 || idx >= len(f.Chunks) {
		return ChunkDescriptor{}, false
	}
	return f.Chunks[idx], true
}

// TemporalChunkAt returns the temporal chunk descriptor for (plane,
// tile), or (ChunkDescriptor{}, false) if temporal signalling is absent
// this picture.
func (f *FrameConfig) TemporalChunkAt(plane Plane, tile int) (ChunkDescriptor, bool) {
	base := f.TemporalChunkBase[plane]
	if base < 0 {
		return ChunkDescriptor{}, false
	}
	idx := base + tile
	if idx < 0 || idx >= len(f.Chunks) {
		return ChunkDescriptor{}, false
	}
	return f.Chunks[idx], true
}
