/*
DESCRIPTION
  config.go defines GlobalConfig and FrameConfig (section 3) and their
  lifecycle functions from the host-facing API (section 6):
  GlobalConfigInit, FrameConfigInit, FrameConfigReset, FrameConfigRelease.
  GlobalConfig lives from IDR to next IDR and is mutated only by the
  block parsers in config_parser.go; FrameConfig is reset between
  pictures. Field comments cite the controlling spec.md subsection, in
  the style of the teacher's sps.go.

AUTHORS
  LCEVC enhancement core contributors.
*/

package enhancement

import "github.com/v-nova-go/lcevc-enhancement/memory"

// Options carries the two host-settable configuration knobs named in
// section 6.
type Options struct {
	// ForceBitstreamVersion, when non-nil, overrides any in-band version
	// byte rather than reading it from the first V-Nova SEI.
	ForceBitstreamVersion *int

	// ForceScalar disables SIMD transform/dequant paths.
	ForceScalar bool
}

// GlobalConfig is the picture-group-lifetime configuration described in
// section 3. It is mutated only by the block parsers in
// config_parser.go, and is otherwise read-only for the duration of any
// in-flight tile decode (section 5).
type GlobalConfig struct {
	// Width/Height are the picture dimensions in luma pixels.
	Width, Height int

	// Chroma is the chroma subsampling; Chroma.NumPlanes() is 1 for
	// monochrome, 3 otherwise (section 3).
	Chroma ChromaSubsampling

	// BaseDepth/EnhancedDepth are the base and enhanced bit depths, one
	// of {8,10,12,14}.
	BaseDepth, EnhancedDepth int

	// Transform selects DD (4 coefficients) or DDS (16 coefficients).
	Transform TransformType

	// Scaling holds the scaling mode (0D/1D/2D) per LOQ.
	Scaling [numLOQ]ScalingMode

	// Upscale is the upscale kernel id.
	Upscale UpscaleType
	// UpscaleKernel holds the 4 custom 16-bit coefficients when Upscale
	// is UpscaleAdaptiveCubic.
	UpscaleKernel [4]uint16

	// PredictedAverage mirrors the predicted-average flag.
	PredictedAverage bool

	// TemporalEnabled/TemporalReducedSignalling mirror the
	// temporal-enabled and temporal-reduced-signalling flags.
	TemporalEnabled           bool
	TemporalReducedSignalling bool

	// TileDim selects the tile grid class.
	TileDim TileDimensionClass
	// TileWidth/TileHeight hold the luma tile dimensions for
	// TileDim==TileCustom; for the fixed classes these are derived.
	TileWidth, TileHeight int

	// PlaneTileWidth/PlaneTileHeight hold the per-plane tile dimensions
	// after applying the chroma-subsampling shift.
	PlaneTileWidth, PlaneTileHeight [maxPlanes]int
	// PlaneTileCount holds the per-plane, per-LOQ tile count.
	PlaneTileCount [maxPlanes][numLOQ]int

	// PerTileCompressionEnabled gates the run-length-coded
	// entropy-enabled bitmap described in section 4.6.
	PerTileCompressionEnabled bool
	// TileSizeCompression selects how compressed chunk sizes are
	// signalled (section 4.6).
	TileSizeCompression TileSizeCompressionMode

	// ChromaStepWidthMultiplier scales chroma step-widths relative to
	// luma (section 4.7).
	ChromaStepWidthMultiplier uint8
	// TemporalStepWidthModifier defaults to 48 (section 3).
	TemporalStepWidthModifier uint8

	// DeblockCorner/DeblockSide hold the deblocking coefficients
	// (section 4.7), each (16 - signalled).
	DeblockCorner, DeblockSide uint8

	// UserDataMode mirrors the user-data signalling mode.
	UserDataMode uint8

	// StreamVersion is the write-once version tag read from the first
	// V-Nova SEI, or forced via Options.ForceBitstreamVersion.
	StreamVersion int
	versionLocked bool

	// QuantMatrixEverSet tracks whether any picture has ever populated
	// GlobalConfig's notion of "a matrix has been set", used by
	// parseQuantMatrixLOQ's UsePrevious fallback rule (section 4 of
	// SPEC_FULL.md, "Quant-matrix LOQ0 parsing modes").
	QuantMatrixEverSet bool

	opts Options
}

// TileSizeCompressionMode selects how per-chunk compressed sizes are
// derived (section 4.6).
type TileSizeCompressionMode int

const (
	TileSizeCompressionNone TileSizeCompressionMode = iota
	TileSizeCompressionPrefix
	TileSizeCompressionPrefixOnDiff
)

// GlobalConfigInit returns a zero-value GlobalConfig with
// TemporalStepWidthModifier defaulted to 48 and StreamVersion set from
// forceVersion if provided.
func GlobalConfigInit(opts Options) *GlobalConfig {
	g := &GlobalConfig{
		TemporalStepWidthModifier: 48,
		opts:                      opts,
	}
	if opts.ForceBitstreamVersion != nil {
		g.StreamVersion = *opts.ForceBitstreamVersion
		g.versionLocked = true
	}
	return g
}

// ChunkDescriptor is one (plane, LOQ, tile, layer) or (plane, tile)
// temporal chunk (section 3). Data borrows into the byte slice passed to
// ConfigsParse; ChunkDescriptor never owns its own backing array.
type ChunkDescriptor struct {
	Data           []byte
	EntropyEnabled bool
	RLEOnly        bool
}

// FrameConfig is the one-picture-lifetime configuration described in
// section 3. Reset between pictures via FrameConfigReset.
type FrameConfig struct {
	// IsIDR/EnhancementEnabled mirror nal_unit_type and
	// !no_enhancement_flag. ConfigsParse does not read the NAL header:
	// the caller sets IsIDR (for example from nal.Unit.IsIDR) before
	// parsing.
	IsIDR              bool
	EnhancementEnabled bool

	PictureType PictureType
	FieldType   FieldType

	TemporalRefresh           bool
	TemporalSignallingPresent bool

	// StepWidth holds the 15-bit per-LOQ step-width.
	StepWidth [numLOQ]uint16

	QuantMatrixMode QuantMatrixMode
	// QuantMatrix[0] is LOQ0's matrix, QuantMatrix[1] is LOQ1's; both
	// are 16-entry per section 3.
	QuantMatrix [numLOQ][16]uint8

	DequantOffsetSignalled bool
	DequantOffset          uint8

	DitherEnabled  bool
	DitherType     DitherType
	DitherStrength uint8

	DeblockEnabled bool

	SharpenType     uint8
	SharpenStrength uint8

	// LOQEnabled mirrors the per-LOQ "loq enabled" flag.
	LOQEnabled [numLOQ]bool

	// buffer is released back to the allocator on FrameConfigRelease if
	// set. Nothing in this package fills it: chunk descriptors borrow from
	// the slice passed to ConfigsParse.
	buffer []byte

	// Chunks is the flat chunk-descriptor array described in section
	// 4.6.
	Chunks []ChunkDescriptor

	// ResidualChunkBase[p][loq] and TemporalChunkBase[p] are the two
	// index tables described in section 3.
	ResidualChunkBase [maxPlanes][numLOQ]int
	TemporalChunkBase [maxPlanes]int

	alloc memory.Allocator
}

// FrameConfigInit returns a new, empty FrameConfig holding alloc, which
// FrameConfigRelease uses to free buffer. The chunk array is grown with
// make (see ensureChunkCapacity), not through alloc, and command buffers
// take their own allocator. If alloc is nil, memory.Default{} is used.
func FrameConfigInit(alloc memory.Allocator) *FrameConfig {
	if alloc == nil {
		alloc = memory.Default{}
	}
	return &FrameConfig{alloc: alloc}
}

// FrameConfigReset clears f for the next picture, keeping its backing
// chunk array (grown again via the check-then-commit discipline in
// chunk.go's ensureChunkCapacity) rather than releasing it back to the
// allocator — this is the "reset, not release" distinction section 5 of
// SPEC_FULL.md calls out as present in the original but dropped by the
// distillation.
func FrameConfigReset(f *FrameConfig) {
	chunks := f.Chunks[:0]
	*f = FrameConfig{
		Chunks: chunks,
		alloc:  f.alloc,
	}
}

// FrameConfigRelease returns f's buffer (if set) to its allocator, drops
// the chunk array, and zeroes f. Call this instead of FrameConfigReset when the host is
// done with the FrameConfig entirely (for example, on stream teardown).
func FrameConfigRelease(f *FrameConfig) {
	if f.buffer != nil {
		f.alloc.Free(f.buffer)
	}
	*f = FrameConfig{alloc: f.alloc}
}
