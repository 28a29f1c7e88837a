/*
DESCRIPTION
  tuaddr.go implements C8: the TU address generator. A TuWalker converts
  a linear TU index within a tile into (x,y) TU coordinates, scanning in
  block-major order (tiled or temporally-signalled streams) or plain
  raster order (untiled, non-temporal streams), per section 4.8's address
  generation rule. The block-major grouping size is always 32x32 pixels,
  which is 16x16 TUs for DD and 8x8 TUs for DDS (section 3/4.8); block-
  major scanning assumes tile dimensions are a multiple of that TU-space
  block size, true for the two fixed tile classes and expected to be
  enforced on custom tile sizes by the caller.

AUTHORS
  LCEVC enhancement core contributors.
*/

package enhancement

// ddBlockTUs and ddsBlockTUs are the side length, in TUs, of the
// block-major square block for each transform: both correspond to the
// same 32x32-pixel block, just expressed in the transform's own TU
// granularity (2x2 for DD, 4x4 for DDS).
const (
	ddBlockTUs  = 16
	ddsBlockTUs = 8
)

// blockSizeTUs returns the block-major square block's side length in TUs
// for t.
func blockSizeTUs(t TransformType) int {
	if t == TransformDDS {
		return ddsBlockTUs
	}
	return ddBlockTUs
}

// TuWalker generates the sequence of TU coordinates within a
// tileWidthTUs x tileHeightTUs tile.
type TuWalker struct {
	widthTUs, heightTUs int
	blockMajor          bool
	blockTUs            int

	blocksPerRow int
}

// NewTuWalker returns a TuWalker for a tile of the given TU dimensions.
// transform selects the block-major block size (16x16 TUs for DD, 8x8
// for DDS). blockMajor selects block-major scanning (used whenever the
// picture is tiled or carries temporal signalling, section 4.8);
// otherwise the scan is plain row-major raster order.
func NewTuWalker(widthTUs, heightTUs int, transform TransformType, blockMajor bool) *TuWalker {
	w := &TuWalker{widthTUs: widthTUs, heightTUs: heightTUs, blockMajor: blockMajor, blockTUs: blockSizeTUs(transform)}
	if blockMajor {
		w.blocksPerRow = (widthTUs + w.blockTUs - 1) / w.blockTUs
	}
	return w
}

// TotalTUs returns the total number of TUs in this walker's tile.
func (w *TuWalker) TotalTUs() int {
	return w.widthTUs * w.heightTUs
}

// CoordsAt returns the (x,y) TU coordinates for the index-th TU visited
// by this walker's scan order.
func (w *TuWalker) CoordsAt(index int) (x, y int) {
	if !w.blockMajor {
		return index % w.widthTUs, index / w.widthTUs
	}
	return w.blockMajorCoords(index)
}

// IsBlockStart reports whether index is the first TU of a block-major
// group; for raster scans every TU starting a new row counts as a block
// start, matching the convention decode.go uses to decide when a
// temporal clear-run boundary aligns with a TU boundary.
func (w *TuWalker) IsBlockStart(index int) bool {
	if !w.blockMajor {
		return index%w.widthTUs == 0
	}
	x, y := w.blockMajorCoords(index)
	return x%w.blockTUs == 0 && y%w.blockTUs == 0
}

// BlockAlignedIndex returns the linear index of the first TU in the
// block that contains the index-th TU.
func (w *TuWalker) BlockAlignedIndex(index int) int {
	if !w.blockMajor {
		row := index / w.widthTUs
		return row * w.widthTUs
	}
	x, y := w.blockMajorCoords(index)
	blockX := (x / w.blockTUs) * w.blockTUs
	blockY := (y / w.blockTUs) * w.blockTUs
	return w.linearIndexOf(blockX, blockY)
}

// BlockTUCount returns the number of TUs in the block containing index:
// blockTUs*blockTUs for block-major scans, or the tile's row width for
// raster scans (where a "block" is one row).
func (w *TuWalker) BlockTUCount(index int) int {
	if !w.blockMajor {
		return w.widthTUs
	}
	return w.blockTUs * w.blockTUs
}

// TUsRemainingInBlock returns how many further TUs remain in the block
// containing index, counted exclusive of index itself, clamped to the
// tile's actual TU count. This collapses the two index-arithmetic
// branches the original's precomputed tuPerRow/tuPerBlock fields drove
// into one generic computation, since both reduce to "distance to the
// next block boundary".
func (w *TuWalker) TUsRemainingInBlock(index int) int {
	remaining := w.BlockAlignedIndex(index) + w.BlockTUCount(index) - index - 1
	if maxRemaining := w.TotalTUs() - index - 1; remaining > maxRemaining {
		remaining = maxRemaining
	}
	return remaining
}

// blockMajorCoords maps a linear index to (x,y) under block-major
// scanning: blocks are visited in raster order across the tile, and
// within each block, TUs are visited in raster order too.
func (w *TuWalker) blockMajorCoords(index int) (x, y int) {
	tusPerBlockRow := w.blockTUs * w.blockTUs
	blockIdx := index / tusPerBlockRow
	within := index % tusPerBlockRow

	blockCol := blockIdx % w.blocksPerRow
	blockRow := blockIdx / w.blocksPerRow

	localX := within % w.blockTUs
	localY := within / w.blockTUs

	return blockCol*w.blockTUs + localX, blockRow*w.blockTUs + localY
}

// linearIndexOf is the inverse of blockMajorCoords/raster CoordsAt for a
// coordinate known to be a block-aligned origin.
func (w *TuWalker) linearIndexOf(x, y int) int {
	if !w.blockMajor {
		return y*w.widthTUs + x
	}
	blockCol := x / w.blockTUs
	blockRow := y / w.blockTUs
	blockIdx := blockRow*w.blocksPerRow + blockCol
	return blockIdx * w.blockTUs * w.blockTUs
}
