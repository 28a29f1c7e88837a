package enhancement

import "testing"

func TestTuWalkerRasterOrder(t *testing.T) {
	w := NewTuWalker(4, 3, TransformDD, false)
	if got := w.TotalTUs(); got != 12 {
		t.Fatalf("TotalTUs: got %d, want 12", got)
	}

	for i := 0; i < 12; i++ {
		x, y := w.CoordsAt(i)
		wantX, wantY := i%4, i/4
		if x != wantX || y != wantY {
			t.Fatalf("CoordsAt(%d): got (%d,%d), want (%d,%d)", i, x, y, wantX, wantY)
		}
	}

	for i := 0; i < 12; i++ {
		want := i%4 == 0
		if got := w.IsBlockStart(i); got != want {
			t.Fatalf("IsBlockStart(%d): got %v, want %v", i, got, want)
		}
	}
}

func TestTuWalkerRasterBlockTUCountIsRowWidth(t *testing.T) {
	w := NewTuWalker(5, 2, TransformDD, false)
	for i := 0; i < 10; i++ {
		if got := w.BlockTUCount(i); got != 5 {
			t.Fatalf("BlockTUCount(%d): got %d, want 5", i, got)
		}
	}
}

func TestTuWalkerBlockMajorSingleBlockDD(t *testing.T) {
	// DD's block-major block is 16x16 TUs (32x32 pixels at 2x2 TUs):
	// block-major coordinates degrade to plain raster order within it.
	w := NewTuWalker(ddBlockTUs, ddBlockTUs, TransformDD, true)
	for _, idx := range []int{0, 1, ddBlockTUs, ddBlockTUs + 1, ddBlockTUs*ddBlockTUs - 1} {
		x, y := w.CoordsAt(idx)
		wantX, wantY := idx%ddBlockTUs, idx/ddBlockTUs
		if x != wantX || y != wantY {
			t.Fatalf("CoordsAt(%d): got (%d,%d), want (%d,%d)", idx, x, y, wantX, wantY)
		}
	}
	if !w.IsBlockStart(0) {
		t.Fatal("index 0 should be a block start")
	}
	if w.IsBlockStart(1) {
		t.Fatal("index 1 should not be a block start")
	}
}

func TestTuWalkerBlockMajorSingleBlockDDS(t *testing.T) {
	// DDS's block-major block is 8x8 TUs (32x32 pixels at 4x4 TUs).
	w := NewTuWalker(ddsBlockTUs, ddsBlockTUs, TransformDDS, true)
	for _, idx := range []int{0, 1, ddsBlockTUs, ddsBlockTUs + 1, ddsBlockTUs*ddsBlockTUs - 1} {
		x, y := w.CoordsAt(idx)
		wantX, wantY := idx%ddsBlockTUs, idx/ddsBlockTUs
		if x != wantX || y != wantY {
			t.Fatalf("CoordsAt(%d): got (%d,%d), want (%d,%d)", idx, x, y, wantX, wantY)
		}
	}
	if !w.IsBlockStart(0) {
		t.Fatal("index 0 should be a block start")
	}
	if w.IsBlockStart(1) {
		t.Fatal("index 1 should not be a block start")
	}
}

func TestTuWalkerBlockMajorTwoBlocksWide(t *testing.T) {
	// Two DD blocks side by side (32 TUs wide, 16 tall): index
	// ddBlockTUs*ddBlockTUs is the first TU of the second block (block
	// col 1, row 0).
	w := NewTuWalker(ddBlockTUs*2, ddBlockTUs, TransformDD, true)
	secondBlockStart := ddBlockTUs * ddBlockTUs
	x, y := w.CoordsAt(secondBlockStart)
	if x != ddBlockTUs || y != 0 {
		t.Fatalf("CoordsAt(%d): got (%d,%d), want (%d,0)", secondBlockStart, x, y, ddBlockTUs)
	}
	if !w.IsBlockStart(secondBlockStart) {
		t.Fatal("second block's first TU should be a block start")
	}
	if got := w.BlockAlignedIndex(secondBlockStart + 5); got != secondBlockStart {
		t.Fatalf("BlockAlignedIndex: got %d, want %d", got, secondBlockStart)
	}
}

func TestTuWalkerBlockSizeDependsOnTransform(t *testing.T) {
	if got := blockSizeTUs(TransformDD); got != ddBlockTUs {
		t.Fatalf("blockSizeTUs(DD): got %d, want %d", got, ddBlockTUs)
	}
	if got := blockSizeTUs(TransformDDS); got != ddsBlockTUs {
		t.Fatalf("blockSizeTUs(DDS): got %d, want %d", got, ddsBlockTUs)
	}
}

func TestTuWalkerTUsRemainingInBlockClampsToTileEnd(t *testing.T) {
	w := NewTuWalker(4, 1, TransformDD, false)
	// Raster "blocks" are rows; the last TU in the tile has nothing left
	// in its row or in the tile.
	if got := w.TUsRemainingInBlock(3); got != 0 {
		t.Fatalf("TUsRemainingInBlock(3): got %d, want 0", got)
	}
	if got := w.TUsRemainingInBlock(0); got != 3 {
		t.Fatalf("TUsRemainingInBlock(0): got %d, want 3", got)
	}
}
