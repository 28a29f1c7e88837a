/*
DESCRIPTION
  cmdbuffer_cpu.go implements the CPU half of C10: an append-only,
  delta-indexed command arena. Each command records how many TUs to
  advance since the previous command (rather than an absolute TU index),
  which keeps the arena compact for sparse residual surfaces. Split marks
  a set of roughly even entry points into the arena so a host can hand
  contiguous slices to separate worker threads for parallel application.

AUTHORS
  LCEVC enhancement core contributors.
*/

package enhancement

import "github.com/v-nova-go/lcevc-enhancement/memory"

// CPUCommand is one entry in a CmdBufferCPU: an operation together with
// the TU-index delta from the previous command, and the operation's
// residual payload (nil for CmdSetZero and CmdClear, which carry no
// data).
type CPUCommand struct {
	Kind      CommandKind
	Delta     int
	Residuals []int16
}

// CmdBufferCPU is the append-only delta-indexed command arena described
// in section 4.9.
type CmdBufferCPU struct {
	alloc     memory.Allocator
	numLayers int

	entries []CPUCommand

	// EntryPoints holds indices into entries marking split boundaries,
	// populated by Split.
	EntryPoints []int

	// SplitCount, when > 1, tells DecodeEnhancementTile to call Split
	// with this worker count once the tile's commands are all appended.
	// Zero (the default) means the host has no parallel-apply workers
	// and wants EntryPoints left empty.
	SplitCount int
}

// NewCmdBufferCPU returns an empty CmdBufferCPU sized for numLayers
// residual values per Add/Set command.
func NewCmdBufferCPU(alloc memory.Allocator, numLayers int) *CmdBufferCPU {
	if alloc == nil {
		alloc = memory.Default{}
	}
	return &CmdBufferCPU{alloc: alloc, numLayers: numLayers}
}

// Append adds one command to the arena. residuals is copied (not
// retained by reference) so callers may reuse their working buffer
// across calls; it is ignored for CmdSetZero and CmdClear.
func (b *CmdBufferCPU) Append(kind CommandKind, residuals []int32, delta int) error {
	if delta < 0 {
		return newErrorf(ErrInvalidArgument, nil, "negative command delta %d", delta)
	}

	cmd := CPUCommand{Kind: kind, Delta: delta}
	if kind == CmdAdd || kind == CmdSet {
		if len(residuals) != b.numLayers {
			return newErrorf(ErrInvalidArgument, nil, "residual count %d != numLayers %d", len(residuals), b.numLayers)
		}
		cmd.Residuals = make([]int16, b.numLayers)
		for i, v := range residuals {
			cmd.Residuals[i] = clampInt16(v)
		}
	}

	b.entries = append(b.entries, cmd)
	return nil
}

// Commands returns the arena's entries in append order.
func (b *CmdBufferCPU) Commands() []CPUCommand {
	return b.entries
}

// Split populates EntryPoints with splitCount-1 interior boundaries,
// dividing the arena into splitCount roughly equal contiguous runs a
// host can apply concurrently, one worker per run. Calling Split with
// splitCount<=1 clears EntryPoints (no split requested).
func (b *CmdBufferCPU) Split(splitCount int) {
	if splitCount <= 1 || len(b.entries) == 0 {
		b.EntryPoints = nil
		return
	}
	if splitCount > len(b.entries) {
		splitCount = len(b.entries)
	}

	points := make([]int, 0, splitCount-1)
	step := len(b.entries) / splitCount
	for i := 1; i < splitCount; i++ {
		points = append(points, i*step)
	}
	b.EntryPoints = points
}

// clampInt16 saturates v to the int16 range, matching the original
// decoder's clampS32(..., INT16_MIN, INT16_MAX) dequant saturation.
func clampInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
