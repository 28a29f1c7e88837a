/*
DESCRIPTION
  cmdbuffer_gpu.go implements the GPU half of C10: a fixed-slot,
  absolute-indexed command array. Unlike the CPU arena, every TU has a
  reserved slot up front (sized from the tile's TU total), so a GPU
  consumer can address any TU directly without replaying a delta chain.
  Because slot order carries no meaning for an absolute-indexed layout,
  CmdBufferGPUBuilder only counts the slots Append wrote; nothing is
  reordered — see the file's
  Build doc comment for why this departs from the CPU side's two-phase
  append/split shape.

AUTHORS
  LCEVC enhancement core contributors.
*/

package enhancement

import "github.com/v-nova-go/lcevc-enhancement/memory"

// GPUOperation is the GPU command-buffer opcode set (section 4.9);
// it extends CommandKind's vocabulary with ClearAndSet, a fused
// operation the GPU path uses where the CPU path emits a delta-indexed
// CmdClear.
type GPUOperation int

const (
	GPUOpAdd GPUOperation = iota
	GPUOpSet
	GPUOpSetZero
	GPUOpClearAndSet
)

func (o GPUOperation) String() string {
	switch o {
	case GPUOpAdd:
		return "Add"
	case GPUOpSet:
		return "Set"
	case GPUOpSetZero:
		return "SetZero"
	case GPUOpClearAndSet:
		return "ClearAndSet"
	default:
		return "Unknown"
	}
}

// GPUSlot is one absolute-indexed entry in a CmdBufferGPU.
type GPUSlot struct {
	Operation GPUOperation
	Residuals []int16
}

// CmdBufferGPU is the fixed-slot absolute-indexed command array
// described in section 4.9. Slots default to the zero value
// (GPUOpAdd with nil Residuals, i.e. "untouched") until Append writes
// them.
type CmdBufferGPU struct {
	alloc     memory.Allocator
	numLayers int
	slots     []GPUSlot
	written   []bool
}

// NewCmdBufferGPU returns a CmdBufferGPU with tuTotal pre-sized slots.
func NewCmdBufferGPU(alloc memory.Allocator, numLayers, tuTotal int) *CmdBufferGPU {
	if alloc == nil {
		alloc = memory.Default{}
	}
	return &CmdBufferGPU{
		alloc:     alloc,
		numLayers: numLayers,
		slots:     make([]GPUSlot, tuTotal),
		written:   make([]bool, tuTotal),
	}
}

// CmdBufferGPUBuilder accumulates the set of slots Append has written
// this tile, so Build can report how many were touched without a second
// pass over the full slot array.
type CmdBufferGPUBuilder struct {
	touched int
}

// NewCmdBufferGPUBuilder returns a fresh builder for one tile's worth of
// Append calls against a CmdBufferGPU.
func NewCmdBufferGPUBuilder() *CmdBufferGPUBuilder {
	return &CmdBufferGPUBuilder{}
}

// Append writes one operation into g's slot at index. rasterOrder
// records whether index was computed directly from tuIndex (true) or
// from a block-aligned absolute index (false); both are valid absolute
// slot addresses into g, so Append does not need to transform index
// itself — the caller (decode.go) has already resolved it the same way
// it resolves a CPU command's delta target.
func (g *CmdBufferGPU) Append(builder *CmdBufferGPUBuilder, op GPUOperation, residuals []int32, index int, rasterOrder bool) error {
	_ = rasterOrder
	if index < 0 || index >= len(g.slots) {
		return newErrorf(ErrInvalidArgument, nil, "GPU command index %d out of range [0,%d)", index, len(g.slots))
	}

	slot := GPUSlot{Operation: op}
	if op == GPUOpAdd || op == GPUOpSet || op == GPUOpClearAndSet {
		if residuals != nil {
			slot.Residuals = make([]int16, g.numLayers)
			for i, v := range residuals {
				slot.Residuals[i] = clampInt16(v)
			}
		}
	}

	if !g.written[index] {
		builder.touched++
	}
	g.slots[index] = slot
	g.written[index] = true
	return nil
}

// Slots returns g's full fixed-slot array. Append writes into it
// directly, so it reflects every Append made so far, with or without a
// Build call.
func (g *CmdBufferGPU) Slots() []GPUSlot {
	return g.slots
}

// Build finalizes builder's bookkeeping against g. Because a
// fixed-slot absolute-indexed buffer's entries are independently
// addressable, there is nothing to reorder here regardless of
// rasterOrder. Build does not modify g: a slot Append never touched
// keeps its zero value (the implicit "no residual" GPUOpAdd default).
// Build returns the touched-slot count for diagnostics.
func (g *CmdBufferGPU) Build(builder *CmdBufferGPUBuilder, rasterOrder bool) int {
	_ = rasterOrder
	return builder.touched
}
