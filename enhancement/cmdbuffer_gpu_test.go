package enhancement

import "testing"

func TestCmdBufferGPUAppendAndSlots(t *testing.T) {
	g := NewCmdBufferGPU(nil, 2, 4)
	builder := NewCmdBufferGPUBuilder()

	if err := g.Append(builder, GPUOpSet, []int32{5, -5}, 1, true); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := g.Append(builder, GPUOpClearAndSet, []int32{1, 2}, 2, false); err != nil {
		t.Fatalf("Append: %v", err)
	}

	slots := g.Slots()
	if len(slots) != 4 {
		t.Fatalf("Slots length: got %d, want 4", len(slots))
	}
	if slots[0].Operation != GPUOpAdd || slots[0].Residuals != nil {
		t.Fatalf("untouched slot 0: got %+v, want zero-value GPUOpAdd", slots[0])
	}
	if slots[1].Operation != GPUOpSet || slots[1].Residuals[0] != 5 || slots[1].Residuals[1] != -5 {
		t.Fatalf("slot 1: got %+v", slots[1])
	}
	if slots[2].Operation != GPUOpClearAndSet {
		t.Fatalf("slot 2 operation: got %v, want GPUOpClearAndSet", slots[2].Operation)
	}

	touched := g.Build(builder, true)
	if touched != 2 {
		t.Fatalf("Build touched count: got %d, want 2", touched)
	}
}

func TestCmdBufferGPUAppendRejectsOutOfRangeIndex(t *testing.T) {
	g := NewCmdBufferGPU(nil, 1, 2)
	builder := NewCmdBufferGPUBuilder()

	if err := g.Append(builder, GPUOpAdd, []int32{1}, 2, true); err == nil {
		t.Fatal("expected error for out-of-range index, got nil")
	}
	if err := g.Append(builder, GPUOpAdd, []int32{1}, -1, true); err == nil {
		t.Fatal("expected error for negative index, got nil")
	}
}

func TestCmdBufferGPUBuilderTouchedCountDedupesRepeatedSlot(t *testing.T) {
	g := NewCmdBufferGPU(nil, 1, 4)
	builder := NewCmdBufferGPUBuilder()

	if err := g.Append(builder, GPUOpAdd, []int32{1}, 0, true); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := g.Append(builder, GPUOpSet, []int32{2}, 0, true); err != nil {
		t.Fatalf("Append: %v", err)
	}

	touched := g.Build(builder, true)
	if touched != 1 {
		t.Fatalf("touched count after repeated write to slot 0: got %d, want 1", touched)
	}
	if g.Slots()[0].Operation != GPUOpSet {
		t.Fatalf("slot 0 should hold the most recent write: got %v", g.Slots()[0].Operation)
	}
}

func TestCmdBufferGPUAppendClampsToInt16(t *testing.T) {
	g := NewCmdBufferGPU(nil, 1, 1)
	builder := NewCmdBufferGPUBuilder()

	if err := g.Append(builder, GPUOpAdd, []int32{100000}, 0, true); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := g.Slots()[0].Residuals[0]; got != 32767 {
		t.Fatalf("clamp: got %d, want 32767", got)
	}
}
