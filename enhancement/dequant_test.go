package enhancement

import "testing"

func TestDeriveDequantTableAppliesTemporalModifier(t *testing.T) {
	g := &GlobalConfig{
		Transform:                 TransformDD,
		TemporalEnabled:           true,
		TemporalStepWidthModifier: 32, // half-strength relative to the 64 "unity" divisor
	}
	f := &FrameConfig{}
	f.StepWidth[LOQ0] = 64
	f.QuantMatrix[LOQ0] = [16]uint8{32, 32, 32, 32}

	table := DeriveDequantTable(g, f, PlaneLuma, LOQ0)

	// Intra: base step width untouched by the temporal modifier.
	if got := table[TemporalIntra].stepWidth[0]; got != 64 {
		t.Fatalf("intra stepWidth[0]: got %d, want 64", got)
	}
	// Inter: base*modifier/64 = 64*32/64 = 32.
	if got := table[TemporalInter].stepWidth[0]; got != 32 {
		t.Fatalf("inter stepWidth[0]: got %d, want 32", got)
	}
}

func TestDeriveDequantTableChromaMultiplier(t *testing.T) {
	g := &GlobalConfig{
		Transform:                 TransformDD,
		ChromaStepWidthMultiplier: 32, // half-strength for chroma planes
	}
	f := &FrameConfig{}
	f.StepWidth[LOQ0] = 64
	f.QuantMatrix[LOQ0] = [16]uint8{32, 32, 32, 32}

	luma := DeriveDequantTable(g, f, PlaneLuma, LOQ0)
	chroma := DeriveDequantTable(g, f, PlaneCb, LOQ0)

	if got := luma[TemporalIntra].stepWidth[0]; got != 64 {
		t.Fatalf("luma stepWidth[0]: got %d, want 64", got)
	}
	if got := chroma[TemporalIntra].stepWidth[0]; got != 32 {
		t.Fatalf("chroma stepWidth[0]: got %d, want 32", got)
	}
}

func TestDequantizeClampsToInt16Range(t *testing.T) {
	p := dequantParams{}
	p.stepWidth[0] = 1 << 20
	got := p.Dequantize(1000, 0)
	if got != 32767 {
		t.Fatalf("Dequantize overflow: got %d, want clamped 32767", got)
	}

	p.stepWidth[0] = -(1 << 20)
	got = p.Dequantize(1000, 0)
	if got != -32768 {
		t.Fatalf("Dequantize underflow: got %d, want clamped -32768", got)
	}
}
