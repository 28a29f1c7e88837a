/*
DESCRIPTION
  dequant.go implements the dequantization half of C7: per-(temporal
  signal, layer) step width and offset derivation from a picture's
  step-width and quant-matrix fields (section 4.7), applied to a decoded
  transform-domain coefficient before the inverse transform runs. Both
  temporal states' tables are derived once per (plane, loq) at tile
  setup, mirroring decode.c's single calculateDequant call per tile
  rather than recomputing per TU.

AUTHORS
  LCEVC enhancement core contributors.
*/

package enhancement

// dequantParams holds the per-layer multiplier and additive offset a
// coefficient is scaled by before the inverse transform, for one LOQ and
// one temporal signal (inter coefficients use a modified step width
// relative to intra, section 4.7).
type dequantParams struct {
	stepWidth [16]int32
	offset    [16]int32
}

// DequantTable holds both temporal states' dequantParams for one
// (plane, loq), indexed by TemporalSignal.
type DequantTable [2]dequantParams

// DeriveDequantTable computes both the TemporalInter and TemporalIntra
// dequantParams for (plane, loq), applying the chroma step-width
// multiplier when plane is not luma and the temporal step-width modifier
// to the inter entry.
func DeriveDequantTable(g *GlobalConfig, f *FrameConfig, plane Plane, loq LOQ) DequantTable {
	var table DequantTable
	table[TemporalIntra] = deriveDequantParams(g, f, plane, loq, TemporalIntra)
	table[TemporalInter] = deriveDequantParams(g, f, plane, loq, TemporalInter)
	return table
}

// deriveDequantParams computes dequantParams for loq from f and g,
// applying the chroma step-width multiplier when plane is not luma and
// the temporal step-width modifier when signal is TemporalInter.
func deriveDequantParams(g *GlobalConfig, f *FrameConfig, plane Plane, loq LOQ, signal TemporalSignal) dequantParams {
	numLayers := g.Transform.NumLayers()
	base := int32(f.StepWidth[loq])

	if plane != PlaneLuma && g.ChromaStepWidthMultiplier != 0 {
		base = base * int32(g.ChromaStepWidthMultiplier) / 64
	}
	if signal == TemporalInter && g.TemporalEnabled {
		base = base * int32(g.TemporalStepWidthModifier) / 64
	}

	var params dequantParams
	offsetBase := int32(0)
	if f.DequantOffsetSignalled {
		offsetBase = int32(f.DequantOffset)
	}

	for layer := 0; layer < numLayers; layer++ {
		scale := int32(f.QuantMatrix[loq][layer%16])
		params.stepWidth[layer] = base * scale / 32
		params.offset[layer] = offsetBase * scale / 32
	}

	return params
}

// Dequantize scales coeff (a decoded transform-domain residual for the
// given layer) by p's step width and offset, per decode.c's inline
// application: coeff*stepWidth + offset, clamped to the int16 range
// before the inverse transform consumes it.
func (p dequantParams) Dequantize(coeff int16, layer int) int32 {
	v := int32(coeff)*p.stepWidth[layer] + p.offset[layer]
	return int32(clampInt16(v))
}
