/*
DESCRIPTION
  transform.go implements the inverse-transform half of C7: the 2x2
  inverse Hadamard (DD) and the 4x4 inverse Hadamard (DDS, factored as a
  horizontal DD pass followed by a vertical DD pass) described in section
  4.8, the DDS 1D-scaling variant (section 4.7's "DDS with 1D scaling"),
  plus ApplyDeblocking, which only ever runs against a DDS block's output
  at LOQ1 (decode.go checks that gate once per tile rather than
  threading it through every call here).

  Two entry points are exported, InverseTransformDD/DDS and
  InverseTransformDDScalar/DDSScalar: the non-scalar names are reserved
  for a future architecture-specific path and currently alias the scalar
  implementation, since this module carries no Go assembly. Options.
  ForceScalar is therefore always satisfied; see DESIGN.md for why no
  vector path is implemented here.

  SelectDDSTransform mirrors the reference decoder's
  transformGetFunction(transform, scaling, forceScalar): decode.go calls
  it once per tile, with GlobalConfig.Scaling[LOQ0] at LOQ0 and Scaling2D
  at LOQ1, rather than branching on scaling mode inside the per-TU loop.

AUTHORS
  LCEVC enhancement core contributors.
*/

package enhancement

// InverseTransformDD applies the 2x2 inverse Hadamard transform to a
// 4-coefficient DD block, in raster order (top-left, top-right,
// bottom-left, bottom-right), per section 4.8's butterfly definition:
//
//	a = c0+c1+c2+c3
//	b = c0-c1+c2-c3
//	c = c0+c1-c2-c3
//	d = c0-c1-c2+c3
func InverseTransformDD(coeffs [4]int32) [4]int32 {
	c0, c1, c2, c3 := coeffs[0], coeffs[1], coeffs[2], coeffs[3]
	return [4]int32{
		c0 + c1 + c2 + c3,
		c0 - c1 + c2 - c3,
		c0 + c1 - c2 - c3,
		c0 - c1 - c2 + c3,
	}
}

// InverseTransformDDScalar is the scalar reference path for
// InverseTransformDD; see the file doc comment for why it currently
// aliases it.
func InverseTransformDDScalar(coeffs [4]int32) [4]int32 { return InverseTransformDD(coeffs) }

// InverseTransformDDS applies the 4x4 inverse Hadamard transform to a
// 16-coefficient DDS block by factoring it into 4 horizontal DD passes
// over rows followed by 4 vertical DD passes over the resulting columns,
// per section 4.8's "DDS factors as DD horizontal-then-vertical" note.
// Input and output are both in raster order, row-major.
func InverseTransformDDS(coeffs [16]int32) [16]int32 {
	var rows [4][4]int32
	for r := 0; r < 4; r++ {
		row := [4]int32{coeffs[r*4], coeffs[r*4+1], coeffs[r*4+2], coeffs[r*4+3]}
		out := inverseHadamard4(row)
		rows[r] = out
	}

	var result [16]int32
	for c := 0; c < 4; c++ {
		col := [4]int32{rows[0][c], rows[1][c], rows[2][c], rows[3][c]}
		out := inverseHadamard4(col)
		for r := 0; r < 4; r++ {
			result[r*4+c] = out[r]
		}
	}

	return result
}

// InverseTransformDDSScalar is the scalar reference path for
// InverseTransformDDS; see the file doc comment for why it currently
// aliases it.
func InverseTransformDDSScalar(coeffs [16]int32) [16]int32 { return InverseTransformDDS(coeffs) }

// InverseTransformDDS1D applies the DDS transform's 1D-scaling variant
// (section 4.7): used for LOQ0 when the LOQ1->LOQ0 upscale is
// horizontal-only, so the enhancement layer only needs to contribute two
// independent output rows rather than DDS's usual four. The horizontal
// pass runs unchanged (full horizontal detail is retained); the vertical
// pass collapses to a single 2-point inverse Hadamard over the two
// even-indexed row outputs (vertical detail carried by the odd rows is
// folded away rather than reconstructed), and each of the two resulting
// rows is duplicated to fill the 4x4 output grid.
func InverseTransformDDS1D(coeffs [16]int32) [16]int32 {
	var rows [4][4]int32
	for r := 0; r < 4; r++ {
		row := [4]int32{coeffs[r*4], coeffs[r*4+1], coeffs[r*4+2], coeffs[r*4+3]}
		rows[r] = inverseHadamard4(row)
	}

	var result [16]int32
	for c := 0; c < 4; c++ {
		s0 := rows[0][c] + rows[2][c]
		s1 := rows[0][c] - rows[2][c]
		result[0*4+c] = s0
		result[1*4+c] = s0
		result[2*4+c] = s1
		result[3*4+c] = s1
	}

	return result
}

// InverseTransformDDS1DScalar is the scalar reference path for
// InverseTransformDDS1D; see the file doc comment for why it currently
// aliases it.
func InverseTransformDDS1DScalar(coeffs [16]int32) [16]int32 { return InverseTransformDDS1D(coeffs) }

// SelectDDSTransform returns the DDS inverse-transform function for
// scaling, per the reference decoder's transformGetFunction: Scaling1D
// selects the row-halving variant, every other mode (Scaling2D/Scaling0D
// both retain full vertical detail at the transform stage, differing
// only in how a later upscale stage treats the result) uses the regular
// 4x4 transform.
func SelectDDSTransform(scaling ScalingMode) func([16]int32) [16]int32 {
	if scaling == Scaling1D {
		return InverseTransformDDS1D
	}
	return InverseTransformDDS
}

// inverseHadamard4 is the 1-D, 4-point inverse Hadamard butterfly DDS
// factors into two passes of, following the same additive/subtractive
// pairing as InverseTransformDD generalized to 4 taps.
func inverseHadamard4(v [4]int32) [4]int32 {
	s0, s1 := v[0]+v[1], v[0]-v[1]
	s2, s3 := v[2]+v[3], v[2]-v[3]
	return [4]int32{s0 + s2, s1 + s3, s0 - s2, s1 - s3}
}

// ApplyDeblocking scales a 4x4 DDS residual block's corner and mid-edge
// samples by GlobalConfig's DeblockCorner/DeblockSide coefficients,
// matching decode.c's deblockResiduals: deblocking only ever applies to
// the DDS transform's LOQ1 output, gated on the frame's deblock-enabled
// flag, which callers must check before calling (decode.go does so once
// per tile rather than per TU). The 4x4 grid is laid out
//
//	 0  1  4  5
//	 2  3  6  7
//	 8  9 12 13
//	10 11 14 15
//
// with the four true corners at {0,5,10,15} and the eight mid-edge
// "side" samples at {1,4,2,7,8,13,11,14}; the four interior samples are
// untouched. Each selected sample is replaced by (coeff*sample)>>4, a
// direct multiply-and-shift rather than an attenuation toward zero.
func ApplyDeblocking(residual []int32, g *GlobalConfig) {
	corner := uint32(g.DeblockCorner)
	side := uint32(g.DeblockSide)

	cornerIdx := [4]int{0, 5, 10, 15}
	sideIdx := [8]int{1, 4, 2, 7, 8, 13, 11, 14}

	for _, i := range cornerIdx {
		if i < len(residual) {
			residual[i] = int32((corner * uint32(residual[i])) >> 4)
		}
	}
	for _, i := range sideIdx {
		if i < len(residual) {
			residual[i] = int32((side * uint32(residual[i])) >> 4)
		}
	}
}
