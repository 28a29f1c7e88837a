package enhancement

import "testing"

func TestInverseTransformDD(t *testing.T) {
	got := InverseTransformDD([4]int32{4, 1, 2, 1})
	want := [4]int32{8, 4, 2, 2}
	if got != want {
		t.Fatalf("InverseTransformDD: got %v, want %v", got, want)
	}
}

func TestInverseTransformDDZero(t *testing.T) {
	got := InverseTransformDD([4]int32{0, 0, 0, 0})
	want := [4]int32{0, 0, 0, 0}
	if got != want {
		t.Fatalf("InverseTransformDD zero input: got %v, want %v", got, want)
	}
}

func TestInverseTransformDDS(t *testing.T) {
	// A DC-only input (only coeffs[0] set) should produce a flat output
	// equal to that DC value at every position, since every row/column
	// butterfly just fans the single value out additively.
	var coeffs [16]int32
	coeffs[0] = 16
	got := InverseTransformDDS(coeffs)
	for i, v := range got {
		if v != 16 {
			t.Fatalf("InverseTransformDDS DC-only: result[%d] = %d, want 16", i, v)
		}
	}
}

func TestApplyDeblockingCornerAndSideIndices(t *testing.T) {
	residual := make([]int32, 16)
	for i := range residual {
		residual[i] = 16
	}
	g := &GlobalConfig{DeblockCorner: 8, DeblockSide: 4}

	ApplyDeblocking(residual, g)

	for _, i := range []int{0, 5, 10, 15} {
		if want := int32((8 * 16) >> 4); residual[i] != want {
			t.Fatalf("corner index %d: got %d, want %d", i, residual[i], want)
		}
	}
	for _, i := range []int{1, 4, 2, 7, 8, 13, 11, 14} {
		if want := int32((4 * 16) >> 4); residual[i] != want {
			t.Fatalf("side index %d: got %d, want %d", i, residual[i], want)
		}
	}
	for _, i := range []int{3, 6, 9, 12} {
		if residual[i] != 16 {
			t.Fatalf("interior index %d should be untouched: got %d, want 16", i, residual[i])
		}
	}
}
