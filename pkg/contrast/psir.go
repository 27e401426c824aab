package contrast

import (
	"math"

	"mp2rage/pkg/volume"
)

// PSIRLimit bounds the PSIR contrast: computed values outside
// [-PSIRLimit, PSIRLimit] are clamped to the nearest bound.
const PSIRLimit = 2.0

// sign returns -1, 0 or 1 according to the sign of x.
func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// clamp limits x to the interval [lo, hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// MakePSIR combines two inversion images into the phase-sensitive
// inversion recovery contrast, a sibling of the MP2RAGE formula that
// needs no UNI image:
//
//	psir = (|inv1| * f) / (|inv1| + |inv2|)
//
// where f is the per-voxel polarity, the sign of inv1*inv2 (the real
// part of conj(inv1)*inv2 for real-valued inputs). A zero denominator
// yields zero, and edge-case voxels are clamped to
// [-PSIRLimit, PSIRLimit].
func MakePSIR(inv1, inv2 *volume.Volume) *volume.Volume {
	out := volume.NewLike(inv1)
	for i := range inv1.Data {
		s1 := inv1.Data[i]
		s2 := inv2.Data[i]

		// polarity correction factor
		f := sign(s1 * s2)

		num := math.Abs(s1) * f
		den := math.Abs(num) + math.Abs(s2)
		out.Data[i] = clamp(safeDivide(num, den), -PSIRLimit, PSIRLimit)
	}
	return out
}

// MakePSIRFromUnsigned computes the PSIR contrast from unsigned scanner
// outputs by first recovering the signed first inversion from the UNI
// ratio image. rangeIn is the storage range of the UNI input, inferred
// from the data when nil. The result stays in the natural PSIR range
// [-PSIRLimit, PSIRLimit].
func MakePSIRFromUnsigned(inv1, inv2, uni *volume.Volume, rangeIn *Range) *volume.Volume {
	scaled := Rescale(uni, rangeIn, UNIRange)
	signed1 := EstimateSignedInv1(inv1, inv2, scaled)
	return MakePSIR(signed1, inv2)
}
