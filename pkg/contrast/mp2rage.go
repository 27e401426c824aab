package contrast

import (
	"mp2rage/pkg/volume"
)

// MakeMP2RAGE recombines two signed inversion images into the MP2RAGE
// ratio contrast with regularization term beta:
//
//	(inv1*inv2 - beta) / (|inv1|^2 + |inv2|^2 + 2*beta)
//
// computed per voxel, with a zero denominator yielding zero. Both
// inversions must be polarity-corrected (that is, signed).
//
// beta = 0 reproduces the unregularized MP2RAGE formula exactly. Larger
// beta relative to the true signal energy drives noise-dominated voxels
// toward zero while leaving high-SNR voxels near their unregularized
// ratio value; this is the background suppression step.
func MakeMP2RAGE(inv1, inv2 *volume.Volume, beta float64) *volume.Volume {
	out := volume.NewLike(inv1)
	for i := range inv1.Data {
		s1 := inv1.Data[i]
		s2 := inv2.Data[i]
		num := s1*s2 - beta
		den := s1*s1 + s2*s2 + 2*beta
		out.Data[i] = safeDivide(num, den)
	}
	return out
}

// UnsignedParams configures MakeMP2RAGEFromUnsigned.
type UnsignedParams struct {
	// Strength is the unitless background suppression strength. It is
	// multiplied by the estimated noise standard deviation of the
	// second inversion to obtain the regularization term beta. Zero
	// disables suppression entirely.
	Strength float64

	// RangeIn is the storage range of the UNI input. When nil the
	// range is inferred from the array's minimum and maximum.
	RangeIn *Range

	// RangeOut is the numeric range of the returned volume.
	RangeOut Range

	// NoiseWindow is the corner cube edge length used for noise
	// estimation; values smaller than 1 select DefaultNoiseWindow.
	NoiseWindow int
}

// MakeMP2RAGEFromUnsigned computes the background-suppressed MP2RAGE
// contrast from the three unsigned scanner outputs: it rescales the UNI
// image into UNIRange, recovers the signed first inversion, estimates
// the noise level from the second inversion, recombines with
// beta = Strength * noise, and rescales the result into RangeOut.
//
// The inputs must be co-registered volumes of identical shape; callers
// are expected to have validated alignment before invoking the math.
func MakeMP2RAGEFromUnsigned(inv1, inv2, uni *volume.Volume, p UnsignedParams) *volume.Volume {
	scaled := Rescale(uni, p.RangeIn, UNIRange)
	signed1 := EstimateSignedInv1(inv1, inv2, scaled)

	// The second inversion needs no polarity correction, so its
	// unsigned and signed images are identical and the suppression
	// strength can be normalized by its background noise level.
	noise := EstimateNoise(inv2, p.NoiseWindow)
	beta := p.Strength * noise

	combined := MakeMP2RAGE(signed1, inv2, beta)
	return Rescale(combined, &UNIRange, p.RangeOut)
}
