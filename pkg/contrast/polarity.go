package contrast

import (
	"math"

	"mp2rage/pkg/volume"
)

// safeDivide returns a/b, or 0 when b is zero.
func safeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// EstimateSignedInv1 reconstructs the polarity-corrected first inversion
// from the two unsigned magnitude images and the UNI ratio image:
//
//	signed1 = (uni / |inv2|) * (|inv1|^2 + |inv2|^2)
//
// computed per voxel, with the ratio defined as zero wherever inv2 is
// zero. The UNI volume must already be scaled into UNIRange with a
// correct zero point.
//
// The UNI image is defined on the scanner as
// (inv1*inv2) / (|inv1|^2 + |inv2|^2); inverting that relation for
// known unsigned magnitudes recovers the signed numerator. This only
// works because the second inversion is assumed positive-rising at its
// inversion time and therefore needs no polarity correction of its own,
// an assumption that holds for all reasonable MP2RAGE acquisition
// parameters.
func EstimateSignedInv1(inv1, inv2, uni *volume.Volume) *volume.Volume {
	out := volume.NewLike(uni)
	for i := range uni.Data {
		s1 := math.Abs(inv1.Data[i])
		s2 := math.Abs(inv2.Data[i])
		out.Data[i] = safeDivide(uni.Data[i], s2) * (s1*s1 + s2*s2)
	}
	return out
}
