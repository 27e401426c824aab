// Package contrast implements the MP2RAGE background suppression math:
// linear range rescaling, polarity recovery from the scanner-combined
// UNI image, background noise estimation, and the regularized
// two-inversion recombination, plus the sibling PSIR contrast.
//
// All operations are deterministic, single-pass elementwise transforms
// over whole volumes. Division by zero at a voxel always yields zero at
// that voxel, never NaN or Inf.
package contrast

import (
	"mp2rage/pkg/volume"
)

// Range is a closed numeric interval used when remapping voxel values
// between physical and storage scales.
type Range struct {
	Min, Max float64
}

// UNIRange is the symmetric physical range of the MP2RAGE ratio
// contrast. All recombination math operates on UNI data scaled into
// this interval, with the zero point at the midpoint.
var UNIRange = Range{Min: -0.5, Max: 0.5}

// StorageRange is the integer storage range conventionally used by
// scanners for MP2RAGE UNI images (12-bit).
var StorageRange = Range{Min: 0, Max: 4095}

// Rescale linearly remaps voxel values so that in.Min maps to out.Min
// and in.Max maps to out.Max. When in is nil the input range is taken
// from the volume's actual minimum and maximum. If the input and output
// ranges are numerically identical the volume is returned unchanged,
// avoiding a needless floating-point round trip.
//
// A degenerate input range (in.Max == in.Min) is a caller error: it
// produces infinities rather than being guarded here, since the only
// callers supply either a known-valid storage range or an array-derived
// range.
func Rescale(v *volume.Volume, in *Range, out Range) *volume.Volume {
	var rin Range
	if in == nil {
		rin.Min, rin.Max = v.MinMax()
	} else {
		rin = *in
	}

	if rin == out {
		return v
	}

	// Two-point linear equation: map rin endpoints onto out endpoints.
	scale := (out.Max - out.Min) / (rin.Max - rin.Min)
	shift := out.Min - scale*rin.Min

	res := volume.NewLike(v)
	for i, val := range v.Data {
		res.Data[i] = scale*val + shift
	}
	return res
}
