package contrast

import (
	"gonum.org/v1/gonum/stat"

	"mp2rage/pkg/volume"
)

// DefaultNoiseWindow is the edge length in voxels of the cubic corner
// region sampled for background noise estimation.
const DefaultNoiseWindow = 16

// EstimateNoise estimates the background noise standard deviation of a
// magnitude image by sampling a cubic window anchored at the volume's
// origin corner, which is assumed to contain only air. window is the
// cube edge length in voxels; values smaller than 1 select
// DefaultNoiseWindow.
//
// The window is truncated on any axis shorter than the edge length, so
// undersized volumes produce a (less reliable) estimate from whatever
// corner region exists rather than an out-of-bounds failure. Fewer than
// two samples yield an estimate of zero.
func EstimateNoise(v *volume.Volume, window int) float64 {
	if window < 1 {
		window = DefaultNoiseWindow
	}

	wx, wy, wz := window, window, window
	if wx > v.Width {
		wx = v.Width
	}
	if wy > v.Height {
		wy = v.Height
	}
	if wz > v.Depth {
		wz = v.Depth
	}

	samples := make([]float64, 0, wx*wy*wz)
	for z := 0; z < wz; z++ {
		for y := 0; y < wy; y++ {
			for x := 0; x < wx; x++ {
				samples = append(samples, v.At(x, y, z))
			}
		}
	}

	if len(samples) < 2 {
		return 0
	}
	return stat.StdDev(samples, nil)
}
