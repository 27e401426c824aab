// Package volume provides the dense 3D voxel grid type shared by all
// contrast computations, together with the spatial alignment checks that
// must pass before any math runs on a set of co-registered inputs.
package volume

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// TransformTolerance is the absolute per-entry tolerance used when
// comparing the IJK-to-physical transforms of co-registered volumes.
const TransformTolerance = 1e-15

// Affine is a 4x4 matrix mapping voxel indices (i,j,k,1) to physical
// scanner coordinates, stored in row-major order.
type Affine [4][4]float64

// Identity returns the identity transform.
func Identity() Affine {
	var a Affine
	for i := 0; i < 4; i++ {
		a[i][i] = 1
	}
	return a
}

// Scaling returns a transform that maps voxel indices to physical
// coordinates using the given voxel spacings in mm.
func Scaling(dx, dy, dz float64) Affine {
	a := Identity()
	a[0][0] = dx
	a[1][1] = dy
	a[2][2] = dz
	return a
}

// Spacing returns the physical voxel spacing along the given axis
// (0, 1 or 2), computed as the norm of the corresponding transform column.
func (a Affine) Spacing(axis int) float64 {
	return math.Sqrt(a[0][axis]*a[0][axis] + a[1][axis]*a[1][axis] + a[2][axis]*a[2][axis])
}

// Volume represents a dense 3D voxel grid with spatial metadata.
type Volume struct {
	// Data is the voxel data as a 1D array in row-major order,
	// indexed as z*Width*Height + y*Width + x.
	Data []float64

	// Width is the width of the volume in voxels
	Width int

	// Height is the height of the volume in voxels
	Height int

	// Depth is the depth of the volume in voxels
	Depth int

	// Transform maps voxel indices to physical coordinates. It is
	// carried alongside the data and propagated unchanged through the
	// contrast pipeline; the math itself never consumes it.
	Transform Affine
}

// New creates a zero-filled volume with the given dimensions and an
// identity transform.
func New(width, height, depth int) *Volume {
	return &Volume{
		Data:      make([]float64, width*height*depth),
		Width:     width,
		Height:    height,
		Depth:     depth,
		Transform: Identity(),
	}
}

// NewLike creates a zero-filled volume with the same dimensions and
// transform as the reference volume.
func NewLike(ref *Volume) *Volume {
	v := New(ref.Width, ref.Height, ref.Depth)
	v.Transform = ref.Transform
	return v
}

// NumVoxels returns the total number of voxels in the grid.
func (v *Volume) NumVoxels() int {
	return v.Width * v.Height * v.Depth
}

// Idx returns the flat index of voxel (x, y, z).
func (v *Volume) Idx(x, y, z int) int {
	return z*v.Width*v.Height + y*v.Width + x
}

// At returns the value of voxel (x, y, z).
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[v.Idx(x, y, z)]
}

// Set assigns the value of voxel (x, y, z).
func (v *Volume) Set(x, y, z int, value float64) {
	v.Data[v.Idx(x, y, z)] = value
}

// MinMax returns the minimum and maximum voxel values.
func (v *Volume) MinMax() (min, max float64) {
	return floats.Min(v.Data), floats.Max(v.Data)
}

// SameShape reports whether two volumes have identical grid dimensions.
func (v *Volume) SameShape(o *Volume) bool {
	return v.Width == o.Width && v.Height == o.Height && v.Depth == o.Depth
}

// sameTransform reports whether two transforms match entrywise within
// TransformTolerance.
func sameTransform(a, b Affine) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(a[i][j]-b[i][j]) > TransformTolerance {
				return false
			}
		}
	}
	return true
}

// CheckAlignment verifies that every volume shares the first volume's
// grid shape and IJK-to-physical transform. names provides the label
// reported for each volume when a mismatch is found. The first volume
// is the reference; a mismatch is a hard precondition failure and is
// reported before any computation runs.
func CheckAlignment(names []string, vols []*Volume) error {
	if len(vols) == 0 {
		return nil
	}
	if len(names) != len(vols) {
		return fmt.Errorf("alignment check requires one name per volume, got %d names for %d volumes",
			len(names), len(vols))
	}

	ref := vols[0]
	if ref == nil {
		return fmt.Errorf("input volume %s is missing", names[0])
	}

	for i := 1; i < len(vols); i++ {
		v := vols[i]
		if v == nil {
			return fmt.Errorf("input volume %s is missing", names[i])
		}
		if !sameTransform(ref.Transform, v.Transform) {
			return fmt.Errorf("IJK-to-physical transform of %s does not match that of %s: "+
				"double-check your data and re-sample to a common grid if necessary",
				names[i], names[0])
		}
		if !ref.SameShape(v) {
			return fmt.Errorf("voxel array of %s is %dx%dx%d but %s is %dx%dx%d: "+
				"double-check your data and re-sample to a common grid if necessary",
				names[i], v.Width, v.Height, v.Depth,
				names[0], ref.Width, ref.Height, ref.Depth)
		}
	}

	return nil
}
