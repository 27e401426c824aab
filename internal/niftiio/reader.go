// Package niftiio reads and writes the volumes consumed and produced by
// the contrast pipeline. It is host-integration glue: the math core
// only ever sees in-memory volumes, and this package is the boundary
// where storage types and file formats are handled.
package niftiio

import (
	"fmt"
	"os"
	"strings"

	"github.com/henghuang/nifti"
	"github.com/kshedden/gonpy"

	"mp2rage/pkg/volume"
)

// Read loads a 3D volume from a NIfTI (.nii, .nii.gz) or NumPy (.npy)
// file. For NIfTI inputs with a time dimension only the first timepoint
// is read. Voxel values are cast to float64; the storage type of the
// file does not survive into the returned volume.
func Read(path string) (*volume.Volume, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}

	if strings.HasSuffix(path, ".npy") {
		return readNpy(path)
	}
	return readNifti(path)
}

// readNifti loads a NIfTI-1 file. The volume transform is built from
// the header voxel spacings; orientation beyond spacing is not
// interpreted, so co-registered inputs resampled to a common grid
// compare as aligned.
func readNifti(path string) (*volume.Volume, error) {
	var img nifti.Nifti1Image
	img.LoadImage(path, true)

	var hdr nifti.Nifti1Header
	hdr.LoadHeader(path)

	dims := img.GetDims()
	nx, ny, nz := dims[0], dims[1], dims[2]
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("%s has an empty voxel grid (%dx%dx%d)", path, nx, ny, nz)
	}

	v := volume.New(nx, ny, nz)
	v.Transform = volume.Scaling(
		float64(hdr.Pixdim[1]),
		float64(hdr.Pixdim[2]),
		float64(hdr.Pixdim[3]),
	)

	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				v.Set(x, y, z, float64(img.GetAt(x, y, z, 0)))
			}
		}
	}

	return v, nil
}

// readNpy loads a 3D NumPy array saved in C order with shape
// (depth, height, width). npy files carry no spatial metadata, so the
// volume gets an identity transform.
func readNpy(path string) (*volume.Volume, error) {
	r, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open npy file %s: %w", path, err)
	}

	if len(r.Shape) != 3 {
		return nil, fmt.Errorf("%s: expected a 3-dimensional array, got %d dimensions", path, len(r.Shape))
	}
	if r.ColumnMajor {
		return nil, fmt.Errorf("%s: Fortran-order npy files are not supported", path)
	}

	data, err := r.GetFloat64()
	if err != nil {
		return nil, fmt.Errorf("cannot read npy file %s: %w", path, err)
	}

	v := volume.New(r.Shape[2], r.Shape[1], r.Shape[0])
	copy(v.Data, data)
	return v, nil
}
