package niftiio

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"mp2rage/pkg/volume"
)

// DataType selects the voxel storage type of a written NIfTI file,
// using the standard NIfTI-1 datatype codes.
type DataType int16

const (
	// Int16 stores voxels as signed 16-bit integers (DT_SIGNED_SHORT).
	Int16 DataType = 4

	// Float32 stores voxels as single-precision floats (DT_FLOAT).
	Float32 DataType = 16
)

// nifti1Header is the 348-byte NIfTI-1 header, laid out for direct
// binary encoding.
type nifti1Header struct {
	SizeOfHdr    int32
	DataType0    [10]byte // unused, Analyze compatibility
	DBName       [18]byte // unused
	Extents      int32    // unused
	SessionError int16    // unused
	Regular      byte     // unused
	DimInfo      byte

	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XyztUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	Toffset       float32
	Glmax         int32 // unused
	Glmin         int32 // unused

	Descrip [80]byte
	AuxFile [24]byte

	QformCode int16
	SformCode int16

	QuaternB float32
	QuaternC float32
	QuaternD float32
	QoffsetX float32
	QoffsetY float32
	QoffsetZ float32

	SrowX [4]float32
	SrowY [4]float32
	SrowZ [4]float32

	IntentName [16]byte

	Magic [4]byte
}

// voxOffset is the start of voxel data in a single-file NIfTI: the
// 348-byte header followed by a 4-byte empty extension indicator.
const voxOffset = 352

// spatialUnitsMM is the NIFTI_UNITS_MM code for the xyzt_units field.
const spatialUnitsMM = 2

// Write stores the volume as a single-file NIfTI-1 image with the given
// voxel storage type. Paths ending in .gz are gzip-compressed. For
// Int16 output, voxel values are rounded to nearest and clamped to the
// int16 range.
func Write(path string, v *volume.Volume, dtype DataType) error {
	hdr, err := buildHeader(v, dtype)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	defer f.Close()

	var w io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(f)
		defer gz.Close()
		w = gz
	}

	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("cannot write header of %s: %w", path, err)
	}
	// Empty extension indicator: no header extensions follow.
	if err := binary.Write(w, binary.LittleEndian, [4]byte{}); err != nil {
		return fmt.Errorf("cannot write extension flag of %s: %w", path, err)
	}

	switch dtype {
	case Int16:
		payload := make([]int16, len(v.Data))
		for i, val := range v.Data {
			payload[i] = roundToInt16(val)
		}
		err = binary.Write(w, binary.LittleEndian, payload)
	case Float32:
		payload := make([]float32, len(v.Data))
		for i, val := range v.Data {
			payload[i] = float32(val)
		}
		err = binary.Write(w, binary.LittleEndian, payload)
	default:
		err = fmt.Errorf("unsupported datatype code %d", dtype)
	}
	if err != nil {
		return fmt.Errorf("cannot write voxel data of %s: %w", path, err)
	}

	return nil
}

// buildHeader fills a NIfTI-1 header describing the volume.
func buildHeader(v *volume.Volume, dtype DataType) (nifti1Header, error) {
	var hdr nifti1Header

	var bitpix int16
	switch dtype {
	case Int16:
		bitpix = 16
	case Float32:
		bitpix = 32
	default:
		return hdr, fmt.Errorf("unsupported datatype code %d", dtype)
	}

	hdr.SizeOfHdr = 348
	hdr.Dim = [8]int16{3, int16(v.Width), int16(v.Height), int16(v.Depth), 1, 1, 1, 1}
	hdr.Datatype = int16(dtype)
	hdr.Bitpix = bitpix
	hdr.Pixdim = [8]float32{
		1,
		float32(v.Transform.Spacing(0)),
		float32(v.Transform.Spacing(1)),
		float32(v.Transform.Spacing(2)),
		1, 1, 1, 1,
	}
	hdr.VoxOffset = voxOffset
	hdr.SclSlope = 1
	hdr.XyztUnits = spatialUnitsMM

	// Store the IJK-to-physical transform as the sform.
	hdr.SformCode = 1
	for j := 0; j < 4; j++ {
		hdr.SrowX[j] = float32(v.Transform[0][j])
		hdr.SrowY[j] = float32(v.Transform[1][j])
		hdr.SrowZ[j] = float32(v.Transform[2][j])
	}

	copy(hdr.Magic[:], "n+1\x00")
	return hdr, nil
}

// roundToInt16 rounds to nearest and clamps to the int16 range.
func roundToInt16(val float64) int16 {
	r := math.Round(val)
	if r > math.MaxInt16 {
		return math.MaxInt16
	}
	if r < math.MinInt16 {
		return math.MinInt16
	}
	return int16(r)
}
