// Package visualization extracts 2D quality-control slices from a
// computed contrast volume and saves them as PNG sequences. It is a
// host-layer convenience around the contrast pipeline output; nothing
// here feeds back into the math.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"mp2rage/pkg/volume"
)

// Viewer extracts and saves 2D slices of a 3D contrast volume.
type Viewer struct {
	// vol holds the volume being viewed
	vol *volume.Volume

	// windowMin and windowMax define the display window: windowMin maps
	// to black and windowMax to full white
	windowMin float64
	windowMax float64

	// workers is the number of goroutines used when saving a slice
	// sequence
	workers int
}

// NewViewer creates a viewer for the given volume. The display window
// defaults to the volume's actual value range. workers sets the number
// of goroutines used for sequence export; values smaller than 1 select
// a single worker.
func NewViewer(vol *volume.Volume, workers int) *Viewer {
	min, max := vol.MinMax()
	if workers < 1 {
		workers = 1
	}
	return &Viewer{
		vol:       vol,
		windowMin: min,
		windowMax: max,
		workers:   workers,
	}
}

// SetWindow overrides the display window used when mapping voxel values
// to grayscale.
func (v *Viewer) SetWindow(min, max float64) {
	v.windowMin = min
	v.windowMax = max
}

// gray maps a voxel value into the display window as 16-bit grayscale.
func (v *Viewer) gray(value float64) color.Gray16 {
	extent := v.windowMax - v.windowMin
	if extent <= 0 {
		return color.Gray16{Y: 0}
	}
	norm := (value - v.windowMin) / extent
	if norm < 0 {
		norm = 0
	} else if norm > 1 {
		norm = 1
	}
	return color.Gray16{Y: uint16(norm * 65535)}
}

// ExtractSlice extracts a 2D slice from the volume along the specified
// axis at the given position.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.Gray16

	switch axis {
	case "x", "X":
		// Extract slice along YZ plane
		if position >= v.vol.Width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.vol.Width)
		}

		img = image.NewGray16(image.Rect(0, 0, v.vol.Depth, v.vol.Height))
		for y := 0; y < v.vol.Height; y++ {
			for z := 0; z < v.vol.Depth; z++ {
				img.SetGray16(z, y, v.gray(v.vol.At(position, y, z)))
			}
		}

	case "y", "Y":
		// Extract slice along XZ plane
		if position >= v.vol.Height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.vol.Height)
		}

		img = image.NewGray16(image.Rect(0, 0, v.vol.Width, v.vol.Depth))
		for z := 0; z < v.vol.Depth; z++ {
			for x := 0; x < v.vol.Width; x++ {
				img.SetGray16(x, z, v.gray(v.vol.At(x, position, z)))
			}
		}

	case "z", "Z":
		// Extract slice along XY plane
		if position >= v.vol.Depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.vol.Depth)
		}

		img = image.NewGray16(image.Rect(0, 0, v.vol.Width, v.vol.Height))
		for y := 0; y < v.vol.Height; y++ {
			for x := 0; x < v.vol.Width; x++ {
				img.SetGray16(x, y, v.gray(v.vol.At(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// ExtractRegion extracts a 3D subregion of the volume. The returned
// volume keeps the source transform.
func (v *Viewer) ExtractRegion(startX, startY, startZ, sizeX, sizeY, sizeZ int) (*volume.Volume, error) {
	// Validate parameters
	if startX < 0 || startY < 0 || startZ < 0 {
		return nil, fmt.Errorf("start coordinates must be non-negative")
	}

	if sizeX <= 0 || sizeY <= 0 || sizeZ <= 0 {
		return nil, fmt.Errorf("size dimensions must be positive")
	}

	if startX+sizeX > v.vol.Width || startY+sizeY > v.vol.Height || startZ+sizeZ > v.vol.Depth {
		return nil, fmt.Errorf("region extends beyond volume boundaries")
	}

	region := volume.New(sizeX, sizeY, sizeZ)
	region.Transform = v.vol.Transform

	for z := 0; z < sizeZ; z++ {
		for y := 0; y < sizeY; y++ {
			for x := 0; x < sizeX; x++ {
				region.Set(x, y, z, v.vol.At(startX+x, startY+y, startZ+z))
			}
		}
	}

	return region, nil
}

// SaveSlice saves an extracted slice as a PNG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SaveSliceSequence extracts and saves a sequence of slices along the
// specified axis, one PNG per position, distributing the work across
// the configured number of workers.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.vol.Width
	case "y", "Y":
		maxPos = v.vol.Height
	case "z", "Z":
		maxPos = v.vol.Depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	// Divide the positions among the available workers
	var wg sync.WaitGroup
	errs := make([]error, v.workers)
	perWorker := (maxPos + v.workers - 1) / v.workers

	for w := 0; w < v.workers; w++ {
		wg.Add(1)

		go func(workerID int) {
			defer wg.Done()

			start := workerID * perWorker
			end := (workerID + 1) * perWorker
			if end > maxPos {
				end = maxPos
			}

			for pos := start; pos < end; pos++ {
				img, err := v.ExtractSlice(axis, pos)
				if err != nil {
					errs[workerID] = err
					return
				}

				filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
				if err := v.SaveSlice(img, filename); err != nil {
					errs[workerID] = err
					return
				}
			}
		}(w)
	}

	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
