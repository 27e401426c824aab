package visualization

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"mp2rage/pkg/volume"
)

// gradientVolume builds a volume where each z-slice has a unique value
func gradientVolume(w, h, d int) *volume.Volume {
	v := volume.New(w, h, d)
	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v.Set(x, y, z, float64(z))
			}
		}
	}
	return v
}

// TestNewViewer verifies that the display window defaults to the
// volume's value range
func TestNewViewer(t *testing.T) {
	v := gradientVolume(10, 10, 5)
	viewer := NewViewer(v, 2)

	if viewer.windowMin != 0 || viewer.windowMax != 4 {
		t.Errorf("Expected window [0, 4], got [%g, %g]", viewer.windowMin, viewer.windowMax)
	}
	if viewer.workers != 2 {
		t.Errorf("Expected 2 workers, got %d", viewer.workers)
	}

	// Less than one worker falls back to a single worker
	if got := NewViewer(v, 0).workers; got != 1 {
		t.Errorf("Expected 1 worker, got %d", got)
	}
}

// TestExtractSlice verifies slice dimensions and windowed gray values
// along each axis
func TestExtractSlice(t *testing.T) {
	v := gradientVolume(10, 8, 5)
	viewer := NewViewer(v, 1)

	t.Run("ZSlice", func(t *testing.T) {
		img, err := viewer.ExtractSlice("z", 4)
		if err != nil {
			t.Fatalf("Failed to extract z slice: %v", err)
		}

		bounds := img.Bounds()
		if bounds.Dx() != 10 || bounds.Dy() != 8 {
			t.Errorf("Expected 10x8 slice, got %dx%d", bounds.Dx(), bounds.Dy())
		}

		// The top z-slice sits at the top of the display window
		if got := img.At(3, 3).(color.Gray16).Y; got != 65535 {
			t.Errorf("Expected full white at the window maximum, got %d", got)
		}
	})

	t.Run("XSlice", func(t *testing.T) {
		img, err := viewer.ExtractSlice("x", 0)
		if err != nil {
			t.Fatalf("Failed to extract x slice: %v", err)
		}

		bounds := img.Bounds()
		if bounds.Dx() != 5 || bounds.Dy() != 8 {
			t.Errorf("Expected 5x8 slice, got %dx%d", bounds.Dx(), bounds.Dy())
		}
	})

	t.Run("YSlice", func(t *testing.T) {
		img, err := viewer.ExtractSlice("y", 7)
		if err != nil {
			t.Fatalf("Failed to extract y slice: %v", err)
		}

		bounds := img.Bounds()
		if bounds.Dx() != 10 || bounds.Dy() != 5 {
			t.Errorf("Expected 10x5 slice, got %dx%d", bounds.Dx(), bounds.Dy())
		}
	})

	t.Run("InvalidAxis", func(t *testing.T) {
		if _, err := viewer.ExtractSlice("w", 0); err == nil {
			t.Error("Invalid axis should be rejected")
		}
	})

	t.Run("OutOfRangePosition", func(t *testing.T) {
		if _, err := viewer.ExtractSlice("z", 5); err == nil {
			t.Error("Out-of-range position should be rejected")
		}
		if _, err := viewer.ExtractSlice("z", -1); err == nil {
			t.Error("Negative position should be rejected")
		}
	})
}

// TestExtractRegion verifies 3D subregion extraction
func TestExtractRegion(t *testing.T) {
	v := gradientVolume(10, 10, 5)
	viewer := NewViewer(v, 1)

	region, err := viewer.ExtractRegion(2, 3, 1, 4, 4, 2)
	if err != nil {
		t.Fatalf("Failed to extract region: %v", err)
	}

	if region.Width != 4 || region.Height != 4 || region.Depth != 2 {
		t.Errorf("Expected 4x4x2 region, got %dx%dx%d", region.Width, region.Height, region.Depth)
	}

	// Values come from the source positions
	if got := region.At(0, 0, 0); got != 1 {
		t.Errorf("Expected value 1 from source slice z=1, got %g", got)
	}
	if got := region.At(0, 0, 1); got != 2 {
		t.Errorf("Expected value 2 from source slice z=2, got %g", got)
	}

	// Out-of-bounds regions are rejected
	if _, err := viewer.ExtractRegion(8, 8, 4, 4, 4, 2); err == nil {
		t.Error("Region extending beyond the volume should be rejected")
	}
	if _, err := viewer.ExtractRegion(-1, 0, 0, 2, 2, 2); err == nil {
		t.Error("Negative start should be rejected")
	}
}

// TestSaveSliceSequence verifies that a PNG per position is written
func TestSaveSliceSequence(t *testing.T) {
	v := gradientVolume(6, 6, 4)
	viewer := NewViewer(v, 2)

	dir, err := os.MkdirTemp("", "mp2rage-viewer-test-*")
	if err != nil {
		t.Fatalf("Failed to create temporary directory: %v", err)
	}
	defer os.RemoveAll(dir)

	if err := viewer.SaveSliceSequence("z", dir); err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "slice_z_*.png"))
	if err != nil {
		t.Fatalf("Failed to list output files: %v", err)
	}
	if len(matches) != 4 {
		t.Errorf("Expected 4 slice files, got %d", len(matches))
	}

	if err := viewer.SaveSliceSequence("w", dir); err == nil {
		t.Error("Invalid axis should be rejected")
	}
}
