package volume

import (
	"math"
	"strings"
	"testing"
)

// fillGradient assigns each voxel a unique, increasing value
func fillGradient(v *Volume) {
	for i := range v.Data {
		v.Data[i] = float64(i)
	}
}

// TestIndexing verifies the flat row-major indexing convention
func TestIndexing(t *testing.T) {
	v := New(3, 4, 5)
	fillGradient(v)

	if v.NumVoxels() != 60 {
		t.Errorf("Expected 60 voxels, got %d", v.NumVoxels())
	}

	// Idx must match z*Width*Height + y*Width + x
	if got := v.Idx(2, 3, 4); got != 4*12+3*3+2 {
		t.Errorf("Idx(2,3,4): expected %d, got %d", 4*12+3*3+2, got)
	}

	v.Set(1, 2, 3, -7.5)
	if got := v.At(1, 2, 3); got != -7.5 {
		t.Errorf("At(1,2,3): expected -7.5, got %g", got)
	}
}

// TestMinMax verifies the value range helper
func TestMinMax(t *testing.T) {
	v := New(2, 2, 2)
	copy(v.Data, []float64{3, -1, 0, 7, 2, 2, -4, 5})

	min, max := v.MinMax()
	if min != -4 || max != 7 {
		t.Errorf("Expected range [-4, 7], got [%g, %g]", min, max)
	}
}

// TestScalingTransform verifies spacing extraction from the transform
func TestScalingTransform(t *testing.T) {
	a := Scaling(0.7, 0.7, 1.5)

	for axis, want := range []float64{0.7, 0.7, 1.5} {
		if got := a.Spacing(axis); math.Abs(got-want) > 1e-12 {
			t.Errorf("Spacing(%d): expected %g, got %g", axis, want, got)
		}
	}
}

// TestCheckAlignment verifies the geometry precondition checks that must
// reject mismatched inputs before any computation runs
func TestCheckAlignment(t *testing.T) {
	names := []string{"UNI", "INV1", "INV2"}

	t.Run("Aligned", func(t *testing.T) {
		a, b, c := New(4, 4, 4), New(4, 4, 4), New(4, 4, 4)
		if err := CheckAlignment(names, []*Volume{a, b, c}); err != nil {
			t.Errorf("Aligned volumes should pass, got: %v", err)
		}
	})

	t.Run("ShapeMismatch", func(t *testing.T) {
		a, b, c := New(4, 4, 4), New(4, 4, 4), New(4, 4, 5)
		err := CheckAlignment(names, []*Volume{a, b, c})
		if err == nil {
			t.Fatal("Shape mismatch should be rejected")
		}
		if !strings.Contains(err.Error(), "INV2") || !strings.Contains(err.Error(), "UNI") {
			t.Errorf("Error should name the offending input and the reference, got: %v", err)
		}
	})

	t.Run("TransformMismatch", func(t *testing.T) {
		a, b, c := New(4, 4, 4), New(4, 4, 4), New(4, 4, 4)
		b.Transform[0][0] += 1e-12 // well beyond tolerance
		err := CheckAlignment(names, []*Volume{a, b, c})
		if err == nil {
			t.Fatal("Transform mismatch should be rejected")
		}
		if !strings.Contains(err.Error(), "INV1") {
			t.Errorf("Error should name the offending input, got: %v", err)
		}
		if !strings.Contains(err.Error(), "transform") {
			t.Errorf("Error should identify the mismatch kind, got: %v", err)
		}
	})

	t.Run("TransformWithinTolerance", func(t *testing.T) {
		a, b := New(4, 4, 4), New(4, 4, 4)
		b.Transform[1][1] += 5e-16 // below the 1e-15 tolerance
		if err := CheckAlignment([]string{"UNI", "INV1"}, []*Volume{a, b}); err != nil {
			t.Errorf("Sub-tolerance difference should pass, got: %v", err)
		}
	})

	t.Run("MissingVolume", func(t *testing.T) {
		a := New(4, 4, 4)
		err := CheckAlignment([]string{"UNI", "INV1"}, []*Volume{a, nil})
		if err == nil {
			t.Fatal("Missing volume should be rejected")
		}
		if !strings.Contains(err.Error(), "INV1") {
			t.Errorf("Error should name the missing input, got: %v", err)
		}
	})
}

// TestNewLike verifies that derived volumes inherit shape and transform
func TestNewLike(t *testing.T) {
	ref := New(3, 2, 1)
	ref.Transform = Scaling(1, 2, 3)
	fillGradient(ref)

	v := NewLike(ref)
	if !v.SameShape(ref) {
		t.Errorf("NewLike should preserve shape")
	}
	if v.Transform != ref.Transform {
		t.Errorf("NewLike should preserve the transform")
	}
	for i, val := range v.Data {
		if val != 0 {
			t.Errorf("NewLike should zero-fill data, got %g at %d", val, i)
			break
		}
	}
}
