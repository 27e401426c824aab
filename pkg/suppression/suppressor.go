// Package suppression orchestrates the MP2RAGE background suppression
// pipeline around the contrast math: input validation, noise-scaled
// regularization, and propagation of spatial metadata from the primary
// input to the output. It owns everything a host application needs to
// turn three raw scanner volumes into one denoised contrast volume.
package suppression

import (
	"errors"
	"fmt"
	"log"
	"time"

	"mp2rage/pkg/contrast"
	"mp2rage/pkg/volume"
)

// ErrPhaseNotSupported is returned when phase-based polarity recovery is
// requested. Phase output on the scanner is unreliable, so
// reconstruction from phase images is deliberately not supported.
var ErrPhaseNotSupported = errors.New("phase-based polarity recovery is not supported")

// Params holds the suppression configuration.
type Params struct {
	// Strength is the unitless background suppression strength; the
	// regularization term is Strength times the estimated noise
	// standard deviation of the second inversion. Zero disables
	// suppression, reducing the pipeline to the plain MP2RAGE formula.
	Strength float64

	// RangeIn is the storage range of the UNI input. When nil the
	// range is inferred from the array's minimum and maximum.
	RangeIn *contrast.Range

	// RangeOut is the numeric range of the output volume.
	RangeOut contrast.Range

	// NoiseWindow is the edge length in voxels of the corner cube used
	// for noise estimation; values smaller than 1 select the default.
	NoiseWindow int

	// Verbose enables progress and timing logging.
	Verbose bool
}

// Suppressor runs the background suppression pipeline with a fixed set
// of parameters. Each Process call is an independent, single-pass
// computation; no state is shared across invocations.
type Suppressor struct {
	params *Params
}

// NewSuppressor creates a suppressor with the provided parameters.
func NewSuppressor(params *Params) *Suppressor {
	return &Suppressor{params: params}
}

// checkInputs validates the precondition that all present inputs are
// non-nil, co-registered volumes of identical shape. The reported names
// identify the offending input and the nature of the mismatch.
func checkInputs(uni, inv1, inv2 *volume.Volume) error {
	if inv1 == nil {
		return fmt.Errorf("input volume INV1 is missing")
	}
	if inv2 == nil {
		return fmt.Errorf("input volume INV2 is missing")
	}

	names := []string{"INV1", "INV2"}
	vols := []*volume.Volume{inv1, inv2}
	if uni != nil {
		names = append([]string{"UNI"}, names...)
		vols = append([]*volume.Volume{uni}, vols...)
	}
	return volume.CheckAlignment(names, vols)
}

// primaryTransform returns the transform of the volume whose spatial
// metadata is propagated to the output: the UNI image when present,
// otherwise the first inversion.
func primaryTransform(uni, inv1 *volume.Volume) volume.Affine {
	if uni != nil {
		return uni.Transform
	}
	return inv1.Transform
}

// Process computes the background-suppressed MP2RAGE contrast from the
// three unsigned scanner volumes. uni may be nil, in which case no
// polarity information is available and the real-valued magnitude-only
// reconstruction is used instead (with a logged warning).
//
// The output volume is in the configured output range and carries the
// spatial transform of the primary input. It either completes fully or
// fails before producing anything; there are no partial results.
func (s *Suppressor) Process(uni, inv1, inv2 *volume.Volume) (*volume.Volume, error) {
	if err := checkInputs(uni, inv1, inv2); err != nil {
		return nil, err
	}

	startTime := time.Now()
	if s.params.Verbose {
		log.Printf("processing started (strength=%g)", s.params.Strength)
	}

	var out *volume.Volume
	if uni == nil {
		log.Printf("warning: no polarity information was supplied, using the real-valued magnitude-only reconstruction")
		noise := contrast.EstimateNoise(inv2, s.params.NoiseWindow)
		beta := s.params.Strength * noise
		combined := contrast.MakeMP2RAGE(inv1, inv2, beta)
		out = contrast.Rescale(combined, &contrast.UNIRange, s.params.RangeOut)
	} else {
		out = contrast.MakeMP2RAGEFromUnsigned(inv1, inv2, uni, contrast.UnsignedParams{
			Strength:    s.params.Strength,
			RangeIn:     s.params.RangeIn,
			RangeOut:    s.params.RangeOut,
			NoiseWindow: s.params.NoiseWindow,
		})
	}

	// Copy spatial orientation from the primary input to the output.
	out.Transform = primaryTransform(uni, inv1)

	if s.params.Verbose {
		min, max := out.MinMax()
		log.Printf("output range is [%g, %g]", min, max)
		log.Printf("processing completed in %.2f seconds", time.Since(startTime).Seconds())
	}
	return out, nil
}

// ProcessPSIR computes the PSIR contrast from the same inputs as
// Process. uni may be nil, in which case polarity is taken directly
// from the unsigned magnitudes. The output stays in the natural PSIR
// range and carries the spatial transform of the primary input.
func (s *Suppressor) ProcessPSIR(uni, inv1, inv2 *volume.Volume) (*volume.Volume, error) {
	if err := checkInputs(uni, inv1, inv2); err != nil {
		return nil, err
	}

	startTime := time.Now()
	if s.params.Verbose {
		log.Printf("processing started (PSIR)")
	}

	var out *volume.Volume
	if uni == nil {
		log.Printf("warning: no polarity information was supplied, polarity is taken from the unsigned magnitudes")
		out = contrast.MakePSIR(inv1, inv2)
	} else {
		out = contrast.MakePSIRFromUnsigned(inv1, inv2, uni, s.params.RangeIn)
	}

	out.Transform = primaryTransform(uni, inv1)

	if s.params.Verbose {
		log.Printf("processing completed in %.2f seconds", time.Since(startTime).Seconds())
	}
	return out, nil
}
