package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"mp2rage/internal/niftiio"
	"mp2rage/pkg/config"
	"mp2rage/pkg/contrast"
	"mp2rage/pkg/suppression"
	"mp2rage/pkg/visualization"
	"mp2rage/pkg/volume"
)

func main() {
	defaults := config.DefaultConfig()

	// Parse command line arguments
	contrastName := flag.String("contrast", "mp2rage", `Contrast to generate: "mp2rage" or "psir"`)
	uniPath := flag.String("uni", "", `Scanner-generated combined MP2RAGE image (named "UNI_Images" by Siemens); optional`)
	strength := flag.Float64("strength", defaults.Suppression.Strength,
		"Background suppression strength; the regularization term is strength * estimated noise stdev. 1000 generally works well")
	noiseWindow := flag.Int("noise-window", defaults.Suppression.NoiseWindow,
		"Edge length in voxels of the corner cube sampled for noise estimation")
	rangeIn := flag.String("range-in", "",
		`Explicit storage range of the UNI input as "min:max" (default: inferred from the data)`)
	outMin := flag.Float64("out-min", defaults.Rescale.OutputMin, "Minimum of the output storage range")
	outMax := flag.Float64("out-max", defaults.Rescale.OutputMax, "Maximum of the output storage range")
	inv1Phase := flag.String("inv1-phase", "", "Phase image of 1st inversion (not supported)")
	inv2Phase := flag.String("inv2-phase", "", "Phase image of 2nd inversion (not supported)")
	configPath := flag.String("config", "", "YAML configuration file")
	extractSlices := flag.Bool("extract-slices", false, "Extract and save 2D slices of the output volume for quality control")
	slicesDir := flag.String("slices-dir", defaults.Output.SlicesDir, "Directory to save extracted slices")
	quiet := flag.Bool("quiet", false, "Suppress progress logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: %s [flags] <inv1_mag> <inv2_mag> <out_file>\n\n"+
				"Given scanner MP2RAGE outputs, generate a denoised (background-suppressed) image.\n\n"+
				"Inputs are NIfTI (.nii, .nii.gz) or NumPy (.npy) volumes; the output is NIfTI.\n\nFlags:\n",
			os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(1)
	}
	inv1Path := flag.Arg(0)
	inv2Path := flag.Arg(1)
	outPath := flag.Arg(2)

	// Load configuration; explicitly set flags win over the config file
	cfg := defaults
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "strength":
			cfg.Suppression.Strength = *strength
		case "noise-window":
			cfg.Suppression.NoiseWindow = *noiseWindow
		case "out-min":
			cfg.Rescale.OutputMin = *outMin
		case "out-max":
			cfg.Rescale.OutputMax = *outMax
		case "extract-slices":
			cfg.Output.ExtractSlices = *extractSlices
		case "slices-dir":
			cfg.Output.SlicesDir = *slicesDir
		case "quiet":
			cfg.Output.Verbose = !*quiet
		}
	})

	// Phase-based polarity recovery is a deliberate scope limitation
	if *inv1Phase != "" || *inv2Phase != "" {
		log.Fatalf("Phase images were supplied but %v", suppression.ErrPhaseNotSupported)
	}

	// Determine the UNI input range
	inputRange, err := resolveInputRange(*rangeIn, cfg)
	if err != nil {
		log.Fatalf("Invalid -range-in: %v", err)
	}

	// Load input volumes
	inv1, err := niftiio.Read(inv1Path)
	if err != nil {
		log.Fatalf("Failed to read INV1: %v", err)
	}
	inv2, err := niftiio.Read(inv2Path)
	if err != nil {
		log.Fatalf("Failed to read INV2: %v", err)
	}
	var uni *volume.Volume
	if *uniPath != "" {
		if uni, err = niftiio.Read(*uniPath); err != nil {
			log.Fatalf("Failed to read UNI: %v", err)
		}
	}

	// Run the suppression pipeline
	params := &suppression.Params{
		Strength:    cfg.Suppression.Strength,
		RangeIn:     inputRange,
		RangeOut:    contrast.Range{Min: cfg.Rescale.OutputMin, Max: cfg.Rescale.OutputMax},
		NoiseWindow: cfg.Suppression.NoiseWindow,
		Verbose:     cfg.Output.Verbose,
	}
	suppressor := suppression.NewSuppressor(params)

	var out *volume.Volume
	var dtype niftiio.DataType
	switch strings.ToLower(*contrastName) {
	case "mp2rage":
		out, err = suppressor.Process(uni, inv1, inv2)
		dtype = niftiio.Int16
	case "psir":
		out, err = suppressor.ProcessPSIR(uni, inv1, inv2)
		dtype = niftiio.Float32
	default:
		log.Fatalf("Unknown contrast %q (choices: mp2rage, psir)", *contrastName)
	}
	if err != nil {
		log.Fatalf("Processing failed: %v", err)
	}

	if err := niftiio.Write(outPath, out, dtype); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
	if cfg.Output.Verbose {
		log.Printf("output saved to %s", outPath)
	}

	// Extract and save quality-control slices if requested
	if cfg.Output.ExtractSlices {
		viewer := visualization.NewViewer(out, runtime.NumCPU())

		for _, axis := range []string{"x", "y", "z"} {
			axisDir := filepath.Join(cfg.Output.SlicesDir, axis)
			if cfg.Output.Verbose {
				log.Printf("saving %s-axis slices to %s", axis, axisDir)
			}

			if err := viewer.SaveSliceSequence(axis, axisDir); err != nil {
				log.Printf("Warning: failed to save %s-axis slices: %v", axis, err)
			}
		}
	}
}

// resolveInputRange picks the UNI storage range: an explicit -range-in
// flag wins, then a non-auto configured range; nil means the range is
// inferred from the data.
func resolveInputRange(spec string, cfg *config.Config) (*contrast.Range, error) {
	if spec != "" {
		var r contrast.Range
		if _, err := fmt.Sscanf(spec, "%f:%f", &r.Min, &r.Max); err != nil {
			return nil, fmt.Errorf("expected \"min:max\", got %q", spec)
		}
		if r.Max <= r.Min {
			return nil, fmt.Errorf("max must be greater than min, got %q", spec)
		}
		return &r, nil
	}
	if !cfg.Rescale.AutoInputRange {
		return &contrast.Range{Min: cfg.Rescale.InputMin, Max: cfg.Rescale.InputMax}, nil
	}
	return nil, nil
}
