// Package config provides configuration loading and management for the
// mp2rage tools. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Suppression parameters
	Suppression struct {
		// Strength is the unitless background suppression strength;
		// the regularization term is Strength times the estimated
		// noise standard deviation of the second inversion
		Strength float64 `yaml:"strength"`

		// NoiseWindow is the edge length in voxels of the corner cube
		// sampled for background noise estimation
		NoiseWindow int `yaml:"noiseWindow"`
	} `yaml:"suppression"`

	// Rescale parameters
	Rescale struct {
		// AutoInputRange infers the UNI storage range from the data;
		// when false, InputMin and InputMax are used instead
		AutoInputRange bool `yaml:"autoInputRange"`

		// InputMin and InputMax define the explicit UNI storage range
		InputMin float64 `yaml:"inputMin"`
		InputMax float64 `yaml:"inputMax"`

		// OutputMin and OutputMax define the storage range of the
		// output volume
		OutputMin float64 `yaml:"outputMin"`
		OutputMax float64 `yaml:"outputMax"`
	} `yaml:"rescale"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// ExtractSlices determines whether to save 2D slices of the
		// output volume for quality control
		ExtractSlices bool `yaml:"extractSlices"`

		// SlicesDir is the directory where extracted slices are saved.
		// Only used when ExtractSlices is true.
		SlicesDir string `yaml:"slicesDir"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default suppression parameters
	cfg.Suppression.Strength = 1000.0
	cfg.Suppression.NoiseWindow = 16

	// Set default rescale parameters
	cfg.Rescale.AutoInputRange = true
	cfg.Rescale.InputMin = 0
	cfg.Rescale.InputMax = 4095
	cfg.Rescale.OutputMin = 0
	cfg.Rescale.OutputMax = 4095

	// Set default output parameters
	cfg.Output.Verbose = true
	cfg.Output.ExtractSlices = false
	cfg.Output.SlicesDir = "qc_slices"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
