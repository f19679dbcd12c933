// Package config defines the configuration of a subsampling run and how it is read.
package config

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/poissondisk/sampling"
)

// Output suffixes appended to the output prefix.
const (
	OFFSuffix   = "_seeds.off"
	ASCIISuffix = "_seeds.asc"
)

// Config describes a subsampling run: which cloud to read, how to select samples from it,
// and where to write the selection.
type Config struct {
	ConfigFilePath string `json:"-"`

	Input  string `json:"input"`
	Output string `json:"output"`
	// Radius is the minimum distance between two selected samples.
	Radius float64 `json:"radius"`
	Mode   string  `json:"mode,omitempty"`
	Seed   *int64  `json:"seed,omitempty"`
	// ASCII writes the selection as an ASCII point list instead of an OFF file.
	ASCII       bool `json:"ascii,omitempty"`
	Parallelism int  `json:"parallelism,omitempty"`
	// Stats logs the octree statistics before selecting.
	Stats bool `json:"stats,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (config *Config) Validate(path string) error {
	if config.Input == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "input")
	}
	if config.Output == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "output")
	}
	if config.Radius == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "radius")
	}
	if !(config.Radius > 0) {
		return utils.NewConfigValidationError(path, errors.Errorf("radius must be positive but is %g", config.Radius))
	}
	if _, err := sampling.ParseMode(config.Mode); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if config.Parallelism < 0 {
		return utils.NewConfigValidationError(path, errors.New("parallelism cannot be negative"))
	}
	return nil
}

// SelectionMode returns the configured selection mode.
func (config *Config) SelectionMode() (sampling.Mode, error) {
	return sampling.ParseMode(config.Mode)
}

// SelectorOptions returns the selector options the config asks for.
func (config *Config) SelectorOptions() []sampling.Option {
	opts := []sampling.Option{sampling.WithParallelism(config.Parallelism)}
	if config.Seed != nil {
		opts = append(opts, sampling.WithSeed(*config.Seed))
	}
	return opts
}

// OutputPath returns the file the selection is written to. Relative paths in a config
// file are relative to the file.
func (config *Config) OutputPath() string {
	suffix := OFFSuffix
	if config.ASCII {
		suffix = ASCIISuffix
	}
	return config.resolve(config.Output) + suffix
}

// InputPath returns the file the cloud is read from.
func (config *Config) InputPath() string {
	return config.resolve(config.Input)
}

func (config *Config) resolve(path string) string {
	if config.ConfigFilePath == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "~") {
		return path
	}
	return filepath.Join(filepath.Dir(config.ConfigFilePath), path)
}
