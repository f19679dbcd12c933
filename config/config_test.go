package config

import (
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/poissondisk/sampling"
)

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{Input: "in.asc", Output: "out", Radius: 0.5}
	}

	cfg := valid()
	test.That(t, cfg.Validate("path"), test.ShouldBeNil)

	for _, tc := range []struct {
		name     string
		mutate   func(*Config)
		contains string
	}{
		{"no input", func(c *Config) { c.Input = "" }, `"input" is required`},
		{"no output", func(c *Config) { c.Output = "" }, `"output" is required`},
		{"no radius", func(c *Config) { c.Radius = 0 }, `"radius" is required`},
		{"negative radius", func(c *Config) { c.Radius = -2 }, "radius must be positive"},
		{"bad mode", func(c *Config) { c.Mode = "fastest" }, "unknown selection mode"},
		{"negative parallelism", func(c *Config) { c.Parallelism = -1 }, "parallelism"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate("path")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.contains)
			test.That(t, err.Error(), test.ShouldContainSubstring, "path")
		})
	}
}

func TestConfigPaths(t *testing.T) {
	cfg := Config{Input: "in.asc", Output: "out/cloud"}
	test.That(t, cfg.InputPath(), test.ShouldEqual, "in.asc")
	test.That(t, cfg.OutputPath(), test.ShouldEqual, "out/cloud_seeds.off")
	cfg.ASCII = true
	test.That(t, cfg.OutputPath(), test.ShouldEqual, "out/cloud_seeds.asc")

	cfg.ConfigFilePath = filepath.Join("configs", "run.json")
	test.That(t, cfg.InputPath(), test.ShouldEqual, filepath.Join("configs", "in.asc"))
	test.That(t, cfg.OutputPath(), test.ShouldEqual, filepath.Join("configs", "out", "cloud")+ASCIISuffix)

	abs := filepath.Join(t.TempDir(), "in.asc")
	cfg.Input = abs
	test.That(t, cfg.InputPath(), test.ShouldEqual, abs)
}

func TestConfigSelection(t *testing.T) {
	cfg := Config{}
	mode, err := cfg.SelectionMode()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mode, test.ShouldEqual, sampling.DefaultMode)
	test.That(t, cfg.SelectorOptions(), test.ShouldHaveLength, 1)

	seed := int64(12)
	cfg = Config{Mode: "greedy", Seed: &seed, Parallelism: 2}
	mode, err = cfg.SelectionMode()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mode, test.ShouldEqual, sampling.ModeGreedy)
	test.That(t, cfg.SelectorOptions(), test.ShouldHaveLength, 2)
}
