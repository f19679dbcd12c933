package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestFromReader(t *testing.T) {
	cfg, err := FromReader("run.json", strings.NewReader(`{
		"input": "cloud.xyz",
		"output": "cloud",
		"radius": 0.25,
		"mode": "greedy",
		"seed": 3,
		"ascii": true,
		"parallelism": 4,
		"stats": true
	}`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, "run.json")
	test.That(t, cfg.Input, test.ShouldEqual, "cloud.xyz")
	test.That(t, cfg.Output, test.ShouldEqual, "cloud")
	test.That(t, cfg.Radius, test.ShouldEqual, 0.25)
	test.That(t, cfg.Mode, test.ShouldEqual, "greedy")
	test.That(t, *cfg.Seed, test.ShouldEqual, int64(3))
	test.That(t, cfg.ASCII, test.ShouldBeTrue)
	test.That(t, cfg.Parallelism, test.ShouldEqual, 4)
	test.That(t, cfg.Stats, test.ShouldBeTrue)
	test.That(t, cfg.Validate("config"), test.ShouldBeNil)

	// missing fields are left for the caller
	cfg, err = FromReader("", strings.NewReader(`{"radius": 1}`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Seed, test.ShouldBeNil)
	test.That(t, cfg.Validate("config"), test.ShouldNotBeNil)

	_, err = FromReader("", strings.NewReader(`{"radius": 1, "colour": "red"}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode")

	_, err = FromReader("", strings.NewReader(`{"radius": "big"}`))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PDSAMPLE_TEST_RADIUS", "0.75")
	t.Setenv("PDSAMPLE_TEST_NAME", "bunny")

	fn := filepath.Join(dir, "run.json")
	contents := `{"input": "${PDSAMPLE_TEST_NAME}.xyz", "output": "${PDSAMPLE_TEST_NAME}", "radius": ${PDSAMPLE_TEST_RADIUS}}`
	test.That(t, os.WriteFile(fn, []byte(contents), 0o600), test.ShouldBeNil)

	cfg, err := Read(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Radius, test.ShouldEqual, 0.75)
	test.That(t, cfg.InputPath(), test.ShouldEqual, filepath.Join(dir, "bunny.xyz"))
	test.That(t, cfg.OutputPath(), test.ShouldEqual, filepath.Join(dir, "bunny")+OFFSuffix)

	_, err = Read(filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}
