package cli

import (
	"path/filepath"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/poissondisk/config"
	"go.viam.com/poissondisk/octree"
	"go.viam.com/poissondisk/pointcloud"
	"go.viam.com/poissondisk/sampling"
)

// loadConfig reads the config file named by --config, if any, and lets flags override it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := &config.Config{}
	if path := c.String(flagConfig); path != "" {
		var err error
		cfg, err = config.Read(path)
		if err != nil {
			return nil, err
		}
	}

	// paths given as flags are relative to the working directory, not the config file
	absFlag := func(name string) (string, error) {
		return filepath.Abs(c.String(name))
	}
	if c.IsSet(flagInput) {
		p, err := absFlag(flagInput)
		if err != nil {
			return nil, err
		}
		cfg.Input = p
	}
	if c.IsSet(flagOutput) {
		p, err := absFlag(flagOutput)
		if err != nil {
			return nil, err
		}
		cfg.Output = p
	}
	if c.IsSet(flagRadius) {
		cfg.Radius = c.Float64(flagRadius)
	}
	if c.IsSet(flagASCII) {
		cfg.ASCII = c.Bool(flagASCII)
	}
	if c.IsSet(flagMode) {
		cfg.Mode = c.String(flagMode)
	}
	if c.IsSet(flagSeed) {
		seed := c.Int64(flagSeed)
		cfg.Seed = &seed
	}
	if c.IsSet(flagParallelism) {
		cfg.Parallelism = c.Int(flagParallelism)
	}
	if c.IsSet(flagStats) {
		cfg.Stats = c.Bool(flagStats)
	}

	if err := cfg.Validate("pdsample"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// sampleAction reads a cloud, builds its octree, selects a Poisson-disk subset and writes it.
func sampleAction(c *cli.Context, logger golog.Logger, clk clock.Clock) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	mode, err := cfg.SelectionMode()
	if err != nil {
		return err
	}
	same, err := samePath(cfg.InputPath(), cfg.OutputPath())
	if err != nil {
		return err
	}
	if same {
		return errors.Errorf("output %q would overwrite the input", cfg.OutputPath())
	}
	out := c.App.Writer

	start := clk.Now()
	cloud, err := pointcloud.NewFromFile(cfg.InputPath(), logger)
	if err != nil {
		return errors.Wrapf(err, "cannot read %q", cfg.InputPath())
	}
	tree, err := octree.NewFitted[*pointcloud.Sample](cloud.MetaData(), cfg.Radius, logger)
	if err != nil {
		return err
	}
	printf(out, "Octree with depth %d created.", tree.Depth())
	if _, err := tree.AddPoints(cloud.Samples()); err != nil {
		return err
	}
	printf(out, "Octree contains %d points. The bounding box size is %g", tree.NumPoints(), tree.Size())
	printf(out, "Reading and sorting points in this octree took %v", clk.Since(start))

	if cfg.Stats {
		printf(out, "%s", renderStats(tree.Stats()))
		tree.LogStats()
	}

	opts := append(cfg.SelectorOptions(), sampling.WithClock(clk))
	selector, err := sampling.NewSelector(tree, cfg.Radius, logger, opts...)
	if err != nil {
		return err
	}
	result, err := selector.Run(c.Context, mode)
	if err != nil {
		return err
	}
	printf(out, "%d selected points.", result.NumSelected())
	printf(out, "Selecting the points took %v", result.Duration)

	coverage, err := sampling.Coverage(tree)
	if err != nil {
		return err
	}
	logger.Infow("coverage",
		"mode", mode,
		"rejected", result.Rejected,
		"mean", coverage.Mean,
		"stdDev", coverage.StdDev,
		"max", coverage.Max,
		"uncovered", coverage.Uncovered,
	)

	// written in tree order rather than selection order
	var selected []*pointcloud.Sample
	tree.LeafPoints(tree.Root(), func(s *pointcloud.Sample) bool {
		if s.IsSelected() {
			selected = append(selected, s)
		}
		return true
	})
	if err := pointcloud.WriteToFile(selected, cfg.OutputPath()); err != nil {
		return errors.Wrapf(err, "cannot write %q", cfg.OutputPath())
	}
	printf(out, "Wrote %s", cfg.OutputPath())
	return nil
}
