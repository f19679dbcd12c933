// Package cli contains the pdsample command line application.
package cli

import (
	"io"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/urfave/cli/v2"
)

const (
	flagInput       = "input"
	flagOutput      = "output"
	flagRadius      = "radius"
	flagASCII       = "ascii"
	flagMode        = "mode"
	flagSeed        = "seed"
	flagParallelism = "parallelism"
	flagConfig      = "config"
	flagStats       = "stats"
	flagDebug       = "debug"
)

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return newApp(out, errOut, clock.New())
}

func newApp(out, errOut io.Writer, clk clock.Clock) *cli.App {
	var logger golog.Logger
	return &cli.App{
		Name:            "pdsample",
		Usage:           "subsample a point cloud so that no two kept points are closer than a radius",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagInput,
				Aliases: []string{"i"},
				Usage:   "read the cloud from `FILE` (.asc .xyz .txt .pts .off .pcd .las)",
			},
			&cli.StringFlag{
				Name:    flagOutput,
				Aliases: []string{"o"},
				Usage:   "write the selected points to `PREFIX`_seeds.off, or _seeds.asc with --ascii",
			},
			&cli.Float64Flag{
				Name:    flagRadius,
				Aliases: []string{"r"},
				Usage:   "minimum distance between two selected points",
			},
			&cli.BoolFlag{
				Name:    flagASCII,
				Aliases: []string{"a"},
				Usage:   "write the selected points as an ASCII list instead of an OFF file",
			},
			&cli.StringFlag{
				Name:  flagMode,
				Usage: "selection algorithm, greedy or dart",
			},
			&cli.Int64Flag{
				Name:  flagSeed,
				Usage: "seed of the dart throwing random draws",
			},
			&cli.IntFlag{
				Name:  flagParallelism,
				Usage: "maximum number of cells processed at once, 0 for the number of CPUs",
			},
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`; flags override its values",
			},
			&cli.BoolFlag{
				Name:  flagStats,
				Usage: "print the octree statistics",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = golog.NewDebugLogger("pdsample")
			} else {
				logger = golog.NewDevelopmentLogger("pdsample")
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return sampleAction(c, logger, clk)
		},
	}
}
