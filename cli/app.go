// Package cli contains the fiducialpose command line tool.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"go.viam.com/fiducialpose/logging"
)

const (
	// Flags.
	generalFlagConfig = "config"
	generalFlagDebug  = "debug"

	solveFlagParallel    = "parallel"
	solveFlagPlotDir     = "plot-dir"
	solveFlagHTMLDir     = "html-dir"
	solveFlagAnnotateDir = "annotate-dir"
	solveFlagJSON        = "json"

	resolveFlagRVec = "rvec"
	resolveFlagTVec = "tvec"
)

// NewApp returns the fiducialpose command line application writing to out.
func NewApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:            "fiducialpose",
		Usage:           "recover camera poses from photos of the four-marker fiducial pattern",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    generalFlagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(generalFlagDebug) {
				logging.GlobalLogLevel.SetLevel(zap.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "solve",
				Usage:     "detect the pattern in images and resolve the camera pose of each",
				UsageText: fmt.Sprintf("fiducialpose solve [--%s N] [--%s] IMAGE...", solveFlagParallel, solveFlagJSON),
				ArgsUsage: "IMAGE...",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  solveFlagParallel,
						Usage: "number of images processed at once (defaults to the configured parallelism)",
					},
					&cli.PathFlag{
						Name:  solveFlagPlotDir,
						Usage: "write a three-view pose plot per image into `DIR`",
					},
					&cli.PathFlag{
						Name:  solveFlagHTMLDir,
						Usage: "write an interactive 3D scene per image into `DIR`",
					},
					&cli.PathFlag{
						Name:  solveFlagAnnotateDir,
						Usage: "write the binarized image with labeled markers into `DIR`",
					},
					&cli.BoolFlag{
						Name:  solveFlagJSON,
						Usage: "print results as JSON instead of a table",
					},
				},
				Action: SolveAction,
			},
			{
				Name:      "classify",
				Usage:     "assign roles to four marker candidates read from a JSON file",
				ArgsUsage: "FILE",
				Action:    ClassifyAction,
			},
			{
				Name:  "resolve",
				Usage: "convert an externally solved camera-frame pose into a world-frame camera pose",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     resolveFlagRVec,
						Required: true,
						Usage:    "rotation vector as `x,y,z` in radians",
					},
					&cli.StringFlag{
						Name:     resolveFlagTVec,
						Required: true,
						Usage:    "translation vector as `x,y,z` in meters",
					},
				},
				Action: ResolveAction,
			},
			{
				Name:   "config",
				Usage:  "print the effective configuration",
				Action: ConfigAction,
			},
		},
	}
}
