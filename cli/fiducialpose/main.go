// Package main is the fiducialpose command itself.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/fatih/color"

	"go.viam.com/fiducialpose/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := cli.NewApp(os.Stdout)
	if err := app.RunContext(ctx, os.Args); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		//nolint:gocritic
		os.Exit(1)
	}
}
