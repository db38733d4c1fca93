package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/valerio/go-snes/snes"
	"github.com/valerio/go-snes/snes/backend"
	"github.com/valerio/go-snes/snes/backend/headless"
	"github.com/valerio/go-snes/snes/backend/terminal"
	"github.com/valerio/go-snes/snes/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "gosnes"
	app.Description = "A Super Nintendo emulator core"
	app.Usage = "gosnes [options] <ROM file>"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without a display",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
			Value: 0,
		},
		cli.BoolFlag{
			Name:  "no-limit",
			Usage: "Run as fast as possible instead of pacing to the frame rate",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	if c.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	emulator, err := snes.NewWithFile(romPath)
	if err != nil {
		return err
	}

	var b backend.Backend
	if c.Bool("headless") {
		frames := c.Int("frames")
		if frames <= 0 {
			return errors.New("headless mode requires --frames option with a positive value")
		}
		b = headless.New(frames)
	} else {
		b = terminal.New()
		if !c.Bool("no-limit") {
			emulator.SetFrameLimiter(timing.NewTickerLimiter())
		}
	}

	return emulator.Run(b)
}
