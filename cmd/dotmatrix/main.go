package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/averna/dotmatrix/dotmatrix"
	"github.com/averna/dotmatrix/dotmatrix/render"
	"github.com/averna/dotmatrix/dotmatrix/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "dotmatrix"
	app.Description = "A Game Boy and Game Boy Color emulator"
	app.Usage = "dotmatrix [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "mode",
			Usage: "Hardware model to emulate: auto, dmg or cgb",
			Value: "auto",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without a display",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory for frame snapshots (default: temp directory)",
		},
		cli.BoolFlag{
			Name:  "sdl2",
			Usage: "Use the SDL2 window backend (requires a build with -tags sdl2)",
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Window scale factor for the SDL2 backend",
			Value: 4,
		},
		cli.StringFlag{
			Name:  "save-file",
			Usage: "Battery save path (default: <ROM>.sav)",
		},
		cli.StringFlag{
			Name:  "state-load",
			Usage: "Restore a save state before running",
		},
		cli.StringFlag{
			Name:  "state-save",
			Usage: "Write a save state on exit",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("emulator exited with error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if c.NArg() == 0 {
		cli.ShowAppHelp(c)
		return errors.New("no ROM path provided")
	}
	romPath := c.Args().First()

	variant, err := parseVariant(c.String("mode"))
	if err != nil {
		return err
	}

	machine, err := dotmatrix.New(romPath, variant)
	if err != nil {
		return err
	}

	if path := c.String("save-file"); path != "" {
		if err := machine.UseSaveFile(path); err != nil {
			return err
		}
	}
	if path := c.String("state-load"); path != "" {
		if err := machine.LoadState(path); err != nil {
			return err
		}
	}

	backend, err := pickBackend(c, romPath)
	if err != nil {
		return err
	}
	if err := backend.Init(render.Config{
		Title:  machine.Title(),
		Scale:  c.Int("scale"),
		Joypad: machine.Joypad(),
	}); err != nil {
		return err
	}
	defer backend.Cleanup()

	headless := c.Bool("headless")
	limiter := timing.NewLimiter()
	nextFlush := time.Now().Add(saveFlushInterval)
	for {
		machine.RunFrame()
		ok, err := backend.Update(machine.Framebuffer())
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		flushDue(machine, &nextFlush)
		if !headless {
			limiter.Wait()
		}
	}

	if path := c.String("state-save"); path != "" {
		if err := machine.SaveState(path); err != nil {
			return err
		}
	}
	return machine.FlushSave()
}

// saveFlushInterval bounds how much battery RAM progress a crash or
// kill can lose.
const saveFlushInterval = 5 * time.Second

// flushDue writes battery RAM out when the flush deadline has passed.
// Clean cartridges make this a no-op.
func flushDue(m *dotmatrix.Machine, next *time.Time) {
	if time.Now().Before(*next) {
		return
	}
	*next = time.Now().Add(saveFlushInterval)
	if err := m.FlushSave(); err != nil {
		slog.Warn("battery save flush failed", "error", err)
	}
}

func parseVariant(mode string) (dotmatrix.Variant, error) {
	switch mode {
	case "auto", "":
		return dotmatrix.AutoDetect, nil
	case "dmg":
		return dotmatrix.DMG, nil
	case "cgb":
		return dotmatrix.CGB, nil
	}
	return 0, fmt.Errorf("unknown mode %q, expected auto, dmg or cgb", mode)
}

func pickBackend(c *cli.Context, romPath string) (render.Backend, error) {
	if c.Bool("headless") {
		frames := c.Int("frames")
		if frames <= 0 {
			return nil, errors.New("headless mode requires --frames with a positive value")
		}
		return render.NewHeadless(frames, c.Int("snapshot-interval"), c.String("snapshot-dir"), romPath), nil
	}
	if c.Bool("sdl2") {
		return render.NewSDL2(), nil
	}
	return render.NewTerminal(), nil
}
