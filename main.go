package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fields/config"
	"github.com/pthm-cable/fields/engine"
	"github.com/pthm-cable/fields/export"
	"github.com/pthm-cable/fields/render"
	"github.com/pthm-cable/fields/server"
	"github.com/pthm-cable/fields/telemetry"
	"github.com/pthm-cable/fields/view"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Render once without a window and write the image")
	out := flag.String("out", "", "Output image for -headless (empty = time-stamped name in export dir)")
	wallpaper := flag.Bool("wallpaper", false, "Render dimmed random fields back to back")
	serve := flag.Bool("serve", false, "Serve the HTTP API instead of opening a window")
	addr := flag.String("addr", "", "HTTP listen address for -serve (empty = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	width := flag.Int("width", 0, "Canvas width without a window (0 = use config)")
	height := flag.Int("height", 0, "Canvas height without a window (0 = use config)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	render.SetLogger(logger)

	outputs, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
		os.Exit(1)
	}
	defer outputs.Close()
	if err := outputs.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}
	col := telemetry.NewCollector(cfg.Telemetry.PerfWindow, outputs, cfg.Telemetry.LogPasses)

	w, h := cfg.Screen.Width, cfg.Screen.Height
	if *width > 0 {
		w = *width
	}
	if *height > 0 {
		h = *height
	}

	opts := engine.Options{
		Wallpaper: *wallpaper,
		Rand:      rand.New(rand.NewSource(rngSeed)),
		Telemetry: col,
	}

	switch {
	case *headless:
		opts.Scheduler = render.InlineScheduler{}
		opts.Wallpaper = false
		eng := engine.New(cfg, w, h, opts)
		defer eng.Close()
		if err := runHeadless(cfg, eng, *out); err != nil {
			slog.Error("headless render failed", "error", err)
			os.Exit(1)
		}
		slog.Info("render summary", "seed", rngSeed, "summary", col.Summary(), "perf", col.Perf())

	case *serve:
		eng := engine.New(cfg, w, h, opts)
		defer eng.Close()
		if eng.Registry().Len() == 0 {
			eng.Randomise()
		}
		eng.Start(cfg.Derived.StartDelay)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go eng.Run(ctx)

		listen := cfg.Server.Addr
		if *addr != "" {
			listen = *addr
		}
		if err := server.New(eng, col, logger).ListenAndServe(ctx, listen); err != nil {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}

	default:
		// Graphical mode
		rl.SetConfigFlags(rl.FlagWindowResizable)
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
		defer rl.CloseWindow()
		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

		eng := engine.New(cfg, rl.GetScreenWidth(), rl.GetScreenHeight(), opts)
		v := view.New(cfg, eng, col)
		defer v.Unload()

		slog.Info("starting", "seed", rngSeed, "wallpaper", *wallpaper)
		v.Run()
	}
}

// runHeadless renders the configured (or random) charges once and writes
// the image.
func runHeadless(cfg *config.Config, eng *engine.Engine, out string) error {
	if eng.Registry().Len() == 0 {
		eng.Randomise()
	}
	slog.Info("starting headless render", "charges", eng.Registry().Snapshot())

	// The inline scheduler renders inside Start.
	eng.Start(0)
	eng.Drain()

	if out == "" {
		path, err := eng.Save(time.Now())
		if err != nil {
			return err
		}
		slog.Info("image saved", "path", path)
		return nil
	}
	f, err := export.FormatOf(out)
	if err != nil {
		return err
	}
	if err := export.WriteFile(out, eng.Canvas().Image(), f); err != nil {
		return err
	}
	slog.Info("image saved", "path", out)
	return nil
}
