// Command tumble runs a small rigid-body scene: a spinning box and a raycast
// vehicle whose physics transforms drive a software-rendered scene graph.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tumble/app"
	"tumble/hal"
	"tumble/internal/buildinfo"
	"tumble/internal/config"
	"tumble/internal/stream"
)

const defaultConfigPath = "config/tumble.toml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		cfgPath = flag.String("config", "", "path to the TOML config (default $TUMBLE_CONFIG or "+defaultConfigPath+")")
		mode    = flag.String("mode", "", "host: window, headless or terminal")
		frames  = flag.Uint64("frames", 0, "stop after N frames (0 = run until closed)")
		streamF = flag.String("stream", "", "serve frame transforms over websocket on this address")
		version = flag.Bool("version", false, "print the build and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println(buildinfo.Long())
		return nil
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *mode != "" {
		cfg.Host.Mode = *mode
	}
	if *frames != 0 {
		cfg.Host.Frames = *frames
	}
	if *streamF != "" {
		cfg.Stream.Enabled = true
		cfg.Stream.Addr = *streamF
	}

	// The terminal host owns stderr's screen, so logs go to a file there.
	logOut := ""
	if cfg.Host.Mode == "terminal" {
		logOut = "tumble.log"
	}
	log, err := newLogger(cfg.Logging, logOut)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("tumble starting",
		zap.String("build", buildinfo.Short()),
		zap.String("mode", cfg.Host.Mode),
		zap.Uint64("frames", cfg.Host.Frames))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []app.Option
	if cfg.Stream.Enabled {
		hub := stream.NewHub(log)
		defer hub.Close()
		go func() {
			if err := hub.ListenAndServe(ctx, cfg.Stream.Addr); err != nil {
				log.Error("stream server stopped", zap.Error(err))
			}
		}()
		opts = append(opts, app.WithRenderer(hub))
	}

	var assets fs.FS
	if cfg.Scene.AssetDir != "" {
		assets = os.DirFS(cfg.Scene.AssetDir)
	}
	newApp, closeApp := app.Runner(cfg, assets, opts...)
	defer closeApp()

	switch cfg.Host.Mode {
	case "window", "":
		err = hal.RunWindow(hal.WindowConfig{
			Width:  cfg.Window.Width,
			Height: cfg.Window.Height,
			Scale:  cfg.Window.Scale,
			Title:  cfg.Window.Title,
			Hz:     cfg.Host.Hz,
		}, log, newApp)
	case "headless":
		err = hal.RunHeadless(ctx, hal.HeadlessConfig{
			Width:  cfg.Window.Width,
			Height: cfg.Window.Height,
			Hz:     cfg.Host.Hz,
			Frames: cfg.Host.Frames,
		}, log, newApp)
	case "terminal":
		err = hal.RunTerminal(ctx, hal.TerminalConfig{
			Hz:     cfg.Host.Hz,
			Frames: cfg.Host.Frames,
		}, log, newApp)
	default:
		return fmt.Errorf("unknown host mode %q", cfg.Host.Mode)
	}
	if errors.Is(err, context.Canceled) {
		log.Info("interrupted")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info("tumble stopped")
	return nil
}

// loadConfig reads the -config path, then $TUMBLE_CONFIG, then the default
// path. Only a missing default file falls back to the built-in config.
func loadConfig(flagPath string) (*config.Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv("TUMBLE_CONFIG")
	}
	if path != "" {
		return config.Load(path)
	}
	cfg, err := config.Load(defaultConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func newLogger(cfg config.LoggingConfig, output string) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if output != "" {
		zapCfg.OutputPaths = []string{output}
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	return zapCfg.Build()
}
