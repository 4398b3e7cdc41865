package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"

	"github.com/AaronLay10/chaintour/internal/api"
	"github.com/AaronLay10/chaintour/internal/config"
	"github.com/AaronLay10/chaintour/internal/controls"
	"github.com/AaronLay10/chaintour/internal/diagram"
	"github.com/AaronLay10/chaintour/internal/events"
	"github.com/AaronLay10/chaintour/internal/logger"
	"github.com/AaronLay10/chaintour/internal/playback"
	"github.com/AaronLay10/chaintour/internal/version"
)

func main() {
	configPath := flag.String("config", config.PathFromEnv(), "config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Logger.Errorw("api exited", logger.FieldError, err)
		events.Emit("error", "system.error", err.Error(), nil)
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
	logger.Sync()
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.Log.JSON); err != nil {
		return err
	}

	cat, err := diagram.Open(cfg.Tour.Catalog)
	if err != nil {
		return err
	}

	engine := playback.New(cat.Graph)
	if err := engine.SetSpeed(cfg.Speed()); err != nil {
		return err
	}

	var opts []controls.Option
	if cfg.Tour.DefaultScenario != "" {
		if cat.Scenario(cfg.Tour.DefaultScenario) == nil {
			return errors.Wrapf(controls.ErrUnknownScenario, "default scenario %q", cfg.Tour.DefaultScenario)
		}
		opts = append(opts, controls.WithDefaultScenario(cfg.Tour.DefaultScenario))
	}
	c := controls.New(engine, cat, opts...)
	defer c.Close()

	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "api starting", map[string]interface{}{
		"service":  "api",
		"hostname": hostname,
		"pid":      os.Getpid(),
		"version":  version.Version,
		"catalog":  cat.Title,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(c, cat)
	err = srv.ListenAndServe(ctx, cfg.UIPort())

	engine.Reset()
	events.Emit("info", "system.shutdown", "", nil)
	return err
}
