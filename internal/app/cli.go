package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/logging"
)

// Stage is the body of one command.
type Stage func(ctx context.Context, a *Application) error

// Main parses flags, loads config, runs stage and returns the exit code.
// hints are printed when stage reports domain.ErrNothingProduced.
func Main(name string, hints []string, stage Stage) int {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("NEWSRELAY_CONFIG"), "path to the YAML configuration file")
	_ = fs.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadFrom(*configPath)
	logger := logging.New(cfg.Logging.Level).With("command", name)

	application, err := New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}
	defer func() {
		if err := application.Close(context.Background()); err != nil {
			logger.Warn("shutdown failed", "error", err)
		}
	}()

	err = stage(ctx, application)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrNothingProduced):
		logger.Warn("run produced nothing", "error", err)
		for _, hint := range hints {
			fmt.Fprintf(os.Stderr, "  - %s\n", hint)
		}
		return 1
	case errors.Is(err, context.Canceled):
		logger.Warn("interrupted")
		return 1
	case domain.IsFatal(err):
		logger.Error("authentication failed", "error", err)
		return 1
	default:
		logger.Error("application stopped", "error", err)
		return 1
	}
}
