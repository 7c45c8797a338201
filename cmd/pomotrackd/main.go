// Package main provides the pomotrack server entry point.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/pomotrack/pomotrack/internal/config"
	"github.com/pomotrack/pomotrack/internal/sessionlog"
	"github.com/pomotrack/pomotrack/internal/watcher"
	"github.com/pomotrack/pomotrack/internal/worker"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Str("version", Version).Str("sessionLog", cfg.SessionLogPath).Msg("pomotrack starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Signal received")
		cancel()
	}()

	store := sessionlog.New(cfg.SessionLogPath)
	svc := worker.New(cfg, store)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Run(gctx)
	})
	g.Go(func() error {
		w, err := watcher.New(filepath.Dir(cfg.SessionLogPath), store.EnsureDir)
		if err != nil {
			log.Warn().Err(err).Msg("Log directory watcher unavailable")
			return nil
		}
		return w.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("pomotrack exited with error")
	}
}
