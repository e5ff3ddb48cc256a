// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/guild-elections/cliparse"
	"github.com/danielhkuo/guild-elections/db"
	"github.com/danielhkuo/guild-elections/election"
	"github.com/danielhkuo/guild-elections/guildcfg"
	"github.com/danielhkuo/guild-elections/metrics"
	"github.com/danielhkuo/guild-elections/middleware"
	"github.com/danielhkuo/guild-elections/router"
	"github.com/danielhkuo/guild-elections/scheduler"
	"github.com/danielhkuo/guild-elections/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		slog.Error("Invalid log level", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(level))

	if err := run(cfg); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

// newLogger writes text to a terminal and JSON everywhere else
func newLogger(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg cliparse.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		return err
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	engine := election.NewEngine(store.New(dbConn, cfg.DatabaseType), election.Config{
		EarlyVoting:  cfg.EarlyVoting,
		StoreTimeout: cfg.StoreTimeout,
		BallotSalt:   cfg.BallotSalt,
	}, election.WithLogger(slog.Default()), election.WithRecorder(m))

	mux := router.NewRouter(router.Deps{
		Config:   cfg,
		Engine:   engine,
		Settings: guildcfg.NewStore(dbConn),
		Metrics:  m,
		Gatherer: registry,
	})

	server := &http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	worker := scheduler.Worker{
		Elections: engine,
		Interval:  cfg.SchedulerInterval,
		Counter:   m,
		Logger:    slog.Default(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port, "early_voting", cfg.EarlyVoting)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return worker.Run(gctx)
	})

	// Stop the server on Ctrl-C or when either goroutine fails
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	slog.Info("Server closed", "error", err)
	return err
}
