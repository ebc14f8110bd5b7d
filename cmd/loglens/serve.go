// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/loglens/internal/errors"
	"github.com/kraklabs/loglens/internal/ui"
	"github.com/kraklabs/loglens/pkg/store"
	"github.com/kraklabs/loglens/pkg/tail"
	"github.com/kraklabs/loglens/pkg/web"
)

// runServe executes the 'serve' CLI command, starting the viewer server.
//
// The server exposes the REST API, a websocket endpoint for live updates,
// and Prometheus metrics. A filesystem watcher on the log directory pushes
// appended messages to connected viewers; when the watcher cannot start the
// server still runs with manual refresh only.
//
// Flags:
//   - --addr: Listen address (default: from config, usually :5000)
//   - --no-watch: Disable the filesystem watcher
//
// Examples:
//
//	loglens serve                  Serve on the configured address
//	loglens serve --addr :8080     Serve on a different port
func runServe(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (default: from config)")
	noWatch := fs.Bool("no-watch", false, "Disable the filesystem watcher")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: loglens serve [options]

Starts the viewer server using configuration from .loglens/config.yaml.
Press Ctrl+C to stop.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if *addr != "" {
		cfg.ServeAddr = *addr
	}

	logger := newLogger(globals)
	slog.SetDefault(logger)

	s, err := store.Open(cfg.DatabasePath)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot open conversation database",
			fmt.Sprintf("Opening %s failed", cfg.DatabasePath),
			"Run 'loglens convert' first to create it",
			err,
		), globals.JSON)
	}
	defer s.Close()

	var notifier *tail.Notifier
	if !*noWatch {
		notifier = tail.NewNotifier(cfg.LogDirectory, logger)
		if !notifier.Enabled() {
			ui.Warning("Filesystem watcher unavailable, live updates disabled")
		}
	}

	srv := web.NewServer(web.Config{
		Addr:     cfg.ServeAddr,
		Store:    s,
		LogDir:   cfg.LogDirectory,
		Notifier: notifier,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !globals.Quiet {
		ui.Header("Loglens Viewer")
		fmt.Printf("%s http://localhost%s\n", ui.Label("Serving:"), cfg.ServeAddr)
		fmt.Printf("%s %s\n", ui.Label("Database:"), ui.DimText(cfg.DatabasePath))
		fmt.Printf("%s %s\n", ui.Label("Watching:"), ui.DimText(cfg.LogDirectory))
		fmt.Println()
	}

	if err := srv.Start(ctx); err != nil {
		errors.FatalError(errors.NewNetworkError(
			"Cannot start the viewer server",
			fmt.Sprintf("Listening on %s failed", cfg.ServeAddr),
			"Stop the other process or pass --addr with a free port",
			err,
		), globals.JSON)
	}

	if !globals.Quiet {
		ui.Success("Server stopped")
	}
}
