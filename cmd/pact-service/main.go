// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/pact/lib/clock"
	"github.com/bureau-foundation/pact/lib/config"
	"github.com/bureau-foundation/pact/lib/escrow"
	"github.com/bureau-foundation/pact/lib/service"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to the YAML config file (or set "+config.EnvVar+")")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("pact-service %s\n", version)
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := escrow.Open(escrow.Config{
		Path:     cfg.Database.Path,
		PoolSize: cfg.Database.PoolSize,
		Clock:    clock.Real(),
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	server := service.NewSocketServer(cfg.Socket.Path, logger)
	escrowService := &EscrowService{store: store, logger: logger}
	escrowService.Register(server)

	logger.Info("pact-service starting",
		"version", version,
		"database", cfg.Database.Path,
		"socket", cfg.Socket.Path,
	)

	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("socket server: %w", err)
	}
	logger.Info("pact-service stopped")
	return nil
}
