// Package main implements stubbackend, a local fake of the help-center
// REST API for development and end-to-end testing of the client.
//
// The stub keeps all state in memory. It seeds one regular user and one
// admin, answers chat analysis with canned replies, and completes media
// analysis jobs after a configurable number of status polls so the
// client's poll loop can be exercised without a real transcription
// backend.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

func main() {
	var (
		addr       = flag.String("addr", ":8000", "listen address")
		mediaPolls = flag.Int("media-polls", 3, "status polls before a media job completes (0 = never)")
		logLevel   = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	level, err := zap.ParseAtomicLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q: %v\n", *logLevel, err)
		os.Exit(1)
	}
	logCfg := zap.NewProductionConfig()
	logCfg.Level = level
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	srv := newServer(logger, *mediaPolls)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(*addr)
	}()
	logger.Info("stub backend listening", zap.String("addr", *addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		srv.Shutdown()
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", zap.Error(err))
			os.Exit(1)
		}
	}
}
