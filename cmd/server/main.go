// Tic-tac-toe Server - Main Entry Point
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ttts/internal/config"
	"ttts/internal/server"
	"ttts/pkg/logger"
)

var version = "1.0.0"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		fmt.Fprintf(os.Stderr, "usage: %s [port]\n", os.Args[0])
		os.Exit(1)
	}

	if err := initLogging(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Server.Sync()

	logger.Server.Info("Starting tic-tac-toe server v%s", version)

	gameServer := server.NewServer(cfg, logger.Server)
	setupGracefulShutdown(gameServer)

	logger.Server.Info("Starting server on %s", cfg.Address())
	if err := gameServer.Start(); err != nil {
		logger.Server.Error("Server failed: %v", err)
		logger.Server.Sync()
		os.Exit(1)
	}
}

// initLogging sets up the logging system
func initLogging(cfg *config.Config) error {
	logger.SetGlobalLogLevel(cfg.Level())

	if cfg.LogFile != "" {
		if err := logger.Server.SetFile(cfg.LogFile); err != nil {
			return fmt.Errorf("failed to set log file: %w", err)
		}
		logger.Server.Info("Logging to file: %s", cfg.LogFile)
	}
	return nil
}

// setupGracefulShutdown stops the server on SIGINT or SIGTERM. Start returns
// once the listener is closed.
func setupGracefulShutdown(gameServer *server.Server) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Server.Info("Received shutdown signal, stopping server...")
		if err := gameServer.Stop(); err != nil {
			logger.Server.Warn("Error while stopping: %v", err)
		}
	}()
}
