// Tic-tac-toe Client - Main Entry Point
package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"ttts/internal/client"
	"ttts/internal/config"
	"ttts/pkg/logger"
)

var (
	version    = "1.0.0"
	serverAddr = flag.String("server", net.JoinHostPort("localhost", config.DefaultPort), "Server address (host:port)")
	name       = flag.String("name", "", "Player name (prompted if empty)")
	logLevel   = flag.String("log-level", "WARN", "Log level (DEBUG, INFO, WARN, ERROR)")
	logFile    = flag.String("log-file", "", "Log file path (optional)")
	logDir     = flag.String("log-dir", "", "Directory for per-component log files (optional)")
)

func main() {
	flag.Parse()

	if err := initLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	logger.Client.Info("Starting tic-tac-toe client v%s", version)
	logger.Client.Info("Connecting to server: %s", *serverAddr)

	gameClient := client.NewClient(*serverAddr, *name, os.Stdin)
	setupGracefulShutdown(gameClient)

	if err := gameClient.Start(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Client.Error("Client failed: %v", err)
		os.Exit(1)
	}

	logger.Client.Info("Client shutting down gracefully")
}

// initLogging sets up the logging system
func initLogging() error {
	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logger.SetGlobalLogLevel(level)

	if *logFile != "" {
		if err := logger.Client.SetFile(*logFile); err != nil {
			return fmt.Errorf("failed to set log file: %w", err)
		}
		logger.Client.Info("Logging to file: %s", *logFile)
	} else if *logDir != "" {
		if err := logger.InitializeFileLogging(*logDir); err != nil {
			return err
		}
	}
	return nil
}

// setupGracefulShutdown handles graceful shutdown on interrupt signals
func setupGracefulShutdown(gameClient *client.Client) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Client.Info("Received shutdown signal, closing client...")
		gameClient.Close()
		os.Exit(0)
	}()
}
