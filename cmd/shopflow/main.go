package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drstein77/shopflow/internal/app"
	"github.com/drstein77/shopflow/internal/config"
	"github.com/drstein77/shopflow/internal/logger"
	"go.uber.org/zap"
)

func main() {
	// leaves room for a pending simulated payment to resolve
	const shutdownTimeout = 10 * time.Second
	// Create a root context with the possibility of cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// create and initialize a new option instance
	option := config.NewOptions()
	option.ParseFlags()

	// get a new logger
	nLogger, err := logger.NewLogger(option.LogLevel())
	if err != nil {
		log.Fatalln(err)
	}

	server, err := app.NewServer(ctx, option, nLogger)
	if err != nil {
		nLogger.Error("Failed to start", zap.Error(err))
		_ = nLogger.Sync()
		os.Exit(1)
	}

	// Create a channel for signal handling
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		// Wait for a signal
		sig := <-signalCh
		nLogger.Info(fmt.Sprintf("Received signal: %+v", sig))

		// Perform graceful server shutdown
		server.Shutdown(shutdownTimeout)

		// Cancel the context
		cancel()
	}()

	// Start the server
	server.Serve()
}
