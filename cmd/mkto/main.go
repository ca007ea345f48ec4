package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/natserract/mkto/pkg/marketo"
	"go.uber.org/zap"
)

// Injected at build time via ldflags.
var version = "dev"

const (
	exitOK     = 0
	exitData   = 1
	exitUsage  = 2
	exitConfig = 3
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(exitData)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd(logger, os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		logger.Sync()
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var usageErr *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &usageErr):
		return exitUsage
	case errors.Is(err, marketo.ErrConfiguration), errors.Is(err, errConfigLoad):
		return exitConfig
	default:
		return exitData
	}
}
