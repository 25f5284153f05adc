// Package main is the entry point for the toolloop binary.
// It delegates immediately to the CLI command tree.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/neoclaw-ai/toolloop/internal/cli"
	"github.com/neoclaw-ai/toolloop/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCmd().ExecuteContext(ctx)
	if err == nil || errors.Is(err, cli.ErrFirstRun) {
		return
	}
	logging.Logger().Error("fatal error", "err", err)
	stop()
	os.Exit(1)
}
