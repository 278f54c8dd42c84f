// Package main provides dashctl, a command-line view of the simulated
// dashboard: snapshots, offline simulation, quotes, history and the advisor.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("dashctl failed")
		os.Exit(1)
	}
}
