// Package main provides the l1sweep command-line tool.
//
// l1sweep drives the L1simulate cache simulator over ranges of cache
// parameters and summarizes the reports it writes.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tebeka/atexit"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	atexit.Register(stop)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
