package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ivlev/procdoc/internal/cli"
	"github.com/ivlev/procdoc/internal/system"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Each extraction worker holds an ffmpeg process with its pipes open.
	system.InitResourceLimits()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.RootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
