package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/happyhackingspace/nlpkit/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.New(version).Run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
