// Command xfer uploads and downloads large objects in bounded-size parts.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
