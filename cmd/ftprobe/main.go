package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ghostshell/app/ftprobe"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ftprobe.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ftprobe: %v\n", err)
		os.Exit(1)
	}
}
