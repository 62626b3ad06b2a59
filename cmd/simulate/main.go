package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/suggest/internal/simulate"
	"github.com/okian/suggest/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := simulate.NewCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Stderr.WriteString("simulate: " + err.Error() + "\n")
		os.Exit(1)
	}
}
