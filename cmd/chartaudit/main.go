package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cmd "github.com/ggvfx/precision-color-auditor/cmd/chartaudit/cmd"
)

var (
	GitSHA string = "NA"
)

func main() {
	// Ctrl-C stops a batch from starting new images
	ctx, cnc := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cnc()

	if err := cmd.NewRoot(ctx, GitSHA).Execute(); err != nil {
		os.Exit(1)
	}
}
