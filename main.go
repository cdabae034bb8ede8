package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tphakala/esc50-go/cmd"
	"github.com/tphakala/esc50-go/internal/conf"
	"github.com/tphakala/esc50-go/internal/logging"
)

func main() {
	// cancelled on SIGINT/SIGTERM, checked between records, clips and epochs
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	settings := &conf.Settings{}
	rootCmd := cmd.RootCommand(settings)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// closes the log file and exits with status 1
		logging.Fatal("command failed", "command", os.Args[1:], "error", err)
	}

	_ = logging.Close()
}
