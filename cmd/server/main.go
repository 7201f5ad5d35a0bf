// Command server boots the issue board API: load config, open and
// migrate the store, serve HTTP until SIGINT/SIGTERM, then drain and
// exit.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joescharf/issueboard/internal/config"
	"github.com/joescharf/issueboard/internal/lifecycle"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, st, err := lifecycle.Boot(ctx, cfg, logger)
	if err != nil {
		logger.Error("boot failed", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := srv.Serve(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stdout, "shutdown complete")
}
