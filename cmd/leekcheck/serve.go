package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/user/leekcheck/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP verification service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "8080", "Web server port")
	serveCmd.Flags().IntP("workers", "w", 1, "Number of concurrent check jobs")
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := server.NewServer(cfg.ServerConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infof("Starting leekcheck server on http://localhost:%s", cfg.Server.Port)
	logger.Info("Press Ctrl+C to stop")

	return srv.Start(ctx)
}
