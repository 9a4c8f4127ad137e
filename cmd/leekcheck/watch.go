package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/user/leekcheck/internal/checker"
	"github.com/user/leekcheck/internal/output"
	"github.com/user/leekcheck/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Check key files as they appear in a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().String("suffix", "", "Suffix of the key files to check (default: .onion.key)")
	watchCmd.Flags().Duration("debounce", 0, "Quiet period before a written file is checked (default: 500ms)")
	watchCmd.Flags().Bool("existing", false, "Also check files already in the directory")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	var failed int
	handler := func(result checker.Result) {
		fmt.Fprintln(out, output.TextLine(result))
		if !result.OK() {
			failed++
			logger.WithField("file", result.Source).
				WithField("status", result.Status).
				Warn("Key file failed verification")
		}
	}

	w := watch.New(cfg.WatchConfig(args[0]), handler, logger)
	if err := w.Run(ctx); err != nil {
		return err
	}

	logger.WithField("failed", failed).Info("Watcher stopped")
	return nil
}
