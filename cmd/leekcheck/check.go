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
	"github.com/user/leekcheck/pkg/sysinfo"
)

var checkCmd = &cobra.Command{
	Use:   "check <files...>",
	Short: "Check key files against the address in their names",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	addCheckFlags(checkCmd)
}

func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("parallel", "p", 0, "Number of parallel workers (default: logical CPUs)")
	cmd.Flags().Bool("fail-fast", false, "Stop after the first key that does not match")
	cmd.Flags().StringP("format", "f", "text", "Output format (text, table, json, csv)")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	cmd.Flags().Bool("progress", false, "Show progress bar")
	cmd.Flags().IntP("timeout", "t", 300, "Timeout in seconds for the whole run")
}

func runCheck(cmd *cobra.Command, args []string) error {
	formatter, err := output.NewFormatter(cfg.Format)
	if err != nil {
		return fmt.Errorf("invalid output format: %w", err)
	}

	sysInfo, err := sysinfo.Collect()
	if err != nil {
		return fmt.Errorf("failed to collect system info: %w", err)
	}

	if cfg.Check.Verbose {
		logger.WithField("keys", len(args)).
			WithField("parallel", cfg.Check.Parallel).
			WithField("fail_fast", cfg.Check.FailFast).
			Info("Starting check run")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := checker.NewRunner(cfg.Check, logger)
	results, runErr := runner.Run(ctx, checker.FileSources(args))

	writer := os.Stdout
	if cfg.Output != "" {
		writer, err = os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer writer.Close()
	}

	data := output.NewData(sysInfo, cfg.Check, results)
	if err := formatter.Format(writer, data); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if runErr != nil {
		return runErr
	}
	if code := data.Summary.ExitCode(); code != checker.ExitOK {
		return &exitError{code: code}
	}
	return nil
}
