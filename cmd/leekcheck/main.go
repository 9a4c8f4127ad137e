package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/user/leekcheck/internal/checker"
	"github.com/user/leekcheck/internal/config"
	"github.com/user/leekcheck/internal/logging"
)

var (
	configFile string

	cfg    config.Config
	logger *logrus.Logger
)

// exitError carries a process exit status out of a command whose report has
// already been written.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var rootCmd = &cobra.Command{
	Use:   "leekcheck [files...]",
	Short: "Verify that onion key files match the address in their name",
	Long: `leekcheck verifies key files written by the leek onion vanity address
generator. Each file is named <address>.onion.key and holds a PEM-armored
RSA private key; leekcheck derives the onion address from the key and compares
it with the address claimed by the file name.

Exit status is 0 when every key matches, 1 when a key does not match its
name, and 2 when a key could not be read or decoded.`,
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runCheck(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json)")

	addCheckFlags(rootCmd)
	rootCmd.AddCommand(checkCmd, inspectCmd, watchCmd, serveCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	// Flags given on the command line win over the file.
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return err
	}

	logger, err = logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	return nil
}

// exitCode maps a command error to the process exit status. Errors that
// carry a status have already been reported.
func exitCode(err error) (int, bool) {
	if err == nil {
		return checker.ExitOK, true
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code, true
	}
	return checker.ExitError, false
}

func main() {
	err := rootCmd.Execute()
	code, reported := exitCode(err)
	if !reported {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}
