package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/leekcheck/internal/keyfile"
	"github.com/user/leekcheck/internal/onion"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the public key and derived address of a key file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]

	claimed, der, err := keyfile.Read(path)
	if err != nil {
		return err
	}

	id, err := onion.NewIdentity(der)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Key file: %s\n", path)
	fmt.Fprintf(out, "Key size: %d bits\n", id.Bits())
	fmt.Fprintf(out, "Public exponent: %s\n", id.Exponent())
	fmt.Fprintf(out, "Derived address: %s\n", id.Hostname())
	if onion.ValidAddress(claimed) {
		fmt.Fprintf(out, "Claimed address: %s%s\n", claimed, onion.Suffix)
	} else {
		fmt.Fprintf(out, "Claimed address: %q (not an onion address)\n", claimed)
	}
	if id.Matches(claimed) {
		fmt.Fprintln(out, "Match: yes")
	} else {
		fmt.Fprintln(out, "Match: no")
	}
	fmt.Fprintf(out, "Public key: %s\n", id.PublicKeyBase64())

	return nil
}
