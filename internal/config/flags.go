package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// ApplyFlags overrides c with every flag in flags that was set on the
// command line. Flags left at their default keep the file value, and flags
// the set does not define are ignored.
func (c *Config) ApplyFlags(flags *pflag.FlagSet) error {
	ints := map[string]*int{
		"parallel": &c.Check.Parallel,
		"timeout":  &c.Check.Timeout,
		"workers":  &c.Server.Workers,
	}
	bools := map[string]*bool{
		"fail-fast": &c.Check.FailFast,
		"verbose":   &c.Check.Verbose,
		"progress":  &c.Check.ShowProgress,
		"existing":  &c.Watch.Existing,
	}
	strs := map[string]*string{
		"format":     &c.Format,
		"output":     &c.Output,
		"suffix":     &c.Watch.Suffix,
		"port":       &c.Server.Port,
		"log-level":  &c.Log.Level,
		"log-format": &c.Log.Format,
	}
	durations := map[string]*time.Duration{
		"debounce": &c.Watch.Debounce,
	}

	for name, dst := range ints {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
		*dst = v
	}
	for name, dst := range bools {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
		*dst = v
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
		*dst = v
	}
	for name, dst := range durations {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetDuration(name)
		if err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
		*dst = v
	}

	return c.Validate()
}
