package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("leekcheck", pflag.ContinueOnError)
	flags.IntP("parallel", "p", 0, "")
	flags.Int("timeout", 300, "")
	flags.Bool("fail-fast", false, "")
	flags.Bool("verbose", false, "")
	flags.Bool("progress", false, "")
	flags.StringP("format", "f", "text", "")
	flags.String("output", "", "")
	flags.String("suffix", "", "")
	flags.Duration("debounce", 0, "")
	flags.Bool("existing", false, "")
	flags.String("port", "8080", "")
	flags.Int("workers", 1, "")
	flags.String("log-level", "", "")
	flags.String("log-format", "", "")
	return flags
}

func fileConfig() Config {
	cfg := Default()
	cfg.Check.Parallel = 3
	cfg.Check.FailFast = true
	cfg.Check.Timeout = 60
	cfg.Format = "json"
	cfg.Server.Port = "9000"
	cfg.Watch.Debounce = time.Second
	cfg.Log.Level = "debug"
	return cfg
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		modify func(*Config)
	}{
		{
			name:   "no flags keep file values",
			args:   nil,
			modify: func(*Config) {},
		},
		{
			name: "explicit flags override",
			args: []string{"-p", "8", "--timeout", "10", "-f", "csv", "--output", "out.csv"},
			modify: func(c *Config) {
				c.Check.Parallel = 8
				c.Check.Timeout = 10
				c.Format = "csv"
				c.Output = "out.csv"
			},
		},
		{
			name:   "explicit false overrides file true",
			args:   []string{"--fail-fast=false"},
			modify: func(c *Config) { c.Check.FailFast = false },
		},
		{
			name:   "flag equal to its default still overrides",
			args:   []string{"--format", "text", "--port", "8080"},
			modify: func(c *Config) { c.Format = "text"; c.Server.Port = "8080" },
		},
		{
			name: "watch server and log flags",
			args: []string{"--suffix", ".key", "--debounce", "2s", "--existing", "--workers", "4", "--log-level", "warn", "--log-format", "json"},
			modify: func(c *Config) {
				c.Watch.Suffix = ".key"
				c.Watch.Debounce = 2 * time.Second
				c.Watch.Existing = true
				c.Server.Workers = 4
				c.Log.Level = "warn"
				c.Log.Format = "json"
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			flags := testFlags()
			require.NoError(t, flags.Parse(tc.args))

			cfg := fileConfig()
			require.NoError(t, cfg.ApplyFlags(flags))

			want := fileConfig()
			tc.modify(&want)
			assert.Equal(t, want, cfg)
		})
	}
}

func TestApplyFlagsUndefined(t *testing.T) {
	flags := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	require.NoError(t, flags.Parse(nil))

	cfg := fileConfig()
	require.NoError(t, cfg.ApplyFlags(flags))
	assert.Equal(t, fileConfig(), cfg)
}

func TestApplyFlagsInvalid(t *testing.T) {
	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--parallel=-1"}))

	cfg := Default()
	assert.Error(t, cfg.ApplyFlags(flags))
}
