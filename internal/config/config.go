// Package config loads leekcheck settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/leekcheck/internal/checker"
	"github.com/user/leekcheck/internal/keyfile"
	"github.com/user/leekcheck/internal/server"
	"github.com/user/leekcheck/internal/watch"
	"github.com/user/leekcheck/pkg/sysinfo"
)

type Config struct {
	Check  checker.Config `yaml:"check"`
	Format string         `yaml:"format"`
	Output string         `yaml:"output"`
	Server ServerConfig   `yaml:"server"`
	Watch  WatchConfig    `yaml:"watch"`
	Log    LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port         string `yaml:"port"`
	Workers      int    `yaml:"workers"`
	QueueSize    int    `yaml:"queue_size"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

type WatchConfig struct {
	Suffix   string        `yaml:"suffix"`
	Debounce time.Duration `yaml:"debounce"`
	Existing bool          `yaml:"existing"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Check: checker.Config{
			Parallel:     sysinfo.DefaultParallel(),
			ShowProgress: false,
			Timeout:      300,
		},
		Format: "text",
		Server: ServerConfig{
			Port:    "8080",
			Workers: 1,
		},
		Watch: WatchConfig{
			Suffix:   keyfile.DefaultSuffix,
			Debounce: watch.DefaultDebounce,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Check.Parallel < 0 {
		return fmt.Errorf("check.parallel must not be negative, got %d", c.Check.Parallel)
	}
	if c.Check.Timeout < 0 {
		return fmt.Errorf("check.timeout must not be negative, got %d", c.Check.Timeout)
	}
	if c.Server.Workers < 0 {
		return fmt.Errorf("server.workers must not be negative, got %d", c.Server.Workers)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	return nil
}

func (c Config) ServerConfig() server.Config {
	return server.Config{
		Port:         c.Server.Port,
		Workers:      c.Server.Workers,
		QueueSize:    c.Server.QueueSize,
		MaxBodyBytes: c.Server.MaxBodyBytes,
		Check:        c.Check,
	}
}

func (c Config) WatchConfig(dir string) watch.Config {
	return watch.Config{
		Dir:      dir,
		Suffix:   c.Watch.Suffix,
		Debounce: c.Watch.Debounce,
		Existing: c.Watch.Existing,
	}
}
