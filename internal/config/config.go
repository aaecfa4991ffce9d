// Package config resolves server settings from defaults, an optional .env
// file, the environment and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds the resolved server settings
type Config struct {
	Addr        string
	DataDir     string
	CatalogPath string
	LogLevel    slog.Level
	Seed        uint64
	IdleTimeout time.Duration
	EnvFile     string
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Addr:        ":3000",
		DataDir:     "./data",
		LogLevel:    slog.LevelInfo,
		IdleTimeout: time.Hour,
		EnvFile:     ".env",
	}
}

// Load resolves settings for args (without the program name). lookup reads
// the environment; nil means os.LookupEnv.
func Load(args []string, lookup func(string) (string, bool)) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := Default()

	// the env file location itself can only come from the environment
	if v, ok := lookup("DEVLIFE_ENV_FILE"); ok {
		cfg.EnvFile = v
	}
	dotenv, err := readEnvFile(cfg.EnvFile)
	if err != nil {
		return cfg, err
	}
	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(get); err != nil {
		return cfg, err
	}
	if err := cfg.applyFlags(args); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return values, nil
}

func (c *Config) applyEnv(get func(string) (string, bool)) error {
	if v, ok := get("PORT"); ok && v != "" {
		c.Addr = ":" + v
	}
	if v, ok := get("DEVLIFE_ADDR"); ok && v != "" {
		c.Addr = v
	}
	if v, ok := get("DEVLIFE_DATA_DIR"); ok && v != "" {
		c.DataDir = v
	}
	if v, ok := get("DEVLIFE_CATALOG"); ok {
		c.CatalogPath = v
	}
	if v, ok := get("DEVLIFE_LOG_LEVEL"); ok && v != "" {
		level, err := ParseLevel(v)
		if err != nil {
			return err
		}
		c.LogLevel = level
	}
	if v, ok := get("DEVLIFE_SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("DEVLIFE_SEED: %w", err)
		}
		c.Seed = seed
	}
	if v, ok := get("DEVLIFE_IDLE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DEVLIFE_IDLE_TIMEOUT: %w", err)
		}
		c.IdleTimeout = d
	}
	return nil
}

func (c *Config) applyFlags(args []string) error {
	flags := pflag.NewFlagSet("devlife", pflag.ContinueOnError)
	flags.StringVar(&c.Addr, "addr", c.Addr, "listen address")
	flags.StringVar(&c.DataDir, "data-dir", c.DataDir, "directory for save files")
	flags.StringVar(&c.CatalogPath, "catalog", c.CatalogPath, "YAML file merged over the built-in catalog")
	level := flags.String("log-level", c.LogLevel.String(), "debug, info, warn or error")
	flags.Uint64Var(&c.Seed, "seed", c.Seed, "random seed for reproducible sessions (0 seeds from the clock)")
	flags.DurationVar(&c.IdleTimeout, "idle-timeout", c.IdleTimeout, "evict sessions idle for this long")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.Changed("log-level") {
		parsed, err := ParseLevel(*level)
		if err != nil {
			return err
		}
		c.LogLevel = parsed
	}
	return nil
}

// ParseLevel accepts the slog level names, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
