// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port              int           `yaml:"port" env:"PORT"`
	DatabaseURL       string        `yaml:"database_url" env:"DATABASE_URL"`
	DatabaseType      string        `yaml:"database_type" env:"DATABASE_TYPE"`
	GatewaySecret     string        `yaml:"gateway_secret" env:"GATEWAY_SECRET"`
	BallotSalt        string        `yaml:"ballot_salt" env:"BALLOT_SALT"`
	StoreTimeout      time.Duration `yaml:"store_timeout" env:"STORE_TIMEOUT"`
	EarlyVoting       bool          `yaml:"early_voting" env:"EARLY_VOTING"`
	SchedulerInterval time.Duration `yaml:"scheduler_interval" env:"SCHEDULER_INTERVAL"`
	LogLevel          string        `yaml:"log_level" env:"LOG_LEVEL"`
	ConfigFile        string        `yaml:"-" env:"CONFIG_FILE"`
	EnvFile           string        `yaml:"-" env:"ENV_FILE"`
}

const defaultEnvFile = ".env"

// Defaults returns the configuration before any file, env, or flag is applied
func Defaults() Config {
	return Config{
		Port:              3318,
		DatabaseType:      "sqlite",
		StoreTimeout:      5 * time.Second,
		EarlyVoting:       true,
		SchedulerInterval: 30 * time.Second,
		LogLevel:          "info",
		EnvFile:           defaultEnvFile,
	}
}

// ParseFlags builds the config in layers: defaults, YAML file, .env file,
// environment, then flags that were explicitly set.
func ParseFlags(args []string) (Config, error) {
	var flags Config

	fs := flag.NewFlagSet("guild-elections", flag.ContinueOnError)

	// Network and storage (can be CLI args or env)
	fs.IntVar(&flags.Port, "p", 0, "Server port")
	fs.StringVar(&flags.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&flags.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&flags.GatewaySecret, "gateway-secret", "", "Gateway signing secret (prefer env)")
	fs.StringVar(&flags.BallotSalt, "ballot-salt", "", "Ballot voter hash salt (prefer env)")

	// Election behavior
	fs.DurationVar(&flags.StoreTimeout, "store-timeout", 0, "Bound on lock wait plus transaction per operation")
	fs.BoolVar(&flags.EarlyVoting, "early-voting", false, "Accept votes while nominations are open")
	fs.DurationVar(&flags.SchedulerInterval, "scheduler-interval", 0, "How often scheduled voting starts are checked")

	// Process
	fs.StringVar(&flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&flags.ConfigFile, "config", "", "YAML config file")
	fs.StringVar(&flags.EnvFile, "env-file", "", "Dotenv file loaded into the environment")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	cfg := Defaults()

	// .env never overrides variables already in the environment
	envFile, explicit := cfg.EnvFile, false
	if v, ok := os.LookupEnv("ENV_FILE"); ok && v != "" {
		envFile, explicit = v, true
	}
	if set["env-file"] {
		envFile, explicit = flags.EnvFile, true
	}
	if err := loadEnvFile(envFile, explicit); err != nil {
		return Config{}, err
	}

	configFile := os.Getenv("CONFIG_FILE")
	if set["config"] {
		configFile = flags.ConfigFile
	}
	if configFile != "" {
		if err := loadYAML(configFile, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.ConfigFile = configFile
	cfg.EnvFile = envFile

	// Explicit flags win over everything
	for name := range set {
		switch name {
		case "p":
			cfg.Port = flags.Port
		case "d":
			cfg.DatabaseURL = flags.DatabaseURL
		case "t":
			cfg.DatabaseType = flags.DatabaseType
		case "gateway-secret":
			cfg.GatewaySecret = flags.GatewaySecret
		case "ballot-salt":
			cfg.BallotSalt = flags.BallotSalt
		case "store-timeout":
			cfg.StoreTimeout = flags.StoreTimeout
		case "early-voting":
			cfg.EarlyVoting = flags.EarlyVoting
		case "scheduler-interval":
			cfg.SchedulerInterval = flags.SchedulerInterval
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFile(path string, explicit bool) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	// A missing default .env is normal; a missing named one is not
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

func loadYAML(path string, cfg *Config) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	return nil
}

// Validate checks required settings and value ranges
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if c.DatabaseType != "sqlite" && c.DatabaseType != "postgres" {
		return fmt.Errorf("unsupported database type %q (sqlite or postgres)", c.DatabaseType)
	}

	// Secrets - MUST be provided
	if c.GatewaySecret == "" {
		return errors.New("GATEWAY_SECRET required")
	}
	if c.BallotSalt == "" {
		return errors.New("BALLOT_SALT required")
	}

	if c.StoreTimeout <= 0 {
		return fmt.Errorf("store timeout must be positive, got %s", c.StoreTimeout)
	}
	if c.SchedulerInterval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", c.SchedulerInterval)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
