// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Layers

Later layers override earlier ones:

 1. Defaults()
 2. YAML file (-config or CONFIG_FILE)
 3. .env file (-env-file or ENV_FILE, default ".env"); never overrides
    variables already present in the environment
 4. Environment variables
 5. Flags that were explicitly set

A missing default .env is ignored. A missing file named by flag or env is
an error.

# Config Fields

	Field              Flag                 Env                 Default
	Port               -p                   PORT                3318
	DatabaseURL        -d                   DATABASE_URL        (required)
	DatabaseType       -t                   DATABASE_TYPE       sqlite
	GatewaySecret      -gateway-secret      GATEWAY_SECRET      (required)
	BallotSalt         -ballot-salt         BALLOT_SALT         (required)
	StoreTimeout       -store-timeout       STORE_TIMEOUT       5s
	EarlyVoting        -early-voting        EARLY_VOTING        true
	SchedulerInterval  -scheduler-interval  SCHEDULER_INTERVAL  30s
	LogLevel           -log-level           LOG_LEVEL           info
	ConfigFile         -config              CONFIG_FILE
	EnvFile            -env-file            ENV_FILE            .env

YAML keys are the snake_case names (port, database_url, store_timeout, ...).
Durations use Go syntax ("750ms", "2s", "1m").

# Validation

ParseFlags returns an error if required values are missing or out of range:

  - DATABASE_URL, GATEWAY_SECRET, and BALLOT_SALT must be provided
  - DATABASE_TYPE must be sqlite or postgres
  - timeouts and intervals must be positive
  - LOG_LEVEL must parse as a slog level

# Example

	// In main.go
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	// ...
*/
package cliparse
