// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the guild elections server.

Guild elections runs role-based elections inside chat communities: an admin
opens an election for a position, members nominate themselves, voters with
the configured role cast one changeable vote, and an admin closes it and
receives the plurality result privately.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=elections.db GATEWAY_SECRET=... BALLOT_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -config elections.yaml

# Configuration

Layers, lowest to highest: built-in defaults, YAML file (-config),
.env file (-env-file, never overrides the real environment), environment,
explicitly set flags.

Required settings:

  - DATABASE_URL (-d): sqlite file path or postgres connection string
  - GATEWAY_SECRET (-gateway-secret): key the chat gateway signs identities with
  - BALLOT_SALT (-ballot-salt): key for the voter hash stored on ballots

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - STORE_TIMEOUT (-store-timeout): per-operation bound (default: 5s)
  - EARLY_VOTING (-early-voting): accept votes during nominations (default: true)
  - SCHEDULER_INTERVAL (-scheduler-interval): scheduled start sweep (default: 30s)
  - LOG_LEVEL (-log-level): debug, info, warn, error (default: info)

# Architecture

  - election: engine, lifecycle, nominations, ballots, tally orchestration
  - tally: plurality count and result summary
  - store: transactional persistence for sqlite and postgres
  - guildcfg: per-guild settings and capability scope
  - scheduler: background start of scheduled voting
  - handlers, router, middleware: HTTP transport
  - metrics: Prometheus collectors
  - auth, cliparse, db, models: identity signing, configuration, schema, types

The HTTP server and the scheduler run under one errgroup and stop together
on SIGINT or SIGTERM.

See package documentation for each component.
*/
package main
