// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package metrics exposes Prometheus collectors for the election service.

	m := metrics.New(prometheus.DefaultRegisterer)
	engine := election.NewEngine(s, cfg, election.WithRecorder(m))

Collectors:

  - guild_elections_operations_total{operation,outcome}
  - guild_elections_operation_duration_seconds{operation}
  - guild_elections_http_requests_total{route,code}
  - guild_elections_scheduled_voting_starts_total

Outcome is "ok" or the engine's error code (election.Code). Labels never
carry guild, user, or candidate IDs.

A nil *Metrics is a valid no-op.
*/
package metrics
