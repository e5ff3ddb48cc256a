// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the guild elections API.

# Handler Types

  - ElectionHandler: election lifecycle, nominations, ballots, results
  - SettingsHandler: per-guild setup and setup status

	cfgStore := guildcfg.NewStore(db)
	electionHandler := handlers.NewElectionHandler(engine, cfgStore, cfg)
	settingsHandler := handlers.NewSettingsHandler(cfgStore, cfg)

# Caller Identity

Every request carries the gateway-signed identity headers (see
middleware.CallerFromRequest). A missing or tampered identity is 401.
Election handlers then load the guild's settings; a guild that never ran
setup gets 412 with code "not_configured". The settings and the caller
become a guildcfg.Scope that is passed to the engine for authorization.

# Election Lifecycle

	POST /guilds/{guild}/elections/{position}/open         → Open (admin)
	POST /guilds/{guild}/elections/{position}/nominations  → Nominate (caller is the candidate)
	POST /guilds/{guild}/elections/{position}/voting       → StartVoting (admin)
	POST /guilds/{guild}/elections/{position}/ballots      → CastVote (voter)
	POST /guilds/{guild}/elections/{position}/close        → Close (admin)
	GET  /guilds/{guild}/elections/{position}/results      → Results (admin)
	GET  /guilds/{guild}/elections/{position}/nominees     → Nominees
	GET  /guilds/{guild}/elections                         → List

CastVote answers 202 with an acknowledgement only. Close and Results return
the full result to the requesting admin and nobody else.

# Errors

Engine errors map to statuses by class:

	unauthorized                                   403
	no_active_election                             404
	election_already_open, already_closed,
	duplicate_candidate, voting_already_started    409
	invalid_candidate, voting_not_open,
	invalid_input                                  422
	store_unavailable                              503 (with Retry-After)

The body is a models.ErrorResponse carrying the class as its code.
*/
package handlers
