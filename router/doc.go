// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the guild elections API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(router.Deps{
		Config:   cfg,
		Engine:   engine,
		Settings: guildcfg.NewStore(conn),
		Metrics:  m,
		Gatherer: registry,
	})

Every API route is wrapped with request logging and per-route request
metrics. The route pattern, not the raw path, is the metrics label.

# Endpoints

Health and metrics:

	GET /health
	GET /metrics   - Prometheus exposition (when a Gatherer is set)

Guild setup:

	PUT /guilds/{guild}/settings         - Run setup
	GET /guilds/{guild}/settings/status  - Settings and missing fields

Elections:

	GET  /guilds/{guild}/elections                         - Positions taking nominations
	POST /guilds/{guild}/elections/{position}/open         - Open
	GET  /guilds/{guild}/elections/{position}/nominees     - Nominee list
	POST /guilds/{guild}/elections/{position}/nominations  - Nominate yourself
	POST /guilds/{guild}/elections/{position}/voting       - Start voting
	POST /guilds/{guild}/elections/{position}/ballots      - Cast or change a vote
	POST /guilds/{guild}/elections/{position}/close        - Close and tally
	GET  /guilds/{guild}/elections/{position}/results      - Stored result

Positions with spaces are path-escaped by the client.
*/
package router
