// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/guild-elections/cliparse"
	"github.com/danielhkuo/guild-elections/election"
	"github.com/danielhkuo/guild-elections/guildcfg"
	"github.com/danielhkuo/guild-elections/handlers"
	"github.com/danielhkuo/guild-elections/metrics"
	"github.com/danielhkuo/guild-elections/middleware"
)

// Deps are the shared components the routes are served from
type Deps struct {
	Config   cliparse.Config
	Engine   *election.Engine
	Settings *guildcfg.Store
	Metrics  *metrics.Metrics
	// Gatherer backs GET /metrics; nil leaves the endpoint out
	Gatherer prometheus.Gatherer
}

func NewRouter(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(deps.Engine, deps.Settings, deps.Config)
	settingsHandler := handlers.NewSettingsHandler(deps.Settings, deps.Config)

	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.WithLogging(middleware.WithMetrics(pattern, deps.Metrics, h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if deps.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// Guild setup
	handle("PUT /guilds/{guild}/settings", settingsHandler.Setup)
	handle("GET /guilds/{guild}/settings/status", settingsHandler.Status)

	// Election lifecycle
	handle("GET /guilds/{guild}/elections", electionHandler.List)
	handle("POST /guilds/{guild}/elections/{position}/open", electionHandler.Open)
	handle("GET /guilds/{guild}/elections/{position}/nominees", electionHandler.Nominees)
	handle("POST /guilds/{guild}/elections/{position}/nominations", electionHandler.Nominate)
	handle("POST /guilds/{guild}/elections/{position}/voting", electionHandler.StartVoting)
	handle("POST /guilds/{guild}/elections/{position}/ballots", electionHandler.CastVote)
	handle("POST /guilds/{guild}/elections/{position}/close", electionHandler.Close)
	handle("GET /guilds/{guild}/elections/{position}/results", electionHandler.Results)

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("guild-elections API v1"))
	})

	return mux
}
