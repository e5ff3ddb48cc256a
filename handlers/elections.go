// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/guild-elections/cliparse"
	"github.com/danielhkuo/guild-elections/election"
	"github.com/danielhkuo/guild-elections/guildcfg"
	"github.com/danielhkuo/guild-elections/middleware"
	"github.com/danielhkuo/guild-elections/models"
)

type ElectionHandler struct {
	engine   *election.Engine
	settings *guildcfg.Store
	cfg      cliparse.Config
	now      func() time.Time
}

func NewElectionHandler(engine *election.Engine, settings *guildcfg.Store, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{engine: engine, settings: settings, cfg: cfg, now: time.Now}
}

// scope authenticates the caller and loads the guild's settings. On failure
// the response has already been written.
func (h *ElectionHandler) scope(w http.ResponseWriter, r *http.Request) (guildcfg.Scope, bool) {
	guildID := r.PathValue("guild")
	if guildID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "guild is required")
		return guildcfg.Scope{}, false
	}

	caller, err := middleware.CallerFromRequest(r, guildID, h.cfg.GatewaySecret)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid caller identity")
		return guildcfg.Scope{}, false
	}

	settings, err := h.settings.Get(r.Context(), guildID)
	if errors.Is(err, guildcfg.ErrNotConfigured) {
		middleware.ErrorResponseCode(w, http.StatusPreconditionFailed, "not_configured",
			"This server has not been set up yet; an administrator needs to run setup")
		return guildcfg.Scope{}, false
	}
	if err != nil {
		slog.Error("failed to load guild settings", "guild_id", guildID, "error", err)
		w.Header().Set("Retry-After", retryAfterSeconds)
		middleware.ErrorResponseCode(w, http.StatusServiceUnavailable, election.CodeStoreUnavailable,
			"Elections are temporarily unavailable, please try again")
		return guildcfg.Scope{}, false
	}

	return guildcfg.NewScope(settings, caller), true
}

// parseOptionalBody accepts an empty body as the zero request
func parseOptionalBody(r *http.Request, v interface{}) error {
	err := middleware.ParseJSONBody(r, v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Open handles POST /guilds/{guild}/elections/{position}/open
func (h *ElectionHandler) Open(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req models.OpenElectionRequest
	if err := parseOptionalBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	position := r.PathValue("position")
	opened, err := h.engine.Open(r.Context(), scope, scope.Settings.GuildID, position, scope.Caller.UserID, req)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.OpenElectionResponse{
		Election: opened,
		Nominees: []models.Nomination{},
		Message:  openMessage(opened, h.now()),
		Render:   scope.Render(),
	})
}

func openMessage(e models.Election, now time.Time) string {
	msg := fmt.Sprintf("Nominations are open for %s.", e.Position)
	if e.VotingStartsAt != nil {
		msg += fmt.Sprintf(" Voting starts %s.", humanize.RelTime(*e.VotingStartsAt, now, "ago", "from now"))
	}
	return msg
}

// Nominees handles GET /guilds/{guild}/elections/{position}/nominees
func (h *ElectionHandler) Nominees(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}

	active, nominees, err := h.engine.Nominees(r.Context(), scope.Settings.GuildID, r.PathValue("position"))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.NomineesResponse{
		Position: active.Position,
		Status:   active.Status,
		Nominees: nominees,
		Render:   scope.Render(),
	})
}

// Nominate handles POST /guilds/{guild}/elections/{position}/nominations.
// The caller nominates themself.
func (h *ElectionHandler) Nominate(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req models.NominateRequest
	if err := parseOptionalBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	position := r.PathValue("position")
	nominees, err := h.engine.Nominate(r.Context(), scope.Settings.GuildID, position, scope.Caller.UserID, req.DisplayName)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.NomineesResponse{
		Position: strings.TrimSpace(position),
		Status:   models.StatusNominating,
		Nominees: nominees,
		Render:   scope.Render(),
	})
}

// StartVoting handles POST /guilds/{guild}/elections/{position}/voting
func (h *ElectionHandler) StartVoting(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}

	started, nominees, err := h.engine.StartVoting(r.Context(), scope, scope.Settings.GuildID,
		r.PathValue("position"), scope.Caller.UserID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.StartVotingResponse{
		Election: started,
		Nominees: nominees,
		Render:   scope.Render(),
	})
}

// CastVote handles POST /guilds/{guild}/elections/{position}/ballots.
// The response is an acknowledgement only; it never echoes the choice.
func (h *ElectionHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.CandidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate_id is required")
		return
	}

	err := h.engine.CastVote(r.Context(), scope, scope.Settings.GuildID, r.PathValue("position"),
		scope.Caller.UserID, req.CandidateID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusAccepted, models.CastVoteResponse{
		Message: "Your vote has been recorded. You can change it until the election closes.",
	})
}

// Close handles POST /guilds/{guild}/elections/{position}/close. The result
// goes only to the closing admin.
func (h *ElectionHandler) Close(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}

	result, err := h.engine.Close(r.Context(), scope, scope.Settings.GuildID, r.PathValue("position"), scope.Caller.UserID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, result)
}

// Results handles GET /guilds/{guild}/elections/{position}/results
func (h *ElectionHandler) Results(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}

	result, err := h.engine.Results(r.Context(), scope, scope.Settings.GuildID, r.PathValue("position"), scope.Caller.UserID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, result)
}

// List handles GET /guilds/{guild}/elections
func (h *ElectionHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}

	elections, err := h.engine.ListNominating(r.Context(), scope.Settings.GuildID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if elections == nil {
		elections = []models.Election{}
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionListResponse{Elections: elections})
}
