// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/guild-elections/cliparse"
	"github.com/danielhkuo/guild-elections/election"
	"github.com/danielhkuo/guild-elections/guildcfg"
	"github.com/danielhkuo/guild-elections/middleware"
	"github.com/danielhkuo/guild-elections/models"
)

type SettingsHandler struct {
	settings *guildcfg.Store
	cfg      cliparse.Config
}

func NewSettingsHandler(settings *guildcfg.Store, cfg cliparse.Config) *SettingsHandler {
	return &SettingsHandler{settings: settings, cfg: cfg}
}

// load authenticates the caller and reads the current settings. An
// unconfigured guild yields empty settings for that guild.
func (h *SettingsHandler) load(w http.ResponseWriter, r *http.Request) (models.Caller, models.GuildSettings, bool) {
	guildID := r.PathValue("guild")
	if guildID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "guild is required")
		return models.Caller{}, models.GuildSettings{}, false
	}

	caller, err := middleware.CallerFromRequest(r, guildID, h.cfg.GatewaySecret)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid caller identity")
		return models.Caller{}, models.GuildSettings{}, false
	}

	existing, err := h.settings.Get(r.Context(), guildID)
	if errors.Is(err, guildcfg.ErrNotConfigured) {
		return caller, models.GuildSettings{GuildID: guildID}, true
	}
	if err != nil {
		slog.Error("failed to load guild settings", "guild_id", guildID, "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Settings are temporarily unavailable")
		return models.Caller{}, models.GuildSettings{}, false
	}
	return caller, existing, true
}

// Setup handles PUT /guilds/{guild}/settings
func (h *SettingsHandler) Setup(w http.ResponseWriter, r *http.Request) {
	caller, existing, ok := h.load(w, r)
	if !ok {
		return
	}

	if !guildcfg.CanConfigure(caller, existing) {
		slog.Warn("settings change denied", "guild_id", existing.GuildID, "user_id", caller.UserID)
		middleware.ErrorResponseCode(w, http.StatusForbidden, election.CodeUnauthorized, "Only server administrators can run setup")
		return
	}

	var req models.SetupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	updated := guildcfg.Apply(existing, req, time.Now())
	if err := h.settings.Upsert(r.Context(), updated); err != nil {
		slog.Error("failed to save guild settings", "guild_id", updated.GuildID, "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Failed to save settings")
		return
	}

	slog.Info("guild settings updated", "guild_id", updated.GuildID, "user_id", caller.UserID)

	middleware.JSONResponse(w, http.StatusOK, guildcfg.Status(updated))
}

// Status handles GET /guilds/{guild}/settings/status
func (h *SettingsHandler) Status(w http.ResponseWriter, r *http.Request) {
	caller, existing, ok := h.load(w, r)
	if !ok {
		return
	}

	if !guildcfg.NewScope(existing, caller).IsAdmin(caller.UserID, existing.GuildID) {
		middleware.ErrorResponseCode(w, http.StatusForbidden, election.CodeUnauthorized, "Only administrators can view settings")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, guildcfg.Status(existing))
}
