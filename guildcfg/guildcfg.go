// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package guildcfg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/guild-elections/models"
)

var ErrNotConfigured = errors.New("guild has not been set up")

// Required settings, in the order they are reported as missing
const (
	FieldNomineesChannel  = "nominees_channel"
	FieldElectionsChannel = "elections_channel"
	FieldVoterRole        = "voter_role"
	FieldAdminRole        = "admin_role"
)

// Store reads and writes per-guild settings
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the guild's settings or ErrNotConfigured
func (s *Store) Get(ctx context.Context, guildID string) (models.GuildSettings, error) {
	var gs models.GuildSettings
	var updatedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT guild_id, nominees_channel_id, elections_channel_id, log_channel_id,
			admin_role_id, voter_role_id, updated_at
		FROM guild_settings
		WHERE guild_id = $1
	`, guildID).Scan(&gs.GuildID, &gs.NomineesChannelID, &gs.ElectionsChannelID, &gs.LogChannelID,
		&gs.AdminRoleID, &gs.VoterRoleID, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GuildSettings{}, ErrNotConfigured
	}
	if err != nil {
		return models.GuildSettings{}, fmt.Errorf("query guild settings: %w", err)
	}

	gs.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return gs, nil
}

// Upsert writes the full settings row
func (s *Store) Upsert(ctx context.Context, gs models.GuildSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guild_settings (guild_id, nominees_channel_id, elections_channel_id,
			log_channel_id, admin_role_id, voter_role_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (guild_id) DO UPDATE SET
			nominees_channel_id = excluded.nominees_channel_id,
			elections_channel_id = excluded.elections_channel_id,
			log_channel_id = excluded.log_channel_id,
			admin_role_id = excluded.admin_role_id,
			voter_role_id = excluded.voter_role_id,
			updated_at = excluded.updated_at
	`, gs.GuildID, gs.NomineesChannelID, gs.ElectionsChannelID, gs.LogChannelID,
		gs.AdminRoleID, gs.VoterRoleID, gs.UpdatedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert guild settings: %w", err)
	}
	return nil
}

// Apply merges a setup request over existing settings. Blank fields keep
// their current value so setup can be run one field at a time.
func Apply(existing models.GuildSettings, req models.SetupRequest, now time.Time) models.GuildSettings {
	merged := existing
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&merged.NomineesChannelID, req.NomineesChannelID)
	set(&merged.ElectionsChannelID, req.ElectionsChannelID)
	set(&merged.LogChannelID, req.LogChannelID)
	set(&merged.AdminRoleID, req.AdminRoleID)
	set(&merged.VoterRoleID, req.VoterRoleID)
	merged.UpdatedAt = now.UTC()
	return merged
}

// Missing lists required settings that are still blank
func Missing(gs models.GuildSettings) []string {
	missing := []string{}
	if gs.NomineesChannelID == "" {
		missing = append(missing, FieldNomineesChannel)
	}
	if gs.ElectionsChannelID == "" {
		missing = append(missing, FieldElectionsChannel)
	}
	if gs.VoterRoleID == "" {
		missing = append(missing, FieldVoterRole)
	}
	if gs.AdminRoleID == "" {
		missing = append(missing, FieldAdminRole)
	}
	return missing
}

// Status reports the settings together with what setup still needs
func Status(gs models.GuildSettings) models.SettingsStatusResponse {
	missing := Missing(gs)
	return models.SettingsStatusResponse{
		Settings: gs,
		Missing:  missing,
		Complete: len(missing) == 0,
	}
}

// CanConfigure reports whether caller may change the guild's settings.
// Before any admin role exists only platform administrators qualify.
func CanConfigure(caller models.Caller, existing models.GuildSettings) bool {
	return caller.Administrator || caller.HasRole(existing.AdminRoleID)
}

// Scope is the capability oracle for one interaction: one guild's settings
// and the one caller they are checked against. Build a new one per request.
type Scope struct {
	Settings models.GuildSettings
	Caller   models.Caller
}

func NewScope(settings models.GuildSettings, caller models.Caller) Scope {
	return Scope{Settings: settings, Caller: caller}
}

// IsAdmin is true for platform administrators and holders of the admin role
func (s Scope) IsAdmin(identity, guildID string) bool {
	if !s.matches(identity, guildID) {
		return false
	}
	return s.Caller.Administrator || s.Caller.HasRole(s.Settings.AdminRoleID)
}

// IsVoter requires the configured voter role. No voter role means no voters.
func (s Scope) IsVoter(identity, guildID string) bool {
	if !s.matches(identity, guildID) {
		return false
	}
	return s.Caller.HasRole(s.Settings.VoterRoleID)
}

// The scope only knows about its own caller in its own guild
func (s Scope) matches(identity, guildID string) bool {
	return identity != "" && identity == s.Caller.UserID && guildID == s.Settings.GuildID
}

// Render tells the transport where election UI goes
func (s Scope) Render() models.RenderHints {
	return models.RenderHints{
		NomineesChannelID:  s.Settings.NomineesChannelID,
		ElectionsChannelID: s.Settings.ElectionsChannelID,
		LogChannelID:       s.Settings.LogChannelID,
	}
}
