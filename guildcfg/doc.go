// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package guildcfg stores per-guild settings and turns them into capability
checks for one interaction.

# Settings

Each guild designates channels and roles during setup:

  - nominees channel and elections channel (required)
  - voter role and admin role (required)
  - log channel (optional)

Setup may be run repeatedly; Apply keeps existing values for blank fields.
Missing lists the required fields that are still blank.

# Scope

Scope pairs one guild's settings with one caller and implements the
election engine's Capabilities:

	settings, err := cfgStore.Get(ctx, guildID)
	scope := guildcfg.NewScope(settings, caller)
	result, err := engine.Close(ctx, scope, guildID, position, caller.UserID)

Admin: platform administrator, or holder of the configured admin role.
Voter: holder of the configured voter role. A scope answers false for any
identity or guild other than its own.

Scopes are built per request from freshly read settings and never shared.
*/
package guildcfg
