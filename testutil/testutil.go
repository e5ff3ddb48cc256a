// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/guild-elections/auth"
	"github.com/danielhkuo/guild-elections/cliparse"
	"github.com/danielhkuo/guild-elections/db"
	"github.com/danielhkuo/guild-elections/models"
)

// Role and user IDs used across tests
const (
	TestGuildID     = "guild-1"
	TestAdminRoleID = "role-admin"
	TestVoterRoleID = "role-citizen"
)

// SetupTestDB creates a fresh sqlite database in a temp dir with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "elections.db")
	conn, err := db.Open(db.TypeSQLite, path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
	})

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:              3318,
		DatabaseURL:       "file::memory:",
		DatabaseType:      db.TypeSQLite,
		GatewaySecret:     "test-gateway-secret",
		BallotSalt:        "test-ballot-salt",
		StoreTimeout:      2 * time.Second,
		EarlyVoting:       true,
		SchedulerInterval: time.Second,
		LogLevel:          "error",
	}
}

// SeedSettings writes a fully configured guild_settings row
func SeedSettings(t *testing.T, conn *sql.DB, guildID string) models.GuildSettings {
	t.Helper()

	settings := models.GuildSettings{
		GuildID:            guildID,
		NomineesChannelID:  "chan-nominees",
		ElectionsChannelID: "chan-elections",
		LogChannelID:       "chan-log",
		AdminRoleID:        TestAdminRoleID,
		VoterRoleID:        TestVoterRoleID,
		UpdatedAt:          time.Now().UTC(),
	}

	_, err := conn.Exec(`
		INSERT INTO guild_settings (guild_id, nominees_channel_id, elections_channel_id,
			log_channel_id, admin_role_id, voter_role_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, settings.GuildID, settings.NomineesChannelID, settings.ElectionsChannelID,
		settings.LogChannelID, settings.AdminRoleID, settings.VoterRoleID, settings.UpdatedAt.UnixMilli())
	if err != nil {
		t.Fatalf("Failed to seed guild settings: %v", err)
	}

	return settings
}

// Admin returns a caller holding the configured admin and voter roles
func Admin(userID string) models.Caller {
	return models.Caller{UserID: userID, RoleIDs: []string{TestAdminRoleID, TestVoterRoleID}}
}

// Voter returns a caller holding only the voter role
func Voter(userID string) models.Caller {
	return models.Caller{UserID: userID, RoleIDs: []string{TestVoterRoleID}}
}

// Member returns a caller with no configured roles
func Member(userID string) models.Caller {
	return models.Caller{UserID: userID}
}

// CallerHeaders builds signed gateway headers for a caller in a guild
func CallerHeaders(cfg cliparse.Config, guildID string, caller models.Caller) map[string]string {
	return map[string]string{
		auth.HeaderUserID:        caller.UserID,
		auth.HeaderUserRoles:     strings.Join(caller.RoleIDs, ","),
		auth.HeaderAdministrator: strconv.FormatBool(caller.Administrator),
		auth.HeaderSignature: auth.SignIdentity(cfg.GatewaySecret, guildID,
			caller.UserID, caller.RoleIDs, caller.Administrator),
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
