// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/guild-elections/election"
	"github.com/danielhkuo/guild-elections/guildcfg"
	"github.com/danielhkuo/guild-elections/models"
	"github.com/danielhkuo/guild-elections/testutil"
)

func (env testEnv) callSettings(h http.HandlerFunc, method string, body interface{}, caller models.Caller) *httptest.ResponseRecorder {
	req := testutil.MakeRequest(method, "/guilds/"+testutil.TestGuildID+"/settings", body,
		testutil.CallerHeaders(env.cfg, testutil.TestGuildID, caller))
	req.SetPathValue("guild", testutil.TestGuildID)

	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestSetup(t *testing.T) {
	env := setupHandlers(t, testutil.GetTestConfig())
	owner := models.Caller{UserID: "owner", Administrator: true}

	t.Run("member cannot run first setup", func(t *testing.T) {
		w := env.callSettings(env.settings.Setup, "PUT", models.SetupRequest{AdminRoleID: "role-mine"}, testutil.Member("member-1"))
		assertCode(t, w, http.StatusForbidden, election.CodeUnauthorized)
	})

	t.Run("administrator runs partial setup", func(t *testing.T) {
		w := env.callSettings(env.settings.Setup, "PUT", models.SetupRequest{
			NomineesChannelID: "chan-n",
			AdminRoleID:       testutil.TestAdminRoleID,
		}, owner)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.SettingsStatusResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Complete {
			t.Error("Expected incomplete settings")
		}
		if len(resp.Missing) != 2 || resp.Missing[0] != guildcfg.FieldElectionsChannel || resp.Missing[1] != guildcfg.FieldVoterRole {
			t.Errorf("Unexpected missing fields %v", resp.Missing)
		}
	})

	t.Run("admin role holder completes setup", func(t *testing.T) {
		w := env.callSettings(env.settings.Setup, "PUT", models.SetupRequest{
			ElectionsChannelID: "chan-e",
			VoterRoleID:        testutil.TestVoterRoleID,
		}, testutil.Admin("admin-1"))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.SettingsStatusResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.Complete {
			t.Errorf("Expected complete settings, missing %v", resp.Missing)
		}
		if resp.Settings.NomineesChannelID != "chan-n" {
			t.Errorf("Expected earlier nominees channel to be kept, got %q", resp.Settings.NomineesChannelID)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("PUT", "/guilds/guild-1/settings", nil)
		for k, v := range testutil.CallerHeaders(env.cfg, testutil.TestGuildID, owner) {
			req.Header.Set(k, v)
		}
		req.SetPathValue("guild", testutil.TestGuildID)
		w := httptest.NewRecorder()

		env.settings.Setup(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestSettingsStatus(t *testing.T) {
	env := setupHandlers(t, testutil.GetTestConfig())

	t.Run("unconfigured guild", func(t *testing.T) {
		w := env.callSettings(env.settings.Status, "GET", nil, models.Caller{UserID: "owner", Administrator: true})
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.SettingsStatusResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Complete || len(resp.Missing) != 4 {
			t.Errorf("Expected all four fields missing, got %v", resp.Missing)
		}
	})

	testutil.SeedSettings(t, env.conn, testutil.TestGuildID)

	t.Run("voter is refused", func(t *testing.T) {
		w := env.callSettings(env.settings.Status, "GET", nil, testutil.Voter("voter-1"))
		assertCode(t, w, http.StatusForbidden, election.CodeUnauthorized)
	})

	t.Run("admin sees settings", func(t *testing.T) {
		w := env.callSettings(env.settings.Status, "GET", nil, testutil.Admin("admin-1"))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.SettingsStatusResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.Complete || resp.Settings.VoterRoleID != testutil.TestVoterRoleID {
			t.Errorf("Unexpected status %+v", resp)
		}
	})

	t.Run("unsigned request", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/guilds/guild-1/settings/status", nil)
		req.SetPathValue("guild", testutil.TestGuildID)
		w := httptest.NewRecorder()

		env.settings.Status(w, req)

		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})
}
