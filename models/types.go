// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Election status constants
const (
	StatusNominating = "nominating"
	StatusVoting     = "voting"
	StatusClosed     = "closed"
)

// Result outcome constants
const (
	OutcomeWinner  = "winner"
	OutcomeTie     = "tie"
	OutcomeNoVotes = "no_votes"
)

// Domain types

type Election struct {
	ID              string     `json:"id"`
	GuildID         string     `json:"guild_id"`
	Position        string     `json:"position"`
	Generation      int        `json:"generation"` // 1 for the first election of a position, then increasing
	Status          string     `json:"status"`
	OpenedBy        string     `json:"opened_by"`
	CreatedAt       time.Time  `json:"created_at"`
	VotingStartsAt  *time.Time `json:"voting_starts_at,omitempty"`
	VotingStartedAt *time.Time `json:"voting_started_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	ClosedBy        *string    `json:"closed_by,omitempty"`
}

// Active reports whether the election still accepts nominations or votes.
func (e Election) Active() bool {
	return e.Status == StatusNominating || e.Status == StatusVoting
}

type Nomination struct {
	ElectionID  string    `json:"-"`
	CandidateID string    `json:"candidate_id"`
	DisplayName string    `json:"display_name"`
	Order       int       `json:"order"`
	NominatedAt time.Time `json:"nominated_at"`
}

// Ballot is never serialized; it only travels from the store to the tally.
type Ballot struct {
	ElectionID  string
	VoterHash   string
	CandidateID string
	UpdatedAt   time.Time
}

type CandidateResult struct {
	CandidateID string `json:"candidate_id"`
	DisplayName string `json:"display_name"`
	Votes       int    `json:"votes"`
	Rank        int    `json:"rank"` // 1-indexed, shared by tied candidates
}

// Result is the tally package handed to the closing admin.
type Result struct {
	SnapshotID  string            `json:"snapshot_id"`
	ElectionID  string            `json:"election_id"`
	GuildID     string            `json:"guild_id"`
	Position    string            `json:"position"`
	Outcome     string            `json:"outcome"`
	Winner      *CandidateResult  `json:"winner,omitempty"`
	Tied        []CandidateResult `json:"tied,omitempty"`
	Standings   []CandidateResult `json:"standings"`
	TotalVotes  int               `json:"total_votes"`
	ClosedBy    string            `json:"closed_by"`
	ClosedAt    time.Time         `json:"closed_at"`
	StatusAtEnd string            `json:"status_when_closed"`
	Summary     string            `json:"summary"`
}

type GuildSettings struct {
	GuildID            string    `json:"guild_id"`
	NomineesChannelID  string    `json:"nominees_channel_id,omitempty"`
	ElectionsChannelID string    `json:"elections_channel_id,omitempty"`
	LogChannelID       string    `json:"log_channel_id,omitempty"`
	AdminRoleID        string    `json:"admin_role_id,omitempty"`
	VoterRoleID        string    `json:"voter_role_id,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Caller is the chat-platform member behind one interaction.
type Caller struct {
	UserID        string
	RoleIDs       []string
	Administrator bool
}

// HasRole reports whether the caller holds roleID.
func (c Caller) HasRole(roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, r := range c.RoleIDs {
		if r == roleID {
			return true
		}
	}
	return false
}

// Request types

type SetupRequest struct {
	NomineesChannelID  string `json:"nominees_channel_id"`
	ElectionsChannelID string `json:"elections_channel_id"`
	LogChannelID       string `json:"log_channel_id"`
	AdminRoleID        string `json:"admin_role_id"`
	VoterRoleID        string `json:"voter_role_id"`
}

type OpenElectionRequest struct {
	ClearExisting  bool       `json:"clear_existing"`
	VotingStartsAt *time.Time `json:"voting_starts_at,omitempty"`
}

type NominateRequest struct {
	DisplayName string `json:"display_name"`
}

type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`
}

// Response types

// RenderHints tells the transport where election UI belongs.
type RenderHints struct {
	NomineesChannelID  string `json:"nominees_channel_id,omitempty"`
	ElectionsChannelID string `json:"elections_channel_id,omitempty"`
	LogChannelID       string `json:"log_channel_id,omitempty"`
}

type OpenElectionResponse struct {
	Election Election     `json:"election"`
	Nominees []Nomination `json:"nominees"`
	Message  string       `json:"message"`
	Render   RenderHints  `json:"render"`
}

type NomineesResponse struct {
	Position string       `json:"position"`
	Status   string       `json:"status"`
	Nominees []Nomination `json:"nominees"`
	Render   RenderHints  `json:"render"`
}

type StartVotingResponse struct {
	Election Election     `json:"election"`
	Nominees []Nomination `json:"nominees"`
	Render   RenderHints  `json:"render"`
}

type CastVoteResponse struct {
	Message string `json:"message"`
}

type ElectionListResponse struct {
	Elections []Election `json:"elections"`
}

type SettingsStatusResponse struct {
	Settings GuildSettings `json:"settings"`
	Missing  []string      `json:"missing"`
	Complete bool          `json:"complete"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
