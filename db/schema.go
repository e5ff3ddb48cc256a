// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database types accepted by Open
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Open opens a connection pool for the given database type and verifies it.
func Open(dbType, url string) (*sql.DB, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("database url is required")
	}

	var conn *sql.DB
	var err error
	switch dbType {
	case TypeSQLite, "":
		dsn := url
		if !strings.Contains(dsn, "?") {
			dsn += "?" + sqlitePragmas
		}
		conn, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite db: %w", err)
		}
		// SQLite allows one writer; a single connection keeps
		// transactions from tripping over SQLITE_BUSY.
		conn.SetMaxOpenConns(1)
	case TypePostgres:
		conn, err = sql.Open("postgres", url)
		if err != nil {
			return nil, fmt.Errorf("open postgres db: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s db: %w", dbType, err)
	}
	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Timestamps are unix milliseconds so both drivers agree on the format.
const schema = `
-- Guild settings
CREATE TABLE IF NOT EXISTS guild_settings (
    guild_id TEXT PRIMARY KEY,
    nominees_channel_id TEXT NOT NULL DEFAULT '',
    elections_channel_id TEXT NOT NULL DEFAULT '',
    log_channel_id TEXT NOT NULL DEFAULT '',
    admin_role_id TEXT NOT NULL DEFAULT '',
    voter_role_id TEXT NOT NULL DEFAULT '',
    updated_at BIGINT NOT NULL
);

-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    guild_id TEXT NOT NULL,
    position TEXT NOT NULL,
    generation INTEGER NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('nominating', 'voting', 'closed')),
    opened_by TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    voting_starts_at BIGINT,
    voting_started_at BIGINT,
    closed_at BIGINT,
    closed_by TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_election_active ON election(guild_id, position) WHERE status <> 'closed';
CREATE UNIQUE INDEX IF NOT EXISTS idx_election_generation ON election(guild_id, position, generation);
CREATE INDEX IF NOT EXISTS idx_election_status ON election(status);

-- Nominations
CREATE TABLE IF NOT EXISTS nomination (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    seq INTEGER NOT NULL,
    nominated_at BIGINT NOT NULL,
    PRIMARY KEY (election_id, candidate_id)
);

CREATE INDEX IF NOT EXISTS idx_nomination_order ON nomination(election_id, seq);

-- Ballots
CREATE TABLE IF NOT EXISTS ballot (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    voter_hash TEXT NOT NULL,
    candidate_id TEXT NOT NULL,
    updated_at BIGINT NOT NULL,
    PRIMARY KEY (election_id, voter_hash)
);

-- Result Snapshots
CREATE TABLE IF NOT EXISTS result_snapshot (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL UNIQUE REFERENCES election(id) ON DELETE CASCADE,
    computed_at BIGINT NOT NULL,
    payload TEXT NOT NULL
);
`
