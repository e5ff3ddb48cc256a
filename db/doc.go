// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connecting

Open selects the driver by type and pings the database:

	conn, err := db.Open(db.TypeSQLite, "data/elections.db")
	conn, err := db.Open(db.TypePostgres, "postgres://...")

SQLite URLs without a query string get foreign keys, a busy timeout, and WAL
journaling switched on. SQLite pools are capped at one open connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on SQLite and PostgreSQL.

# Tables

  - guild_settings: per-guild channel and role designations
  - election: one row per election, closed rows kept as history
  - nomination: candidates per election, ordered by seq
  - ballot: one ballot per (election, voter hash)
  - result_snapshot: immutable tally written on close

# Relationships

	election 1──* nomination
	election 1──* ballot
	election 1──1 result_snapshot

# Constraints

  - election (guild_id, position) is unique among non-closed rows
  - nomination (election_id, candidate_id) primary key
  - ballot (election_id, voter_hash) primary key
*/
package db
