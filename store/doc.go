// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists elections, nominations, ballots, and result snapshots.

# Transactions

Every read and write happens inside InTx. The callback's error rolls the
transaction back; a nil return commits:

	s := store.New(conn, db.TypeSQLite)
	err := s.InTx(ctx, func(tx store.Tx) error {
		e, err := tx.ActiveElection(ctx, guildID, position)
		if err != nil {
			return err
		}
		return tx.UpsertBallot(ctx, models.Ballot{ElectionID: e.ID, ...})
	})

On PostgreSQL, ActiveElection takes a row lock (SELECT ... FOR UPDATE).
SQLite pools run a single connection, so transactions are already serial.

# Errors

  - ErrNotFound: no matching row, or an update matched nothing
  - ErrDuplicate: a unique constraint rejected the write

Unique violations are recognized from both drivers (modernc.org/sqlite
extended result codes and lib/pq SQLSTATE 23505). Anything else is a storage
failure and is returned wrapped.

# Ballots

Ballots are keyed by (election_id, voter_hash) and written with an upsert, so
a later vote replaces the earlier one. Ballots is the only read path and is
meant for tallying.

# Timestamps

All timestamps are stored as unix milliseconds and read back in UTC.
*/
package store
