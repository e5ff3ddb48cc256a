// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/danielhkuo/guild-elections/db"
	"github.com/danielhkuo/guild-elections/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Store runs election work inside one atomic unit.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the persistence contract available inside a transaction.
type Tx interface {
	ActiveElection(ctx context.Context, guildID, position string) (models.Election, error)
	LatestElection(ctx context.Context, guildID, position string) (models.Election, error)
	LatestClosedElection(ctx context.Context, guildID, position string) (models.Election, error)
	ListNominating(ctx context.Context, guildID string) ([]models.Election, error)
	DueForVoting(ctx context.Context, now time.Time) ([]models.Election, error)
	CreateElection(ctx context.Context, e models.Election) (models.Election, error)
	StartVoting(ctx context.Context, electionID string, at time.Time) error
	CloseElection(ctx context.Context, electionID, closedBy string, at time.Time) error
	DeleteElection(ctx context.Context, electionID string) error

	AddNomination(ctx context.Context, n models.Nomination) (models.Nomination, error)
	Nominations(ctx context.Context, electionID string) ([]models.Nomination, error)

	UpsertBallot(ctx context.Context, b models.Ballot) error
	Ballots(ctx context.Context, electionID string) ([]models.Ballot, error)

	SaveResult(ctx context.Context, r models.Result) error
	Result(ctx context.Context, electionID string) (models.Result, error)
}

// SQLStore persists elections through database/sql on SQLite or PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// New wraps an open database handle. dialect is db.TypeSQLite or db.TypePostgres.
func New(conn *sql.DB, dialect string) *SQLStore {
	if dialect == "" {
		dialect = db.TypeSQLite
	}
	return &SQLStore{db: conn, dialect: dialect}
}

// InTx runs fn in a transaction, committing only when fn returns nil.
func (s *SQLStore) InTx(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx, dialect: s.dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type sqlTx struct {
	tx      *sql.Tx
	dialect string
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func nullableMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

func timePtr(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

// isUniqueViolation recognizes constraint failures from both drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ Store = (*SQLStore)(nil)
var _ Tx = (*sqlTx)(nil)
