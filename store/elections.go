// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/guild-elections/db"
	"github.com/danielhkuo/guild-elections/models"
)

const electionColumns = `id, guild_id, position, generation, status, opened_by, created_at,
	voting_starts_at, voting_started_at, closed_at, closed_by`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanElection(row rowScanner) (models.Election, error) {
	var e models.Election
	var createdAt int64
	var startsAt, startedAt, closedAt sql.NullInt64
	var closedBy sql.NullString

	err := row.Scan(&e.ID, &e.GuildID, &e.Position, &e.Generation, &e.Status, &e.OpenedBy, &createdAt,
		&startsAt, &startedAt, &closedAt, &closedBy)
	if err != nil {
		return models.Election{}, err
	}

	e.CreatedAt = fromMillis(createdAt)
	e.VotingStartsAt = timePtr(startsAt)
	e.VotingStartedAt = timePtr(startedAt)
	e.ClosedAt = timePtr(closedAt)
	if closedBy.Valid {
		e.ClosedBy = &closedBy.String
	}
	return e, nil
}

func (t *sqlTx) lockClause() string {
	if t.dialect == db.TypePostgres {
		return " FOR UPDATE"
	}
	return ""
}

// ActiveElection returns the non-closed election for (guild, position).
// On PostgreSQL the row stays locked until the transaction ends.
func (t *sqlTx) ActiveElection(ctx context.Context, guildID, position string) (models.Election, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+electionColumns+`
		FROM election
		WHERE guild_id = $1 AND position = $2 AND status <> 'closed'`+t.lockClause(),
		guildID, position)

	e, err := scanElection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Election{}, ErrNotFound
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("query active election: %w", err)
	}
	return e, nil
}

// LatestElection returns the most recently opened election for (guild, position)
// regardless of status. Recency is the generation, not the clock.
func (t *sqlTx) LatestElection(ctx context.Context, guildID, position string) (models.Election, error) {
	return t.latest(ctx, `guild_id = $1 AND position = $2`, guildID, position)
}

// LatestClosedElection returns the most recently opened closed election.
func (t *sqlTx) LatestClosedElection(ctx context.Context, guildID, position string) (models.Election, error) {
	return t.latest(ctx, `guild_id = $1 AND position = $2 AND status = 'closed'`, guildID, position)
}

func (t *sqlTx) latest(ctx context.Context, where string, args ...any) (models.Election, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+electionColumns+`
		FROM election
		WHERE `+where+`
		ORDER BY generation DESC
		LIMIT 1`, args...)

	e, err := scanElection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Election{}, ErrNotFound
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("query latest election: %w", err)
	}
	return e, nil
}

// ListNominating returns the guild's elections still accepting nominations.
func (t *sqlTx) ListNominating(ctx context.Context, guildID string) ([]models.Election, error) {
	return t.list(ctx, `
		SELECT `+electionColumns+`
		FROM election
		WHERE guild_id = $1 AND status = 'nominating'
		ORDER BY position ASC`, guildID)
}

// DueForVoting returns nominating elections whose scheduled start is at or before now.
func (t *sqlTx) DueForVoting(ctx context.Context, now time.Time) ([]models.Election, error) {
	return t.list(ctx, `
		SELECT `+electionColumns+`
		FROM election
		WHERE status = 'nominating'
		  AND voting_starts_at IS NOT NULL
		  AND voting_starts_at <= $1
		ORDER BY voting_starts_at ASC`, toMillis(now))
}

func (t *sqlTx) list(ctx context.Context, query string, args ...any) ([]models.Election, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query elections: %w", err)
	}
	defer rows.Close()

	elections := []models.Election{}
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan election: %w", err)
		}
		elections = append(elections, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate elections: %w", err)
	}
	return elections, nil
}

// CreateElection inserts a new election and returns it with its generation,
// one more than any earlier election for the same guild and position.
// ErrDuplicate means a non-closed election already exists for the pair.
func (t *sqlTx) CreateElection(ctx context.Context, e models.Election) (models.Election, error) {
	var next int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(generation), 0) + 1 FROM election WHERE guild_id = $1 AND position = $2`,
		e.GuildID, e.Position).Scan(&next)
	if err != nil {
		return models.Election{}, fmt.Errorf("next election generation: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO election (id, guild_id, position, generation, status, opened_by, created_at,
			voting_starts_at, voting_started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.GuildID, e.Position, next, e.Status, e.OpenedBy, toMillis(e.CreatedAt),
		nullableMillis(e.VotingStartsAt), nullableMillis(e.VotingStartedAt))
	if isUniqueViolation(err) {
		return models.Election{}, ErrDuplicate
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("insert election: %w", err)
	}

	e.Generation = next
	return e, nil
}

// StartVoting moves a nominating election to voting.
func (t *sqlTx) StartVoting(ctx context.Context, electionID string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE election
		SET status = 'voting', voting_started_at = $1
		WHERE id = $2 AND status = 'nominating'`,
		toMillis(at), electionID)
	if err != nil {
		return fmt.Errorf("start voting: %w", err)
	}
	return requireOneRow(res)
}

// CloseElection marks a non-closed election closed.
func (t *sqlTx) CloseElection(ctx context.Context, electionID, closedBy string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE election
		SET status = 'closed', closed_at = $1, closed_by = $2
		WHERE id = $3 AND status <> 'closed'`,
		toMillis(at), closedBy, electionID)
	if err != nil {
		return fmt.Errorf("close election: %w", err)
	}
	return requireOneRow(res)
}

// DeleteElection removes an election and everything recorded against it.
func (t *sqlTx) DeleteElection(ctx context.Context, electionID string) error {
	for _, table := range []string{"ballot", "nomination", "result_snapshot"} {
		if _, err := t.tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE election_id = $1`, electionID); err != nil {
			return fmt.Errorf("delete %s rows: %w", table, err)
		}
	}

	res, err := t.tx.ExecContext(ctx, `DELETE FROM election WHERE id = $1`, electionID)
	if err != nil {
		return fmt.Errorf("delete election: %w", err)
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
