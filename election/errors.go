// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized         = errors.New("not authorized for this election action")
	ErrNoActiveElection     = errors.New("no active election for this position")
	ErrElectionAlreadyOpen  = errors.New("an election is already open for this position")
	ErrAlreadyClosed        = errors.New("election is already closed")
	ErrDuplicateCandidate   = errors.New("candidate is already nominated")
	ErrInvalidCandidate     = errors.New("candidate is not a nominee")
	ErrVotingNotOpen        = errors.New("voting has not started for this election")
	ErrVotingAlreadyStarted = errors.New("voting has already started for this election")
	ErrInvalidInput         = errors.New("invalid input")
	ErrStoreUnavailable     = errors.New("election store unavailable")
)

// Stable codes reported to callers and used as metric outcomes
const (
	CodeOK                   = "ok"
	CodeUnauthorized         = "unauthorized"
	CodeNoActiveElection     = "no_active_election"
	CodeElectionAlreadyOpen  = "election_already_open"
	CodeAlreadyClosed        = "already_closed"
	CodeDuplicateCandidate   = "duplicate_candidate"
	CodeInvalidCandidate     = "invalid_candidate"
	CodeVotingNotOpen        = "voting_not_open"
	CodeVotingAlreadyStarted = "voting_already_started"
	CodeInvalidInput         = "invalid_input"
	CodeStoreUnavailable     = "store_unavailable"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrUnauthorized, CodeUnauthorized},
	{ErrNoActiveElection, CodeNoActiveElection},
	{ErrElectionAlreadyOpen, CodeElectionAlreadyOpen},
	{ErrAlreadyClosed, CodeAlreadyClosed},
	{ErrDuplicateCandidate, CodeDuplicateCandidate},
	{ErrInvalidCandidate, CodeInvalidCandidate},
	{ErrVotingNotOpen, CodeVotingNotOpen},
	{ErrVotingAlreadyStarted, CodeVotingAlreadyStarted},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrStoreUnavailable, CodeStoreUnavailable},
}

// Code maps an engine error to its stable code. Unknown errors report
// store_unavailable since the engine wraps every infrastructure failure.
func Code(err error) string {
	if err == nil {
		return CodeOK
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeStoreUnavailable
}

// Retriable reports whether the caller may safely retry the whole operation.
func Retriable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// classify leaves taxonomy errors untouched and wraps everything else
// (driver failures, lock waits, deadlines) as ErrStoreUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
