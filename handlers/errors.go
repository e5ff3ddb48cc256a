// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/guild-elections/election"
	"github.com/danielhkuo/guild-elections/middleware"
)

// Retry hint for store_unavailable responses, in seconds
const retryAfterSeconds = "1"

// statusFor maps an engine error class to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, election.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, election.ErrNoActiveElection):
		return http.StatusNotFound
	case errors.Is(err, election.ErrElectionAlreadyOpen),
		errors.Is(err, election.ErrAlreadyClosed),
		errors.Is(err, election.ErrDuplicateCandidate),
		errors.Is(err, election.ErrVotingAlreadyStarted):
		return http.StatusConflict
	case errors.Is(err, election.ErrInvalidCandidate),
		errors.Is(err, election.ErrVotingNotOpen),
		errors.Is(err, election.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, election.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageFor is the text shown to the requester for each error class
func messageFor(err error) string {
	switch {
	case errors.Is(err, election.ErrUnauthorized):
		return "You do not have permission to do that"
	case errors.Is(err, election.ErrNoActiveElection):
		return "There is no active election for that position"
	case errors.Is(err, election.ErrElectionAlreadyOpen):
		return "An election for that position is already open"
	case errors.Is(err, election.ErrAlreadyClosed):
		return "That election has already been closed"
	case errors.Is(err, election.ErrDuplicateCandidate):
		return "You are already nominated for that position"
	case errors.Is(err, election.ErrInvalidCandidate):
		return "That candidate is not nominated for this election"
	case errors.Is(err, election.ErrVotingNotOpen):
		return "Voting has not started yet"
	case errors.Is(err, election.ErrVotingAlreadyStarted):
		return "Voting has started; nominations are closed"
	case errors.Is(err, election.ErrInvalidInput):
		return invalidInputMessage(err)
	case errors.Is(err, election.ErrStoreUnavailable):
		return "Elections are temporarily unavailable, please try again"
	default:
		return "Internal error"
	}
}

// invalidInputMessage reports which input was rejected, e.g. "Candidate is required"
func invalidInputMessage(err error) string {
	detail := strings.TrimPrefix(err.Error(), election.ErrInvalidInput.Error()+": ")
	if detail == "" || detail == err.Error() {
		return "Invalid input"
	}
	return strings.ToUpper(detail[:1]) + detail[1:]
}

// writeEngineError sends an engine failure privately to the requester
func writeEngineError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("unclassified engine error", "error", err)
	}
	if election.Retriable(err) {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	middleware.ErrorResponseCode(w, status, election.Code(err), messageFor(err))
}
