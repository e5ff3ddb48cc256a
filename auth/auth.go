// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Headers the chat gateway sets on every request
const (
	HeaderUserID        = "X-User-ID"
	HeaderUserRoles     = "X-User-Roles"
	HeaderAdministrator = "X-User-Administrator"
	HeaderSignature     = "X-Gateway-Signature"
)

var (
	ErrInvalidSignature = errors.New("invalid gateway signature")
	ErrMissingIdentity  = errors.New("missing caller identity")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SignIdentity creates the HMAC the chat gateway attaches to every request.
// Roles are sorted first so header ordering does not matter.
func SignIdentity(secret, guildID, userID string, roleIDs []string, administrator bool) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(canonicalIdentity(guildID, userID, roleIDs, administrator)))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner headers
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateIdentity checks the gateway signature for a caller in a guild
func ValidateIdentity(secret, guildID, userID string, roleIDs []string, administrator bool, signature string) error {
	if userID == "" {
		return ErrMissingIdentity
	}
	expected := SignIdentity(secret, guildID, userID, roleIDs, administrator)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

func canonicalIdentity(guildID, userID string, roleIDs []string, administrator bool) string {
	roles := slices.Clone(roleIDs)
	slices.Sort(roles)
	return strings.Join([]string{
		guildID,
		userID,
		strings.Join(roles, ","),
		strconv.FormatBool(administrator),
	}, "|")
}

// HashVoter creates a one-way hash of a voter identity for ballot storage.
// Scoped by guild so the same member hashes differently across guilds.
func HashVoter(salt, guildID, voterID string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(guildID + "|" + voterID))
	sum := h.Sum(nil)
	// 128 bits is plenty for per-election uniqueness
	return hex.EncodeToString(sum[:16])
}
