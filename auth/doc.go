// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identity signing, hashing, and ID generation utilities.

# Gateway Signatures

The chat gateway resolves who is interacting (user ID, role IDs, platform
administrator flag) and signs that identity with a shared secret:

	sig := auth.SignIdentity(secret, guildID, userID, roles, isAdmin)
	err := auth.ValidateIdentity(secret, guildID, userID, roles, isAdmin, sig)

The signature is HMAC-SHA256 over "guild|user|sorted roles|admin", URL-safe
base64 encoded without padding. Role order does not affect the signature.

# Voter Hashing

Ballots never store the raw voter identity:

	hash := auth.HashVoter(salt, guildID, voterID)

Returns the first 16 bytes (32 hex chars) of HMAC-SHA256. The hash is stable,
so it still serves as the one-ballot-per-voter key.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
