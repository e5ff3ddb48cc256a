// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms). Request bodies are never logged, so ballots stay out of logs.

# Request Metrics

	middleware.WithMetrics("POST /guilds/{guild}/elections/{position}/ballots", m, handler)

Counts responses by route pattern and status code. A nil observer leaves
the handler unwrapped.

# Caller Identity

The chat gateway signs who is interacting. CallerFromRequest reads the
identity headers and checks the signature for the guild in the path:

	X-User-ID             member ID
	X-User-Roles          comma separated role IDs
	X-User-Administrator  true/false (platform administrator)
	X-Gateway-Signature   see auth.SignIdentity

	caller, err := middleware.CallerFromRequest(r, guildID, cfg.GatewaySecret)

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows GET, POST, PUT, OPTIONS with Content-Type and the gateway headers.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ErrorResponseCode(w, http.StatusConflict, "already_closed", "message")

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Handles X-Forwarded-For and X-Real-IP; used in request logs.
*/
package middleware
