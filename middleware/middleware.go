// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/guild-elections/auth"
	"github.com/danielhkuo/guild-elections/models"
)

// RequestObserver counts finished requests per route
type RequestObserver interface {
	ObserveRequest(route, code string)
}

// statusWriter remembers the status code written by the handler
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// WithLogging wraps a handler with request logging
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Log request
		slog.Info("request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", GetClientIP(r),
		)

		sw := &statusWriter{ResponseWriter: w}
		next(sw, r)

		// Log completion
		duration := time.Since(start)
		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.code(),
			"duration_ms", duration.Milliseconds(),
		)
	}
}

func (w *statusWriter) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// WithMetrics counts responses by route pattern and status code. The route
// is the mux pattern, never the raw path, so IDs stay out of labels.
func WithMetrics(route string, obs RequestObserver, next http.HandlerFunc) http.HandlerFunc {
	if obs == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		next(sw, r)
		obs.ObserveRequest(route, strconv.Itoa(sw.code()))
	}
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	ErrorResponseCode(w, statusCode, "", message)
}

// ErrorResponseCode writes a JSON error response with a stable error code
func ErrorResponseCode(w http.ResponseWriter, statusCode int, code, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    code,
		Message: message,
	})
}

// ParseJSONBody parses the request body into the given struct
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

// CallerFromRequest reads the gateway identity headers and verifies their
// signature for the given guild.
func CallerFromRequest(r *http.Request, guildID, secret string) (models.Caller, error) {
	caller := models.Caller{
		UserID:  strings.TrimSpace(r.Header.Get(auth.HeaderUserID)),
		RoleIDs: parseRoles(r.Header.Get(auth.HeaderUserRoles)),
	}

	if v := r.Header.Get(auth.HeaderAdministrator); v != "" {
		admin, err := strconv.ParseBool(v)
		if err != nil {
			return models.Caller{}, auth.ErrInvalidSignature
		}
		caller.Administrator = admin
	}

	err := auth.ValidateIdentity(secret, guildID, caller.UserID, caller.RoleIDs,
		caller.Administrator, r.Header.Get(auth.HeaderSignature))
	if err != nil {
		return models.Caller{}, err
	}
	return caller, nil
}

func parseRoles(header string) []string {
	var roles []string
	for _, r := range strings.Split(header, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

// CORS middleware allows cross-origin requests from gateway dashboards
func CORS(next http.Handler) http.Handler {
	allowedHeaders := strings.Join([]string{
		"Content-Type",
		auth.HeaderUserID,
		auth.HeaderUserRoles,
		auth.HeaderAdministrator,
		auth.HeaderSignature,
	}, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetClientIP extracts the client IP address
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr
func GetClientIP(r *http.Request) string {
	// Check X-Forwarded-For (load balancers)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take first IP in chain
		if i := strings.IndexAny(xff, ", "); i >= 0 {
			return xff[:i]
		}
		return xff
	}

	// Check X-Real-IP (nginx)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr, stripping the port
	addr := r.RemoteAddr
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		return addr[:i]
	}
	return addr
}
