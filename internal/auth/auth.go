// Package auth provides the API key authentication middleware guarding
// every mutating and read route except the health probe.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

const headerName = "X-API-Key"

// Middleware returns a handler that rejects requests missing a valid
// X-API-Key header with 401, and otherwise delegates to next. key is
// the configured valid API key; it must be non-empty (Config.Load
// enforces this at boot, so Middleware itself does not check).
func Middleware(key string) func(http.Handler) http.Handler {
	expected := sha256.Sum256([]byte(key))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			supplied := r.Header.Get(headerName)
			if !validKey(expected, supplied) {
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// validKey compares the supplied key against the expected one in
// constant time. Both sides are first hashed to a fixed-length digest
// so that the comparison's cost does not vary with the supplied key's
// length — subtle.ConstantTimeCompare alone only protects against
// timing leaks once the two slices are already equal length.
func validKey(expected [sha256.Size]byte, supplied string) bool {
	if supplied == "" {
		return false
	}
	got := sha256.Sum256([]byte(supplied))
	return subtle.ConstantTimeCompare(expected[:], got[:]) == 1
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "Unauthorized: Invalid or missing API key",
	})
}
