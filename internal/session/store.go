// Package session implements the server-side session store used by the
// cookie auth mode: an opaque random id mapped to a member id, destroyed on
// logout or expiry. Redis backs the store when available so sessions
// survive restarts and are shared across instances; otherwise an in-memory
// store serves a single process.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned when a session id is unknown, expired or
// already destroyed. Handlers treat it as an unauthenticated request.
var ErrNotFound = errors.New("session not found")

// Store maps opaque session ids to member ids.
type Store interface {
	// Create registers a new session for the member and returns its id.
	Create(ctx context.Context, memberID uint64, ttl time.Duration) (string, error)
	// Get resolves a session id to a member id.
	Get(ctx context.Context, id string) (uint64, error)
	// Destroy removes a session. Destroying an unknown id is not an error.
	Destroy(ctx context.Context, id string) error
}

// newSessionID returns 32 random bytes hex-encoded. The id carries no
// meaning; identity lives entirely server-side.
func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
