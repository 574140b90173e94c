// Package auth implements the session/token issuer as one capability with
// two interchangeable strategies selected by configuration: a JWT
// access/refresh pair (token mode) or a server-side session keyed by an
// opaque cookie (session mode). Handlers talk to the Strategy interface
// and never branch on the mode themselves.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/kyungh/bulletin-board/internal/repository"
	"github.com/kyungh/bulletin-board/internal/utils"
)

// ErrUnrecognizedToken is returned by Refresh when the token verifies but
// no member currently holds it: it was revoked by logout or replaced by a
// newer login.
var ErrUnrecognizedToken = errors.New("unrecognized refresh token")

// ErrRefreshUnsupported is returned by the session strategy, which has no
// token to renew.
var ErrRefreshUnsupported = errors.New("refresh not supported in session mode")

// LoginResult carries whichever continuity artifact the active strategy
// produced: a token pair or a session id for the cookie.
type LoginResult struct {
	Access     *utils.SignedToken // token mode
	Refresh    *utils.SignedToken // token mode
	SessionID  string             // session mode
	SessionTTL time.Duration      // session mode, cookie max age
}

// Strategy establishes, renews and tears down identity continuity after a
// successful credential check. Login never verifies passwords; that stays
// with the member store.
type Strategy interface {
	Login(ctx context.Context, m repository.Member) (*LoginResult, error)
	// Refresh exchanges a valid refresh token for a new access token.
	Refresh(ctx context.Context, rawRefresh string) (utils.SignedToken, error)
	// Logout invalidates the member's continuity artifact: the stored
	// refresh token in token mode, the session record in session mode.
	Logout(ctx context.Context, memberID uint64, sessionID string) error
}
