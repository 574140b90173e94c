package auth

import (
	"context"
	"time"

	"github.com/kyungh/bulletin-board/internal/repository"
	"github.com/kyungh/bulletin-board/internal/session"
	"github.com/kyungh/bulletin-board/internal/utils"
)

// SessionStrategy keeps identity server-side: login writes a session
// record and hands the opaque id back for the cookie; logout destroys the
// record.
type SessionStrategy struct {
	store session.Store
	ttl   time.Duration
}

func NewSessionStrategy(store session.Store, ttl time.Duration) *SessionStrategy {
	return &SessionStrategy{store: store, ttl: ttl}
}

func (s *SessionStrategy) Login(ctx context.Context, m repository.Member) (*LoginResult, error) {
	id, err := s.store.Create(ctx, m.ID, s.ttl)
	if err != nil {
		return nil, err
	}
	return &LoginResult{SessionID: id, SessionTTL: s.ttl}, nil
}

func (s *SessionStrategy) Refresh(context.Context, string) (utils.SignedToken, error) {
	return utils.SignedToken{}, ErrRefreshUnsupported
}

func (s *SessionStrategy) Logout(ctx context.Context, _ uint64, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.store.Destroy(ctx, sessionID)
}
