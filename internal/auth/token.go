package auth

import (
	"context"
	"errors"

	"github.com/kyungh/bulletin-board/internal/repository"
	"github.com/kyungh/bulletin-board/internal/utils"
)

// RefreshStore is the slice of the member store the token strategy needs:
// the single refresh-hash column on the member row.
type RefreshStore interface {
	SetRefreshHash(ctx context.Context, id uint64, hash string) error
	ClearRefreshHash(ctx context.Context, id uint64) error
	GetByRefreshHash(ctx context.Context, hash string) (repository.Member, error)
}

// TokenStrategy issues an HS256 access/refresh pair on login. The refresh
// token's SHA-256 hash is persisted on the member row, so a member holds
// at most one live refresh token: a later login or a logout invalidates
// everything issued before it.
type TokenStrategy struct {
	accessSecret  string
	refreshSecret string
	accessTTLMin  int
	refreshTTLHrs int
	members       RefreshStore
}

func NewTokenStrategy(accessSecret, refreshSecret string, accessTTLMin, refreshTTLHours int, members RefreshStore) *TokenStrategy {
	return &TokenStrategy{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTLMin:  accessTTLMin,
		refreshTTLHrs: refreshTTLHours,
		members:       members,
	}
}

func (s *TokenStrategy) Login(ctx context.Context, m repository.Member) (*LoginResult, error) {
	access, err := utils.NewAccessToken(s.accessSecret, m.ID, m.Name, m.Email, m.Role, s.accessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(s.refreshSecret, m.ID, m.Name, m.Email, m.Role, s.refreshTTLHrs)
	if err != nil {
		return nil, err
	}
	if err := s.members.SetRefreshHash(ctx, m.ID, utils.HashRefreshRaw(refresh.Token)); err != nil {
		return nil, err
	}
	return &LoginResult{Access: &access, Refresh: &refresh}, nil
}

// Refresh verifies the refresh token's signature and expiry, then checks
// that some member still holds exactly this token. The two failures are
// distinct: ErrInvalidToken for a bad token, ErrUnrecognizedToken for a
// valid one that was revoked or superseded.
func (s *TokenStrategy) Refresh(ctx context.Context, rawRefresh string) (utils.SignedToken, error) {
	if _, err := utils.ParseToken(s.refreshSecret, rawRefresh); err != nil {
		return utils.SignedToken{}, utils.ErrInvalidToken
	}
	m, err := s.members.GetByRefreshHash(ctx, utils.HashRefreshRaw(rawRefresh))
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return utils.SignedToken{}, ErrUnrecognizedToken
		}
		return utils.SignedToken{}, err
	}
	return utils.NewAccessToken(s.accessSecret, m.ID, m.Name, m.Email, m.Role, s.accessTTLMin)
}

func (s *TokenStrategy) Logout(ctx context.Context, memberID uint64, _ string) error {
	return s.members.ClearRefreshHash(ctx, memberID)
}
