package utils // package utils provides helpers for token creation and verification

import (
	"crypto/sha256" // SHA-256 hashing for stored refresh tokens
	"encoding/hex"  // hex encoding of the refresh hash
	"errors"        // sentinel errors shared with handlers
	"time"          // expiry computation

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidToken is returned when a token fails signature or expiry
// verification. Handlers translate it into an HTTP 401 response.
var ErrInvalidToken = errors.New("invalid token")

// MemberClaims is the claim set carried by both access and refresh tokens:
// the member's identity plus the registered expiry/issued-at claims. Both
// token kinds embed the same identity so a refreshed access token can be
// minted without another member lookup.
type MemberClaims struct {
	MemberID uint64 `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// SignedToken bundles a serialized JWT with its expiration time so the
// handler can report the expiry back to the client.
type SignedToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken signs an HS256 access token with a minutes-scale TTL.
// Access tokens authorize API calls via the Authorization header.
func NewAccessToken(secret string, id uint64, name, email, role string, ttlMin int) (SignedToken, error) {
	return signToken(secret, id, name, email, role, time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken signs an HS256 refresh token with an hours-scale TTL
// using a secret distinct from the access secret. Only the SHA-256 hash of
// the result is persisted; the raw token goes back to the client.
func NewRefreshToken(secret string, id uint64, name, email, role string, ttlHours int) (SignedToken, error) {
	return signToken(secret, id, name, email, role, time.Duration(ttlHours)*time.Hour)
}

func signToken(secret string, id uint64, name, email, role string, ttl time.Duration) (SignedToken, error) {
	exp := time.Now().UTC().Add(ttl)
	claims := MemberClaims{
		MemberID: id,
		Name:     name,
		Email:    email,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseToken verifies signature and expiry of a serialized token and
// returns its claims. Any parse or validation failure is reported as
// ErrInvalidToken; callers never see library-level error details.
func ParseToken(secret, raw string) (*MemberClaims, error) {
	claims := &MemberClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything other than HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashRefreshRaw returns the SHA-256 hash of a raw refresh token as a hex
// string. The member row stores only this hash so a leaked database dump
// cannot be used to redeem refresh tokens.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
