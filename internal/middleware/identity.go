package middleware // middleware provides shared request processing for handlers

// identity.go implements the authorization gate. Exactly one of the two
// resolvers is installed at startup, matching the configured auth mode.
// Both set the same context keys so handlers and RequireRole never care
// which mode is running:
//
//	member_id  uint64
//	role       string
//	name/email string (token mode only; session mode loads them on demand)
//	session_id string (session mode only, consumed by logout)

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kyungh/bulletin-board/internal/repository"
	"github.com/kyungh/bulletin-board/internal/session"
	"github.com/kyungh/bulletin-board/internal/utils"
)

// SessionCookieName is the cookie carrying the opaque session id.
const SessionCookieName = "session_id"

// BearerAuth validates the Authorization bearer access token and injects
// its claims into the request context. Requests without a valid token get
// a 401 before any handler runs.
func BearerAuth(accessSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseToken(accessSecret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set("member_id", claims.MemberID)
			c.Set("name", claims.Name)
			c.Set("email", claims.Email)
			c.Set("role", claims.Role)
			return next(c)
		}
	}
}

// MemberGetter is the member lookup the session resolver needs to attach
// the caller's role.
type MemberGetter interface {
	GetByID(ctx context.Context, id uint64) (repository.Member, error)
}

// SessionAuth resolves identity from the session cookie. The member row is
// loaded so the role claim is available to RequireRole, mirroring what the
// bearer resolver gets from the token.
func SessionAuth(store session.Store, members MemberGetter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			memberID, err := store.Get(ctx, cookie.Value)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
			}
			m, err := members.GetByID(ctx, memberID)
			if err != nil {
				// Session outlived the member row; treat as logged out.
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
			}
			c.Set("member_id", m.ID)
			c.Set("name", m.Name)
			c.Set("email", m.Email)
			c.Set("role", m.Role)
			c.Set("session_id", cookie.Value)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	const prefix = "Bearer "
	auth := c.Request().Header.Get("Authorization")
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}
