package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyungh/bulletin-board/internal/repository"
	"github.com/kyungh/bulletin-board/internal/session"
	"github.com/kyungh/bulletin-board/internal/utils"
)

const testSecret = "identity-test-secret"

// okHandler records that the chain reached the handler and echoes the
// context identity back so tests can assert what the resolver stored.
func okHandler(reached *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		*reached = true
		return c.JSON(http.StatusOK, echo.Map{
			"member_id": c.Get("member_id"),
			"role":      c.Get("role"),
		})
	}
}

func TestBearerAuthValidToken(t *testing.T) {
	e := echo.New()
	tok, err := utils.NewAccessToken(testSecret, 7, "kim", "kim@example.com", repository.RoleAdmin, 15)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	require.NoError(t, BearerAuth(testSecret)(okHandler(&reached))(c))
	assert.True(t, reached)
	assert.Equal(t, uint64(7), c.Get("member_id"))
	assert.Equal(t, "kim", c.Get("name"))
	assert.Equal(t, "kim@example.com", c.Get("email"))
	assert.Equal(t, repository.RoleAdmin, c.Get("role"))
}

func TestBearerAuthMissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	require.NoError(t, BearerAuth(testSecret)(okHandler(&reached))(c))
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthWrongSecret(t *testing.T) {
	e := echo.New()
	tok, err := utils.NewAccessToken("some-other-secret", 7, "kim", "kim@example.com", repository.RoleUser, 15)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	require.NoError(t, BearerAuth(testSecret)(okHandler(&reached))(c))
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type memberByID map[uint64]repository.Member

func (m memberByID) GetByID(_ context.Context, id uint64) (repository.Member, error) {
	mem, ok := m[id]
	if !ok {
		return repository.Member{}, repository.ErrMemberNotFound
	}
	return mem, nil
}

func TestSessionAuthValidCookie(t *testing.T) {
	e := echo.New()
	store := session.NewMemoryStore()
	sid, err := store.Create(context.Background(), 3, time.Hour)
	require.NoError(t, err)
	members := memberByID{3: {ID: 3, Name: "lee", Email: "lee@example.com", Role: repository.RoleUser}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sid})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	require.NoError(t, SessionAuth(store, members)(okHandler(&reached))(c))
	assert.True(t, reached)
	assert.Equal(t, uint64(3), c.Get("member_id"))
	assert.Equal(t, repository.RoleUser, c.Get("role"))
	assert.Equal(t, sid, c.Get("session_id"))
}

func TestSessionAuthNoCookie(t *testing.T) {
	e := echo.New()
	store := session.NewMemoryStore()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	require.NoError(t, SessionAuth(store, memberByID{})(okHandler(&reached))(c))
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionAuthUnknownSession(t *testing.T) {
	e := echo.New()
	store := session.NewMemoryStore()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "deadbeef"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	require.NoError(t, SessionAuth(store, memberByID{})(okHandler(&reached))(c))
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionAuthDeletedMember(t *testing.T) {
	e := echo.New()
	store := session.NewMemoryStore()
	sid, err := store.Create(context.Background(), 9, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sid})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// No member 9 in the lookup: the stale session must not authenticate.
	reached := false
	require.NoError(t, SessionAuth(store, memberByID{})(okHandler(&reached))(c))
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	cases := []struct {
		name    string
		role    interface{}
		allowed []string
		want    int
	}{
		{"admin allowed", repository.RoleAdmin, []string{repository.RoleAdmin}, http.StatusOK},
		{"user rejected", repository.RoleUser, []string{repository.RoleAdmin}, http.StatusForbidden},
		{"either role", repository.RoleUser, []string{repository.RoleAdmin, repository.RoleUser}, http.StatusOK},
		{"no role set", nil, []string{repository.RoleAdmin}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tc.role != nil {
				c.Set("role", tc.role)
			}
			reached := false
			require.NoError(t, RequireRole(tc.allowed...)(okHandler(&reached))(c))
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, tc.want == http.StatusOK, reached)
		})
	}
}
