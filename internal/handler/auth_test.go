package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kyungh/bulletin-board/internal/auth"
	"github.com/kyungh/bulletin-board/internal/config"
	"github.com/kyungh/bulletin-board/internal/utils"
)

const (
	testAccessSecret  = "test-access-secret"
	testRefreshSecret = "test-refresh-secret"
)

func testConfig() config.Config {
	return config.Config{
		AuthMode:        config.ModeToken,
		AccessSecret:    testAccessSecret,
		RefreshSecret:   testRefreshSecret,
		AccessTTLMin:    15,
		RefreshTTLHours: 6,
		BcryptCost:      bcrypt.MinCost,
	}
}

// newAuthEnv wires an AuthHandler over the fakes with the real token
// strategy, the same shape main() builds in token mode.
func newAuthEnv() (*AuthHandler, *fakeMemberStore) {
	members := newFakeMemberStore()
	cfg := testConfig()
	strategy := auth.NewTokenStrategy(cfg.AccessSecret, cfg.RefreshSecret,
		cfg.AccessTTLMin, cfg.RefreshTTLHours, members)
	return NewAuthHandler(cfg, members, strategy, nil), members
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSignupThenDuplicateEmail(t *testing.T) {
	e := echo.New()
	h, _ := newAuthEnv()

	c, rec := postJSON(e, "/auth/signup", `{"name":"Kim","email":"k@x.com","password":"secret1"}`)
	require.NoError(t, h.Signup(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Same email again: 400, not a conflict leak of anything else.
	c, rec = postJSON(e, "/auth/signup", `{"name":"Other","email":"k@x.com","password":"secret2"}`)
	require.NoError(t, h.Signup(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email already registered")
}

func TestSignupPasswordTooLong(t *testing.T) {
	e := echo.New()
	h, _ := newAuthEnv()

	long := strings.Repeat("a", 73)
	c, rec := postJSON(e, "/auth/signup", `{"name":"Kim","email":"k@x.com","password":"`+long+`"}`)
	require.NoError(t, h.Signup(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "72 bytes")
}

func TestSignupMissingFields(t *testing.T) {
	e := echo.New()
	h, _ := newAuthEnv()

	c, rec := postJSON(e, "/auth/signup", `{"email":"k@x.com"}`)
	require.NoError(t, h.Signup(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginReturnsTokenPairWithClaims(t *testing.T) {
	e := echo.New()
	h, _ := newAuthEnv()

	c, _ := postJSON(e, "/auth/signup", `{"name":"Kim","email":"k@x.com","password":"secret1"}`)
	require.NoError(t, h.Signup(c))

	c, rec := postJSON(e, "/auth/login", `{"email":"k@x.com","password":"secret1"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Member struct {
			ID    uint64 `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"member"`
		Access  *struct{ Token string } `json:"access"`
		Refresh *struct{ Token string } `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Access)
	require.NotNil(t, resp.Refresh)

	// The access token itself carries {id, name, email, role}.
	claims, err := utils.ParseToken(testAccessSecret, resp.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Member.ID, claims.MemberID)
	assert.Equal(t, "Kim", claims.Name)
	assert.Equal(t, "k@x.com", claims.Email)
	assert.Equal(t, "USER", claims.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	e := echo.New()
	h, _ := newAuthEnv()

	c, _ := postJSON(e, "/auth/signup", `{"name":"Kim","email":"k@x.com","password":"secret1"}`)
	require.NoError(t, h.Signup(c))

	// Wrong password for a known member.
	c, wrongPw := postJSON(e, "/auth/login", `{"email":"k@x.com","password":"nope"}`)
	require.NoError(t, h.Login(c))

	// Unknown email entirely.
	c, unknown := postJSON(e, "/auth/login", `{"email":"ghost@x.com","password":"nope"}`)
	require.NoError(t, h.Login(c))

	// Same status, same body: no account enumeration.
	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, wrongPw.Code, unknown.Code)
	assert.Equal(t, wrongPw.Body.String(), unknown.Body.String())
}

func TestRefreshAndLogoutInvalidation(t *testing.T) {
	e := echo.New()
	h, _ := newAuthEnv()

	c, _ := postJSON(e, "/auth/signup", `{"name":"Kim","email":"k@x.com","password":"secret1"}`)
	require.NoError(t, h.Signup(c))
	c, loginRec := postJSON(e, "/auth/login", `{"email":"k@x.com","password":"secret1"}`)
	require.NoError(t, h.Login(c))

	var resp struct {
		Member  struct{ ID uint64 }     `json:"member"`
		Refresh *struct{ Token string } `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &resp))

	// A fresh refresh token yields a new access token.
	c, rec := postJSON(e, "/auth/refresh", `{"refresh_token":"`+resp.Refresh.Token+`"}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "token")

	// Logout clears the stored refresh hash.
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	logoutRec := httptest.NewRecorder()
	logoutCtx := e.NewContext(req, logoutRec)
	logoutCtx.Set("member_id", resp.Member.ID)
	require.NoError(t, h.Logout(logoutCtx))
	assert.Equal(t, http.StatusNoContent, logoutRec.Code)

	// The previously valid refresh token is now unrecognized, not invalid.
	c, rec = postJSON(e, "/auth/refresh", `{"refresh_token":"`+resp.Refresh.Token+`"}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unrecognized")
}

func TestRefreshGarbageToken(t *testing.T) {
	e := echo.New()
	h, _ := newAuthEnv()

	c, rec := postJSON(e, "/auth/refresh", `{"refresh_token":"garbage"}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid refresh token")
}
