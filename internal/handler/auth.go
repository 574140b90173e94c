package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kyungh/bulletin-board/internal/auth"
	"github.com/kyungh/bulletin-board/internal/config"
	"github.com/kyungh/bulletin-board/internal/middleware"
	"github.com/kyungh/bulletin-board/internal/queue"
	"github.com/kyungh/bulletin-board/internal/repository"
	"github.com/kyungh/bulletin-board/internal/utils"
)

// AuthHandler bundles dependencies for the signup/login/refresh/logout
// endpoints. Strategy is the configured session or token issuer; Audit may
// be nil when no broker is configured.
type AuthHandler struct {
	Cfg      config.Config
	Members  MemberStore
	Strategy auth.Strategy
	Audit    AuditPublisher
}

func NewAuthHandler(cfg config.Config, members MemberStore, strategy auth.Strategy, audit AuditPublisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Members: members, Strategy: strategy, Audit: audit}
}

// ----- DTOs -----

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type memberPart struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
type loginResp struct {
	Member  memberPart `json:"member"`
	Access  *tokenPart `json:"access,omitempty"`
	Refresh *tokenPart `json:"refresh,omitempty"`
}

// Signup creates a member. Duplicate emails and oversized passwords are
// both client errors; nothing is logged in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Members.Create(ctx, req.Name, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		case errors.Is(err, utils.ErrPasswordTooLong):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at most 72 bytes"})
		}
		c.Logger().Errorf("signup: create member: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create member failed"})
	}

	h.publish(ctx, queue.AuditEvent{Kind: queue.EventMemberSignup, MemberID: id, Email: req.Email})

	return c.JSON(http.StatusCreated, echo.Map{
		"result":  "success",
		"message": "signup completed",
		"id":      id,
	})
}

// Login verifies credentials and establishes identity continuity via the
// configured strategy: a token pair in the body, or a session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Members.Verify(ctx, req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password produce the same response.
		if errors.Is(err, repository.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		c.Logger().Errorf("login: verify: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	res, err := h.Strategy.Login(ctx, m)
	if err != nil {
		c.Logger().Errorf("login: issue: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	resp := loginResp{Member: memberPart{ID: m.ID, Name: m.Name, Email: m.Email, Role: m.Role}}
	if res.Access != nil {
		resp.Access = &tokenPart{Token: res.Access.Token, Expires: res.Access.Exp}
	}
	if res.Refresh != nil {
		resp.Refresh = &tokenPart{Token: res.Refresh.Token, Expires: res.Refresh.Exp}
	}
	if res.SessionID != "" {
		c.SetCookie(&http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    res.SessionID,
			Path:     "/",
			MaxAge:   int(res.SessionTTL / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	access, err := h.Strategy.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		case errors.Is(err, auth.ErrUnrecognizedToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unrecognized refresh token"})
		case errors.Is(err, auth.ErrRefreshUnsupported):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh not available in session mode"})
		}
		c.Logger().Errorf("refresh: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout tears down the caller's continuity artifact. In token mode the
// stored refresh hash is cleared, invalidating every refresh token issued
// to the member; in session mode the session record is destroyed and the
// cookie expired. The route runs behind the identity middleware.
func (h *AuthHandler) Logout(c echo.Context) error {
	memberID, err := currentMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, _ := c.Get("session_id").(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Strategy.Logout(ctx, memberID, sessionID); err != nil {
		c.Logger().Errorf("logout: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	if sessionID != "" {
		c.SetCookie(&http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// publish forwards an audit event, swallowing any broker failure.
func (h *AuthHandler) publish(ctx context.Context, e queue.AuditEvent) {
	if h.Audit != nil {
		_ = h.Audit.Publish(ctx, e)
	}
}
