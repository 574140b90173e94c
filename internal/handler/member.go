package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kyungh/bulletin-board/internal/config"
	"github.com/kyungh/bulletin-board/internal/queue"
	"github.com/kyungh/bulletin-board/internal/repository"
	"github.com/kyungh/bulletin-board/internal/utils"
)

// MemberHandler serves the member CRUD endpoints: the authenticated
// member's own record under /users/me and the admin-gated variants under
// /users/:id.
type MemberHandler struct {
	Cfg     config.Config
	Members MemberStore
	Audit   AuditPublisher
}

func NewMemberHandler(cfg config.Config, members MemberStore, audit AuditPublisher) *MemberHandler {
	return &MemberHandler{Cfg: cfg, Members: members, Audit: audit}
}

// memberOut is the public shape of a member. The password hash and refresh
// hash never leave the repository layer.
type memberOut struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toMemberOut(m repository.Member) memberOut {
	return memberOut{ID: m.ID, Name: m.Name, Email: m.Email, Role: m.Role, CreatedAt: m.CreatedAt}
}

// updateReq carries the optional fields of a partial update. Absent fields
// stay nil and leave the stored values untouched.
type updateReq struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (r updateReq) patch() repository.MemberPatch {
	return repository.MemberPatch{Name: r.Name, Email: r.Email, Password: r.Password}
}

// List handles GET /users.
func (h *MemberHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	members, err := h.Members.List(ctx)
	if err != nil {
		c.Logger().Errorf("members: list: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]memberOut, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberOut(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Me handles GET /users/me.
func (h *MemberHandler) Me(c echo.Context) error {
	id, err := currentMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return h.getMember(c, id)
}

// Get handles GET /users/:id (admin only, enforced by route middleware).
func (h *MemberHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	return h.getMember(c, id)
}

func (h *MemberHandler) getMember(c echo.Context, id uint64) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Members.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
		}
		c.Logger().Errorf("members: get %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toMemberOut(m))
}

// UpdateMe handles PUT/PATCH /users/me.
func (h *MemberHandler) UpdateMe(c echo.Context) error {
	id, err := currentMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return h.updateMember(c, id)
}

// Update handles PUT/PATCH /users/:id (admin only).
func (h *MemberHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	return h.updateMember(c, id)
}

func (h *MemberHandler) updateMember(c echo.Context, id uint64) error {
	var req updateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil && req.Email == nil && req.Password == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Members.Update(ctx, id, req.patch(), h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMemberNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		case errors.Is(err, utils.ErrPasswordTooLong):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at most 72 bytes"})
		}
		c.Logger().Errorf("members: update %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toMemberOut(m))
}

// DeleteMe handles DELETE /users/me. The password is re-confirmed via the
// X-Password header before anything is removed.
func (h *MemberHandler) DeleteMe(c echo.Context) error {
	id, err := currentMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	password := c.Request().Header.Get("X-Password")
	if password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "X-Password header required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Members.Delete(ctx, id, password); err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		case errors.Is(err, repository.ErrMemberNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
		}
		c.Logger().Errorf("members: delete %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	if h.Audit != nil {
		_ = h.Audit.Publish(ctx, queue.AuditEvent{Kind: queue.EventMemberDeleted, MemberID: id})
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /users/:id (admin only). The caller's role was
// already checked by the route middleware, so no password re-confirmation
// is required here.
func (h *MemberHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Members.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
		}
		c.Logger().Errorf("members: delete %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if h.Audit != nil {
		_ = h.Audit.Publish(ctx, queue.AuditEvent{Kind: queue.EventMemberDeleted, MemberID: id})
	}
	return c.NoContent(http.StatusNoContent)
}
