package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kyungh/bulletin-board/internal/queue"
	"github.com/kyungh/bulletin-board/internal/repository"
)

// PostHandler serves the bulletin-board endpoints. Uploads are delegated
// to the file store; the database row only carries the returned reference.
type PostHandler struct {
	Posts PostStore
	Files FileStore
	Audit AuditPublisher
}

func NewPostHandler(posts PostStore, files FileStore, audit AuditPublisher) *PostHandler {
	return &PostHandler{Posts: posts, Files: files, Audit: audit}
}

// List handles GET /posts, newest first.
func (h *PostHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	posts, err := h.Posts.List(ctx)
	if err != nil {
		c.Logger().Errorf("posts: list: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if posts == nil {
		posts = []*repository.Post{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": posts})
}

// Detail handles GET /posts/:id. A successful read increments the view
// counter; the response carries the incremented value.
func (h *PostHandler) Detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	post, err := h.Posts.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		c.Logger().Errorf("posts: detail %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, post)
}

// Create handles POST /posts/new. The body is multipart form data with
// title, content and an optional file part.
func (h *PostHandler) Create(c echo.Context) error {
	memberID, err := currentMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	title := strings.TrimSpace(c.FormValue("title"))
	content := c.FormValue("content")
	if title == "" || strings.TrimSpace(content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title/content required"})
	}

	post := &repository.Post{Title: title, Content: content, MemberID: memberID}

	// FormFile errors just mean "no file part"; the upload is optional.
	if fh, err := c.FormFile("file"); err == nil {
		stored, err := h.Files.SaveMultipart(fh)
		if err != nil {
			c.Logger().Errorf("posts: save upload: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "file upload failed"})
		}
		if stored != nil {
			post.FileURL = &stored.URL
			post.FileName = &stored.Name
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Posts.Create(ctx, post); err != nil {
		// The row never made it in; remove the stored file so it does not
		// sit orphaned where we can avoid it.
		if post.FileURL != nil {
			if derr := h.Files.Delete(*post.FileURL); derr != nil {
				c.Logger().Warnf("posts: cleanup upload: %v", derr)
			}
		}
		c.Logger().Errorf("posts: create: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create post failed"})
	}

	if h.Audit != nil {
		_ = h.Audit.Publish(ctx, queue.AuditEvent{
			Kind: queue.EventPostCreated, MemberID: memberID, PostID: post.ID, Title: post.Title,
		})
	}
	return c.JSON(http.StatusCreated, post)
}

// EditForm handles GET /posts/:id/edit: the post as the owner last saved
// it, without counting a view. Only the owner may fetch it.
func (h *PostHandler) EditForm(c echo.Context) error {
	post, _, err := h.loadOwned(c)
	if err != nil {
		return h.ownershipError(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

// Edit handles POST /posts/:id/edit. Replacing the attachment deletes the
// previous file best-effort: a failed delete is logged, never surfaced.
func (h *PostHandler) Edit(c echo.Context) error {
	post, _, err := h.loadOwned(c)
	if err != nil {
		return h.ownershipError(c, err)
	}
	title := strings.TrimSpace(c.FormValue("title"))
	content := c.FormValue("content")
	if title == "" || strings.TrimSpace(content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title/content required"})
	}
	post.Title = title
	post.Content = content

	if fh, err := c.FormFile("file"); err == nil && fh != nil && fh.Filename != "" {
		stored, err := h.Files.SaveMultipart(fh)
		if err != nil {
			c.Logger().Errorf("posts: save upload: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "file upload failed"})
		}
		if stored != nil {
			if post.FileURL != nil {
				if derr := h.Files.Delete(*post.FileURL); derr != nil {
					c.Logger().Warnf("posts: delete old upload: %v", derr)
				}
			}
			post.FileURL = &stored.URL
			post.FileName = &stored.Name
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Posts.Update(ctx, post); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		c.Logger().Errorf("posts: update %d: %v", post.ID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, post)
}

// Delete handles POST /posts/:id/delete. The attached file is removed
// best-effort before the row.
func (h *PostHandler) Delete(c echo.Context) error {
	post, memberID, err := h.loadOwned(c)
	if err != nil {
		return h.ownershipError(c, err)
	}
	if post.FileURL != nil {
		if derr := h.Files.Delete(*post.FileURL); derr != nil {
			c.Logger().Warnf("posts: delete upload: %v", derr)
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Posts.Delete(ctx, post.ID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		c.Logger().Errorf("posts: delete %d: %v", post.ID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	if h.Audit != nil {
		_ = h.Audit.Publish(ctx, queue.AuditEvent{
			Kind: queue.EventPostDeleted, MemberID: memberID, PostID: post.ID, Title: post.Title,
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// loadOwned fetches the post at :id without a view count and checks that
// the caller owns it.
func (h *PostHandler) loadOwned(c echo.Context) (*repository.Post, uint64, error) {
	memberID, err := currentMemberID(c)
	if err != nil {
		return nil, 0, err
	}
	id, err := pathID(c)
	if err != nil {
		return nil, 0, errInvalidID
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	post, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if err := repository.ValidateOwner(post, memberID); err != nil {
		return nil, 0, err
	}
	return post, memberID, nil
}

var errInvalidID = errors.New("invalid id")

func (h *PostHandler) ownershipError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errNoIdentity):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	case errors.Is(err, errInvalidID):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	case errors.Is(err, repository.ErrPostNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	c.Logger().Errorf("posts: load: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
}
