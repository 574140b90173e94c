// Package router wires handlers, the identity middleware and the rate
// limiter onto an Echo instance. The identity middleware is built once at
// startup for the configured auth mode; routes never branch on the mode.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/kyungh/bulletin-board/internal/handler"
	"github.com/kyungh/bulletin-board/internal/middleware"
	"github.com/kyungh/bulletin-board/internal/repository"
)

// Register registers every route of the API.
//
// identity resolves the caller (bearer token or session cookie); limiter
// throttles the credential endpoints and may be a pass-through.
func Register(
	e *echo.Echo,
	a *handler.AuthHandler,
	m *handler.MemberHandler,
	p *handler.PostHandler,
	identity echo.MiddlewareFunc,
	limiter echo.MiddlewareFunc,
	uploadDir string,
) {
	e.GET("/healthz", handler.Health)

	// Uploaded attachments are served straight from disk.
	e.Static("/static/uploads", uploadDir)

	// Credential endpoints carry the brute-force limiter.
	auth := e.Group("/auth", limiter)
	auth.POST("/signup", a.Signup)
	auth.POST("/login", a.Login)
	auth.POST("/refresh", a.Refresh)
	auth.POST("/logout", a.Logout, identity)

	// POST /users is a signup alias kept for API compatibility.
	e.POST("/users", a.Signup, limiter)

	users := e.Group("/users", identity)
	users.GET("", m.List)
	users.GET("/me", m.Me)
	users.PUT("/me", m.UpdateMe)
	users.PATCH("/me", m.UpdateMe)
	users.DELETE("/me", m.DeleteMe)

	// Member administration is admin-only.
	admin := users.Group("", middleware.RequireRole(repository.RoleAdmin))
	admin.GET("/:id", m.Get)
	admin.PUT("/:id", m.Update)
	admin.PATCH("/:id", m.Update)
	admin.DELETE("/:id", m.Delete)

	// The board list is public; everything else requires identity.
	e.GET("/posts", p.List)
	posts := e.Group("/posts", identity)
	posts.POST("/new", p.Create)
	posts.GET("/:id", p.Detail)
	posts.GET("/:id/edit", p.EditForm)
	posts.POST("/:id/edit", p.Edit)
	posts.POST("/:id/delete", p.Delete)
}
