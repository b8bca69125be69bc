package router

import (
	"github.com/labstack/echo/v4"

	"invoicehub-backend/internal/handler"
	"invoicehub-backend/internal/middleware"
)

// RegisterComments registers the project discussion endpoints under /v1.
// Every route requires a valid JWT; visibility filtering beyond that
// happens in the handlers, since collaborators from other companies can
// legitimately read and write on shared projects.
func RegisterComments(e *echo.Echo, h *handler.CommentHandler, t *handler.CommentTaskHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	// ---- Threads ----
	g.GET("/projects/:id/comments", h.List)
	g.POST("/projects/:id/comments", h.Create)
	g.PATCH("/comments/:id", h.Update)
	g.DELETE("/comments/:id", h.Delete)
	g.POST("/comments/:id/resolve", h.Resolve)
	g.GET("/comments/inbox", h.Inbox)
	g.GET("/projects/:id/mentionable-users", h.MentionableUsers)

	// ---- Pinned tasks ----
	g.POST("/comments/:id/task", t.Pin)
	g.GET("/comment-tasks", t.List)
	g.PATCH("/comment-tasks/:id", t.Update)
	g.POST("/comment-tasks/:id/toggle", t.Toggle)
	g.DELETE("/comment-tasks/:id", t.Delete)
}

// RegisterNotifications registers the unread mention feed under /v1.
func RegisterNotifications(e *echo.Echo, n *handler.NotificationHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	g.GET("/notifications", n.List)
	g.POST("/notifications/:id/read", n.MarkRead)
}
