package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"invoicehub-backend/internal/model"
	"invoicehub-backend/internal/repository"
)

// CommentTaskHandler manages comments pinned as personal to-dos.
type CommentTaskHandler struct {
	Tasks *repository.CommentTaskRepo
}

func NewCommentTaskHandler(t *repository.CommentTaskRepo) *CommentTaskHandler {
	return &CommentTaskHandler{Tasks: t}
}

type pinTaskReq struct {
	Priority   string     `json:"priority"`
	DueDate    *time.Time `json:"due_date"`
	ReminderAt *time.Time `json:"reminder_at"`
}

func normalizePriority(p string) string {
	switch p {
	case model.PriorityUrgent, model.PriorityHigh, model.PriorityLow:
		return p
	default:
		return model.PriorityMedium
	}
}

// Pin handles POST /v1/comments/:id/task. A comment carries at most one
// task; pinning twice returns 409.
func (h *CommentTaskHandler) Pin(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	commentID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	var req pinTaskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t := model.CommentTask{
		CommentID:  commentID,
		UserID:     userID,
		Priority:   normalizePriority(req.Priority),
		DueDate:    req.DueDate,
		ReminderAt: req.ReminderAt,
	}
	if err := h.Tasks.Create(ctx, &t); err != nil {
		switch err {
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "comment is already pinned"})
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "pin failed"})
		}
	}
	return c.JSON(http.StatusCreated, t)
}

// List handles GET /v1/comment-tasks?project_id=. Only the caller's own
// tasks are returned.
func (h *CommentTaskHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var projectID *uint64
	if raw := c.QueryParam("project_id"); raw != "" {
		id, err := parseUint(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project_id"})
		}
		projectID = &id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tasks, err := h.Tasks.ListByUser(ctx, userID, projectID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tasks failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tasks": tasks})
}

// Update handles PATCH /v1/comment-tasks/:id.
func (h *CommentTaskHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
	}
	var req pinTaskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tasks.Update(ctx, id, userID, normalizePriority(req.Priority), req.DueDate, req.ReminderAt)
	if err != nil {
		return taskError(c, err, "update task failed")
	}
	return c.JSON(http.StatusOK, t)
}

// Toggle handles POST /v1/comment-tasks/:id/toggle.
func (h *CommentTaskHandler) Toggle(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tasks.ToggleComplete(ctx, id, userID)
	if err != nil {
		return taskError(c, err, "toggle task failed")
	}
	return c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /v1/comment-tasks/:id (unpin).
func (h *CommentTaskHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tasks.Delete(ctx, id, userID); err != nil {
		return taskError(c, err, "delete task failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func taskError(c echo.Context, err error, fallback string) error {
	switch err {
	case sql.ErrNoRows:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your task"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
	}
}
