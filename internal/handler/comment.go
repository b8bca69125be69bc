package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"invoicehub-backend/internal/mention"
	"invoicehub-backend/internal/model"
	"invoicehub-backend/internal/queue"
	"invoicehub-backend/internal/repository"
	queue_publisher "invoicehub-backend/internal/service"
	"invoicehub-backend/internal/thread"
)

// CommentHandler serves project comment threads, the cross-project inbox
// and the mention sources for the composer.
type CommentHandler struct {
	Comments      *repository.CommentRepo
	Tasks         *repository.CommentTaskRepo
	Projects      *repository.ProjectRepo
	Users         *repository.UserRepo
	Notifications *repository.NotificationRepo
}

func NewCommentHandler(c *repository.CommentRepo, t *repository.CommentTaskRepo, p *repository.ProjectRepo, u *repository.UserRepo, n *repository.NotificationRepo) *CommentHandler {
	return &CommentHandler{Comments: c, Tasks: t, Projects: p, Users: u, Notifications: n}
}

// mentionTarget is one entry of the composer's name->target table. The
// client sends the display text it rendered plus the targets the user
// actually picked; the server rewrites names into storage markup so the
// database never holds bare display names.
type mentionTarget struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Kind string `json:"kind"` // user | task
}

type createCommentReq struct {
	Content     string          `json:"content"`
	Visibility  string          `json:"visibility"`
	ParentID    *uint64         `json:"parent_id"`
	Attachments []string        `json:"attachments"`
	Mentions    []mentionTarget `json:"mentions"`
}

type updateCommentReq struct {
	Content    string          `json:"content"`
	Visibility string          `json:"visibility"`
	Mentions   []mentionTarget `json:"mentions"`
}

type resolveReq struct {
	Resolved bool `json:"resolved"`
}

func targetMap(list []mentionTarget) map[string]mention.Target {
	if len(list) == 0 {
		return nil
	}
	m := make(map[string]mention.Target, len(list))
	for _, t := range list {
		kind := t.Kind
		if kind != mention.KindTask {
			kind = mention.KindUser
		}
		m[t.Name] = mention.Target{ID: t.ID, Kind: kind}
	}
	return m
}

func mentionedUserIDs(stored string) []uint64 {
	raw := mention.ExtractUserIDs(stored)
	out := make([]uint64, 0, len(raw))
	for _, s := range raw {
		if id, err := strconv.ParseUint(s, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// Create handles POST /v1/projects/:id/comments.
func (h *CommentHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	companyID, _ := getCompanyID(c)
	projectID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}

	var req createCommentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}
	visibility := req.Visibility
	if visibility != model.VisibilityInternal {
		visibility = model.VisibilityAll
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	project, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load project failed"})
	}
	ok, err := h.Projects.CanAccess(ctx, projectID, userID, companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "access check failed"})
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no access to project"})
	}
	// Internal comments belong to the owning company's private channel.
	if visibility == model.VisibilityInternal && project.CompanyID != companyID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "internal comments are limited to the project owner's team"})
	}

	stored := mention.ConvertForStorage(req.Content, targetMap(req.Mentions))
	cm := model.Comment{
		ProjectID:   projectID,
		CompanyID:   project.CompanyID,
		AuthorID:    userID,
		Content:     stored,
		Visibility:  visibility,
		ParentID:    req.ParentID,
		Attachments: req.Attachments,
		Mentions:    mentionedUserIDs(stored),
	}
	if err := h.Comments.Create(ctx, &cm); err != nil {
		switch err {
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "parent must be a top-level comment in the same project"})
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "parent comment not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create comment failed"})
		}
	}

	h.notifyMentions(c, cm)
	publishComment(c, thread.ActionInsert, cm)

	return c.JSON(http.StatusCreated, cm)
}

// List handles GET /v1/projects/:id/comments. Internal comments are
// included only for members of the owning company; collaborators from
// other companies see visibility=all rows.
func (h *CommentHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	companyID, _ := getCompanyID(c)
	projectID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	project, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load project failed"})
	}
	ok, err := h.Projects.CanAccess(ctx, projectID, userID, companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "access check failed"})
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no access to project"})
	}

	includeInternal := project.CompanyID == companyID
	comments, err := h.Comments.ListByProject(ctx, projectID, includeInternal)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load comments failed"})
	}

	showResolved := c.QueryParam("show_resolved") == "true"
	st := thread.NewStore()
	st.Load(comments)
	top := st.Visible(showResolved)

	type threadOut struct {
		Comment model.Comment   `json:"comment"`
		Replies []model.Comment `json:"replies"`
	}
	out := make([]threadOut, 0, len(top))
	for _, cm := range top {
		out = append(out, threadOut{Comment: cm, Replies: st.Replies(cm.ID)})
	}
	return c.JSON(http.StatusOK, echo.Map{"threads": out, "total": st.Len()})
}

// Update handles PATCH /v1/comments/:id. Only the author may edit.
func (h *CommentHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	var req updateCommentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}
	visibility := req.Visibility
	if visibility != model.VisibilityInternal {
		visibility = model.VisibilityAll
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stored := mention.ConvertForStorage(req.Content, targetMap(req.Mentions))
	cm, err := h.Comments.Update(ctx, id, userID, stored, visibility, mentionedUserIDs(stored))
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only the author can edit"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update comment failed"})
		}
	}

	h.notifyMentions(c, cm)
	publishComment(c, thread.ActionUpdate, cm)

	return c.JSON(http.StatusOK, cm)
}

// Resolve handles POST /v1/comments/:id/resolve. Any member of the owning
// company can resolve or reopen a thread, not only the author.
func (h *CommentHandler) Resolve(c echo.Context) error {
	companyID, err := getCompanyID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	var req resolveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cm, err := h.Comments.SetResolved(ctx, id, companyID, req.Resolved)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resolve failed"})
	}

	publishComment(c, thread.ActionUpdate, cm)
	return c.JSON(http.StatusOK, cm)
}

// Delete handles DELETE /v1/comments/:id. Deleting a top-level comment
// removes its replies, tasks and mention rows in one transaction.
func (h *CommentHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Load the row before deleting: feed subscribers bucket events by
	// project, so the delete must carry the same fields the insert did.
	cm, err := h.Comments.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load comment failed"})
	}
	if err := h.Comments.Delete(ctx, id, userID); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only the author can delete"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete comment failed"})
		}
	}

	publishComment(c, thread.ActionDelete, cm)
	return c.NoContent(http.StatusNoContent)
}

// Inbox handles GET /v1/comments/inbox: every comment visible to the user
// across projects, grouped per project with last-activity ordering, plus
// the user's pinned tasks keyed by comment id.
func (h *CommentHandler) Inbox(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	companyID, _ := getCompanyID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	comments, err := h.Comments.ListForUser(ctx, userID, companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load inbox failed"})
	}
	if c.QueryParam("show_resolved") != "true" {
		kept := comments[:0]
		for _, cm := range comments {
			if !cm.IsResolved {
				kept = append(kept, cm)
			}
		}
		comments = kept
	}

	tasks, err := h.Tasks.ListByUser(ctx, userID, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tasks failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"groups": thread.GroupByProject(comments),
		"tasks":  thread.TaskIndex(tasks),
	})
}

// MentionableUsers handles GET /v1/projects/:id/mentionable-users. The
// optional q param filters on name or email, case-insensitive.
func (h *CommentHandler) MentionableUsers(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	companyID, _ := getCompanyID(c)
	projectID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Projects.CanAccess(ctx, projectID, userID, companyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "access check failed"})
	}
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no access to project"})
	}

	users, err := h.Projects.MentionableUsers(ctx, projectID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load users failed"})
	}
	if q := strings.ToLower(strings.TrimSpace(c.QueryParam("q"))); q != "" {
		kept := users[:0]
		for _, u := range users {
			if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
				kept = append(kept, u)
			}
		}
		users = kept
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// notifyMentions writes one notification row per mentioned user and fans
// the mention out to the broker. Self-mentions are suppressed. Failures
// are logged by the callee and never fail the comment write.
func (h *CommentHandler) notifyMentions(c echo.Context, cm model.Comment) {
	if len(cm.Mentions) == 0 {
		return
	}
	targets := make([]uint64, 0, len(cm.Mentions))
	for _, id := range cm.Mentions {
		if id != cm.AuthorID {
			targets = append(targets, id)
		}
	}
	if len(targets) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	companies, err := h.Users.CompanyOf(ctx, targets)
	if err != nil {
		c.Logger().Warnf("mention notify: resolve companies: %v", err)
		return
	}
	preview := mention.CleanMarkup(cm.Content)
	for _, uid := range targets {
		n := model.Notification{
			CompanyID:     companies[uid],
			UserID:        uid,
			Type:          "mention",
			Title:         fmt.Sprintf("%s mentioned you", cm.AuthorName),
			Message:       preview,
			ReferenceID:   cm.ProjectID,
			ReferenceType: "project",
		}
		if err := h.Notifications.Create(ctx, n); err != nil {
			c.Logger().Warnf("mention notify: user %d: %v", uid, err)
		}
		_ = queue_publisher.PublishMentionNotified(ctx, queue.MentionNotifiedEvent{
			CommentID:       cm.ID,
			ProjectID:       cm.ProjectID,
			MentionedUserID: uid,
			AuthorName:      cm.AuthorName,
			Preview:         preview,
			CreatedAt:       cm.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
}

// publishComment mirrors a comment mutation onto the change feed.
func publishComment(c echo.Context, action string, cm model.Comment) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := queue_publisher.PublishCommentChanged(ctx, queue.CommentChangedEvent{Action: action, Comment: cm}); err != nil {
		c.Logger().Warnf("comment feed: publish %s %d: %v", action, cm.ID, err)
	}
}
