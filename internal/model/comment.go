package model

import "time"

// Visibility values for comments. Internal comments are hidden from
// external project collaborators.
const (
	VisibilityAll      = "all"
	VisibilityInternal = "internal"
)

// Comment represents a row in the `project_comments` table. Content holds
// the stored mention markup (`@[user:id:name]` / `@[task:id:name]`), never
// the raw typed text. A comment with ParentID nil is top-level; replies
// reference a parent. A reply's parent must be an existing top-level
// comment within the same project.
//
// Fields:
//
//	ID          – primary key identifier.
//	ProjectID   – project the thread belongs to.
//	CompanyID   – company that owns the project.
//	AuthorID    – user who wrote the comment.
//	AuthorName  – denormalized author display name.
//	AuthorEmail – denormalized author email.
//	Content     – comment body in storage mention markup.
//	Visibility  – "all" or "internal".
//	ParentID    – parent comment for replies (nil for top-level).
//	Attachments – stored file paths, persisted as a JSON array column.
//	Mentions    – user IDs referenced by mention markup in Content.
//	IsResolved  – whether the thread has been marked resolved.
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
type Comment struct {
	ID          uint64    `json:"id"`
	ProjectID   uint64    `json:"project_id"`
	CompanyID   uint64    `json:"company_id"`
	AuthorID    uint64    `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Content     string    `json:"content"`
	Visibility  string    `json:"visibility"`
	ParentID    *uint64   `json:"parent_id,omitempty"`
	Attachments []string  `json:"attachments"`
	Mentions    []uint64  `json:"mentions"`
	IsResolved  bool      `json:"is_resolved"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Priority values for CommentTask.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// CommentTask is a comment pinned as a to-do by a user. At most one task
// exists per comment; the pin handler checks the derived comment->task
// index before inserting.
type CommentTask struct {
	ID           uint64     `json:"id"`
	CommentID    uint64     `json:"comment_id"`
	ProjectID    uint64     `json:"project_id"`
	UserID       uint64     `json:"user_id"`
	CompanyID    uint64     `json:"company_id"`
	Priority     string     `json:"priority"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	ReminderAt   *time.Time `json:"reminder_at,omitempty"`
	ReminderSent bool       `json:"reminder_sent"`
	IsCompleted  bool       `json:"is_completed"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
