// Package queue defines message payloads exchanged over the message broker
// and the background consumer that mirrors the comment change feed.
package queue

import "invoicehub-backend/internal/model"

// Queue names. All queues are durable and carry persistent JSON messages.
const (
	CommentChangedQueue = "comment.changed"
	InvoiceSentQueue    = "invoice.sent"
	MentionQueue        = "notification.mention"
)

// CommentChangedEvent is published for every comment insert, update and
// delete. Subscribers reconcile the full row into their own view of the
// thread keyed by the comment id, so the event carries the row rather than
// a diff.
type CommentChangedEvent struct {
	Action  string        `json:"action"` // insert | update | delete
	Comment model.Comment `json:"comment"`
}

// InvoiceSentEvent is published when an invoice transitions to sent. A
// downstream consumer renders and delivers the email; this service only
// records the transition.
type InvoiceSentEvent struct {
	InvoiceID     uint64  `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number"`
	CompanyID     uint64  `json:"company_id"`
	ClientID      uint64  `json:"client_id"`
	ClientEmail   string  `json:"client_email"`
	Total         float64 `json:"total"`
	DueDate       string  `json:"due_date,omitempty"`
	PublicURL     string  `json:"public_url"`
	SentAt        string  `json:"sent_at"`
}

// MentionNotifiedEvent fans out one message per mentioned user so email
// delivery can happen outside the comment write path.
type MentionNotifiedEvent struct {
	CommentID       uint64 `json:"comment_id"`
	ProjectID       uint64 `json:"project_id"`
	MentionedUserID uint64 `json:"mentioned_user_id"`
	AuthorName      string `json:"author_name"`
	Preview         string `json:"preview"` // markup-free comment text
	CreatedAt       string `json:"created_at"`
}
