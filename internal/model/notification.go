package model

import "time"

// Notification is an in-app alert row. Mention notifications are addressed
// to the mentioned user's own company so cross-company collaborators see
// them in their workspace, not in the author's.
type Notification struct {
	ID            uint64    `json:"id"`
	CompanyID     uint64    `json:"company_id"`
	UserID        uint64    `json:"user_id"`
	Type          string    `json:"type"` // e.g. "mention"
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	ReferenceID   uint64    `json:"reference_id"`
	ReferenceType string    `json:"reference_type"` // e.g. "project"
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}
