package model

import "time"

// Project groups comment threads and invoices under a client engagement.
type Project struct {
	ID        uint64    // projects.id
	CompanyID uint64    // projects.company_id
	ClientID  *uint64   // projects.client_id (nullable)
	Name      string    // projects.name
	CreatedAt time.Time // projects.created_at
}

// ProjectCollaborator links an external user to a project. Only rows with
// Status "accepted" contribute to the mentionable-user union.
type ProjectCollaborator struct {
	ID        uint64    // project_collaborators.id
	ProjectID uint64    // project_collaborators.project_id
	UserID    uint64    // project_collaborators.user_id
	Status    string    // project_collaborators.status (invited|accepted)
	CreatedAt time.Time // project_collaborators.created_at
}
