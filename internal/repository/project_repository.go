package repository

import (
	"context"
	"database/sql"

	"invoicehub-backend/internal/model"
)

type ProjectRepo struct{ DB *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

// GetByID loads a project row.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (model.Project, error) {
	var p model.Project
	var clientID sql.NullInt64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, company_id, client_id, name, created_at FROM projects WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &p.CompanyID, &clientID, &p.Name, &p.CreatedAt)
	if err != nil {
		return model.Project{}, err
	}
	if clientID.Valid {
		cid := uint64(clientID.Int64)
		p.ClientID = &cid
	}
	return p, nil
}

// CanAccess reports whether a user may read a project: either the project
// belongs to the user's company, or the user is an accepted collaborator.
func (r *ProjectRepo) CanAccess(ctx context.Context, projectID, userID, companyID uint64) (bool, error) {
	p, err := r.GetByID(ctx, projectID)
	if err != nil {
		return false, err
	}
	if p.CompanyID == companyID {
		return true, nil
	}
	var n int
	err = r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM project_collaborators WHERE project_id=? AND user_id=? AND status='accepted'",
		projectID, userID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MentionableUsers returns the union of company team members and accepted
// external collaborators for a project, deduplicated with team membership
// taking priority. Ordered by name for a stable picker list.
func (r *ProjectRepo) MentionableUsers(ctx context.Context, projectID uint64) ([]model.MentionableUser, error) {
	p, err := r.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	// Team members first so the dedup below keeps the "team" row when a
	// user is both a team member and a collaborator.
	const q = `SELECT u.id, u.name, u.email, 'team' AS type, u.company_id
               FROM users u
               WHERE u.company_id = ? AND u.is_active = 1
               UNION ALL
               SELECT u.id, u.name, u.email, 'collaborator' AS type, u.company_id
               FROM project_collaborators pc
               JOIN users u ON u.id = pc.user_id
               WHERE pc.project_id = ? AND pc.status = 'accepted' AND u.is_active = 1
               ORDER BY name`
	rows, err := r.DB.QueryContext(ctx, q, p.CompanyID, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.MentionableUser, 0)
	seen := make(map[uint64]int) // user id -> index in out
	for rows.Next() {
		var m model.MentionableUser
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Type, &m.CompanyID); err != nil {
			return nil, err
		}
		if idx, ok := seen[m.ID]; ok {
			if out[idx].Type != "team" && m.Type == "team" {
				out[idx] = m
			}
			continue
		}
		seen[m.ID] = len(out)
		out = append(out, m)
	}
	return out, rows.Err()
}
