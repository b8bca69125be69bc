package repository

import (
	"context"
	"database/sql"

	"invoicehub-backend/internal/model"
)

type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

// GetByID loads a client and verifies company ownership. ErrForbidden is
// returned when the client belongs to another company.
func (r *ClientRepo) GetByID(ctx context.Context, id, companyID uint64) (model.Client, error) {
	var c model.Client
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, company_id, name, email, created_at FROM clients WHERE id=? LIMIT 1",
		id).Scan(&c.ID, &c.CompanyID, &c.Name, &c.Email, &c.CreatedAt)
	if err != nil {
		return model.Client{}, err
	}
	if c.CompanyID != companyID {
		return model.Client{}, ErrForbidden
	}
	return c, nil
}

// ListByCompany returns all clients of a company ordered by name.
func (r *ClientRepo) ListByCompany(ctx context.Context, companyID uint64) ([]model.Client, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, company_id, name, email, created_at FROM clients WHERE company_id=? ORDER BY name",
		companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Client, 0)
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
