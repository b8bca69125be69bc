package repository

import (
	"context"
	"database/sql"

	"invoicehub-backend/internal/model"
)

// PaymentRepo records payments and applies their allocations to invoices.
type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

// paidEpsilon guards the amount_paid >= total comparison against DECIMAL
// scan rounding when deciding whether an invoice is settled.
const paidEpsilon = 0.005

// CreateWithAllocations inserts a payment and applies each allocation to
// its invoice inside one transaction. Invoice rows are locked while their
// balance is read; every allocation is clamped to the open balance so
// amount_paid never exceeds total, and the status flips to paid once the
// balance is settled. The clamped allocations are written back to the
// provided slice.
func (r *PaymentRepo) CreateWithAllocations(ctx context.Context, p *model.Payment, allocs []model.PaymentAllocation) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (company_id, client_id, amount, method, reference, received_at)
         VALUES (?,?,?,?,?,?)`,
		p.CompanyID, p.ClientID, p.Amount, p.Method, p.Reference, p.ReceivedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	for i := range allocs {
		a := &allocs[i]
		a.PaymentID = p.ID
		var companyID uint64
		var total, paid float64
		var status string
		err := tx.QueryRowContext(ctx,
			"SELECT company_id, total, amount_paid, status FROM invoices WHERE id=? FOR UPDATE",
			a.InvoiceID).Scan(&companyID, &total, &paid, &status)
		if err != nil {
			return err
		}
		if companyID != p.CompanyID {
			return ErrForbidden
		}
		if status == model.InvoiceDraft || status == model.InvoiceConsolidated {
			return ErrConflict
		}
		if open := total - paid; a.Amount > open {
			a.Amount = open
		}
		if a.Amount <= 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO payment_allocations (payment_id, invoice_id, amount) VALUES (?,?,?)",
			a.PaymentID, a.InvoiceID, a.Amount); err != nil {
			return err
		}
		newPaid := paid + a.Amount
		newStatus := status
		if newPaid >= total-paidEpsilon {
			newStatus = model.InvoicePaid
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE invoices SET amount_paid=?, status=?, updated_at=NOW() WHERE id=?",
			newPaid, newStatus, a.InvoiceID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListByClient returns a client's payments, newest first.
func (r *PaymentRepo) ListByClient(ctx context.Context, companyID, clientID uint64) ([]model.Payment, error) {
	const q = `SELECT id, company_id, client_id, amount, method, reference, received_at, created_at
               FROM payments WHERE company_id=? AND client_id=? ORDER BY received_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, q, companyID, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		var ref sql.NullString
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.ClientID, &p.Amount, &p.Method,
			&ref, &p.ReceivedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		if ref.Valid {
			s := ref.String
			p.Reference = &s
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
