package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"invoicehub-backend/internal/model"
)

// InvoiceRepo provides CRUD operations for invoices and their line items,
// plus the multi-row consolidation transaction. Monetary columns are
// DECIMAL(12,2) scanned into float64; all timestamps are UTC.
type InvoiceRepo struct{ DB *sql.DB }

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{DB: db} }

const invoiceCols = `id, company_id, client_id, project_id, invoice_number, status,
        subtotal, tax_amount, total, amount_paid, due_date, consolidated_into,
        view_count, public_view_token, created_at, updated_at`

func scanInvoice(row interface{ Scan(...interface{}) error }) (model.Invoice, error) {
	var inv model.Invoice
	var projectID, consolidatedInto sql.NullInt64
	var dueDate sql.NullTime
	err := row.Scan(&inv.ID, &inv.CompanyID, &inv.ClientID, &projectID,
		&inv.InvoiceNumber, &inv.Status, &inv.Subtotal, &inv.TaxAmount,
		&inv.Total, &inv.AmountPaid, &dueDate, &consolidatedInto,
		&inv.ViewCount, &inv.PublicViewToken, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return model.Invoice{}, err
	}
	if projectID.Valid {
		pid := uint64(projectID.Int64)
		inv.ProjectID = &pid
	}
	if consolidatedInto.Valid {
		cid := uint64(consolidatedInto.Int64)
		inv.ConsolidatedInto = &cid
	}
	if dueDate.Valid {
		d := dueDate.Time
		inv.DueDate = &d
	}
	return inv, nil
}

// Create inserts an invoice and its line items in one transaction. Line
// item amounts default to quantity × unit_price when not set directly
// (task-based billing sets Amount explicitly).
func (r *InvoiceRepo) Create(ctx context.Context, inv *model.Invoice, items []model.InvoiceLineItem) error {
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
		`INSERT INTO invoices
         (company_id, client_id, project_id, invoice_number, status, subtotal,
          tax_amount, total, amount_paid, due_date, public_view_token)
         VALUES (?,?,?,?,?,?,?,?,0,?,?)`,
		inv.CompanyID, inv.ClientID, inv.ProjectID, inv.InvoiceNumber, inv.Status,
		inv.Subtotal, inv.TaxAmount, inv.Total, inv.DueDate, inv.PublicViewToken)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict // duplicate invoice number within the company
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	if err := insertLineItemsTx(ctx, tx, inv.ID, items); err != nil {
		return err
	}
	stored, err := scanInvoice(tx.QueryRowContext(ctx,
		"SELECT "+invoiceCols+" FROM invoices WHERE id=?", inv.ID))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*inv = stored
	return nil
}

func insertLineItemsTx(ctx context.Context, tx *sql.Tx, invoiceID uint64, items []model.InvoiceLineItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO invoice_line_items
              (invoice_id, description, quantity, unit_price, amount, task_id, billing_type, billed_percentage)
              VALUES `
	args := make([]interface{}, 0, len(items)*8)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?,?,?,?,?,?,?,?)"
		amount := it.Amount
		if amount == 0 {
			amount = it.Quantity * it.UnitPrice
		}
		args = append(args, invoiceID, it.Description, it.Quantity, it.UnitPrice,
			amount, it.TaskID, it.BillingType, it.BilledPercentage)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID loads an invoice, verifies company ownership and hydrates the
// ids of any source invoices consolidated into it.
func (r *InvoiceRepo) GetByID(ctx context.Context, id, companyID uint64) (model.Invoice, error) {
	inv, err := scanInvoice(r.DB.QueryRowContext(ctx,
		"SELECT "+invoiceCols+" FROM invoices WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.Invoice{}, err
	}
	if inv.CompanyID != companyID {
		return model.Invoice{}, ErrForbidden
	}
	inv.ConsolidatedFrom, err = r.sourceIDs(ctx, inv.ID)
	if err != nil {
		return model.Invoice{}, err
	}
	return inv, nil
}

func (r *InvoiceRepo) sourceIDs(ctx context.Context, id uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id FROM invoices WHERE consolidated_into=? ORDER BY id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var sid uint64
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		out = append(out, sid)
	}
	return out, rows.Err()
}

// ListByCompany returns a company's invoices, optionally filtered by status
// and/or client, ordered by creation time descending.
func (r *InvoiceRepo) ListByCompany(ctx context.Context, companyID uint64, status string, clientID *uint64) ([]model.Invoice, error) {
	q := "SELECT " + invoiceCols + " FROM invoices WHERE company_id=?"
	args := []interface{}{companyID}
	if status != "" {
		q += " AND status=?"
		args = append(args, status)
	}
	if clientID != nil {
		q += " AND client_id=?"
		args = append(args, *clientID)
	}
	q += " ORDER BY created_at DESC, id DESC"
	return r.list(ctx, q, args...)
}

// ListOpenByClient returns a client's invoices with an open balance
// (total − amount_paid > 0), optionally scoped to one project, ordered by
// due date ascending for payment auto-matching.
func (r *InvoiceRepo) ListOpenByClient(ctx context.Context, companyID, clientID uint64, projectID *uint64) ([]model.Invoice, error) {
	q := "SELECT " + invoiceCols + ` FROM invoices
         WHERE company_id=? AND client_id=? AND status IN ('sent','overdue')
           AND total - amount_paid > 0`
	args := []interface{}{companyID, clientID}
	if projectID != nil {
		q += " AND project_id=?"
		args = append(args, *projectID)
	}
	q += " ORDER BY due_date IS NULL, due_date ASC, id ASC"
	return r.list(ctx, q, args...)
}

func (r *InvoiceRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Invoice, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// LineItems returns the line items of one invoice in insertion order.
func (r *InvoiceRepo) LineItems(ctx context.Context, invoiceID uint64) ([]model.InvoiceLineItem, error) {
	const q = `SELECT id, invoice_id, description, quantity, unit_price, amount,
                      task_id, billing_type, billed_percentage
               FROM invoice_line_items WHERE invoice_id=? ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, q, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.InvoiceLineItem, 0)
	for rows.Next() {
		var it model.InvoiceLineItem
		var taskID sql.NullInt64
		var billingType sql.NullString
		var billedPct sql.NullFloat64
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Quantity,
			&it.UnitPrice, &it.Amount, &taskID, &billingType, &billedPct); err != nil {
			return nil, err
		}
		if taskID.Valid {
			tid := uint64(taskID.Int64)
			it.TaskID = &tid
		}
		if billingType.Valid {
			bt := billingType.String
			it.BillingType = &bt
		}
		if billedPct.Valid {
			bp := billedPct.Float64
			it.BilledPercentage = &bp
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpdateDraft replaces the editable fields and line items of a draft
// invoice. Non-draft invoices return ErrConflict.
func (r *InvoiceRepo) UpdateDraft(ctx context.Context, inv model.Invoice, items []model.InvoiceLineItem) (model.Invoice, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Invoice{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var status string
	var owner uint64
	if err := tx.QueryRowContext(ctx,
		"SELECT status, company_id FROM invoices WHERE id=? LIMIT 1", inv.ID).Scan(&status, &owner); err != nil {
		return model.Invoice{}, err
	}
	if owner != inv.CompanyID {
		return model.Invoice{}, ErrForbidden
	}
	if status != model.InvoiceDraft {
		return model.Invoice{}, ErrConflict
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE invoices SET client_id=?, project_id=?, subtotal=?, tax_amount=?,
         total=?, due_date=?, updated_at=NOW() WHERE id=?`,
		inv.ClientID, inv.ProjectID, inv.Subtotal, inv.TaxAmount, inv.Total,
		inv.DueDate, inv.ID); err != nil {
		return model.Invoice{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM invoice_line_items WHERE invoice_id=?", inv.ID); err != nil {
		return model.Invoice{}, err
	}
	if err := insertLineItemsTx(ctx, tx, inv.ID, items); err != nil {
		return model.Invoice{}, err
	}
	stored, err := scanInvoice(tx.QueryRowContext(ctx,
		"SELECT "+invoiceCols+" FROM invoices WHERE id=?", inv.ID))
	if err != nil {
		return model.Invoice{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Invoice{}, err
	}
	committed = true
	return stored, nil
}

// MarkSent transitions a draft invoice to sent and stamps the due date
// when one is provided. Consolidated or already-sent invoices conflict.
func (r *InvoiceRepo) MarkSent(ctx context.Context, id, companyID uint64, due *time.Time) (model.Invoice, error) {
	inv, err := r.GetByID(ctx, id, companyID)
	if err != nil {
		return model.Invoice{}, err
	}
	if inv.Status != model.InvoiceDraft {
		return model.Invoice{}, ErrConflict
	}
	if due == nil {
		due = inv.DueDate
	}
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE invoices SET status=?, due_date=?, updated_at=NOW() WHERE id=?",
		model.InvoiceSent, due, id); err != nil {
		return model.Invoice{}, err
	}
	return r.GetByID(ctx, id, companyID)
}

// RefreshOverdue flips sent invoices past their due date to overdue. It is
// called before report aggregation so aging always reflects today.
func (r *InvoiceRepo) RefreshOverdue(ctx context.Context, companyID uint64, today time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE invoices SET status='overdue', updated_at=NOW()
         WHERE company_id=? AND status='sent' AND due_date IS NOT NULL AND due_date < ?`,
		companyID, today.UTC().Format("2006-01-02"))
	return err
}

// DeleteDraft removes a draft invoice and its line items.
func (r *InvoiceRepo) DeleteDraft(ctx context.Context, id, companyID uint64) error {
	inv, err := r.GetByID(ctx, id, companyID)
	if err != nil {
		return err
	}
	if inv.Status != model.InvoiceDraft {
		return ErrConflict
	}
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
	if _, err := tx.ExecContext(ctx, "DELETE FROM invoice_line_items WHERE invoice_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM invoices WHERE id=?", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByPublicToken loads an invoice by its public view token and bumps the
// view counter. No company scoping: the token itself is the capability.
func (r *InvoiceRepo) GetByPublicToken(ctx context.Context, token string) (model.Invoice, error) {
	inv, err := scanInvoice(r.DB.QueryRowContext(ctx,
		"SELECT "+invoiceCols+" FROM invoices WHERE public_view_token=? LIMIT 1", token))
	if err != nil {
		return model.Invoice{}, err
	}
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE invoices SET view_count = view_count + 1 WHERE id=?", inv.ID); err != nil {
		return model.Invoice{}, err
	}
	inv.ViewCount++
	return inv, nil
}

// GetMany loads a set of invoices with their consolidation source ids, all
// company-scoped. Missing ids surface as sql.ErrNoRows.
func (r *InvoiceRepo) GetMany(ctx context.Context, ids []uint64, companyID uint64) ([]model.Invoice, error) {
	out := make([]model.Invoice, 0, len(ids))
	for _, id := range ids {
		inv, err := r.GetByID(ctx, id, companyID)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

// Consolidate merges validated draft invoices into one new draft within a
// transaction: the new invoice unions the sources' line items with the
// originating project named in each description, totals are summed, and
// every source is marked consolidated with consolidated_into set. The
// caller performs eligibility checks before invoking this.
func (r *InvoiceRepo) Consolidate(ctx context.Context, companyID uint64, sources []model.Invoice, number, token string, projectNames map[uint64]string) (model.Invoice, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Invoice{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var subtotal, tax, total float64
	for _, src := range sources {
		subtotal += src.Subtotal
		tax += src.TaxAmount
		total += src.Total
	}
	clientID := sources[0].ClientID
	res, err := tx.ExecContext(ctx,
		`INSERT INTO invoices
         (company_id, client_id, invoice_number, status, subtotal, tax_amount,
          total, amount_paid, public_view_token)
         VALUES (?,?,?,?,?,?,?,0,?)`,
		companyID, clientID, number, model.InvoiceDraft, subtotal, tax, total, token)
	if err != nil {
		return model.Invoice{}, err
	}
	newID64, err := res.LastInsertId()
	if err != nil {
		return model.Invoice{}, err
	}
	newID := uint64(newID64)

	for _, src := range sources {
		prefix := fmt.Sprintf("[%s] ", src.InvoiceNumber)
		if src.ProjectID != nil {
			if name, ok := projectNames[*src.ProjectID]; ok && name != "" {
				prefix = fmt.Sprintf("[%s] ", name)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO invoice_line_items
             (invoice_id, description, quantity, unit_price, amount, task_id, billing_type, billed_percentage)
             SELECT ?, CONCAT(?, description), quantity, unit_price, amount, task_id, billing_type, billed_percentage
             FROM invoice_line_items WHERE invoice_id=?`,
			newID, prefix, src.ID); err != nil {
			return model.Invoice{}, err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE invoices SET status=?, consolidated_into=?, updated_at=NOW() WHERE id=?",
			model.InvoiceConsolidated, newID, src.ID); err != nil {
			return model.Invoice{}, err
		}
	}

	stored, err := scanInvoice(tx.QueryRowContext(ctx,
		"SELECT "+invoiceCols+" FROM invoices WHERE id=?", newID))
	if err != nil {
		return model.Invoice{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Invoice{}, err
	}
	committed = true
	stored.ConsolidatedFrom = make([]uint64, 0, len(sources))
	for _, src := range sources {
		stored.ConsolidatedFrom = append(stored.ConsolidatedFrom, src.ID)
	}
	return stored, nil
}

// NextInvoiceNumber produces the next invoice number for a company,
// formatted INV-%06d. The sequence advances past the highest number ever
// issued, not the row count, so deleting a draft never frees a number for
// reuse (invoice_number is unique per company; a reused number would 1062
// on the next create).
func (r *InvoiceRepo) NextInvoiceNumber(ctx context.Context, companyID uint64) (string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT invoice_number FROM invoices WHERE company_id=? AND invoice_number LIKE 'INV-%'",
		companyID)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var max uint64
	for rows.Next() {
		var num string
		if err := rows.Scan(&num); err != nil {
			return "", err
		}
		if seq, ok := invoiceNumberSeq(num); ok && seq > max {
			max = seq
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%06d", max+1), nil
}

// invoiceNumberSeq extracts the numeric sequence from an INV-prefixed
// invoice number. Numbers in other formats (imported data) report false
// and do not advance the sequence.
func invoiceNumberSeq(num string) (uint64, bool) {
	const prefix = "INV-"
	if !strings.HasPrefix(num, prefix) || len(num) == len(prefix) {
		return 0, false
	}
	seq, err := strconv.ParseUint(num[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}
