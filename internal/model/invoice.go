package model

import "time"

// Invoice status values. An invoice becomes "paid" once AmountPaid reaches
// Total; "consolidated" marks a draft that has been merged into another
// invoice and is no longer payable on its own.
const (
	InvoiceDraft        = "draft"
	InvoiceSent         = "sent"
	InvoicePaid         = "paid"
	InvoiceOverdue      = "overdue"
	InvoiceConsolidated = "consolidated"
)

// Invoice represents a row in the `invoices` table. Monetary amounts are
// stored as DECIMAL and scanned into float64; comparisons in business logic
// use a 0.01 absolute tolerance to guard against rounding.
//
// Fields:
//
//	ID               – primary key identifier.
//	CompanyID        – company issuing the invoice.
//	ClientID         – client being billed.
//	ProjectID        – originating project (nullable).
//	InvoiceNumber    – human-facing invoice number, unique per company.
//	Status           – lifecycle state, see constants above.
//	Subtotal         – sum of line item amounts before tax.
//	TaxAmount        – tax portion.
//	Total            – subtotal + tax.
//	AmountPaid       – cumulative allocated payments. Target state is
//	                   AmountPaid <= Total; allocations are clamped to the
//	                   open balance rather than hard-enforced by the schema.
//	DueDate          – payment due date (nullable for drafts).
//	ConsolidatedInto – id of the draft this invoice was merged into (nullable).
//	ConsolidatedFrom – ids of source invoices when this invoice is the result
//	                   of a consolidation; loaded by the repository, not a column.
//	ViewCount        – number of public link views.
//	PublicViewToken  – unguessable token for the public invoice page.
//	CreatedAt        – creation timestamp.
//	UpdatedAt        – last update timestamp.
type Invoice struct {
	ID               uint64     `json:"id"`
	CompanyID        uint64     `json:"company_id"`
	ClientID         uint64     `json:"client_id"`
	ProjectID        *uint64    `json:"project_id,omitempty"`
	InvoiceNumber    string     `json:"invoice_number"`
	Status           string     `json:"status"`
	Subtotal         float64    `json:"subtotal"`
	TaxAmount        float64    `json:"tax_amount"`
	Total            float64    `json:"total"`
	AmountPaid       float64    `json:"amount_paid"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	ConsolidatedInto *uint64    `json:"consolidated_into,omitempty"`
	ConsolidatedFrom []uint64   `json:"consolidated_from,omitempty"`
	ViewCount        uint32     `json:"view_count"`
	PublicViewToken  string     `json:"public_view_token"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// OpenBalance returns the unpaid remainder of the invoice.
func (i Invoice) OpenBalance() float64 {
	return i.Total - i.AmountPaid
}

// InvoiceLineItem is a row in `invoice_line_items`. Amount is always
// Quantity × UnitPrice unless set directly for task-based billing, where
// BilledPercentage records how much of the task has been billed so far.
type InvoiceLineItem struct {
	ID               uint64   `json:"id"`
	InvoiceID        uint64   `json:"invoice_id"`
	Description      string   `json:"description"`
	Quantity         float64  `json:"quantity"`
	UnitPrice        float64  `json:"unit_price"`
	Amount           float64  `json:"amount"`
	TaskID           *uint64  `json:"task_id,omitempty"`
	BillingType      *string  `json:"billing_type,omitempty"`
	BilledPercentage *float64 `json:"billed_percentage,omitempty"`
}
