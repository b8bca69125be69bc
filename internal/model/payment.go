package model

import "time"

// Payment methods.
const (
	PaymentManual = "manual"
	PaymentCard   = "card"
)

// Payment is a recorded payment from a client, split across one or more
// invoices via allocations.
type Payment struct {
	ID         uint64    `json:"id"`
	CompanyID  uint64    `json:"company_id"`
	ClientID   uint64    `json:"client_id"`
	Amount     float64   `json:"amount"`
	Method     string    `json:"method"`
	Reference  *string   `json:"reference,omitempty"` // external processor reference for card payments
	ReceivedAt time.Time `json:"received_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// PaymentAllocation applies part of a payment to a single invoice.
type PaymentAllocation struct {
	ID        uint64  `json:"id"`
	PaymentID uint64  `json:"payment_id"`
	InvoiceID uint64  `json:"invoice_id"`
	Amount    float64 `json:"amount"`
}
