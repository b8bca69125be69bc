package model

import "time"

// Client is a billable customer of a company. Invoices and payments always
// reference a client; projects may.
type Client struct {
	ID        uint64    // clients.id
	CompanyID uint64    // clients.company_id
	Name      string    // clients.name
	Email     string    // clients.email
	CreatedAt time.Time // clients.created_at
}
