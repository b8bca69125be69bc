// Package billing contains the pure business-rule helpers behind the
// invoicing endpoints: AR aging buckets, payment auto-matching,
// consolidation eligibility and payment allocation balancing. Everything
// here operates on in-memory invoice rows so the rules are testable
// without a database.
package billing

import (
	"time"

	"invoicehub-backend/internal/model"
)

// Aging bucket labels in report order.
var AgingLabels = []string{"current", "1-30", "31-60", "61-90", "90+"}

// AgingBucket accumulates count and summed totals for one days-overdue band.
type AgingBucket struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// AgingBuckets classifies every sent or overdue invoice with a due date by
// days overdue relative to today. An invoice due exactly today (or in the
// future) is current; one day overdue falls in 1-30, 30 days exactly stays
// in 1-30 and 31 days moves to 31-60. Calendar dates are compared, not
// clock instants, so time-of-day never shifts a boundary.
func AgingBuckets(invoices []model.Invoice, today time.Time) []AgingBucket {
	buckets := make([]AgingBucket, len(AgingLabels))
	for i, l := range AgingLabels {
		buckets[i] = AgingBucket{Label: l}
	}
	for _, inv := range invoices {
		if inv.Status != model.InvoiceSent && inv.Status != model.InvoiceOverdue {
			continue
		}
		if inv.DueDate == nil {
			continue
		}
		idx := bucketIndex(daysBetween(*inv.DueDate, today))
		buckets[idx].Count++
		buckets[idx].Total += inv.Total
	}
	return buckets
}

func bucketIndex(daysOverdue int) int {
	switch {
	case daysOverdue <= 0:
		return 0
	case daysOverdue <= 30:
		return 1
	case daysOverdue <= 60:
		return 2
	case daysOverdue <= 90:
		return 3
	default:
		return 4
	}
}

// daysBetween returns whole calendar days from a to b, negative when b is
// before a.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad) / (24 * time.Hour))
}
