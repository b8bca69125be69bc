package billing

import (
	"math"
	"sort"

	"invoicehub-backend/internal/model"
)

// MatchTolerance is the absolute tolerance used when comparing a typed
// payment amount against an invoice's open balance. Amounts arrive as
// float64 after DECIMAL scanning, so exact equality would miss rounding
// artifacts like 99.999999.
const MatchTolerance = 0.01

// AutoMatch scans a client's open invoices (total − amount_paid > 0) sorted
// by due date ascending and returns the first one whose open balance equals
// amount within MatchTolerance. Invoices without a due date sort last. The
// second return is false when nothing matches.
func AutoMatch(invoices []model.Invoice, amount float64) (model.Invoice, bool) {
	open := make([]model.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.OpenBalance() > 0 {
			open = append(open, inv)
		}
	}
	sort.SliceStable(open, func(a, b int) bool {
		da, db := open[a].DueDate, open[b].DueDate
		switch {
		case da == nil:
			return false
		case db == nil:
			return true
		default:
			return da.Before(*db)
		}
	})
	for _, inv := range open {
		if math.Abs(inv.OpenBalance()-amount) <= MatchTolerance {
			return inv, true
		}
	}
	return model.Invoice{}, false
}

// AllocationSummary is the running state of the payment modal: how much of
// the typed total has been spread across invoices and how much remains.
type AllocationSummary struct {
	Allocated float64 `json:"allocated"`
	Remaining float64 `json:"remaining"`
}

// Allocations sums all positive per-invoice entries against the typed
// payment total.
func Allocations(entries map[uint64]float64, typedTotal float64) AllocationSummary {
	var sum float64
	for _, v := range entries {
		if v > 0 {
			sum += v
		}
	}
	return AllocationSummary{Allocated: sum, Remaining: typedTotal - sum}
}

// CanSubmit reports whether the allocation set is submittable: at least one
// allocation greater than zero.
func CanSubmit(entries map[uint64]float64) bool {
	for _, v := range entries {
		if v > 0 {
			return true
		}
	}
	return false
}
