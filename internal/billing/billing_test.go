package billing

import (
	"testing"
	"time"

	"invoicehub-backend/internal/model"
)

var today = time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC)

func due(daysAgo int) *time.Time {
	d := today.AddDate(0, 0, -daysAgo)
	return &d
}

func sent(id uint64, total float64, daysOverdue int) model.Invoice {
	return model.Invoice{ID: id, ClientID: 1, Status: model.InvoiceSent, Total: total, DueDate: due(daysOverdue)}
}

func TestAgingBucketBoundaries(t *testing.T) {
	invoices := []model.Invoice{
		sent(1, 100, 0),  // due exactly today -> current
		sent(2, 100, -5), // due in the future -> current
		sent(3, 100, 1),  // 1 day overdue -> 1-30
		sent(4, 100, 30), // 30 exactly -> 1-30
		sent(5, 100, 31), // -> 31-60
		sent(6, 100, 90), // -> 61-90
		sent(7, 100, 91), // -> 90+
	}
	b := AgingBuckets(invoices, today)
	wantCounts := []int{2, 2, 1, 1, 1}
	for i, want := range wantCounts {
		if b[i].Count != want {
			t.Errorf("bucket %s count = %d, want %d", b[i].Label, b[i].Count, want)
		}
	}
	if b[1].Total != 200 {
		t.Errorf("1-30 total = %v, want 200", b[1].Total)
	}
}

func TestAgingSkipsDraftPaidAndNoDueDate(t *testing.T) {
	invoices := []model.Invoice{
		{ID: 1, Status: model.InvoiceDraft, Total: 50, DueDate: due(10)},
		{ID: 2, Status: model.InvoicePaid, Total: 50, DueDate: due(10)},
		{ID: 3, Status: model.InvoiceSent, Total: 50}, // no due date
		{ID: 4, Status: model.InvoiceOverdue, Total: 50, DueDate: due(10)},
	}
	b := AgingBuckets(invoices, today)
	var total float64
	var count int
	for _, bucket := range b {
		total += bucket.Total
		count += bucket.Count
	}
	if count != 1 || total != 50 {
		t.Errorf("count=%d total=%v, want 1/50", count, total)
	}
}

func TestAutoMatchTolerance(t *testing.T) {
	invoices := []model.Invoice{
		{ID: 1, Total: 100.00, AmountPaid: 0, DueDate: due(5)},
		{ID: 2, Total: 250.00, AmountPaid: 0, DueDate: due(1)},
	}
	for _, amount := range []float64{99.995, 100.0, 100.005} {
		inv, ok := AutoMatch(invoices, amount)
		if !ok || inv.ID != 1 {
			t.Errorf("amount %v: match=%v inv=%d, want invoice 1", amount, ok, inv.ID)
		}
	}
	if _, ok := AutoMatch(invoices, 100.02); ok {
		t.Error("amount off by 0.02 must not match")
	}
}

func TestAutoMatchPrefersEarliestDueDate(t *testing.T) {
	// Both invoices have open balance 100; the earlier due date wins.
	invoices := []model.Invoice{
		{ID: 1, Total: 100, DueDate: due(1)},
		{ID: 2, Total: 100, DueDate: due(30)},
		{ID: 3, Total: 100}, // no due date sorts last
	}
	inv, ok := AutoMatch(invoices, 100)
	if !ok || inv.ID != 2 {
		t.Errorf("got invoice %d, want 2 (earliest due)", inv.ID)
	}
}

func TestAutoMatchSkipsSettledInvoices(t *testing.T) {
	invoices := []model.Invoice{
		{ID: 1, Total: 100, AmountPaid: 100, DueDate: due(9)},
	}
	if _, ok := AutoMatch(invoices, 100); ok {
		t.Error("fully paid invoice must not match")
	}
}

func TestCheckConsolidation(t *testing.T) {
	draft := func(id, client uint64) model.Invoice {
		return model.Invoice{ID: id, ClientID: client, Status: model.InvoiceDraft}
	}
	cases := []struct {
		name     string
		selected []model.Invoice
		want     error
	}{
		{"two drafts same client", []model.Invoice{draft(1, 1), draft(2, 1)}, nil},
		{"single invoice", []model.Invoice{draft(1, 1)}, ErrTooFewInvoices},
		{"mixed clients", []model.Invoice{draft(1, 1), draft(2, 2)}, ErrMixedClients},
		{"sent included", []model.Invoice{draft(1, 1), {ID: 2, ClientID: 1, Status: model.InvoiceSent}}, ErrNotDraft},
		{"already merged into", []model.Invoice{draft(1, 1), {ID: 2, ClientID: 1, Status: model.InvoiceDraft, ConsolidatedInto: ptr(uint64(9))}}, ErrAlreadyConsolidated},
		{"result of earlier merge", []model.Invoice{draft(1, 1), {ID: 2, ClientID: 1, Status: model.InvoiceDraft, ConsolidatedFrom: []uint64{3, 4}}}, ErrAlreadyConsolidated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckConsolidation(tc.selected); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestAllocations(t *testing.T) {
	entries := map[uint64]float64{1: 40, 2: 0, 3: 60.5}
	s := Allocations(entries, 150)
	if s.Allocated != 100.5 {
		t.Errorf("allocated = %v", s.Allocated)
	}
	if s.Remaining != 49.5 {
		t.Errorf("remaining = %v", s.Remaining)
	}
	if !CanSubmit(entries) {
		t.Error("entries with positive allocations must be submittable")
	}
	if CanSubmit(map[uint64]float64{1: 0}) {
		t.Error("all-zero allocations must not be submittable")
	}
}
