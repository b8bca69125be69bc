package billing

import (
	"errors"

	"invoicehub-backend/internal/model"
)

// Consolidation eligibility failures. The messages are user-facing; the
// handler returns them verbatim in the error body.
var (
	ErrTooFewInvoices      = errors.New("select at least two invoices to consolidate")
	ErrMixedClients        = errors.New("all invoices must belong to the same client")
	ErrNotDraft            = errors.New("Only draft invoices can be consolidated")
	ErrAlreadyConsolidated = errors.New("invoices that were already consolidated cannot be merged again")
)

// CheckConsolidation validates a selected invoice set for merging: at least
// two invoices, one client, every status exactly draft, none already merged
// into another invoice and none itself the result of a consolidation.
func CheckConsolidation(selected []model.Invoice) error {
	if len(selected) < 2 {
		return ErrTooFewInvoices
	}
	clientID := selected[0].ClientID
	for _, inv := range selected {
		if inv.ClientID != clientID {
			return ErrMixedClients
		}
		if inv.Status != model.InvoiceDraft {
			return ErrNotDraft
		}
		if inv.ConsolidatedInto != nil || len(inv.ConsolidatedFrom) > 0 {
			return ErrAlreadyConsolidated
		}
	}
	return nil
}
