package processors

import (
	"time"

	"github.com/username/cardfolio/backend/src/logger"
	"github.com/username/cardfolio/backend/src/models"
	"github.com/username/cardfolio/backend/src/utils"
)

// Reconciler decides which candidate items are genuinely new for an
// invoice. It only appends to the in-memory aggregate; the caller
// persists the invoice once after the batch.
type Reconciler struct {
	isFeeLike func(description string) bool
}

// NewReconciler builds a reconciler with the given fee-like
// classifier. Pass processors.IsFeeLike outside of tests.
func NewReconciler(isFeeLike func(string) bool) *Reconciler {
	return &Reconciler{isFeeLike: isFeeLike}
}

// ReconcileResult counts the outcome of one batch for observability.
type ReconcileResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// AddItems reconciles a batch of candidates against the invoice's
// persisted items. The signature set accumulates within the batch, so
// intra-batch duplicates are skipped too. Per-item failures are
// logged and counted as skipped; they never abort the batch.
func (r *Reconciler) AddItems(invoice *models.Invoice, candidates []models.CandidateItem, today time.Time) ReconcileResult {
	existing := make(map[string]bool, len(invoice.Items)+len(candidates))
	for _, item := range invoice.Items {
		sig, ok := safeSignature(item.Description, item)
		if !ok {
			// An item whose signature cannot be computed is never
			// treated as a duplicate.
			continue
		}
		existing[sig] = true
	}

	var result ReconcileResult
	for _, candidate := range candidates {
		added, ok := r.addOne(invoice, candidate, existing, today)
		if !ok {
			result.Skipped++
			continue
		}
		if added {
			result.Added++
		} else {
			result.Skipped++
		}
	}
	return result
}

// addOne processes a single candidate. The second return value is
// false when processing itself failed.
func (r *Reconciler) addOne(invoice *models.Invoice, candidate models.CandidateItem, existing map[string]bool, today time.Time) (added bool, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.L.Error("Skipping candidate item after processing failure",
				"description", candidate.Description, "panic", rec)
			added, ok = false, false
		}
	}()

	sig := ItemSignature(candidate.Description, candidate.Amount, candidate.PurchaseDate,
		candidate.InstallmentNumber, candidate.InstallmentTotal)
	if existing[sig] {
		return false, true
	}

	if r.matchesPersistedItem(invoice, candidate, today) {
		return false, true
	}

	invoice.AddItem(models.InvoiceItem{
		Description:       candidate.Description,
		Amount:            candidate.Amount,
		PurchaseDate:      candidate.PurchaseDate,
		InstallmentNumber: candidate.InstallmentNumber,
		InstallmentTotal:  candidate.InstallmentTotal,
	})
	existing[sig] = true
	return true, true
}

// matchesPersistedItem is the secondary same-item check: field
// equality catches items whose stored form predates the signature
// scheme or normalized differently.
func (r *Reconciler) matchesPersistedItem(invoice *models.Invoice, candidate models.CandidateItem, today time.Time) bool {
	candidateDesc := NormalizeDescription(candidate.Description)
	feeLike := r.isFeeLike != nil && r.isFeeLike(candidate.Description)

	for _, item := range invoice.Items {
		if NormalizeDescription(item.Description) != candidateDesc {
			continue
		}
		if !item.Amount.Equal(candidate.Amount) {
			continue
		}
		if !utils.SameDate(item.PurchaseDate, candidate.PurchaseDate, today) {
			continue
		}
		// Fee-like items skip the installment comparison; issuers
		// reprint them without installment columns.
		if !feeLike {
			if item.InstallmentNumber != candidate.InstallmentNumber ||
				item.InstallmentTotal != candidate.InstallmentTotal {
				continue
			}
		}
		return true
	}
	return false
}

func safeSignature(description string, item models.InvoiceItem) (sig string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.L.Warn("Could not compute signature for persisted item",
				"description", description, "panic", rec)
			sig, ok = "", false
		}
	}()
	return ItemSignature(item.Description, item.Amount, item.PurchaseDate,
		item.InstallmentNumber, item.InstallmentTotal), true
}
