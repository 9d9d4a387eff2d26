package processors

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cardfolio/backend/src/logger"
	"github.com/username/cardfolio/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

var reconcileToday = time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

func candidates() []models.CandidateItem {
	return []models.CandidateItem{
		{Description: "PADARIA STAR", Amount: decimal.RequireFromString("25.90"), PurchaseDate: datePtr(2025, time.July, 6)},
		{Description: "COT(WEB)", Amount: decimal.RequireFromString("330.67"), PurchaseDate: datePtr(2025, time.July, 6)},
		{Description: "LIBERTY DUTY FREE", Amount: decimal.RequireFromString("123.45"), PurchaseDate: &reconcileToday, InstallmentNumber: 2, InstallmentTotal: 4},
	}
}

func TestAddItemsToEmptyInvoice(t *testing.T) {
	r := NewReconciler(IsFeeLike)
	invoice := &models.Invoice{CardID: 1, InvoiceMonth: "2025-08"}

	result := r.AddItems(invoice, candidates(), reconcileToday)
	assert.Equal(t, 3, result.Added)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, invoice.Items, 3)
	assert.True(t, invoice.TotalAmount.Equal(decimal.RequireFromString("480.02")), "got %s", invoice.TotalAmount)
}

func TestAddItemsReimportIsIdempotent(t *testing.T) {
	r := NewReconciler(IsFeeLike)
	invoice := &models.Invoice{CardID: 1, InvoiceMonth: "2025-08"}

	first := r.AddItems(invoice, candidates(), reconcileToday)
	require.Equal(t, 3, first.Added)

	second := r.AddItems(invoice, candidates(), reconcileToday)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 3, second.Skipped)
	assert.Len(t, invoice.Items, 3)
	assert.True(t, invoice.TotalAmount.Equal(decimal.RequireFromString("480.02")))
}

func TestAddItemsSkipsIntraBatchDuplicates(t *testing.T) {
	r := NewReconciler(IsFeeLike)
	invoice := &models.Invoice{CardID: 1, InvoiceMonth: "2025-08"}

	item := models.CandidateItem{Description: "PADARIA STAR", Amount: decimal.RequireFromString("25.90"), PurchaseDate: datePtr(2025, time.July, 6)}
	result := r.AddItems(invoice, []models.CandidateItem{item, item}, reconcileToday)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, invoice.Items, 1)
}

func TestAddItemsKeepsDistinctInstallments(t *testing.T) {
	r := NewReconciler(IsFeeLike)
	invoice := &models.Invoice{CardID: 1, InvoiceMonth: "2025-08"}

	amount := decimal.RequireFromString("123.45")
	batch := []models.CandidateItem{
		{Description: "LIBERTY DUTY FREE", Amount: amount, PurchaseDate: &reconcileToday, InstallmentNumber: 1, InstallmentTotal: 4},
		{Description: "LIBERTY DUTY FREE", Amount: amount, PurchaseDate: &reconcileToday, InstallmentNumber: 2, InstallmentTotal: 4},
	}
	result := r.AddItems(invoice, batch, reconcileToday)
	assert.Equal(t, 2, result.Added)
	assert.Len(t, invoice.Items, 2)
}

func TestAddItemsSecondaryFieldMatch(t *testing.T) {
	r := NewReconciler(IsFeeLike)
	// A persisted item without a date, stored before dates were kept.
	// Its signature differs from the dated candidate's, but the field
	// comparison resolves the missing date to today and catches it.
	invoice := &models.Invoice{
		CardID:       1,
		InvoiceMonth: "2025-08",
		Items: []models.InvoiceItem{
			{Description: "PADARIA  STAR", Amount: decimal.RequireFromString("25.90")},
		},
	}
	invoice.RecalculateTotal()

	batch := []models.CandidateItem{
		{Description: "PADARIA STAR", Amount: decimal.RequireFromString("25.90"), PurchaseDate: &reconcileToday},
	}
	result := r.AddItems(invoice, batch, reconcileToday)
	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, invoice.Items, 1)
}

func TestAddItemsFeeLikeIgnoresInstallmentFields(t *testing.T) {
	r := NewReconciler(IsFeeLike)
	invoice := &models.Invoice{
		CardID:       1,
		InvoiceMonth: "2025-08",
		Items: []models.InvoiceItem{
			{Description: "IOF DESPESA NO EXTERIOR", Amount: decimal.RequireFromString("13.54"), PurchaseDate: &reconcileToday},
		},
	}
	invoice.RecalculateTotal()

	// Same fee reprinted with spurious installment columns still
	// counts as the same charge.
	batch := []models.CandidateItem{
		{Description: "IOF DESPESA NO EXTERIOR", Amount: decimal.RequireFromString("13.54"), PurchaseDate: &reconcileToday, InstallmentNumber: 1, InstallmentTotal: 2},
	}
	result := r.AddItems(invoice, batch, reconcileToday)
	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 1, result.Skipped)
}

func TestAddItemsNegativeAmountAdjustsTotal(t *testing.T) {
	r := NewReconciler(IsFeeLike)
	invoice := &models.Invoice{CardID: 1, InvoiceMonth: "2025-08"}

	batch := []models.CandidateItem{
		{Description: "COMPRA LOJA", Amount: decimal.RequireFromString("100.00"), PurchaseDate: datePtr(2025, time.July, 6)},
		{Description: "ESTORNO COMPRA", Amount: decimal.RequireFromString("-45.00"), PurchaseDate: datePtr(2025, time.July, 10)},
	}
	result := r.AddItems(invoice, batch, reconcileToday)
	assert.Equal(t, 2, result.Added)
	assert.True(t, invoice.TotalAmount.Equal(decimal.RequireFromString("55")), "got %s", invoice.TotalAmount)
}
