package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditCard is the import pipeline's view of a registered card.
// Card CRUD itself lives outside this service.
type CreditCard struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"-"`
	Name           string `json:"name"`
	LastFourDigits string `json:"lastFourDigits"`
}

// Invoice is one card's bill for one month, identified by card + month.
type Invoice struct {
	ID           int64           `json:"id"`
	CardID       int64           `json:"cardId"`
	InvoiceMonth string          `json:"invoiceMonth"` // "YYYY-MM"
	DueDate      string          `json:"dueDate,omitempty"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Items        []InvoiceItem   `json:"items,omitempty"`
}

// InvoiceItem is one persisted transaction line on an invoice.
type InvoiceItem struct {
	ID                int64           `json:"id"`
	InvoiceID         int64           `json:"-"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	PurchaseDate      *time.Time      `json:"purchaseDate,omitempty"`
	InstallmentNumber int             `json:"installmentNumber,omitempty"`
	InstallmentTotal  int             `json:"installmentTotal,omitempty"`
}

// CandidateItem is a parser-extracted line item that has not been
// deduplicated or persisted yet. Discarded after reconciliation.
type CandidateItem struct {
	Description       string
	Amount            decimal.Decimal
	PurchaseDate      *time.Time
	InstallmentNumber int
	InstallmentTotal  int
	Confidence        float64
}

// AddItem appends an item to the invoice and keeps the running total
// consistent. Dedup decisions are the reconciler's job, not the
// invoice's.
func (inv *Invoice) AddItem(item InvoiceItem) {
	inv.Items = append(inv.Items, item)
	inv.TotalAmount = inv.TotalAmount.Add(item.Amount)
}

// RecalculateTotal recomputes the invoice total from its items.
func (inv *Invoice) RecalculateTotal() {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.Amount)
	}
	inv.TotalAmount = total
}
