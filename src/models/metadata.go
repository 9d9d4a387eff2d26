package models

import "github.com/shopspring/decimal"

// StatementMetadata is the document-level data extracted from a
// statement. Every field is best-effort; absence of any of them never
// aborts parsing. The struct is serialized onto the import job as the
// parsed-metadata blob and must round-trip through this same schema.
type StatementMetadata struct {
	BankName           string           `json:"bankName,omitempty"`
	CardLastFourDigits string           `json:"cardLastFourDigits,omitempty"`
	TotalAmount        *decimal.Decimal `json:"totalAmount,omitempty"`
	DueDate            string           `json:"dueDate,omitempty"`      // ISO date
	InvoiceMonth       string           `json:"invoiceMonth,omitempty"` // "YYYY-MM"
	ItemCount          int              `json:"itemCount"`
}
