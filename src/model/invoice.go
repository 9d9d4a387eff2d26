package model

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/cardfolio/backend/src/models"
	"github.com/username/cardfolio/backend/src/utils"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

// FindInvoiceByCardAndMonth loads an invoice with all of its items.
func FindInvoiceByCardAndMonth(db *sql.DB, cardID int64, invoiceMonth string) (*models.Invoice, error) {
	var inv models.Invoice
	var dueDate sql.NullString
	var total string
	err := db.QueryRow(
		`SELECT id, card_id, invoice_month, due_date, total_amount FROM invoices WHERE card_id = ? AND invoice_month = ?`,
		cardID, invoiceMonth,
	).Scan(&inv.ID, &inv.CardID, &inv.InvoiceMonth, &dueDate, &total)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("error querying invoice for card %d month %s: %w", cardID, invoiceMonth, err)
	}
	inv.DueDate = dueDate.String
	inv.TotalAmount, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("error parsing invoice total %q: %w", total, err)
	}

	items, err := fetchInvoiceItems(db, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return &inv, nil
}

func fetchInvoiceItems(db *sql.DB, invoiceID int64) ([]models.InvoiceItem, error) {
	rows, err := db.Query(
		`SELECT id, invoice_id, description, amount, purchase_date, installment_number, installment_total
		 FROM invoice_items WHERE invoice_id = ? ORDER BY id ASC`,
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying items for invoice %d: %w", invoiceID, err)
	}
	defer rows.Close()

	var items []models.InvoiceItem
	for rows.Next() {
		var item models.InvoiceItem
		var amount string
		var purchaseDate sql.NullString
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &amount, &purchaseDate, &item.InstallmentNumber, &item.InstallmentTotal); err != nil {
			return nil, fmt.Errorf("error scanning invoice item row: %w", err)
		}
		item.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("error parsing item amount %q: %w", amount, err)
		}
		if purchaseDate.Valid && purchaseDate.String != "" {
			if d, err := time.Parse(utils.ISODateFormat, purchaseDate.String); err == nil {
				item.PurchaseDate = &d
			}
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over invoice item rows: %w", err)
	}
	return items, nil
}

// CreateInvoice inserts a new, empty invoice for a card and month.
func CreateInvoice(db *sql.DB, inv *models.Invoice) error {
	res, err := db.Exec(
		`INSERT INTO invoices (card_id, invoice_month, due_date, total_amount) VALUES (?, ?, ?, ?)`,
		inv.CardID, inv.InvoiceMonth, nullableString(inv.DueDate), inv.TotalAmount.String(),
	)
	if err != nil {
		return fmt.Errorf("error inserting invoice for card %d month %s: %w", inv.CardID, inv.InvoiceMonth, err)
	}
	inv.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading invoice id: %w", err)
	}
	return nil
}

// SaveInvoice persists the invoice total and any items appended since
// the last save (items with a zero ID), in one transaction.
func SaveInvoice(db *sql.DB, inv *models.Invoice) error {
	dbTx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error beginning invoice save transaction: %w", err)
	}
	defer dbTx.Rollback()

	_, err = dbTx.Exec(
		`UPDATE invoices SET due_date = COALESCE(NULLIF(?, ''), due_date), total_amount = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		inv.DueDate, inv.TotalAmount.String(), inv.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating invoice %d: %w", inv.ID, err)
	}

	stmt, err := dbTx.Prepare(
		`INSERT INTO invoice_items (invoice_id, description, amount, purchase_date, installment_number, installment_total) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("error preparing item insert statement: %w", err)
	}
	defer stmt.Close()

	for i := range inv.Items {
		item := &inv.Items[i]
		if item.ID != 0 {
			continue
		}
		var purchaseDate interface{}
		if item.PurchaseDate != nil {
			purchaseDate = item.PurchaseDate.Format(utils.ISODateFormat)
		}
		res, err := stmt.Exec(inv.ID, item.Description, item.Amount.String(), purchaseDate, item.InstallmentNumber, item.InstallmentTotal)
		if err != nil {
			return fmt.Errorf("error inserting invoice item %q: %w", item.Description, err)
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("error reading invoice item id: %w", err)
		}
		item.InvoiceID = inv.ID
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing invoice save: %w", err)
	}
	return nil
}

// InvoiceSummary is the list view of one invoice: no items, just the
// aggregate numbers.
type InvoiceSummary struct {
	ID           int64           `json:"id"`
	CardID       int64           `json:"cardId"`
	CardName     string          `json:"cardName"`
	InvoiceMonth string          `json:"invoiceMonth"`
	DueDate      string          `json:"dueDate,omitempty"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	ItemCount    int             `json:"itemCount"`
}

// ListInvoiceSummaries returns every invoice belonging to the user's
// cards, newest month first.
func ListInvoiceSummaries(db *sql.DB, userID int64) ([]InvoiceSummary, error) {
	rows, err := db.Query(
		`SELECT i.id, i.card_id, c.name, i.invoice_month, i.due_date, i.total_amount,
		        (SELECT COUNT(*) FROM invoice_items it WHERE it.invoice_id = i.id)
		 FROM invoices i
		 JOIN credit_cards c ON c.id = i.card_id
		 WHERE c.user_id = ?
		 ORDER BY i.invoice_month DESC, i.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying invoices for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var summaries []InvoiceSummary
	for rows.Next() {
		var s InvoiceSummary
		var dueDate sql.NullString
		var total string
		if err := rows.Scan(&s.ID, &s.CardID, &s.CardName, &s.InvoiceMonth, &dueDate, &total, &s.ItemCount); err != nil {
			return nil, fmt.Errorf("error scanning invoice summary row: %w", err)
		}
		s.DueDate = dueDate.String
		if s.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("error parsing invoice total %q: %w", total, err)
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over invoice summary rows: %w", err)
	}
	return summaries, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
