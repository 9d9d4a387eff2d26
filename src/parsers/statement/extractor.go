// Package statement turns raw credit-card statement text into
// candidate line items, document metadata and a confidence score.
// It is pure text processing: no I/O, no persistence.
package statement

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/username/cardfolio/backend/src/models"
	"github.com/username/cardfolio/backend/src/utils"
)

// Result is everything extracted from one document.
type Result struct {
	Metadata   models.StatementMetadata
	Items      []models.CandidateItem
	Confidence float64
}

// Extractor matches statement text against the precompiled pattern
// set. The clock is injectable so "dated today" behavior is testable.
type Extractor struct {
	now func() time.Time
}

func NewExtractor() *Extractor {
	return &Extractor{now: time.Now}
}

// NewExtractorAt pins the extractor's clock. Tests use this to make
// undated (fee/installment) lines deterministic.
func NewExtractorAt(now func() time.Time) *Extractor {
	return &Extractor{now: now}
}

// Extract processes the text line by line, first match wins per line.
// Unmatched lines are dropped, never fatal.
func (e *Extractor) Extract(text string) *Result {
	today := e.now()

	result := &Result{
		Metadata: extractMetadata(text),
	}

	for _, line := range strings.Split(text, "\n") {
		_, item, ok := MatchLine(line, today)
		if !ok {
			continue
		}
		result.Items = append(result.Items, item)
	}

	result.Metadata.ItemCount = len(result.Items)
	if result.Metadata.InvoiceMonth == "" && result.Metadata.DueDate != "" {
		if due, err := time.Parse(utils.ISODateFormat, result.Metadata.DueDate); err == nil {
			result.Metadata.InvoiceMonth = due.Format(utils.MonthFormat)
		}
	}
	result.Confidence = scoreConfidence(text, result.Metadata, len(result.Items))
	return result
}

var (
	dueDateRe = regexp.MustCompile(`(?i)vencimento\s*:?\s*(\d{2}/\d{2}/\d{4})`)
	totalRe   = regexp.MustCompile(`(?i)total\s+(?:a\s+pagar|da\s+fatura)\s*:?\s*(?:R\$\s*)?(` + amountPattern + `)`)
	lastFourRe = regexp.MustCompile(`(?i)(?:final|\*{4})\s*(\d{4})`)

	invoiceMonthNumericRe = regexp.MustCompile(`(?i)fatura\s*:?\s*(\d{2})/(\d{4})`)
	invoiceMonthNameRe    = regexp.MustCompile(`(?i)fatura\s+de\s+([\p{L}]+)\s*(?:/|de)?\s*(\d{4})`)
)

var bankNames = []string{
	"BANCO DO BRASIL",
	"BRADESCO",
	"ITAU",
	"ITAÚ",
	"NUBANK",
	"SANTANDER",
	"CAIXA",
	"BTG PACTUAL",
	"BANCO INTER",
	"C6 BANK",
}

var monthsByName = map[string]time.Month{
	"janeiro":   time.January,
	"fevereiro": time.February,
	"marco":     time.March,
	"março":     time.March,
	"abril":     time.April,
	"maio":      time.May,
	"junho":     time.June,
	"julho":     time.July,
	"agosto":    time.August,
	"setembro":  time.September,
	"outubro":   time.October,
	"novembro":  time.November,
	"dezembro":  time.December,
}

// extractMetadata runs every metadata matcher independently; each is
// best-effort and absence never aborts parsing.
func extractMetadata(text string) models.StatementMetadata {
	var md models.StatementMetadata

	if m := dueDateRe.FindStringSubmatch(text); m != nil {
		if due, err := utils.ParseBRDate(m[1]); err == nil {
			md.DueDate = due.Format(utils.ISODateFormat)
		}
	}
	if m := totalRe.FindStringSubmatch(text); m != nil {
		if total, err := ParseAmount(m[1]); err == nil {
			md.TotalAmount = &total
		}
	}
	if m := lastFourRe.FindStringSubmatch(text); m != nil {
		md.CardLastFourDigits = m[1]
	}
	md.BankName = findBankName(text)
	md.InvoiceMonth = findInvoiceMonth(text)
	return md
}

func findBankName(text string) string {
	upper := strings.ToUpper(text)
	for _, name := range bankNames {
		if strings.Contains(upper, name) {
			return name
		}
	}
	return ""
}

func findInvoiceMonth(text string) string {
	if m := invoiceMonthNumericRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		if month >= 1 && month <= 12 {
			return fmt.Sprintf("%s-%02d", m[2], month)
		}
	}
	if m := invoiceMonthNameRe.FindStringSubmatch(text); m != nil {
		if month, ok := monthsByName[strings.ToLower(m[1])]; ok {
			return fmt.Sprintf("%s-%02d", m[2], int(month))
		}
	}
	return ""
}

// scoreConfidence sums the extraction evidence into the [0,1] score
// that gates automatic completion versus manual review.
func scoreConfidence(text string, md models.StatementMetadata, itemCount int) float64 {
	score := 0.0
	if len(text) > 100 {
		score += 0.2
		if len(text) > 500 {
			score += 0.1
		}
	}
	if md.TotalAmount != nil {
		score += 0.3
	}
	if md.DueDate != "" {
		score += 0.2
	}
	if itemCount >= 1 {
		score += 0.2
		if itemCount > 1 {
			score += 0.1
		}
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}
