// Package processors holds the pure reconciliation logic of the
// import pipeline: the line-item identity signature and the
// deduplication pass over an invoice.
package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/cardfolio/backend/src/utils"
)

// NormalizeDescription lower-cases, trims and collapses internal
// whitespace runs so cosmetic layout differences between statements
// never change an item's identity.
func NormalizeDescription(description string) string {
	return strings.Join(strings.Fields(strings.ToLower(description)), " ")
}

// ItemSignature derives the stable identity hash of a line item. The
// same real-world transaction must hash identically across repeated
// imports, so every field is normalized first: description per
// NormalizeDescription, amount at exactly two decimals, date as ISO
// or empty when absent.
//
// Fee-like items arrive here with their defaulted "today" date
// intentionally included: the same IOF charge recurring on different
// statements must produce different signatures on different days.
func ItemSignature(description string, amount decimal.Decimal, date *time.Time, installmentNumber, installmentTotal int) string {
	dateStr := ""
	if date != nil {
		dateStr = date.Format(utils.ISODateFormat)
	}
	input := fmt.Sprintf("%s|%s|%s|%d|%d",
		NormalizeDescription(description),
		amount.StringFixed(2),
		dateStr,
		installmentNumber,
		installmentTotal,
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// feeLikeKeywords identify charges with relaxed dedup rules. Matched
// against the normalized description.
var feeLikeKeywords = []string{
	"iof",
	"despesa no exterior",
	"compras no exterior",
	"transacao internacional",
}

// IsFeeLike reports whether a description names a tax/fee charge.
// Kept as a standalone capability function so the reconciler takes it
// by injection and the keyword list stays independently swappable.
func IsFeeLike(description string) bool {
	normalized := NormalizeDescription(description)
	for _, keyword := range feeLikeKeywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}
