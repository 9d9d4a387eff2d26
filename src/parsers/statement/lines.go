package statement

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/cardfolio/backend/src/models"
	"github.com/username/cardfolio/backend/src/utils"
)

// MatchKind tags the pattern class that claimed a statement line.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchStop
	MatchFee
	MatchInternational
	MatchInstallment
	MatchGeneric
)

func (k MatchKind) String() string {
	switch k {
	case MatchStop:
		return "stop"
	case MatchFee:
		return "fee"
	case MatchInternational:
		return "international"
	case MatchInstallment:
		return "installment"
	case MatchGeneric:
		return "generic"
	default:
		return "none"
	}
}

// Monetary amounts as Brazilian statements print them: dot-thousands,
// comma-decimal, optional leading sign.
const amountPattern = `-?\d{1,3}(?:\.\d{3})*,\d{2}`

var (
	amountOnlyRe = regexp.MustCompile(`^` + amountPattern + `$`)

	// "06/07 COT(WEB) 2.310,00 PESO URUGU 330,67 57,55"
	// The item amount is the FIRST trailing column (local currency);
	// the second is the conversion rate column.
	internationalLineRe = regexp.MustCompile(
		`^(\d{2})/(\d{2})\s+(.+?)\s+(` + amountPattern + `)\s+([A-Z][A-Z ]*[A-Z])\s+(` + amountPattern + `)\s+(` + amountPattern + `)$`)

	// "LIBERTY DUTY FREE 02/04 123,45"
	installmentLineRe = regexp.MustCompile(
		`^(.+?)\s+(\d{2})/(\d{2})\s+(` + amountPattern + `)$`)

	// "06/07 PADARIA STAR 25,90"
	genericLineRe = regexp.MustCompile(
		`^(\d{2})/(\d{2})\s+(.+?)\s+(` + amountPattern + `)$`)
)

// stopWords label statement noise: balances, payments, fees charged
// by the issuer, interest and installment-summary sections. Lines
// containing any of them never become transactions.
var stopWords = []string{
	"saldo anterior",
	"saldo em atraso",
	"pagamento efetuado",
	"pagamento recebido",
	"pagamento de fatura",
	"tarifa",
	"juros",
	"encargos",
	"multa",
	"anuidade",
	"limite",
	"total parcelado",
	"compras parceladas",
	"demais faturas",
	"proxima fatura",
	"próxima fatura",
}

// feeLiterals are the tax/fee lines that DO represent charges to the
// holder. They carry no printed date. Longest first so the generic
// "IOF" prefix never shadows a more specific literal.
var feeLiterals = []string{
	"IOF DESPESA NO EXTERIOR",
	"IOF COMPRAS NO EXTERIOR",
	"IOF TRANSACAO INTERNACIONAL",
	"IOF ADICIONAL",
	"IOF",
}

// Extraction weight for fee lines; all other matched lines are taken
// at face value.
const feeItemWeight = 0.9

// MatchLine classifies one statement line. Pattern classes are tried
// in fixed priority order and the first match wins. The boolean is
// true only when the line produced a candidate item.
func MatchLine(line string, today time.Time) (MatchKind, models.CandidateItem, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return MatchNone, models.CandidateItem{}, false
	}

	if isStopWordLine(line) {
		return MatchStop, models.CandidateItem{}, false
	}
	if item, ok := matchFeeLine(line, today); ok {
		return MatchFee, item, true
	}
	if item, ok := matchInternationalLine(line, today); ok {
		return MatchInternational, item, true
	}
	if item, ok := matchInstallmentLine(line, today); ok {
		return MatchInstallment, item, true
	}
	if item, ok := matchGenericLine(line, today); ok {
		return MatchGeneric, item, true
	}
	return MatchNone, models.CandidateItem{}, false
}

func isStopWordLine(line string) bool {
	lower := strings.ToLower(line)
	for _, word := range stopWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func matchFeeLine(line string, today time.Time) (models.CandidateItem, bool) {
	upper := strings.ToUpper(line)
	for _, literal := range feeLiterals {
		if !strings.HasPrefix(upper, literal) {
			continue
		}
		rest := strings.TrimSpace(line[len(literal):])
		if !amountOnlyRe.MatchString(rest) {
			continue
		}
		amount, err := ParseAmount(rest)
		if err != nil {
			continue
		}
		// No printed date on fee lines; they are charged "today".
		date := utils.Truncate(today)
		return models.CandidateItem{
			Description:  strings.TrimSpace(line[:len(literal)]),
			Amount:       amount,
			PurchaseDate: &date,
			Confidence:   feeItemWeight,
		}, true
	}
	return models.CandidateItem{}, false
}

func matchInternationalLine(line string, today time.Time) (models.CandidateItem, bool) {
	m := internationalLineRe.FindStringSubmatch(line)
	if m == nil {
		return models.CandidateItem{}, false
	}
	date, ok := resolveItemDate(m[1], m[2], today)
	if !ok {
		return models.CandidateItem{}, false
	}
	// m[4] is the foreign-currency amount and m[7] the rate column;
	// only the first local-currency column (m[6]) is the item amount.
	amount, err := ParseAmount(m[6])
	if err != nil {
		return models.CandidateItem{}, false
	}
	return models.CandidateItem{
		Description:  strings.TrimSpace(m[3]),
		Amount:       amount,
		PurchaseDate: &date,
		Confidence:   1.0,
	}, true
}

func matchInstallmentLine(line string, today time.Time) (models.CandidateItem, bool) {
	m := installmentLineRe.FindStringSubmatch(line)
	if m == nil {
		return models.CandidateItem{}, false
	}
	number, _ := strconv.Atoi(m[2])
	total, _ := strconv.Atoi(m[3])
	if number < 1 || total < 1 || number > total {
		return models.CandidateItem{}, false
	}
	amount, err := ParseAmount(m[4])
	if err != nil {
		return models.CandidateItem{}, false
	}
	// Installment lines print no purchase date.
	date := utils.Truncate(today)
	return models.CandidateItem{
		Description:       strings.TrimSpace(m[1]),
		Amount:            amount,
		PurchaseDate:      &date,
		InstallmentNumber: number,
		InstallmentTotal:  total,
		Confidence:        1.0,
	}, true
}

func matchGenericLine(line string, today time.Time) (models.CandidateItem, bool) {
	m := genericLineRe.FindStringSubmatch(line)
	if m == nil {
		return models.CandidateItem{}, false
	}
	date, ok := resolveItemDate(m[1], m[2], today)
	if !ok {
		return models.CandidateItem{}, false
	}
	amount, err := ParseAmount(m[4])
	if err != nil {
		return models.CandidateItem{}, false
	}
	return models.CandidateItem{
		Description:  strings.TrimSpace(m[3]),
		Amount:       amount,
		PurchaseDate: &date,
		Confidence:   1.0,
	}, true
}

// resolveItemDate completes a printed "DD/MM" with the current
// calendar year; the year is never printed on item lines.
func resolveItemDate(dayStr, monthStr string, today time.Time) (time.Time, bool) {
	day, _ := strconv.Atoi(dayStr)
	month, _ := strconv.Atoi(monthStr)
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, false
	}
	return utils.ResolveDayMonth(day, month, today), true
}

// ParseAmount converts a printed amount (comma-decimal,
// dot-thousands) to a fixed-point decimal. Negative amounts are
// refunds and perfectly valid.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	return decimal.NewFromString(s)
}
