// Package ledger folds the raw stock transaction log into summaries,
// running-balance histories, draft previews and the low-stock feed.
//
// Every function here is a pure computation over an in-memory entry list;
// persistence belongs to the callers.
package ledger

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/facility-ledger/internal/domain/models"
)

// DefaultMinStock applies when no entry of a SKU carries a usable threshold.
const DefaultMinStock = 5

var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseQty interprets free-form quantity text. Thousands separators are
// ignored and anything unusable, negative values included, yields 0.
func ParseQty(text string) float64 {
	v, ok := ParseQtyOK(text)
	if !ok {
		return 0
	}
	return v
}

// ParseQtyOK is ParseQty that also reports whether the text held a usable
// quantity. Trailing non-numeric text such as a unit suffix is tolerated.
func ParseQtyOK(text string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	if cleaned == "" {
		return 0, false
	}

	prefix := numericPrefix.FindString(cleaned)
	if prefix == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// FormatQty renders a quantity the way it is written back into stockQty.
func FormatQty(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func qty(text string) decimal.Decimal {
	return decimal.NewFromFloat(ParseQty(text))
}

// netOf is the entry's own contribution to its SKU balance.
func netOf(e models.LedgerEntry) decimal.Decimal {
	return qty(e.InQty).Sub(qty(e.OutQty))
}
