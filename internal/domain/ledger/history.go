package ledger

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/facility-ledger/internal/domain/models"
)

// Replay returns the entries of sku in chronological order, each carrying
// the balance after it. Same-day entries keep their input order, so the
// final row always matches the SKU's CurrentStock.
func Replay(entries []models.LedgerEntry, sku models.SKU) []models.RunningBalanceRow {
	sku = NormalizeSKU(sku)

	matched := make([]models.LedgerEntry, 0)
	for _, e := range entries {
		if KeyOf(e) == sku {
			matched = append(matched, e)
		}
	}

	slices.SortStableFunc(matched, func(a, b models.LedgerEntry) int {
		return strings.Compare(strings.TrimSpace(a.Date), strings.TrimSpace(b.Date))
	})

	rows := make([]models.RunningBalanceRow, 0, len(matched))
	running := decimal.Zero
	for _, e := range matched {
		running = running.Add(netOf(e))
		rows = append(rows, models.RunningBalanceRow{Entry: e, Running: running.InexactFloat64()})
	}
	return rows
}

// History is Replay presented most-recent-first for display.
func History(entries []models.LedgerEntry, sku models.SKU) []models.RunningBalanceRow {
	rows := Replay(entries, sku)
	slices.Reverse(rows)
	return rows
}
