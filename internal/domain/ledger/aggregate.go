package ledger

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/facility-ledger/internal/domain/models"
)

// KeyOf resolves the SKU an entry belongs to. Only surrounding whitespace
// of the names is insignificant; comparison is otherwise exact.
func KeyOf(e models.LedgerEntry) models.SKU {
	return models.SKU{
		Category:  strings.TrimSpace(e.Category),
		ItemName:  strings.TrimSpace(e.ItemName),
		ModelName: strings.TrimSpace(e.ModelName),
	}
}

// NormalizeSKU trims the name parts of a caller-supplied SKU.
func NormalizeSKU(sku models.SKU) models.SKU {
	return KeyOf(models.LedgerEntry{Category: sku.Category, ItemName: sku.ItemName, ModelName: sku.ModelName})
}

type group struct {
	sku      models.SKU
	in, out  decimal.Decimal
	count    int
	latest   models.LedgerEntry
	minDate  string
	minStock float64
	hasMin   bool
}

// Aggregate folds the full entry list into one summary per SKU, ordered by
// category, item name and model name.
//
// Unit and details come from the most recently dated entry; on equal dates
// the one later in the input wins. The threshold comes from the most recent
// entry that actually carries a usable minStock, else DefaultMinStock.
func Aggregate(entries []models.LedgerEntry) []models.SKUSummary {
	groups := make(map[models.SKU]*group)
	order := make([]*group, 0)

	for _, e := range entries {
		key := KeyOf(e)
		g, ok := groups[key]
		if !ok {
			g = &group{sku: key, latest: e}
			groups[key] = g
			order = append(order, g)
		}

		g.in = g.in.Add(qty(e.InQty))
		g.out = g.out.Add(qty(e.OutQty))
		g.count++

		date := strings.TrimSpace(e.Date)
		if date >= strings.TrimSpace(g.latest.Date) {
			g.latest = e
		}
		if v, ok := ParseQtyOK(e.MinStock); ok && (!g.hasMin || date >= g.minDate) {
			g.minStock = v
			g.minDate = date
			g.hasMin = true
		}
	}

	summaries := make([]models.SKUSummary, 0, len(order))
	for _, g := range order {
		minStock := float64(DefaultMinStock)
		if g.hasMin {
			minStock = g.minStock
		}
		summaries = append(summaries, models.SKUSummary{
			SKU:              g.sku,
			Unit:             strings.TrimSpace(g.latest.Unit),
			Details:          g.latest.Details,
			MinStock:         minStock,
			TotalIn:          g.in.InexactFloat64(),
			TotalOut:         g.out.InexactFloat64(),
			CurrentStock:     g.in.Sub(g.out).InexactFloat64(),
			TransactionCount: g.count,
			LastDate:         strings.TrimSpace(g.latest.Date),
		})
	}

	slices.SortFunc(summaries, func(a, b models.SKUSummary) int {
		return compareSKU(a.SKU, b.SKU)
	})
	return summaries
}

// Find returns the summary for sku, if any.
func Find(summaries []models.SKUSummary, sku models.SKU) (models.SKUSummary, bool) {
	sku = NormalizeSKU(sku)
	for _, s := range summaries {
		if s.SKU == sku {
			return s, true
		}
	}
	return models.SKUSummary{}, false
}

// CurrentStock is the live balance of one SKU; unknown SKUs stand at 0.
func CurrentStock(entries []models.LedgerEntry, sku models.SKU) float64 {
	return stockOf(entries, NormalizeSKU(sku)).InexactFloat64()
}

func stockOf(entries []models.LedgerEntry, sku models.SKU) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if KeyOf(e) == sku {
			total = total.Add(netOf(e))
		}
	}
	return total
}

func compareSKU(a, b models.SKU) int {
	return cmp.Or(
		cmp.Compare(a.Category, b.Category),
		cmp.Compare(a.ItemName, b.ItemName),
		cmp.Compare(a.ModelName, b.ModelName),
	)
}
