package ledger

import "github.com/mamadbah2/facility-ledger/internal/domain/models"

// LowStock returns the summaries strictly below their threshold. Run it on
// a freshly fetched list; a SKU sitting exactly at minStock is not low.
func LowStock(entries []models.LedgerEntry) []models.SKUSummary {
	low := make([]models.SKUSummary, 0)
	for _, s := range Aggregate(entries) {
		if s.CurrentStock < s.MinStock {
			low = append(low, s)
		}
	}
	return low
}

// RequisitionLines pre-fills one purchase request line per summary. The
// requested quantity is left blank for manual entry.
func RequisitionLines(summaries []models.SKUSummary) []models.RequisitionLine {
	lines := make([]models.RequisitionLine, 0, len(summaries))
	for _, s := range summaries {
		lines = append(lines, models.RequisitionLine{
			Category:            s.Category,
			ItemName:            s.ItemName,
			ModelName:           s.ModelName,
			Unit:                s.Unit,
			CurrentStockDisplay: FormatQty(s.CurrentStock),
			RequestedQty:        "",
		})
	}
	return lines
}
