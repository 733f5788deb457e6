package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/facility-ledger/internal/domain/models"
)

// Row 1 of the ledger sheet is a header; entries start on row 2 in this
// column order.
const (
	firstDataRow = 2
	lastColumn   = "L"
	columnCount  = 12
)

// LedgerStore persists the whole ledger as rows of one sheet.
type LedgerStore struct {
	repo   Repository
	sheet  string
	logger *zap.Logger
}

// NewLedgerStore binds a ledger to the named sheet tab.
func NewLedgerStore(repo Repository, sheet string, logger *zap.Logger) *LedgerStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerStore{repo: repo, sheet: sheet, logger: logger}
}

// FetchEntries reads every stored entry. Blank rows are skipped.
func (s *LedgerStore) FetchEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	rows, err := s.repo.ReadRange(ctx, s.dataRange(0))
	if err != nil {
		return nil, fmt.Errorf("fetch ledger entries: %w", err)
	}

	entries := make([]models.LedgerEntry, 0, len(rows))
	for i, row := range rows {
		entry, ok := rowToEntry(row)
		if !ok {
			continue
		}
		if entry.ID == "" {
			s.logger.Warn("ledger row without id", zap.Int("row", i+firstDataRow))
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// WriteEntries replaces the stored ledger with entries in a single update.
// Rows left over from a longer previous ledger are overwritten with blanks,
// so the sheet never holds a partial list.
func (s *LedgerStore) WriteEntries(ctx context.Context, entries []models.LedgerEntry) error {
	existing, err := s.repo.ReadRange(ctx, s.dataRange(0))
	if err != nil {
		return fmt.Errorf("measure ledger sheet: %w", err)
	}

	height := max(len(entries), len(existing))
	if height == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, height)
	for _, e := range entries {
		rows = append(rows, entryToRow(e))
	}
	for len(rows) < height {
		rows = append(rows, blankRow())
	}

	if err := s.repo.OverwriteRange(ctx, s.dataRange(height), rows); err != nil {
		return fmt.Errorf("write ledger entries: %w", err)
	}

	s.logger.Info("ledger written", zap.Int("entries", len(entries)), zap.Int("cleared_rows", height-len(entries)))
	return nil
}

// dataRange addresses the entry rows; height 0 means open-ended.
func (s *LedgerStore) dataRange(height int) string {
	sheet := "'" + strings.ReplaceAll(s.sheet, "'", "''") + "'"
	if height <= 0 {
		return fmt.Sprintf("%s!A%d:%s", sheet, firstDataRow, lastColumn)
	}
	return fmt.Sprintf("%s!A%d:%s%d", sheet, firstDataRow, lastColumn, firstDataRow+height-1)
}

func entryToRow(e models.LedgerEntry) []interface{} {
	return []interface{}{
		e.ID, e.Date, e.Category, e.ItemName, e.ModelName,
		e.InQty, e.OutQty, e.StockQty, e.Unit, e.MinStock,
		e.Details, e.Note,
	}
}

func blankRow() []interface{} {
	row := make([]interface{}, columnCount)
	for i := range row {
		row[i] = ""
	}
	return row
}

// rowToEntry decodes a sheet row. The API drops trailing empty cells, so
// short rows are padded.
func rowToEntry(row []interface{}) (models.LedgerEntry, bool) {
	cells := make([]string, columnCount)
	blank := true
	for i := 0; i < columnCount && i < len(row); i++ {
		if row[i] == nil {
			continue
		}
		cells[i] = fmt.Sprint(row[i])
		if strings.TrimSpace(cells[i]) != "" {
			blank = false
		}
	}
	if blank {
		return models.LedgerEntry{}, false
	}

	return models.LedgerEntry{
		ID:        strings.TrimSpace(cells[0]),
		Date:      strings.TrimSpace(cells[1]),
		Category:  strings.TrimSpace(cells[2]),
		ItemName:  cells[3],
		ModelName: cells[4],
		InQty:     cells[5],
		OutQty:    cells[6],
		StockQty:  cells[7],
		Unit:      cells[8],
		MinStock:  cells[9],
		Details:   cells[10],
		Note:      cells[11],
	}, true
}
