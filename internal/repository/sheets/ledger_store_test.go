package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/facility-ledger/internal/domain/models"
)

type fakeSheet struct {
	rows      [][]interface{}
	readErr   error
	writeErr  error
	lastRange string
	writes    int
}

func (f *fakeSheet) ReadRange(_ context.Context, _ string) ([][]interface{}, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.rows, nil
}

func (f *fakeSheet) OverwriteRange(_ context.Context, sheetRange string, rows [][]interface{}) error {
	f.writes++
	f.lastRange = sheetRange
	if f.writeErr != nil {
		return f.writeErr
	}
	f.rows = rows
	return nil
}

func TestFetchEntries_DecodesAndSkipsBlankRows(t *testing.T) {
	sheet := &fakeSheet{rows: [][]interface{}{
		{"id-1", "2024-01-01", "electrical", "LED lamp", "T8", "1,000", "0", "1000", "EA", "50", "18W", "initial"},
		{},
		{"", "", "  "},
		{"id-2", "2024-01-02", "common", "Mop head", "", "", "3"}, // trailing cells trimmed by the API
	}}
	store := NewLedgerStore(sheet, "Inventory", nil)

	entries, err := store.FetchEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, models.LedgerEntry{
		ID: "id-1", Date: "2024-01-01", Category: "electrical", ItemName: "LED lamp", ModelName: "T8",
		InQty: "1,000", OutQty: "0", StockQty: "1000", Unit: "EA", MinStock: "50", Details: "18W", Note: "initial",
	}, entries[0])
	assert.Equal(t, "3", entries[1].OutQty)
	assert.Empty(t, entries[1].Note)
}

func TestFetchEntries_FailureIsNotAnEmptyLedger(t *testing.T) {
	store := NewLedgerStore(&fakeSheet{readErr: errors.New("quota exceeded")}, "Inventory", nil)

	entries, err := store.FetchEntries(context.Background())
	assert.Error(t, err)
	assert.Nil(t, entries)
}

func TestWriteEntries_BlanksLeftoverRows(t *testing.T) {
	sheet := &fakeSheet{rows: [][]interface{}{
		{"a"}, {"b"}, {"c"},
	}}
	store := NewLedgerStore(sheet, "Inventory", nil)

	err := store.WriteEntries(context.Background(), []models.LedgerEntry{{ID: "x", ItemName: "Gloves"}})
	require.NoError(t, err)

	assert.Equal(t, "'Inventory'!A2:L4", sheet.lastRange)
	require.Len(t, sheet.rows, 3)
	assert.Equal(t, "x", sheet.rows[0][0])
	assert.Equal(t, blankRow(), sheet.rows[1])
	assert.Equal(t, blankRow(), sheet.rows[2])
}

func TestWriteEntries_RoundTrip(t *testing.T) {
	sheet := &fakeSheet{}
	store := NewLedgerStore(sheet, "Stock's tab", nil)
	want := []models.LedgerEntry{
		{ID: "1", Date: "2024-01-01", Category: "mechanical", ItemName: "V-belt", InQty: "2", OutQty: "0", Unit: "EA"},
		{ID: "2", Date: "2024-01-03", Category: "mechanical", ItemName: "V-belt", InQty: "0", OutQty: "1", Unit: "EA", Note: "pump 3"},
	}

	require.NoError(t, store.WriteEntries(context.Background(), want))
	assert.Equal(t, "'Stock''s tab'!A2:L3", sheet.lastRange)

	got, err := store.FetchEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteEntries_ReadFailureSkipsWrite(t *testing.T) {
	sheet := &fakeSheet{readErr: errors.New("unreachable")}
	store := NewLedgerStore(sheet, "Inventory", nil)

	err := store.WriteEntries(context.Background(), []models.LedgerEntry{{ID: "1"}})
	assert.Error(t, err)
	assert.Zero(t, sheet.writes)
}

func TestWriteEntries_EmptyOnEmptySheet(t *testing.T) {
	sheet := &fakeSheet{}
	store := NewLedgerStore(sheet, "Inventory", nil)

	require.NoError(t, store.WriteEntries(context.Background(), nil))
	assert.Zero(t, sheet.writes)
}
