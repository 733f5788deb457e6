package ledger

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/facility-ledger/internal/domain/models"
)

// DateLayout is the calendar format of LedgerEntry.Date.
const DateLayout = "2006-01-02"

var (
	// ErrEntryNotFound indicates no entry carries the requested id.
	ErrEntryNotFound = errors.New("ledger entry not found")
	// ErrItemNameRequired rejects drafts without an item name.
	ErrItemNameRequired = errors.New("item name is required")
	// ErrUnknownCategory rejects drafts outside the category set.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrInvalidDate rejects drafts whose date is not yyyy-MM-dd.
	ErrInvalidDate = errors.New("date must use yyyy-MM-dd")
)

// DraftMode tells whether a draft creates a new entry or replaces one.
type DraftMode string

const (
	ModeNew  DraftMode = "new"
	ModeEdit DraftMode = "edit"
)

// DraftEditorState is the whole editing context for one in-progress
// transaction. Callers keep it between interactions and hand it back; no
// operation mutates the state it receives.
//
// BaseStock excludes the draft's own contribution, so the preview is always
// BaseStock + in - out.
type DraftEditorState struct {
	Mode         DraftMode          `json:"mode"`
	EntryID      string             `json:"entryId,omitempty"`
	SKU          models.SKU         `json:"sku"`
	BaseStock    float64            `json:"baseStock"`
	Draft        models.LedgerEntry `json:"draft"`
	PreviewStock float64            `json:"previewStock"`
}

// EmptyDraft is the default state of the editor.
func EmptyDraft(today time.Time) DraftEditorState {
	return DraftEditorState{
		Mode: ModeNew,
		Draft: models.LedgerEntry{
			Date:     today.Format(DateLayout),
			InQty:    "0",
			OutQty:   "0",
			StockQty: "0",
		},
	}
}

// Cancel discards a draft. Stored entries are never affected.
func Cancel(today time.Time) DraftEditorState {
	return EmptyDraft(today)
}

// BeginNew starts a new transaction for sku. The existing total is the base
// since the draft is not yet part of the ledger; metadata defaults to the
// SKU's latest values.
func BeginNew(entries []models.LedgerEntry, sku models.SKU, today time.Time) DraftEditorState {
	state := EmptyDraft(today)
	sku = NormalizeSKU(sku)

	state.SKU = sku
	state.Draft.Category = sku.Category
	state.Draft.ItemName = sku.ItemName
	state.Draft.ModelName = sku.ModelName

	if summary, ok := Find(Aggregate(entries), sku); ok {
		state.Draft.Unit = summary.Unit
		state.Draft.Details = summary.Details
		state.Draft.MinStock = FormatQty(summary.MinStock)
	}

	state.BaseStock = stockOf(entries, sku).InexactFloat64()
	return withPreview(state)
}

// BeginEdit loads an existing entry. Its own contribution is taken out of
// the base so an untouched draft previews the current aggregate.
func BeginEdit(entries []models.LedgerEntry, id string) (DraftEditorState, error) {
	idx := slices.IndexFunc(entries, func(e models.LedgerEntry) bool { return e.ID == id })
	if idx < 0 {
		return DraftEditorState{}, ErrEntryNotFound
	}
	original := entries[idx]
	sku := KeyOf(original)

	state := DraftEditorState{
		Mode:      ModeEdit,
		EntryID:   original.ID,
		SKU:       sku,
		BaseStock: stockOf(entries, sku).Sub(netOf(original)).InexactFloat64(),
		Draft:     original,
	}
	return withPreview(state), nil
}

// ChangeIdentity applies edited category/item/model text and re-bases the
// draft on the target SKU's aggregate (0 for a brand-new SKU). An edit draft
// that stays on its original SKU keeps that SKU's total minus the entry's own
// contribution.
func ChangeIdentity(state DraftEditorState, entries []models.LedgerEntry, category, itemName, modelName string) DraftEditorState {
	state.Draft.Category = strings.TrimSpace(category)
	state.Draft.ItemName = strings.TrimSpace(itemName)
	state.Draft.ModelName = strings.TrimSpace(modelName)
	state.SKU = KeyOf(state.Draft)

	base := stockOf(entries, state.SKU)
	if state.Mode == ModeEdit {
		idx := slices.IndexFunc(entries, func(e models.LedgerEntry) bool { return e.ID == state.EntryID })
		if idx < 0 {
			return withPreview(state)
		}
		if original := entries[idx]; KeyOf(original) == state.SKU {
			base = base.Sub(netOf(original))
		}
	}
	state.BaseStock = base.InexactFloat64()
	return withPreview(state)
}

// ChangeQuantities applies edited in/out text and refreshes the preview.
func ChangeQuantities(state DraftEditorState, inQty, outQty string) DraftEditorState {
	state.Draft.InQty = inQty
	state.Draft.OutQty = outQty
	return withPreview(state)
}

// Preview computes the advisory post-commit stock of a draft.
func Preview(state DraftEditorState) float64 {
	return decimal.NewFromFloat(state.BaseStock).Add(netOf(state.Draft)).InexactFloat64()
}

func withPreview(state DraftEditorState) DraftEditorState {
	state.PreviewStock = Preview(state)
	state.Draft.StockQty = FormatQty(state.PreviewStock)
	return state
}

// Validate enforces the checks a draft must pass before it becomes an entry.
func Validate(draft models.LedgerEntry) error {
	if strings.TrimSpace(draft.ItemName) == "" {
		return ErrItemNameRequired
	}
	if !models.Category(strings.TrimSpace(draft.Category)).Valid() {
		return ErrUnknownCategory
	}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(draft.Date)); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// Apply folds a validated draft into a copy of entries: new drafts are
// appended under newID, edit drafts replace their entry in place. The
// stored stockQty is the authoritative balance of the resulting list.
func Apply(entries []models.LedgerEntry, state DraftEditorState, newID string) ([]models.LedgerEntry, models.LedgerEntry, error) {
	if err := Validate(state.Draft); err != nil {
		return nil, models.LedgerEntry{}, err
	}

	entry := normalizeEntry(state.Draft)
	updated := slices.Clone(entries)

	switch state.Mode {
	case ModeEdit:
		idx := slices.IndexFunc(updated, func(e models.LedgerEntry) bool { return e.ID == state.EntryID })
		if idx < 0 {
			return nil, models.LedgerEntry{}, ErrEntryNotFound
		}
		entry.ID = state.EntryID
		updated[idx] = entry
		entry.StockQty = FormatQty(stockOf(updated, KeyOf(entry)).InexactFloat64())
		updated[idx] = entry
	default:
		entry.ID = newID
		updated = append(updated, entry)
		entry.StockQty = FormatQty(stockOf(updated, KeyOf(entry)).InexactFloat64())
		updated[len(updated)-1] = entry
	}

	return updated, entry, nil
}

// Remove returns a copy of entries without the entry carrying id.
func Remove(entries []models.LedgerEntry, id string) ([]models.LedgerEntry, models.LedgerEntry, error) {
	idx := slices.IndexFunc(entries, func(e models.LedgerEntry) bool { return e.ID == id })
	if idx < 0 {
		return nil, models.LedgerEntry{}, ErrEntryNotFound
	}
	removed := entries[idx]
	return slices.Delete(slices.Clone(entries), idx, idx+1), removed, nil
}

func normalizeEntry(e models.LedgerEntry) models.LedgerEntry {
	e.Date = strings.TrimSpace(e.Date)
	e.Category = strings.TrimSpace(e.Category)
	e.ItemName = strings.TrimSpace(e.ItemName)
	e.ModelName = strings.TrimSpace(e.ModelName)
	e.Unit = strings.TrimSpace(e.Unit)
	return e
}
