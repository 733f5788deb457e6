package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/facility-ledger/internal/domain/ledger"
	"github.com/mamadbah2/facility-ledger/internal/domain/models"
)

// ErrStoreUnavailable wraps every failed ledger store call. Callers must
// read it as "no data", never as an empty ledger.
var ErrStoreUnavailable = errors.New("ledger store unavailable")

// Store is the remote ledger: it only ever returns or accepts the full list.
type Store interface {
	FetchEntries(ctx context.Context) ([]models.LedgerEntry, error)
	WriteEntries(ctx context.Context, entries []models.LedgerEntry) error
}

// Service keeps the last successfully fetched ledger and derives every view
// from it. Writes always send the complete intended list.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	writeMu sync.Mutex // serializes whole-list writes

	mu      sync.RWMutex
	entries []models.LedgerEntry
	loaded  bool
}

// NewService wires a new inventory service instance.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Load replaces the cached ledger with the store's content. On failure the
// previous cache is kept.
func (s *Service) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Service) loadLocked(ctx context.Context) error {
	entries, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	s.replace(entries)
	s.logger.Debug("ledger loaded", zap.Int("entries", len(entries)))
	return nil
}

// Entries returns a copy of the cached ledger, loading it on first use.
func (s *Service) Entries(ctx context.Context) ([]models.LedgerEntry, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// Summaries aggregates the cached ledger.
func (s *Service) Summaries(ctx context.Context) ([]models.SKUSummary, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Aggregate(entries), nil
}

// History returns the most-recent-first running balance of one SKU.
func (s *Service) History(ctx context.Context, sku models.SKU) ([]models.RunningBalanceRow, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.History(entries, sku), nil
}

// LowStock always evaluates a freshly fetched ledger, since it is typically
// requested long after the cache was filled. It waits for an in-flight
// write so the refreshed cache never predates a committed list.
func (s *Service) LowStock(ctx context.Context) ([]models.SKUSummary, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	entries, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.replace(entries)
	return ledger.LowStock(entries), nil
}

// BeginNew opens a draft for a new transaction on sku.
func (s *Service) BeginNew(ctx context.Context, sku models.SKU) (ledger.DraftEditorState, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return ledger.DraftEditorState{}, err
	}
	return ledger.BeginNew(entries, sku, s.now()), nil
}

// BeginEdit opens a draft replacing the entry with the given id.
func (s *Service) BeginEdit(ctx context.Context, id string) (ledger.DraftEditorState, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return ledger.DraftEditorState{}, err
	}
	return ledger.BeginEdit(entries, id)
}

// ChangeIdentity re-targets a draft to another category/item/model.
func (s *Service) ChangeIdentity(ctx context.Context, state ledger.DraftEditorState, category, itemName, modelName string) (ledger.DraftEditorState, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return ledger.DraftEditorState{}, err
	}
	return ledger.ChangeIdentity(state, entries, category, itemName, modelName), nil
}

// ChangeQuantities refreshes a draft's live preview.
func (s *Service) ChangeQuantities(state ledger.DraftEditorState, inQty, outQty string) ledger.DraftEditorState {
	return ledger.ChangeQuantities(state, inQty, outQty)
}

// Cancel returns the default empty draft.
func (s *Service) Cancel() ledger.DraftEditorState {
	return ledger.Cancel(s.now())
}

// Commit folds a draft into the ledger and writes the whole list. The cache
// only changes after the store accepted the write, so on failure the caller
// still holds a valid draft to retry.
func (s *Service) Commit(ctx context.Context, state ledger.DraftEditorState) (models.LedgerEntry, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.isLoaded() {
		if err := s.loadLocked(ctx); err != nil {
			return models.LedgerEntry{}, err
		}
	}

	updated, entry, err := ledger.Apply(s.snapshot(), state, s.newID())
	if err != nil {
		return models.LedgerEntry{}, err
	}

	if err := s.write(ctx, updated); err != nil {
		s.logger.Error("commit failed", zap.String("mode", string(state.Mode)), zap.String("entry_id", entry.ID), zap.Error(err))
		return models.LedgerEntry{}, err
	}

	s.replace(updated)
	s.logger.Info("ledger entry committed",
		zap.String("mode", string(state.Mode)),
		zap.String("entry_id", entry.ID),
		zap.String("item", entry.ItemName),
		zap.String("stock", entry.StockQty))
	return entry, nil
}

// Delete removes one entry. The list is re-fetched first to narrow the
// lost-update window; the cache is updated optimistically and restored if
// the write fails.
func (s *Service) Delete(ctx context.Context, id string) (models.LedgerEntry, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	fresh, err := s.fetch(ctx)
	if err != nil {
		return models.LedgerEntry{}, err
	}

	remaining, removed, err := ledger.Remove(fresh, id)
	if err != nil {
		s.replace(fresh)
		return models.LedgerEntry{}, err
	}

	s.replace(remaining)

	if err := s.write(ctx, remaining); err != nil {
		s.replace(fresh)
		s.logger.Error("delete failed, cache restored", zap.String("entry_id", id), zap.Error(err))
		return models.LedgerEntry{}, err
	}

	s.logger.Info("ledger entry deleted", zap.String("entry_id", id), zap.String("item", removed.ItemName))
	return removed, nil
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	if s.isLoaded() {
		return nil
	}
	return s.Load(ctx)
}

func (s *Service) fetch(ctx context.Context) ([]models.LedgerEntry, error) {
	entries, err := s.store.FetchEntries(ctx)
	if err != nil {
		s.logger.Warn("ledger fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return entries, nil
}

func (s *Service) write(ctx context.Context, entries []models.LedgerEntry) error {
	if err := s.store.WriteEntries(ctx, entries); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Service) isLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Service) snapshot() []models.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.LedgerEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Service) replace(entries []models.LedgerEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = slices.Clone(entries)
	s.loaded = true
}
