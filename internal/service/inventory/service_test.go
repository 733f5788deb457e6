package inventory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/facility-ledger/internal/domain/ledger"
	"github.com/mamadbah2/facility-ledger/internal/domain/models"
)

type memoryStore struct {
	entries  []models.LedgerEntry
	fetchErr error
	writeErr error
	writes   int
}

func (m *memoryStore) FetchEntries(context.Context) ([]models.LedgerEntry, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return slices.Clone(m.entries), nil
}

func (m *memoryStore) WriteEntries(_ context.Context, entries []models.LedgerEntry) error {
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.entries = slices.Clone(entries)
	return nil
}

var lamp = models.SKU{Category: "electrical", ItemName: "LED lamp", ModelName: "T8"}

func seed() []models.LedgerEntry {
	return []models.LedgerEntry{
		{ID: "a1", Date: "2024-01-01", Category: "electrical", ItemName: "LED lamp", ModelName: "T8", InQty: "10", OutQty: "0", Unit: "EA"},
		{ID: "a2", Date: "2024-01-05", Category: "electrical", ItemName: "LED lamp", ModelName: "T8", InQty: "0", OutQty: "3", Unit: "EA"},
	}
}

func newTestService(store Store) *Service {
	svc := NewService(store, nil)
	svc.now = func() time.Time { return time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC) }
	ids := 0
	svc.newID = func() string {
		ids++
		return "new-" + string(rune('0'+ids))
	}
	return svc
}

func stockOf(t *testing.T, svc *Service, sku models.SKU) float64 {
	t.Helper()
	summaries, err := svc.Summaries(context.Background())
	require.NoError(t, err)
	s, ok := ledger.Find(summaries, sku)
	require.True(t, ok)
	return s.CurrentStock
}

func TestCommit_NewTransaction(t *testing.T) {
	store := &memoryStore{entries: seed()}
	svc := newTestService(store)
	ctx := context.Background()

	state, err := svc.BeginNew(ctx, lamp)
	require.NoError(t, err)
	assert.Equal(t, 7.0, state.PreviewStock)

	state = svc.ChangeQuantities(state, "5", "0")
	assert.Equal(t, 12.0, state.PreviewStock)

	entry, err := svc.Commit(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, "new-1", entry.ID)
	assert.Equal(t, "2024-01-10", entry.Date)

	assert.Len(t, store.entries, 3)
	assert.Equal(t, 12.0, stockOf(t, svc, lamp))
}

func TestCommit_EditTransaction(t *testing.T) {
	store := &memoryStore{entries: seed()}
	svc := newTestService(store)
	ctx := context.Background()

	state, err := svc.BeginEdit(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, -3.0, state.BaseStock)
	assert.Equal(t, 7.0, state.PreviewStock)

	state = svc.ChangeQuantities(state, "15", "0")
	_, err = svc.Commit(ctx, state)
	require.NoError(t, err)

	assert.Len(t, store.entries, 2)
	assert.Equal(t, "15", store.entries[0].InQty)
	assert.Equal(t, 12.0, stockOf(t, svc, lamp))
}

func TestCommit_WriteFailureKeepsCache(t *testing.T) {
	store := &memoryStore{entries: seed()}
	svc := newTestService(store)
	ctx := context.Background()

	state, err := svc.BeginNew(ctx, lamp)
	require.NoError(t, err)
	state = svc.ChangeQuantities(state, "5", "0")

	store.writeErr = errors.New("sheet is read-only")
	_, err = svc.Commit(ctx, state)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	entries, err := svc.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 7.0, stockOf(t, svc, lamp))

	// the same draft can be retried
	store.writeErr = nil
	_, err = svc.Commit(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, 12.0, stockOf(t, svc, lamp))
}

func TestCommit_ValidationRejectedBeforeWrite(t *testing.T) {
	store := &memoryStore{entries: seed()}
	svc := newTestService(store)

	_, err := svc.Commit(context.Background(), svc.Cancel())
	assert.ErrorIs(t, err, ledger.ErrItemNameRequired)
	assert.Zero(t, store.writes)
}

func TestDelete_RefetchesAndWrites(t *testing.T) {
	store := &memoryStore{entries: seed()}
	svc := newTestService(store)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))

	// another writer appended meanwhile
	store.entries = append(store.entries, models.LedgerEntry{ID: "other", Date: "2024-01-06", Category: "electrical", ItemName: "LED lamp", ModelName: "T8", InQty: "4"})

	removed, err := svc.Delete(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, "a2", removed.ID)

	require.Len(t, store.entries, 2)
	assert.Equal(t, "other", store.entries[1].ID, "concurrent append survives the delete")
	assert.Equal(t, 14.0, stockOf(t, svc, lamp))
}

func TestDelete_WriteFailureRestoresList(t *testing.T) {
	store := &memoryStore{entries: seed(), writeErr: errors.New("rejected")}
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Delete(ctx, "a2")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	entries, err := svc.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 7.0, stockOf(t, svc, lamp))
}

func TestDelete_UnknownID(t *testing.T) {
	store := &memoryStore{entries: seed()}
	svc := newTestService(store)

	_, err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)
	assert.Zero(t, store.writes)
}

func TestDelete_FetchFailureNeverWrites(t *testing.T) {
	store := &memoryStore{entries: seed(), fetchErr: errors.New("timeout")}
	svc := newTestService(store)

	_, err := svc.Delete(context.Background(), "a1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Zero(t, store.writes)
}

func TestLoad_FailureKeepsPreviousCache(t *testing.T) {
	store := &memoryStore{entries: seed()}
	svc := newTestService(store)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))

	store.fetchErr = errors.New("offline")
	assert.ErrorIs(t, svc.Load(ctx), ErrStoreUnavailable)

	entries, err := svc.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLowStock_UsesFreshList(t *testing.T) {
	store := &memoryStore{entries: seed()}
	svc := newTestService(store)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))

	low, err := svc.LowStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, low, "7 is above the default threshold")

	store.entries = append(store.entries, models.LedgerEntry{ID: "a3", Date: "2024-01-09", Category: "electrical", ItemName: "LED lamp", ModelName: "T8", OutQty: "4"})

	low, err = svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, 3.0, low[0].CurrentStock)
}

func TestHistory(t *testing.T) {
	svc := newTestService(&memoryStore{entries: seed()})

	rows, err := svc.History(context.Background(), lamp)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a2", rows[0].Entry.ID)
	assert.Equal(t, 7.0, rows[0].Running)
	assert.Equal(t, 10.0, rows[1].Running)
}

func TestEntries_StoreDownOnFirstUse(t *testing.T) {
	svc := newTestService(&memoryStore{fetchErr: errors.New("down")})

	_, err := svc.Entries(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

// gatedStore holds its first write open until release is closed.
type gatedStore struct {
	mu      sync.Mutex
	entries []models.LedgerEntry
	writing chan struct{}
	release chan struct{}
	gated   bool
}

func (g *gatedStore) FetchEntries(context.Context) ([]models.LedgerEntry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.entries), nil
}

func (g *gatedStore) WriteEntries(_ context.Context, entries []models.LedgerEntry) error {
	g.mu.Lock()
	first := !g.gated
	g.gated = true
	g.mu.Unlock()

	if first {
		close(g.writing)
		<-g.release
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries = slices.Clone(entries)
	return nil
}

func (g *gatedStore) ids() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.entries))
	for _, e := range g.entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestLowStock_DuringDeleteDoesNotRestoreDeletedEntry(t *testing.T) {
	store := &gatedStore{entries: seed(), writing: make(chan struct{}), release: make(chan struct{})}
	svc := newTestService(store)
	ctx := context.Background()

	deleted := make(chan error, 1)
	go func() {
		_, err := svc.Delete(ctx, "a2")
		deleted <- err
	}()
	<-store.writing

	lowDone := make(chan error, 1)
	go func() {
		_, err := svc.LowStock(ctx)
		lowDone <- err
	}()

	// Give the low-stock read a chance to run while the delete is still writing.
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	require.NoError(t, <-deleted)
	require.NoError(t, <-lowDone)

	state, err := svc.BeginNew(ctx, lamp)
	require.NoError(t, err)
	state = svc.ChangeQuantities(state, "1", "0")
	_, err = svc.Commit(ctx, state)
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "new-1"}, store.ids())
}
