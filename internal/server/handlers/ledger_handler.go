package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/facility-ledger/internal/domain/ledger"
	"github.com/mamadbah2/facility-ledger/internal/domain/models"
	"github.com/mamadbah2/facility-ledger/internal/service/inventory"
	"github.com/mamadbah2/facility-ledger/internal/service/requisition"
)

// Inventory is the ledger surface exposed over HTTP.
type Inventory interface {
	Load(ctx context.Context) error
	Entries(ctx context.Context) ([]models.LedgerEntry, error)
	Summaries(ctx context.Context) ([]models.SKUSummary, error)
	History(ctx context.Context, sku models.SKU) ([]models.RunningBalanceRow, error)
	LowStock(ctx context.Context) ([]models.SKUSummary, error)
	BeginNew(ctx context.Context, sku models.SKU) (ledger.DraftEditorState, error)
	BeginEdit(ctx context.Context, id string) (ledger.DraftEditorState, error)
	ChangeIdentity(ctx context.Context, state ledger.DraftEditorState, category, itemName, modelName string) (ledger.DraftEditorState, error)
	ChangeQuantities(state ledger.DraftEditorState, inQty, outQty string) ledger.DraftEditorState
	Cancel() ledger.DraftEditorState
	Commit(ctx context.Context, state ledger.DraftEditorState) (models.LedgerEntry, error)
	Delete(ctx context.Context, id string) (models.LedgerEntry, error)
}

// Requisitions builds purchase request lines from the live ledger.
type Requisitions interface {
	Build(ctx context.Context) ([]models.RequisitionLine, error)
	Latest(ctx context.Context) (models.LowStockSnapshot, error)
}

// Reports summarizes movements over a date range.
type Reports interface {
	Consumption(ctx context.Context, start, end time.Time) (models.ConsumptionReport, error)
}

// LedgerHandler serves the inventory ledger JSON API.
type LedgerHandler struct {
	inventory    Inventory
	requisitions Requisitions
	reports      Reports
	logger       *zap.Logger
	now          func() time.Time
}

// NewLedgerHandler constructs the ledger API handler.
func NewLedgerHandler(inventory Inventory, requisitions Requisitions, reports Reports, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{
		inventory:    inventory,
		requisitions: requisitions,
		reports:      reports,
		logger:       logger,
		now:          time.Now,
	}
}

type newDraftRequest struct {
	Category  string `json:"category"`
	ItemName  string `json:"itemName"`
	ModelName string `json:"modelName"`
	Date      string `json:"date"`
}

type identityRequest struct {
	State     ledger.DraftEditorState `json:"state"`
	Category  string                  `json:"category"`
	ItemName  string                  `json:"itemName"`
	ModelName string                  `json:"modelName"`
}

type quantitiesRequest struct {
	State  ledger.DraftEditorState `json:"state"`
	InQty  string                  `json:"inQty"`
	OutQty string                  `json:"outQty"`
}

type ledgerView struct {
	Entries   []models.LedgerEntry `json:"entries"`
	Summaries []models.SKUSummary  `json:"summaries"`
}

// ListEntries returns the cached ledger; ?refresh=true reloads it first.
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	ctx := c.Request.Context()

	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		if err := h.inventory.Load(ctx); err != nil {
			h.fail(c, err)
			return
		}
	}

	entries, err := h.inventory.Entries(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// ListSummaries returns one summary per SKU.
func (h *LedgerHandler) ListSummaries(c *gin.Context) {
	summaries, err := h.inventory.Summaries(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetHistory returns the running balance of one SKU, newest first.
func (h *LedgerHandler) GetHistory(c *gin.Context) {
	sku := ledger.NormalizeSKU(models.SKU{
		Category:  c.Query("category"),
		ItemName:  c.Query("item"),
		ModelName: c.Query("model"),
	})
	if sku.ItemName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": ledger.ErrItemNameRequired.Error()})
		return
	}

	rows, err := h.inventory.History(c.Request.Context(), sku)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ListLowStock returns the SKUs below their minimum on a fresh ledger.
func (h *LedgerHandler) ListLowStock(c *gin.Context) {
	low, err := h.inventory.LowStock(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, low)
}

// GetRequisition returns pre-filled purchase request lines.
func (h *LedgerHandler) GetRequisition(c *gin.Context) {
	lines, err := h.requisitions.Build(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

// GetLatestSnapshot returns the last low-stock snapshot taken by the
// scheduler.
func (h *LedgerHandler) GetLatestSnapshot(c *gin.Context) {
	snapshot, err := h.requisitions.Latest(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetConsumption reports movements between ?from= and ?to= (yyyy-MM-dd).
// Both default to the seven days ending today.
func (h *LedgerHandler) GetConsumption(c *gin.Context) {
	end := h.now()
	start := end.AddDate(0, 0, -6)

	for param, target := range map[string]*time.Time{"from": &start, "to": &end} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(ledger.DateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": param + ": " + ledger.ErrInvalidDate.Error()})
			return
		}
		*target = parsed
	}

	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return
	}

	report, err := h.reports.Consumption(c.Request.Context(), start, end)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// NewDraft opens a draft for a new transaction.
func (h *LedgerHandler) NewDraft(c *gin.Context) {
	var req newDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	state, err := h.inventory.BeginNew(c.Request.Context(), models.SKU{
		Category:  req.Category,
		ItemName:  req.ItemName,
		ModelName: req.ModelName,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	if req.Date != "" {
		if _, err := time.Parse(ledger.DateLayout, req.Date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": ledger.ErrInvalidDate.Error()})
			return
		}
		state.Draft.Date = req.Date
	}
	c.JSON(http.StatusOK, state)
}

// EditDraft opens a draft replacing an existing entry.
func (h *LedgerHandler) EditDraft(c *gin.Context) {
	state, err := h.inventory.BeginEdit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// ChangeIdentity re-targets a draft to another SKU.
func (h *LedgerHandler) ChangeIdentity(c *gin.Context) {
	var req identityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	state, err := h.inventory.ChangeIdentity(c.Request.Context(), req.State, req.Category, req.ItemName, req.ModelName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// ChangeQuantities recomputes the live preview of a draft.
func (h *LedgerHandler) ChangeQuantities(c *gin.Context) {
	var req quantitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, h.inventory.ChangeQuantities(req.State, req.InQty, req.OutQty))
}

// CancelDraft discards a draft.
func (h *LedgerHandler) CancelDraft(c *gin.Context) {
	c.JSON(http.StatusOK, h.inventory.Cancel())
}

// CommitDraft saves a draft and returns the updated ledger.
func (h *LedgerHandler) CommitDraft(c *gin.Context) {
	var state ledger.DraftEditorState
	if err := c.ShouldBindJSON(&state); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.inventory.Commit(ctx, state); err != nil {
		h.fail(c, err)
		return
	}
	h.respondLedger(c, http.StatusCreated)
}

// DeleteEntry removes one entry and returns the updated ledger.
func (h *LedgerHandler) DeleteEntry(c *gin.Context) {
	if _, err := h.inventory.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	h.respondLedger(c, http.StatusOK)
}

func (h *LedgerHandler) respondLedger(c *gin.Context, status int) {
	ctx := c.Request.Context()

	entries, err := h.inventory.Entries(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	summaries, err := h.inventory.Summaries(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, ledgerView{Entries: entries, Summaries: summaries})
}

func (h *LedgerHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("ledger request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrItemNameRequired),
		errors.Is(err, ledger.ErrUnknownCategory),
		errors.Is(err, ledger.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrEntryNotFound),
		errors.Is(err, requisition.ErrNoSnapshot):
		return http.StatusNotFound
	case errors.Is(err, inventory.ErrStoreUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
