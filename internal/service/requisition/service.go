package requisition

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/facility-ledger/internal/domain/ledger"
	"github.com/mamadbah2/facility-ledger/internal/domain/models"
)

// LowStockSource yields the current low-stock summaries from a fresh ledger.
type LowStockSource interface {
	LowStock(ctx context.Context) ([]models.SKUSummary, error)
}

// ErrNoSnapshot is returned when no low-stock snapshot has been recorded.
var ErrNoSnapshot = errors.New("no low-stock snapshot recorded")

// SnapshotRepository stores low-stock snapshots.
type SnapshotRepository interface {
	SaveLowStockSnapshot(ctx context.Context, snapshot models.LowStockSnapshot) error
	LatestLowStockSnapshot(ctx context.Context) (*models.LowStockSnapshot, error)
}

// Service pre-fills purchase requests from the low-stock feed.
type Service struct {
	source    LowStockSource
	snapshots SnapshotRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a new requisition service instance. snapshots may be nil
// when no snapshot storage is configured.
func NewService(source LowStockSource, snapshots SnapshotRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, snapshots: snapshots, logger: logger, now: time.Now}
}

// Build returns one requisition line per SKU currently below threshold.
func (s *Service) Build(ctx context.Context) ([]models.RequisitionLine, error) {
	low, err := s.source.LowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("load low-stock feed: %w", err)
	}
	return ledger.RequisitionLines(low), nil
}

// Snapshot builds the lines and records them for later review.
func (s *Service) Snapshot(ctx context.Context) (models.LowStockSnapshot, error) {
	lines, err := s.Build(ctx)
	if err != nil {
		return models.LowStockSnapshot{}, err
	}

	now := s.now().UTC()
	snapshot := models.LowStockSnapshot{
		TakenAt:   now,
		ItemCount: len(lines),
		Lines:     lines,
		CreatedAt: now,
	}

	if s.snapshots == nil {
		s.logger.Debug("snapshot storage disabled", zap.Int("items", len(lines)))
		return snapshot, nil
	}

	if err := s.snapshots.SaveLowStockSnapshot(ctx, snapshot); err != nil {
		return snapshot, fmt.Errorf("save low-stock snapshot: %w", err)
	}

	s.logger.Info("low-stock snapshot saved", zap.Int("items", len(lines)))
	return snapshot, nil
}

// Latest returns the most recently recorded snapshot.
func (s *Service) Latest(ctx context.Context) (models.LowStockSnapshot, error) {
	if s.snapshots == nil {
		return models.LowStockSnapshot{}, ErrNoSnapshot
	}

	snapshot, err := s.snapshots.LatestLowStockSnapshot(ctx)
	if err != nil {
		return models.LowStockSnapshot{}, err
	}
	if snapshot == nil {
		return models.LowStockSnapshot{}, ErrNoSnapshot
	}
	return *snapshot, nil
}

// FormatAlert renders requisition lines as a plain-text message.
func FormatAlert(lines []models.RequisitionLine) string {
	if len(lines) == 0 {
		return "Low stock: every item is at or above its minimum."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Low stock: %d item(s) need a requisition.", len(lines))
	for _, l := range lines {
		name := l.ItemName
		if l.ModelName != "" {
			name += " (" + l.ModelName + ")"
		}
		line := fmt.Sprintf("- [%s] %s: %s %s", l.Category, name, l.CurrentStockDisplay, l.Unit)
		b.WriteString("\n" + strings.TrimRight(line, " "))
	}
	return b.String()
}
