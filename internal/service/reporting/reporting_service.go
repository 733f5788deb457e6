package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/facility-ledger/internal/domain/ledger"
	"github.com/mamadbah2/facility-ledger/internal/domain/models"
)

const maxReportLines = 15

// EntrySource yields the ledger entries to report on.
type EntrySource interface {
	Entries(ctx context.Context) ([]models.LedgerEntry, error)
}

// Service summarizes ledger movements over a period.
type Service struct {
	source EntrySource
	logger *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(source EntrySource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, logger: logger}
}

// Consumption folds the entries dated within [start, end] per SKU. Entries
// with an unreadable date are left out.
func (s *Service) Consumption(ctx context.Context, start, end time.Time) (models.ConsumptionReport, error) {
	entries, err := s.source.Entries(ctx)
	if err != nil {
		return models.ConsumptionReport{}, fmt.Errorf("load ledger entries: %w", err)
	}

	from, to := day(start), day(end)
	var inPeriod []models.LedgerEntry
	for _, e := range entries {
		date, err := parseDate(e.Date)
		if err != nil {
			s.logger.Debug("skip entry with invalid date", zap.String("entry_id", e.ID), zap.String("date", e.Date))
			continue
		}
		if date.Before(from) || date.After(to) {
			continue
		}
		inPeriod = append(inPeriod, e)
	}

	report := models.ConsumptionReport{
		Start: from.Format(ledger.DateLayout),
		End:   to.Format(ledger.DateLayout),
		Lines: make([]models.ConsumptionLine, 0),
	}
	for _, sum := range ledger.Aggregate(inPeriod) {
		report.Lines = append(report.Lines, models.ConsumptionLine{
			SKU:       sum.SKU,
			Unit:      sum.Unit,
			TotalIn:   sum.TotalIn,
			TotalOut:  sum.TotalOut,
			Movements: sum.TransactionCount,
		})
	}
	return report, nil
}

// GenerateWeeklyReport renders the seven days ending on now.
func (s *Service) GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error) {
	report, err := s.Consumption(ctx, now.AddDate(0, 0, -6), now)
	if err != nil {
		return "", err
	}
	return FormatReport(report), nil
}

// FormatReport renders a consumption report as a plain-text message.
func FormatReport(report models.ConsumptionReport) string {
	if len(report.Lines) == 0 {
		return fmt.Sprintf("Consumption (%s to %s): no movements recorded.", report.Start, report.End)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Consumption (%s to %s), %d item(s):", report.Start, report.End, len(report.Lines))
	for i, line := range report.Lines {
		if i == maxReportLines {
			fmt.Fprintf(&b, "\n...and %d more", len(report.Lines)-maxReportLines)
			break
		}
		name := line.ItemName
		if line.ModelName != "" {
			name += " (" + line.ModelName + ")"
		}
		text := fmt.Sprintf("- [%s] %s: in %s, out %s %s", line.Category, name,
			ledger.FormatQty(line.TotalIn), ledger.FormatQty(line.TotalOut), line.Unit)
		b.WriteString("\n" + strings.TrimRight(text, " "))
	}
	return b.String()
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDate(value string) (time.Time, error) {
	str := strings.TrimSpace(value)
	if str == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(str) > 10 {
		str = str[:10]
	}
	return time.Parse(ledger.DateLayout, str)
}
