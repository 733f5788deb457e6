package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/facility-ledger/internal/config"
	"github.com/mamadbah2/facility-ledger/internal/domain/models"
	"github.com/mamadbah2/facility-ledger/internal/service/requisition"
	"github.com/mamadbah2/facility-ledger/internal/service/whatsapp"
)

const jobTimeout = 2 * time.Minute

// Snapshotter records the current low-stock feed.
type Snapshotter interface {
	Snapshot(ctx context.Context) (models.LowStockSnapshot, error)
}

// WeeklyReporter renders the consumption report of the week ending on now.
type WeeklyReporter interface {
	GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error)
}

// Scheduler runs the daily low-stock requisition job and the weekly
// consumption report.
type Scheduler struct {
	cron         *cron.Cron
	loc          *time.Location
	requisitions Snapshotter
	reports      WeeklyReporter
	messagingSvc whatsapp.MessagingService
	cfg          config.Config
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance. messagingSvc may be nil, in
// which case snapshots are still taken but no alert is sent.
func NewScheduler(cfg config.Config, requisitions Snapshotter, reports WeeklyReporter, messagingSvc whatsapp.MessagingService, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Requisition.Location()
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		loc:          loc,
		requisitions: requisitions,
		reports:      reports,
		messagingSvc: messagingSvc,
		cfg:          cfg,
		logger:       logger,
	}, nil
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Requisition.CronSchedule, s.runRequisition); err != nil {
		return fmt.Errorf("schedule requisition job %q: %w", s.cfg.Requisition.CronSchedule, err)
	}

	if s.reports != nil {
		if _, err := s.cron.AddFunc(s.cfg.Requisition.ReportSchedule, s.sendWeeklyReport); err != nil {
			return fmt.Errorf("schedule weekly report %q: %w", s.cfg.Requisition.ReportSchedule, err)
		}
	}

	s.logger.Info("starting scheduler",
		zap.String("requisition_schedule", s.cfg.Requisition.CronSchedule),
		zap.String("report_schedule", s.cfg.Requisition.ReportSchedule),
		zap.String("timezone", s.cfg.Requisition.Timezone))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runRequisition() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.RunRequisition(ctx); err != nil {
		s.logger.Error("requisition job failed", zap.Error(err))
	}
}

// RunRequisition snapshots the low-stock feed and alerts the configured
// recipient when anything needs restocking.
func (s *Scheduler) RunRequisition(ctx context.Context) error {
	s.logger.Info("running requisition job")

	snapshot, err := s.requisitions.Snapshot(ctx)
	if err != nil && snapshot.TakenAt.IsZero() {
		return err
	}
	if err != nil {
		// The lines are valid even when the snapshot could not be stored.
		s.logger.Warn("low-stock snapshot not stored", zap.Error(err))
	}

	if len(snapshot.Lines) == 0 {
		s.logger.Info("no item below minimum stock")
		return nil
	}

	sent, err := s.notify(ctx, requisition.FormatAlert(snapshot.Lines))
	if err != nil {
		return fmt.Errorf("send low-stock alert: %w", err)
	}
	if sent {
		s.logger.Info("low-stock alert sent", zap.Int("items", snapshot.ItemCount))
	}
	return nil
}

func (s *Scheduler) sendWeeklyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.SendWeeklyReport(ctx, time.Now().In(s.loc)); err != nil {
		s.logger.Error("weekly report failed", zap.Error(err))
	}
}

// SendWeeklyReport renders the consumption of the week ending on now and
// sends it to the alert recipient.
func (s *Scheduler) SendWeeklyReport(ctx context.Context, now time.Time) error {
	s.logger.Info("generating weekly report")

	report, err := s.reports.GenerateWeeklyReport(ctx, now)
	if err != nil {
		return fmt.Errorf("generate weekly report: %w", err)
	}

	sent, err := s.notify(ctx, report)
	if err != nil {
		return fmt.Errorf("send weekly report: %w", err)
	}
	if sent {
		s.logger.Info("weekly report sent successfully")
	}
	return nil
}

// notify reports false without error when messaging is not set up.
func (s *Scheduler) notify(ctx context.Context, message string) (bool, error) {
	if s.messagingSvc == nil || s.cfg.WhatsApp.AlertRecipient == "" {
		s.logger.Info("notification skipped, no alert recipient configured")
		return false, nil
	}

	err := s.messagingSvc.SendOutbound(ctx, models.OutboundMessageRequest{
		To:      s.cfg.WhatsApp.AlertRecipient,
		Message: message,
	})
	if errors.Is(err, whatsapp.ErrMessagingDisabled) {
		s.logger.Info("notification skipped, messaging disabled")
		return false, nil
	}
	return err == nil, err
}
