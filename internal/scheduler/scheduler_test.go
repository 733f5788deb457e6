package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/facility-ledger/internal/config"
	"github.com/mamadbah2/facility-ledger/internal/domain/models"
	"github.com/mamadbah2/facility-ledger/internal/service/whatsapp"
)

type stubSnapshotter struct {
	snapshot models.LowStockSnapshot
	err      error
}

func (s stubSnapshotter) Snapshot(context.Context) (models.LowStockSnapshot, error) {
	return s.snapshot, s.err
}

type recordingMessenger struct {
	whatsapp.MessagingService
	sent []models.OutboundMessageRequest
	err  error
}

func (m *recordingMessenger) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	m.sent = append(m.sent, req)
	return m.err
}

func testConfig() config.Config {
	return config.Config{
		WhatsApp:    config.WhatsAppConfig{AlertRecipient: "8210000"},
		Requisition: config.RequisitionConfig{CronSchedule: "0 7 * * *", Timezone: "Asia/Seoul"},
	}
}

func lowSnapshot() models.LowStockSnapshot {
	lines := []models.RequisitionLine{{Category: "common", ItemName: "Mop head", Unit: "EA", CurrentStockDisplay: "1"}}
	return models.LowStockSnapshot{TakenAt: time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC), ItemCount: 1, Lines: lines}
}

func TestRunRequisition_SendsAlert(t *testing.T) {
	msg := &recordingMessenger{}
	s, err := NewScheduler(testConfig(), stubSnapshotter{snapshot: lowSnapshot()}, nil, msg, nil)
	require.NoError(t, err)

	require.NoError(t, s.RunRequisition(context.Background()))
	require.Len(t, msg.sent, 1)
	assert.Equal(t, "8210000", msg.sent[0].To)
	assert.Contains(t, msg.sent[0].Message, "Mop head")
}

func TestRunRequisition_NothingLow(t *testing.T) {
	msg := &recordingMessenger{}
	snap := models.LowStockSnapshot{TakenAt: time.Now(), Lines: []models.RequisitionLine{}}
	s, err := NewScheduler(testConfig(), stubSnapshotter{snapshot: snap}, nil, msg, nil)
	require.NoError(t, err)

	require.NoError(t, s.RunRequisition(context.Background()))
	assert.Empty(t, msg.sent)
}

func TestRunRequisition_StorageFailureStillAlerts(t *testing.T) {
	msg := &recordingMessenger{}
	s, err := NewScheduler(testConfig(), stubSnapshotter{snapshot: lowSnapshot(), err: errors.New("mongo down")}, nil, msg, nil)
	require.NoError(t, err)

	require.NoError(t, s.RunRequisition(context.Background()))
	assert.Len(t, msg.sent, 1)
}

func TestRunRequisition_FeedFailure(t *testing.T) {
	msg := &recordingMessenger{}
	s, err := NewScheduler(testConfig(), stubSnapshotter{err: errors.New("sheets down")}, nil, msg, nil)
	require.NoError(t, err)

	assert.ErrorContains(t, s.RunRequisition(context.Background()), "sheets down")
	assert.Empty(t, msg.sent)
}

func TestRunRequisition_MessagingDisabled(t *testing.T) {
	msg := &recordingMessenger{err: whatsapp.ErrMessagingDisabled}
	s, err := NewScheduler(testConfig(), stubSnapshotter{snapshot: lowSnapshot()}, nil, msg, nil)
	require.NoError(t, err)

	assert.NoError(t, s.RunRequisition(context.Background()))
}

func TestRunRequisition_SendFailure(t *testing.T) {
	msg := &recordingMessenger{err: errors.New("rate limited")}
	s, err := NewScheduler(testConfig(), stubSnapshotter{snapshot: lowSnapshot()}, nil, msg, nil)
	require.NoError(t, err)

	assert.ErrorContains(t, s.RunRequisition(context.Background()), "rate limited")
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Requisition.CronSchedule = "every morning"
	s, err := NewScheduler(cfg, stubSnapshotter{}, nil, nil, nil)
	require.NoError(t, err)

	assert.Error(t, s.Start())
}

func TestNewScheduler_BadTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Requisition.Timezone = "Mars/Olympus"
	_, err := NewScheduler(cfg, stubSnapshotter{}, nil, nil, nil)
	assert.Error(t, err)
}

type stubReporter struct {
	text string
	err  error
	at   time.Time
}

func (r *stubReporter) GenerateWeeklyReport(_ context.Context, now time.Time) (string, error) {
	r.at = now
	return r.text, r.err
}

func TestSendWeeklyReport(t *testing.T) {
	msg := &recordingMessenger{}
	rep := &stubReporter{text: "Consumption (2024-02-24 to 2024-03-01): no movements recorded."}
	s, err := NewScheduler(testConfig(), stubSnapshotter{}, rep, msg, nil)
	require.NoError(t, err)

	now := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	require.NoError(t, s.SendWeeklyReport(context.Background(), now))
	assert.Equal(t, now, rep.at)
	require.Len(t, msg.sent, 1)
	assert.Equal(t, rep.text, msg.sent[0].Message)
}

func TestSendWeeklyReport_NoRecipient(t *testing.T) {
	cfg := testConfig()
	cfg.WhatsApp.AlertRecipient = ""
	msg := &recordingMessenger{}
	s, err := NewScheduler(cfg, stubSnapshotter{}, &stubReporter{text: "x"}, msg, nil)
	require.NoError(t, err)

	require.NoError(t, s.SendWeeklyReport(context.Background(), time.Now()))
	assert.Empty(t, msg.sent)
}

func TestSendWeeklyReport_Failure(t *testing.T) {
	s, err := NewScheduler(testConfig(), stubSnapshotter{}, &stubReporter{err: errors.New("sheets down")}, &recordingMessenger{}, nil)
	require.NoError(t, err)

	assert.ErrorContains(t, s.SendWeeklyReport(context.Background(), time.Now()), "sheets down")
}

func TestStartStop(t *testing.T) {
	cfg := testConfig()
	cfg.Requisition.ReportSchedule = "0 18 * * 5"
	s, err := NewScheduler(cfg, stubSnapshotter{}, &stubReporter{}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()
}
