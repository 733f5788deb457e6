package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/facility-ledger/internal/config"
	"github.com/mamadbah2/facility-ledger/internal/domain/models"
	"github.com/mamadbah2/facility-ledger/internal/service/commands"
	client "github.com/mamadbah2/facility-ledger/pkg/clients/whatsapp"
)

// ErrMessagingDisabled is returned when no WhatsApp client is configured.
var ErrMessagingDisabled = errors.New("whatsapp messaging is not configured")

const sendTimeout = 10 * time.Second

// MessagingService describes the operations the HTTP layer and scheduler can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance. client may be nil
// when messaging is disabled.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		logger:     logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if s.cfg.VerifyToken == "" || verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook answers every inbound message of the payload. The first
// failure is returned after all messages were attempted.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := extractMessageText(msg)
	if text == "" {
		s.logger.Debug("ignoring message without text", zap.String("type", msg.Type))
		return nil
	}

	cmd := models.ParseCommand(text)
	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args))

	reply, err := s.dispatcher.HandleCommand(ctx, cmd, msg.From)
	switch {
	case errors.Is(err, commands.ErrUnsupportedCommand):
		reply = "Unknown command.\n" + commands.HelpText
	case errors.Is(err, commands.ErrInvalidArguments):
		reply = "Could not read that command.\n" + commands.HelpText
	case err != nil:
		s.logger.Error("command failed", zap.String("command", string(cmd.Type)), zap.Error(err))
		reply = "The inventory ledger is unavailable right now. Please try again later."
	}

	return s.SendOutbound(ctx, models.OutboundMessageRequest{To: msg.From, Message: reply})
}

// SendOutbound pushes a text message to one recipient.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	if s.client == nil {
		return ErrMessagingDisabled
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         req.To,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
	})
	return err
}

func extractMessageText(msg models.InboundMessage) string {
	if msg.Text != nil {
		return strings.TrimSpace(msg.Text.Body)
	}

	if msg.Interactive != nil {
		if msg.Interactive.ButtonReply != nil {
			return msg.Interactive.ButtonReply.ID
		}
		if msg.Interactive.ListReply != nil {
			return msg.Interactive.ListReply.ID
		}
	}

	return ""
}
