package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/facility-ledger/internal/config"
)

// maxBodyLength is the Cloud API limit for a text message body.
const maxBodyLength = 4096

// Client exposes WhatsApp Cloud API operations used by the application.
type Client interface {
	SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendTextMessageResponse, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient    *resty.Client
	phoneNumberID string
}

// NewClient builds a WhatsApp API client using the provided configuration values.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New().
		SetBaseURL(fmt.Sprintf("%s/%s", base, cfg.APIVersion)).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{
		httpClient:    restyClient,
		phoneNumberID: cfg.PhoneNumberID,
	}
}

// SendTextMessageRequest represents a simplified text message payload.
type SendTextMessageRequest struct {
	To         string
	Body       string
	PreviewURL bool
}

// SendTextMessageResponse mirrors the successful response from Meta.
type SendTextMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// APIError is the error payload returned by the Cloud API.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
	TraceID string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error: status=%d code=%d message=%s", e.Status, e.Code, e.Message)
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

// SendTextMessage delivers a plain text message. Bodies over the API limit
// are truncated.
func (c *APIClient) SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendTextMessageResponse, error) {
	if req.To == "" {
		return nil, errors.New("send whatsapp message: recipient is required")
	}

	body := req.Body
	if runes := []rune(body); len(runes) > maxBodyLength {
		body = string(runes[:maxBodyLength])
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                req.To,
		"type":              "text",
		"text": map[string]any{
			"body":        body,
			"preview_url": req.PreviewURL,
		},
	}

	result := new(SendTextMessageResponse)
	envelope := new(errorEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(result).
		SetError(envelope).
		Post(fmt.Sprintf("%s/messages", c.phoneNumberID))
	if err != nil {
		return nil, fmt.Errorf("send whatsapp message: %w", err)
	}

	if resp.IsError() {
		apiErr := envelope.Error
		apiErr.Status = resp.StatusCode()
		return nil, &apiErr
	}

	return result, nil
}
