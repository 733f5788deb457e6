package models

// WebhookPayload is the subset of Meta's WhatsApp webhook body the bot reads.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry represents one entry payload within the webhook body.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange captures the actual notification contents.
type WebhookChange struct {
	Value WebhookValue `json:"value"`
	Field string       `json:"field"`
}

// WebhookValue carries inbound messages; delivery statuses are ignored.
type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []Contact        `json:"contacts"`
	Messages         []InboundMessage `json:"messages"`
}

// Contact represents the WhatsApp user initiating the conversation.
type Contact struct {
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	WaID string `json:"wa_id"`
}

// InboundMessage holds the text-bearing message shapes the bot answers.
type InboundMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *TextContent        `json:"text,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
}

// TextContent contains text messages body.
type TextContent struct {
	Body string `json:"body"`
}

// InteractiveContent represents button/list replies; only the reply id is used.
type InteractiveContent struct {
	Type        string      `json:"type"`
	ButtonReply *ReplyValue `json:"button_reply,omitempty"`
	ListReply   *ReplyValue `json:"list_reply,omitempty"`
}

// ReplyValue is a pressed button or selected list row.
type ReplyValue struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// OutboundMessageRequest represents requests to send a message manually via the API.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}
