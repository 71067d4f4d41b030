package models

// Webhook is one configured outbound notification target.
type Webhook struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	WebhookType   string     `json:"webhook_type"`
	URL           string     `json:"url"`
	MinSeverity   int        `json:"min_severity"`
	EventAlert    bool       `json:"event_alert"`
	EventBlock    bool       `json:"event_block"`
	Enabled       bool       `json:"enabled"`
	CreatedAt     Timestamp  `json:"created_at"`
	LastTriggered *Timestamp `json:"last_triggered"`
}

type WebhookCreateRequest struct {
	Name        string `json:"name"`
	WebhookType string `json:"webhook_type"`
	URL         string `json:"url"`
	MinSeverity int    `json:"min_severity"`
	EventAlert  *bool  `json:"event_alert"`
	EventBlock  *bool  `json:"event_block"`
	Enabled     *bool  `json:"enabled"`
}

type WebhookUpdateRequest struct {
	Name        *string `json:"name"`
	URL         *string `json:"url"`
	MinSeverity *int    `json:"min_severity"`
	EventAlert  *bool   `json:"event_alert"`
	EventBlock  *bool   `json:"event_block"`
	Enabled     *bool   `json:"enabled"`
}

type WebhooksListResponse struct {
	Webhooks []Webhook `json:"webhooks"`
	Total    int       `json:"total"`
}
