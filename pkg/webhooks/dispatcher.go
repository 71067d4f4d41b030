// Package webhooks delivers outbound notifications for newly ingested
// events. Delivery is best effort; failures are logged and never block
// ingestion.
package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"

	"github.com/unifi-tools/threatwatch/pkg/database"
	"github.com/unifi-tools/threatwatch/pkg/metrics"
	"github.com/unifi-tools/threatwatch/pkg/models"
)

type Dispatcher struct {
	dbClient *database.Client
	http     *retryablehttp.Client
	logger   *log.Entry
}

func NewDispatcher(dbClient *database.Client) *Dispatcher {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 2
	httpClient.RetryWaitMin = 1 * time.Second
	httpClient.RetryWaitMax = 5 * time.Second
	httpClient.Logger = nil
	httpClient.HTTPClient.Timeout = 15 * time.Second

	return &Dispatcher{
		dbClient: dbClient,
		http:     httpClient,
		logger:   log.StandardLogger().WithField("service", "webhooks"),
	}
}

// DispatchEvent notifies every enabled webhook whose severity and action
// filters match the event.
func (d *Dispatcher) DispatchEvent(ctx context.Context, event *models.ThreatEventDetail) {
	targets, err := d.dbClient.ListEnabledWebhooks(ctx)
	if err != nil {
		d.logger.Errorf("unable to list webhooks: %s", err)
		return
	}

	for i := range targets {
		if !matches(&targets[i], event) {
			continue
		}

		if err := d.deliver(ctx, &targets[i], event); err != nil {
			metrics.WebhookDeliveries.WithLabelValues("error").Inc()
			d.logger.Errorf("webhook '%s' delivery failed: %s", targets[i].Name, err)

			continue
		}

		metrics.WebhookDeliveries.WithLabelValues("ok").Inc()

		if err := d.dbClient.TouchWebhook(ctx, targets[i].ID, time.Now().UTC()); err != nil {
			d.logger.Warningf("unable to update webhook '%s': %s", targets[i].Name, err)
		}
	}
}

// matches applies the webhook's own filters: minimum severity (lower is more
// severe) and which actions it wants to hear about.
func matches(webhook *models.Webhook, event *models.ThreatEventDetail) bool {
	if event.Severity == nil || *event.Severity > webhook.MinSeverity {
		return false
	}

	action := ""
	if event.Action != nil {
		action = *event.Action
	}

	switch action {
	case "block":
		return webhook.EventBlock
	default:
		return webhook.EventAlert
	}
}

func (d *Dispatcher) deliver(ctx context.Context, webhook *models.Webhook, event *models.ThreatEventDetail) error {
	payload, err := buildPayload(webhook.WebhookType, event)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("while creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func buildPayload(webhookType string, event *models.ThreatEventDetail) ([]byte, error) {
	text := summaryLine(event)

	switch webhookType {
	case "slack":
		return json.Marshal(map[string]string{"text": text})
	case "discord":
		return json.Marshal(map[string]string{"content": text})
	default:
		// generic consumers get the full event
		return json.Marshal(map[string]any{
			"type":  "threat_event",
			"text":  text,
			"event": event,
		})
	}
}

func summaryLine(event *models.ThreatEventDetail) string {
	signature := "unknown signature"
	if event.Signature != nil {
		signature = *event.Signature
	}

	severity := "unknown"
	if event.Severity != nil {
		severity = models.SeverityLabel(*event.Severity)
	}

	src := "?"
	if event.SrcIP != nil {
		src = *event.SrcIP
	}

	dest := "?"
	if event.DestIP != nil {
		dest = *event.DestIP
	}

	action := "alert"
	if event.Action != nil {
		action = *event.Action
	}

	return fmt.Sprintf("[%s] %s: %s (%s -> %s)", severity, action, signature, src, dest)
}
