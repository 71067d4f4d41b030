package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/unifi-tools/threatwatch/pkg/models"
)

const webhookColumns = `id, name, webhook_type, url, min_severity, event_alert, event_block,
	enabled, created_at, last_triggered`

func scanWebhook(row rowScanner) (*models.Webhook, error) {
	var (
		webhook       models.Webhook
		createdAt     int64
		lastTriggered sql.NullInt64
	)

	err := row.Scan(&webhook.ID, &webhook.Name, &webhook.WebhookType, &webhook.URL,
		&webhook.MinSeverity, &webhook.EventAlert, &webhook.EventBlock, &webhook.Enabled,
		&createdAt, &lastTriggered)
	if err != nil {
		return nil, err
	}

	webhook.CreatedAt = models.NewTimestamp(time.UnixMilli(createdAt).UTC())

	if lastTriggered.Valid {
		ts := models.NewTimestamp(time.UnixMilli(lastTriggered.Int64).UTC())
		webhook.LastTriggered = &ts
	}

	return &webhook, nil
}

func (c *Client) CreateWebhook(ctx context.Context, webhook *models.Webhook) (int64, error) {
	query := `INSERT INTO webhooks (name, webhook_type, url, min_severity, event_alert, event_block, enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	createdAt := time.Now().UTC()

	if c.Type == "postgresql" {
		var id int64

		err := c.DB.QueryRowContext(ctx, c.rebind(query+" RETURNING id"),
			webhook.Name, webhook.WebhookType, webhook.URL, webhook.MinSeverity,
			webhook.EventAlert, webhook.EventBlock, webhook.Enabled, createdAt.UnixMilli()).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", InsertFail, err)
		}

		return id, nil
	}

	res, err := c.DB.ExecContext(ctx, query,
		webhook.Name, webhook.WebhookType, webhook.URL, webhook.MinSeverity,
		webhook.EventAlert, webhook.EventBlock, webhook.Enabled, createdAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", InsertFail, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", InsertFail, err)
	}

	return id, nil
}

func (c *Client) GetWebhook(ctx context.Context, id int64) (*models.Webhook, error) {
	row := c.DB.QueryRowContext(ctx,
		c.rebind("SELECT "+webhookColumns+" FROM webhooks WHERE id = ?"), id)

	webhook, err := scanWebhook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", WebhookNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}

	return webhook, nil
}

func (c *Client) ListWebhooks(ctx context.Context) ([]models.Webhook, error) {
	rows, err := c.DB.QueryContext(ctx, "SELECT "+webhookColumns+" FROM webhooks ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}
	defer rows.Close()

	webhooks := []models.Webhook{}

	for rows.Next() {
		webhook, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", QueryFail, err)
		}

		webhooks = append(webhooks, *webhook)
	}

	return webhooks, rows.Err()
}

// ListEnabledWebhooks returns the targets the dispatcher should consider for
// a new event.
func (c *Client) ListEnabledWebhooks(ctx context.Context) ([]models.Webhook, error) {
	rows, err := c.DB.QueryContext(ctx,
		c.rebind("SELECT "+webhookColumns+" FROM webhooks WHERE enabled = ? ORDER BY id"), true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}
	defer rows.Close()

	webhooks := []models.Webhook{}

	for rows.Next() {
		webhook, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", QueryFail, err)
		}

		webhooks = append(webhooks, *webhook)
	}

	return webhooks, rows.Err()
}

func (c *Client) UpdateWebhook(ctx context.Context, webhook *models.Webhook) error {
	res, err := c.DB.ExecContext(ctx, c.rebind(
		`UPDATE webhooks SET name = ?, url = ?, min_severity = ?, event_alert = ?, event_block = ?, enabled = ?
		WHERE id = ?`),
		webhook.Name, webhook.URL, webhook.MinSeverity, webhook.EventAlert, webhook.EventBlock,
		webhook.Enabled, webhook.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", UpdateFail, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", UpdateFail, err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: id %d", WebhookNotFound, webhook.ID)
	}

	return nil
}

func (c *Client) DeleteWebhook(ctx context.Context, id int64) error {
	res, err := c.DB.ExecContext(ctx, c.rebind("DELETE FROM webhooks WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("%w: %v", DeleteFail, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", DeleteFail, err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: id %d", WebhookNotFound, id)
	}

	return nil
}

func (c *Client) TouchWebhook(ctx context.Context, id int64, when time.Time) error {
	_, err := c.DB.ExecContext(ctx,
		c.rebind("UPDATE webhooks SET last_triggered = ? WHERE id = ?"), when.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("%w: %v", UpdateFail, err)
	}

	return nil
}
