package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifi-tools/threatwatch/pkg/models"
)

func TestWebhookCRUD(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	webhook := &models.Webhook{
		Name:        "ops channel",
		WebhookType: "slack",
		URL:         "https://hooks.slack.example.com/T000/B000",
		MinSeverity: 2,
		EventAlert:  true,
		EventBlock:  true,
		Enabled:     true,
	}

	id, err := client.CreateWebhook(ctx, webhook)
	require.NoError(t, err)
	require.Positive(t, id)

	found, err := client.GetWebhook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ops channel", found.Name)
	assert.Equal(t, "slack", found.WebhookType)
	assert.Equal(t, 2, found.MinSeverity)
	assert.False(t, found.CreatedAt.IsZero())
	assert.Nil(t, found.LastTriggered)

	found.Name = "noc channel"
	found.Enabled = false
	require.NoError(t, client.UpdateWebhook(ctx, found))

	updated, err := client.GetWebhook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "noc channel", updated.Name)
	assert.False(t, updated.Enabled)

	require.NoError(t, client.DeleteWebhook(ctx, id))

	_, err = client.GetWebhook(ctx, id)
	assert.ErrorIs(t, err, WebhookNotFound)
}

func TestWebhookNotFound(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	_, err := client.GetWebhook(ctx, 42)
	assert.ErrorIs(t, err, WebhookNotFound)

	err = client.UpdateWebhook(ctx, &models.Webhook{ID: 42, Name: "x"})
	assert.ErrorIs(t, err, WebhookNotFound)

	err = client.DeleteWebhook(ctx, 42)
	assert.ErrorIs(t, err, WebhookNotFound)
}

func TestListEnabledWebhooks(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	enabled := &models.Webhook{Name: "on", WebhookType: "generic", URL: "https://example.com/hook", MinSeverity: 1, Enabled: true}
	disabled := &models.Webhook{Name: "off", WebhookType: "generic", URL: "https://example.com/hook2", MinSeverity: 1, Enabled: false}

	for _, webhook := range []*models.Webhook{enabled, disabled} {
		_, err := client.CreateWebhook(ctx, webhook)
		require.NoError(t, err)
	}

	all, err := client.ListWebhooks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := client.ListEnabledWebhooks(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "on", active[0].Name)
}

func TestTouchWebhook(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	id, err := client.CreateWebhook(ctx, &models.Webhook{
		Name: "ops", WebhookType: "discord", URL: "https://example.com/hook", MinSeverity: 2, Enabled: true,
	})
	require.NoError(t, err)

	when := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, client.TouchWebhook(ctx, id, when))

	found, err := client.GetWebhook(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, found.LastTriggered)
	assert.Equal(t, when, found.LastTriggered.Time())
}
