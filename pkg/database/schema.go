package database

import (
	"context"
	"fmt"
)

// initializeSchema creates the tables and indexes if they don't exist yet.
// Events are append-only; the unique index on unifi_event_id is what makes
// ingestion idempotent.
func (c *Client) initializeSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS threat_events (
			id %s,
			unifi_event_id %s NOT NULL,
			flow_id TEXT,
			ts BIGINT NOT NULL,
			fetched_at BIGINT NOT NULL,
			signature TEXT,
			signature_id BIGINT,
			severity INTEGER,
			category TEXT,
			action TEXT,
			message TEXT,
			src_ip TEXT,
			src_port INTEGER,
			src_mac TEXT,
			dest_ip TEXT,
			dest_port INTEGER,
			dest_mac TEXT,
			protocol TEXT,
			app_protocol TEXT,
			iface TEXT,
			src_country TEXT,
			src_city TEXT,
			src_latitude DOUBLE PRECISION,
			src_longitude DOUBLE PRECISION,
			src_asn TEXT,
			src_org TEXT,
			dest_country TEXT,
			dest_city TEXT,
			dest_latitude DOUBLE PRECISION,
			dest_longitude DOUBLE PRECISION,
			dest_asn TEXT,
			dest_org TEXT,
			site_id TEXT,
			archived BOOLEAN NOT NULL DEFAULT FALSE
		)`, c.idColumn(), c.keyColumn()),
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_threat_events_unifi_event_id ON threat_events (unifi_event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_threat_events_ts ON threat_events (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_threat_events_severity ON threat_events (severity)`,
		`CREATE INDEX IF NOT EXISTS idx_threat_events_category ON threat_events (category)`,
		`CREATE INDEX IF NOT EXISTS idx_threat_events_src_ip ON threat_events (src_ip)`,
		`CREATE INDEX IF NOT EXISTS idx_threat_events_dest_ip ON threat_events (dest_ip)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS webhooks (
			id %s,
			name TEXT NOT NULL,
			webhook_type TEXT NOT NULL,
			url TEXT NOT NULL,
			min_severity INTEGER NOT NULL DEFAULT 2,
			event_alert BOOLEAN NOT NULL DEFAULT TRUE,
			event_block BOOLEAN NOT NULL DEFAULT TRUE,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at BIGINT NOT NULL,
			last_triggered BIGINT
		)`, c.idColumn()),
		`CREATE TABLE IF NOT EXISTS controller_config (
			id INTEGER PRIMARY KEY,
			controller_url TEXT NOT NULL,
			username TEXT,
			password_sealed TEXT,
			api_key_sealed TEXT,
			site_id TEXT NOT NULL,
			verify_ssl BOOLEAN NOT NULL DEFAULT FALSE,
			last_successful_connection BIGINT
		)`,
	}

	for _, stmt := range statements {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}

	return nil
}

// keyColumn is the type of the upstream event id. mysql cannot build a
// unique index over an unbounded TEXT column.
func (c *Client) keyColumn() string {
	if c.Type == "mysql" {
		return "VARCHAR(191)"
	}

	return "TEXT"
}

func (c *Client) idColumn() string {
	switch c.Type {
	case "mysql":
		return "BIGINT PRIMARY KEY AUTO_INCREMENT"
	case "postgresql":
		return "BIGSERIAL PRIMARY KEY"
	default:
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}
