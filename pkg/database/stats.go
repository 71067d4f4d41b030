package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/unifi-tools/threatwatch/pkg/models"
)

const topN = 10

// GetStats builds the statistics rollup. A single "now" is captured up front
// so the 24h and 7d windows are consistent within one call.
func (c *Client) GetStats(ctx context.Context) (*models.ThreatStatsResponse, error) {
	now := time.Now().UTC()

	stats := &models.ThreatStatsResponse{}

	var err error

	if stats.TotalEvents, err = c.CountEvents(ctx); err != nil {
		return nil, err
	}

	if stats.Events24h, err = c.CountEventsSince(ctx, now.Add(-24*time.Hour)); err != nil {
		return nil, err
	}

	if stats.Events7d, err = c.CountEventsSince(ctx, now.Add(-7*24*time.Hour)); err != nil {
		return nil, err
	}

	if stats.BlockedCount, err = c.countEventsWhere(ctx, " WHERE action = ?", []any{"block"}); err != nil {
		return nil, err
	}

	if stats.AlertCount, err = c.countEventsWhere(ctx, " WHERE action = ?", []any{"alert"}); err != nil {
		return nil, err
	}

	if stats.BySeverity, err = c.severityCounts(ctx); err != nil {
		return nil, err
	}

	if stats.ByCategory, err = c.categoryCounts(ctx); err != nil {
		return nil, err
	}

	if stats.ByCountry, err = c.countryCounts(ctx); err != nil {
		return nil, err
	}

	if stats.TopAttackers, err = c.topAttackers(ctx); err != nil {
		return nil, err
	}

	return stats, nil
}

// severityCounts returns every severity present, not just a top-N; severity
// cardinality is small.
func (c *Client) severityCounts(ctx context.Context) ([]models.SeverityCount, error) {
	rows, err := c.DB.QueryContext(ctx,
		`SELECT severity, COUNT(*) FROM threat_events
		WHERE severity IS NOT NULL GROUP BY severity ORDER BY severity`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}
	defer rows.Close()

	counts := []models.SeverityCount{}

	for rows.Next() {
		var entry models.SeverityCount
		if err := rows.Scan(&entry.Severity, &entry.Count); err != nil {
			return nil, fmt.Errorf("%w: %v", QueryFail, err)
		}

		entry.Label = models.SeverityLabel(entry.Severity)
		counts = append(counts, entry)
	}

	return counts, rows.Err()
}

// Missing categories fall into a single "Unknown" bucket instead of being
// dropped. Ties are broken by name so the ranking is deterministic.
func (c *Client) categoryCounts(ctx context.Context) ([]models.CategoryCount, error) {
	rows, err := c.DB.QueryContext(ctx, c.rebind(
		`SELECT COALESCE(category, 'Unknown'), COUNT(*) FROM threat_events
		GROUP BY COALESCE(category, 'Unknown')
		ORDER BY COUNT(*) DESC, COALESCE(category, 'Unknown') ASC LIMIT ?`), topN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}
	defer rows.Close()

	counts := []models.CategoryCount{}

	for rows.Next() {
		var entry models.CategoryCount
		if err := rows.Scan(&entry.Category, &entry.Count); err != nil {
			return nil, fmt.Errorf("%w: %v", QueryFail, err)
		}

		counts = append(counts, entry)
	}

	return counts, rows.Err()
}

func (c *Client) countryCounts(ctx context.Context) ([]models.CountryCount, error) {
	rows, err := c.DB.QueryContext(ctx, c.rebind(
		`SELECT COALESCE(src_country, 'Unknown'), COUNT(*) FROM threat_events
		GROUP BY COALESCE(src_country, 'Unknown')
		ORDER BY COUNT(*) DESC, COALESCE(src_country, 'Unknown') ASC LIMIT ?`), topN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}
	defer rows.Close()

	counts := []models.CountryCount{}

	for rows.Next() {
		var entry models.CountryCount
		if err := rows.Scan(&entry.Country, &entry.Count); err != nil {
			return nil, fmt.Errorf("%w: %v", QueryFail, err)
		}

		if entry.Country != "Unknown" {
			code := entry.Country
			entry.CountryCode = &code
		}

		counts = append(counts, entry)
	}

	return counts, rows.Err()
}

// topAttackers ranks source IPs by event count. The country/org/timestamp
// annotations come from the most recent row for each IP (ties on timestamp
// go to the highest row id), not from an arbitrary aggregate.
func (c *Client) topAttackers(ctx context.Context) ([]models.TopAttacker, error) {
	rows, err := c.DB.QueryContext(ctx, c.rebind(
		`SELECT src_ip, COUNT(*) FROM threat_events
		WHERE src_ip IS NOT NULL GROUP BY src_ip
		ORDER BY COUNT(*) DESC, src_ip ASC LIMIT ?`), topN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}

	attackers := []models.TopAttacker{}

	for rows.Next() {
		var entry models.TopAttacker
		if err := rows.Scan(&entry.IP, &entry.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: %v", QueryFail, err)
		}

		attackers = append(attackers, entry)
	}

	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}

	rows.Close()

	for i := range attackers {
		var (
			country sql.NullString
			org     sql.NullString
			ts      int64
		)

		err := c.DB.QueryRowContext(ctx, c.rebind(
			`SELECT src_country, src_org, ts FROM threat_events
			WHERE src_ip = ? ORDER BY ts DESC, id DESC LIMIT 1`), attackers[i].IP).
			Scan(&country, &org, &ts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", QueryFail, err)
		}

		attackers[i].Country = nullStr(country)
		attackers[i].Org = nullStr(org)
		attackers[i].LastSeen = models.NewTimestamp(time.UnixMilli(ts).UTC())
	}

	return attackers, nil
}
