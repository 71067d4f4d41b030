package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/unifi-tools/threatwatch/pkg/twconfig"
)

const flushInterval = 1 * time.Minute

// StartFlushScheduler runs the retention policy every minute. This is the
// only path that ever deletes events.
func (c *Client) StartFlushScheduler(ctx context.Context, config *twconfig.FlushCfg) (*gocron.Scheduler, error) {
	maxItems := 0
	if config.MaxItems != nil {
		maxItems = *config.MaxItems
	}

	scheduler := gocron.NewScheduler(time.UTC)

	job, err := scheduler.Every(flushInterval).Do(c.FlushEvents, ctx, config.MaxAgeDuration, maxItems)
	if err != nil {
		return nil, fmt.Errorf("while starting FlushEvents scheduler: %w", err)
	}

	job.SingletonMode()
	scheduler.StartAsync()

	return scheduler, nil
}

// FlushEvents applies the age and count limits to the event table.
func (c *Client) FlushEvents(ctx context.Context, maxAge time.Duration, maxItems int) error {
	if maxAge > 0 {
		cutoff := time.Now().UTC().Add(-maxAge)

		res, err := c.DB.ExecContext(ctx,
			c.rebind("DELETE FROM threat_events WHERE ts < ?"), cutoff.UnixMilli())
		if err != nil {
			return fmt.Errorf("%w: %v", DeleteFail, err)
		}

		if deleted, err := res.RowsAffected(); err == nil && deleted > 0 {
			c.logger.Debugf("flushed %d events older than %s", deleted, maxAge)
		}
	}

	if maxItems > 0 {
		if err := c.flushOverCount(ctx, maxItems); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) flushOverCount(ctx context.Context, maxItems int) error {
	// find the newest row that falls outside the retention window, then
	// delete it and everything older
	var (
		boundaryTs int64
		boundaryID int64
	)

	err := c.DB.QueryRowContext(ctx, c.rebind(
		"SELECT ts, id FROM threat_events ORDER BY ts DESC, id DESC LIMIT 1 OFFSET ?"),
		maxItems).Scan(&boundaryTs, &boundaryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("%w: %v", QueryFail, err)
	}

	res, err := c.DB.ExecContext(ctx, c.rebind(
		"DELETE FROM threat_events WHERE ts < ? OR (ts = ? AND id <= ?)"),
		boundaryTs, boundaryTs, boundaryID)
	if err != nil {
		return fmt.Errorf("%w: %v", DeleteFail, err)
	}

	if deleted, err := res.RowsAffected(); err == nil && deleted > 0 {
		c.logger.Debugf("flushed %d events over the %d item limit", deleted, maxItems)
	}

	return nil
}
