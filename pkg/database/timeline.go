package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/unifi-tools/threatwatch/pkg/models"
)

const MaxTimelineDays = 30

// GetTimeline buckets events into fixed-width windows over the trailing
// `days` window. Buckets with zero events are omitted; output is sorted
// ascending by bucket start.
func (c *Client) GetTimeline(ctx context.Context, interval string, days int) (*models.ThreatTimelineResponse, error) {
	if interval != "hour" && interval != "day" {
		return nil, fmt.Errorf("%w: '%s' (supported: hour, day)", InvalidInterval, interval)
	}

	if days < 1 || days > MaxTimelineDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", InvalidFilter, MaxTimelineDays)
	}

	start := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)

	rows, err := c.DB.QueryContext(ctx,
		c.rebind("SELECT ts FROM threat_events WHERE ts >= ? ORDER BY ts"), start.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}
	defer rows.Close()

	buckets := map[time.Time]int64{}

	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("%w: %v", QueryFail, err)
		}

		buckets[truncateToBucket(time.UnixMilli(ts).UTC(), interval)]++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}

	starts := make([]time.Time, 0, len(buckets))
	for bucket := range buckets {
		starts = append(starts, bucket)
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	data := make([]models.TimelinePoint, 0, len(starts))
	for _, bucket := range starts {
		data = append(data, models.TimelinePoint{
			Timestamp: models.NewTimestamp(bucket),
			Count:     buckets[bucket],
		})
	}

	return &models.ThreatTimelineResponse{Interval: interval, Data: data}, nil
}

func truncateToBucket(t time.Time, interval string) time.Time {
	if interval == "hour" {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	}

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
