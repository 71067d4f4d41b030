package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdsecurity/go-cs-lib/cstest"

	"github.com/unifi-tools/threatwatch/pkg/models"
)

func TestGetTimelineHourly(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	now := time.Now().UTC()
	bucketA := now.Add(-3 * time.Hour).Truncate(time.Hour)
	bucketB := now.Add(-1 * time.Hour).Truncate(time.Hour)

	moments := []time.Time{
		bucketA.Add(5 * time.Minute),
		bucketA.Add(42 * time.Minute),
		bucketB.Add(10 * time.Minute),
	}

	for i, moment := range moments {
		_, _, err := client.InsertEvent(ctx, makeEvent("evt-"+string(rune('a'+i)), moment))
		require.NoError(t, err)
	}

	timeline, err := client.GetTimeline(ctx, "hour", 1)
	require.NoError(t, err)

	assert.Equal(t, "hour", timeline.Interval)

	// empty buckets are omitted, output is ascending
	require.Len(t, timeline.Data, 2)
	assert.Equal(t, bucketA, timeline.Data[0].Timestamp.Time())
	assert.Equal(t, int64(2), timeline.Data[0].Count)
	assert.Equal(t, bucketB, timeline.Data[1].Timestamp.Time())
	assert.Equal(t, int64(1), timeline.Data[1].Count)

	var total int64
	for _, point := range timeline.Data {
		total += point.Count
	}

	assert.Equal(t, int64(len(moments)), total)
}

func TestGetTimelineDaily(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	_, _, err := client.InsertEvent(ctx, makeEvent("evt-now", now))
	require.NoError(t, err)

	_, _, err = client.InsertEvent(ctx, makeEvent("evt-old", now.Add(-40*24*time.Hour)))
	require.NoError(t, err)

	timeline, err := client.GetTimeline(ctx, "day", 7)
	require.NoError(t, err)

	// the 40 day old event falls outside the window
	require.Len(t, timeline.Data, 1)
	assert.Equal(t, today, timeline.Data[0].Timestamp.Time())
	assert.Equal(t, int64(1), timeline.Data[0].Count)
}

func TestGetTimelineEmpty(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	timeline, err := client.GetTimeline(ctx, "day", 7)
	require.NoError(t, err)
	assert.Equal(t, []models.TimelinePoint{}, timeline.Data)
}

func TestGetTimelineValidation(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	tests := []struct {
		name        string
		interval    string
		days        int
		expectedErr string
		sentinel    error
	}{
		{
			name:        "unknown interval",
			interval:    "week",
			days:        7,
			expectedErr: "invalid interval: 'week' (supported: hour, day)",
			sentinel:    InvalidInterval,
		},
		{
			name:        "zero days",
			interval:    "hour",
			days:        0,
			expectedErr: "invalid filter: days must be between 1 and 30",
			sentinel:    InvalidFilter,
		},
		{
			name:        "too many days",
			interval:    "day",
			days:        MaxTimelineDays + 1,
			expectedErr: "invalid filter: days must be between 1 and 30",
			sentinel:    InvalidFilter,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.GetTimeline(ctx, tc.interval, tc.days)
			cstest.RequireErrorContains(t, err, tc.expectedErr)
			assert.ErrorIs(t, err, tc.sentinel)
		})
	}
}
