package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdsecurity/go-cs-lib/cstest"
	"github.com/crowdsecurity/go-cs-lib/ptr"

	"github.com/unifi-tools/threatwatch/pkg/models"
)

func TestInsertEventIdempotent(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	event := makeEvent("evt-1", time.Now().UTC())

	id, created, err := client.InsertEvent(ctx, event)
	require.NoError(t, err)
	require.True(t, created)
	require.Positive(t, id)

	again, created, err := client.InsertEvent(ctx, event)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, again)

	total, err := client.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestListEventsPagination(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	for i := range 5 {
		event := makeEvent("evt-"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
		_, _, err := client.InsertEvent(ctx, event)
		require.NoError(t, err)
	}

	filter := models.NewEventFilter()
	filter.Page = 2
	filter.PageSize = 2

	page, err := client.ListEvents(ctx, filter)
	require.NoError(t, err)

	// most recent first: page 2 of size 2 holds the 3rd and 4th newest
	require.Len(t, page.Events, 2)
	assert.Equal(t, "evt-c", page.Events[0].UnifiEventID)
	assert.Equal(t, "evt-b", page.Events[1].UnifiEventID)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.True(t, page.HasMore)

	filter.Page = 3

	page, err = client.ListEvents(ctx, filter)
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Equal(t, "evt-a", page.Events[0].UnifiEventID)
	assert.False(t, page.HasMore)
}

func TestListEventsSameTimestampOrder(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	ts := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	first, _, err := client.InsertEvent(ctx, makeEvent("evt-1", ts))
	require.NoError(t, err)

	second, _, err := client.InsertEvent(ctx, makeEvent("evt-2", ts))
	require.NoError(t, err)

	page, err := client.ListEvents(ctx, models.NewEventFilter())
	require.NoError(t, err)

	// ties on timestamp resolve to the higher row id first
	require.Len(t, page.Events, 2)
	assert.Equal(t, second, page.Events[0].ID)
	assert.Equal(t, first, page.Events[1].ID)
}

func TestListEventsFilters(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	scan := makeEvent("evt-scan", base)
	scan.Severity = ptr.Of(1)
	scan.Category = ptr.Of("Attempted Administrator Privilege Gain")
	scan.Action = ptr.Of("block")
	scan.Signature = ptr.Of("ET EXPLOIT Apache RCE Attempt")

	noise := makeEvent("evt-noise", base.Add(time.Hour))
	noise.Severity = ptr.Of(3)
	noise.Category = ptr.Of("Misc activity")
	noise.Message = ptr.Of("suspicious DNS lookup")

	for _, event := range []*models.ThreatEventDetail{scan, noise} {
		_, _, err := client.InsertEvent(ctx, event)
		require.NoError(t, err)
	}

	tests := []struct {
		name     string
		mutate   func(*models.EventFilter)
		expected []string
	}{
		{
			name:     "by severity",
			mutate:   func(f *models.EventFilter) { f.Severity = ptr.Of(1) },
			expected: []string{"evt-scan"},
		},
		{
			name:     "by category",
			mutate:   func(f *models.EventFilter) { f.Category = "Misc activity" },
			expected: []string{"evt-noise"},
		},
		{
			name:     "by action",
			mutate:   func(f *models.EventFilter) { f.Action = "block" },
			expected: []string{"evt-scan"},
		},
		{
			name:     "search is case insensitive over signature",
			mutate:   func(f *models.EventFilter) { f.Search = "apache rce" },
			expected: []string{"evt-scan"},
		},
		{
			name:     "search matches message too",
			mutate:   func(f *models.EventFilter) { f.Search = "DNS" },
			expected: []string{"evt-noise"},
		},
		{
			name: "start time is inclusive",
			mutate: func(f *models.EventFilter) {
				f.StartTime = ptr.Of(base.Add(time.Hour))
			},
			expected: []string{"evt-noise"},
		},
		{
			name: "end time is exclusive",
			mutate: func(f *models.EventFilter) {
				f.EndTime = ptr.Of(base.Add(time.Hour))
			},
			expected: []string{"evt-scan"},
		},
		{
			name:     "no match yields empty page",
			mutate:   func(f *models.EventFilter) { f.SrcIP = "198.51.100.99" },
			expected: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			filter := models.NewEventFilter()
			tc.mutate(&filter)

			page, err := client.ListEvents(ctx, filter)
			require.NoError(t, err)

			got := []string{}
			for _, event := range page.Events {
				got = append(got, event.UnifiEventID)
			}

			assert.Equal(t, tc.expected, got)
			assert.Equal(t, int64(len(tc.expected)), page.Total)
		})
	}
}

func TestListEventsValidation(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	tests := []struct {
		name        string
		mutate      func(*models.EventFilter)
		expectedErr string
	}{
		{
			name:        "zero page",
			mutate:      func(f *models.EventFilter) { f.Page = 0 },
			expectedErr: "invalid filter: page must be >= 1",
		},
		{
			name:        "zero page size",
			mutate:      func(f *models.EventFilter) { f.PageSize = 0 },
			expectedErr: "invalid filter: page_size must be >= 1",
		},
		{
			name:        "oversized page",
			mutate:      func(f *models.EventFilter) { f.PageSize = models.MaxPageSize + 1 },
			expectedErr: "invalid filter: page_size must be <= 500",
		},
		{
			name:        "unknown severity",
			mutate:      func(f *models.EventFilter) { f.Severity = ptr.Of(7) },
			expectedErr: "invalid filter: severity must be one of 1, 2, 3",
		},
		{
			name: "inverted time range",
			mutate: func(f *models.EventFilter) {
				now := time.Now().UTC()
				f.StartTime = ptr.Of(now)
				f.EndTime = ptr.Of(now.Add(-time.Hour))
			},
			expectedErr: "invalid filter: end_time is before start_time",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			filter := models.NewEventFilter()
			tc.mutate(&filter)

			_, err := client.ListEvents(ctx, filter)
			cstest.RequireErrorContains(t, err, tc.expectedErr)
			assert.ErrorIs(t, err, InvalidFilter)
		})
	}
}

func TestListEventsForIP(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	asSource := makeEvent("evt-src", base)
	asSource.SrcIP = ptr.Of("10.0.0.5")

	asDest := makeEvent("evt-dest", base.Add(time.Minute))
	asDest.DestIP = ptr.Of("10.0.0.5")

	unrelated := makeEvent("evt-other", base.Add(2*time.Minute))

	for _, event := range []*models.ThreatEventDetail{asSource, asDest, unrelated} {
		_, _, err := client.InsertEvent(ctx, event)
		require.NoError(t, err)
	}

	page, err := client.ListEventsForIP(ctx, "10.0.0.5", 1, 50)
	require.NoError(t, err)

	require.Len(t, page.Events, 2)
	assert.Equal(t, "evt-dest", page.Events[0].UnifiEventID)
	assert.Equal(t, "evt-src", page.Events[1].UnifiEventID)
	assert.Equal(t, int64(2), page.Total)
}

func TestGetEventByID(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	event := makeEvent("evt-1", time.Now().UTC())
	event.FlowID = ptr.Of("flow-42")
	event.SrcCountry = ptr.Of("NL")

	id, _, err := client.InsertEvent(ctx, event)
	require.NoError(t, err)

	found, err := client.GetEventByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", found.UnifiEventID)
	assert.Equal(t, "flow-42", *found.FlowID)
	assert.Equal(t, "NL", *found.SrcCountry)
	assert.False(t, found.Archived)

	_, err = client.GetEventByID(ctx, id+1000)
	assert.ErrorIs(t, err, EventNotFound)
}

func TestSetEventArchived(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	id, _, err := client.InsertEvent(ctx, makeEvent("evt-1", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, client.SetEventArchived(ctx, id, true))

	event, err := client.GetEventByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, event.Archived)

	require.NoError(t, client.SetEventArchived(ctx, id, false))

	event, err = client.GetEventByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, event.Archived)

	err = client.SetEventArchived(ctx, id+1000, true)
	assert.ErrorIs(t, err, EventNotFound)
}

func TestListCategories(t *testing.T) {
	ctx := t.Context()
	client := getClient(t)

	base := time.Now().UTC()

	categories := []*string{
		ptr.Of("Misc activity"),
		ptr.Of("A Network Trojan was detected"),
		ptr.Of("Misc activity"),
		nil,
	}

	for i, category := range categories {
		event := makeEvent("evt-"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Second))
		event.Category = category

		_, _, err := client.InsertEvent(ctx, event)
		require.NoError(t, err)
	}

	got, err := client.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A Network Trojan was detected", "Misc activity"}, got)
}
