// Package fetcher periodically pulls IPS events from the upstream
// controller, writes them to the store and fans out updates to live
// observers. It is the one writer of the event store.
package fetcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"

	"github.com/crowdsecurity/go-cs-lib/trace"

	"github.com/unifi-tools/threatwatch/pkg/broadcast"
	"github.com/unifi-tools/threatwatch/pkg/database"
	"github.com/unifi-tools/threatwatch/pkg/metrics"
	"github.com/unifi-tools/threatwatch/pkg/models"
	"github.com/unifi-tools/threatwatch/pkg/twconfig"
	"github.com/unifi-tools/threatwatch/pkg/webhooks"
)

// Source produces the next batch of events to ingest.
type Source interface {
	FetchEvents(ctx context.Context, limit int) ([]*models.ThreatEventDetail, error)
}

// SourceFactory builds a Source from the currently stored controller
// configuration. It returns database.ConfigNotFound while the controller is
// unconfigured.
type SourceFactory func(ctx context.Context) (Source, error)

type Fetcher struct {
	cfg         *twconfig.FetchCfg
	dbClient    *database.Client
	broadcaster *broadcast.Manager
	dispatcher  *webhooks.Dispatcher
	newSource   SourceFactory
	scheduler   *gocron.Scheduler
	logger      *log.Entry

	mu          sync.Mutex
	lastRefresh *time.Time
}

func New(cfg *twconfig.FetchCfg, dbClient *database.Client, broadcaster *broadcast.Manager,
	dispatcher *webhooks.Dispatcher, newSource SourceFactory) *Fetcher {
	return &Fetcher{
		cfg:         cfg,
		dbClient:    dbClient,
		broadcaster: broadcaster,
		dispatcher:  dispatcher,
		newSource:   newSource,
		logger:      log.StandardLogger().WithField("service", "fetcher"),
	}
}

func (f *Fetcher) Start(ctx context.Context) error {
	scheduler := gocron.NewScheduler(time.UTC)

	job, err := scheduler.Every(f.cfg.IntervalDuration).Do(f.runOnce, ctx)
	if err != nil {
		return err
	}

	job.SingletonMode()
	scheduler.StartAsync()

	f.scheduler = scheduler
	f.logger.Infof("event fetch scheduled every %s", f.cfg.IntervalDuration)

	return nil
}

func (f *Fetcher) Stop() {
	if f.scheduler != nil {
		f.scheduler.Stop()
	}
}

// LastRefresh is the completion time of the most recent successful cycle.
func (f *Fetcher) LastRefresh() *time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.lastRefresh
}

// Status builds the system status payload served by the API and pushed as
// status_update after each cycle.
func (f *Fetcher) Status(ctx context.Context) (*models.SystemStatus, error) {
	total, err := f.dbClient.CountEvents(ctx)
	if err != nil {
		return nil, err
	}

	last24h, err := f.dbClient.CountEventsSince(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	status := &models.SystemStatus{
		TotalEvents:            total,
		Events24h:              last24h,
		RefreshIntervalSeconds: int(f.cfg.IntervalDuration.Seconds()),
	}

	if last := f.LastRefresh(); last != nil {
		ts := models.NewTimestamp(*last)
		status.LastRefresh = &ts
	}

	return status, nil
}

func (f *Fetcher) runOnce(ctx context.Context) {
	defer trace.CatchPanic("threatwatch/fetch")

	source, err := f.newSource(ctx)
	if err != nil {
		if errors.Is(err, database.ConfigNotFound) {
			f.logger.Debug("controller not configured yet, skipping fetch")
			metrics.FetchRuns.WithLabelValues("skipped").Inc()

			return
		}

		f.logger.Errorf("unable to build controller client: %s", err)
		metrics.FetchRuns.WithLabelValues("error").Inc()

		return
	}

	events, err := source.FetchEvents(ctx, f.cfg.BatchSize)
	if err != nil {
		f.logger.Errorf("while fetching events: %s", err)
		metrics.FetchRuns.WithLabelValues("error").Inc()

		return
	}

	created := 0

	for _, event := range events {
		id, isNew, err := f.dbClient.InsertEvent(ctx, event)
		if err != nil {
			f.logger.Errorf("while inserting event %s: %s", event.UnifiEventID, err)
			continue
		}

		if !isNew {
			metrics.EventsDuplicate.Inc()
			continue
		}

		created++

		metrics.EventsIngested.Inc()

		event.ID = id

		// observers first, webhooks second: both are fire-and-forget
		f.broadcaster.BroadcastEvent(event.Summary())
		f.dispatcher.DispatchEvent(ctx, event)
	}

	now := time.Now().UTC()

	f.mu.Lock()
	f.lastRefresh = &now
	f.mu.Unlock()

	if status, err := f.Status(ctx); err == nil {
		f.broadcaster.BroadcastStatus(status)
	} else {
		f.logger.Warningf("unable to build status payload: %s", err)
	}

	metrics.FetchRuns.WithLabelValues("ok").Inc()

	if created > 0 {
		f.logger.Infof("ingested %d new events (%d fetched)", created, len(events))
	} else {
		f.logger.Debugf("no new events (%d fetched)", len(events))
	}
}
