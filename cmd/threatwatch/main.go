package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/crowdsecurity/go-cs-lib/trace"
	"github.com/crowdsecurity/go-cs-lib/version"

	"github.com/unifi-tools/threatwatch/pkg/apiserver"
	"github.com/unifi-tools/threatwatch/pkg/broadcast"
	"github.com/unifi-tools/threatwatch/pkg/database"
	"github.com/unifi-tools/threatwatch/pkg/fetcher"
	"github.com/unifi-tools/threatwatch/pkg/metrics"
	"github.com/unifi-tools/threatwatch/pkg/secrets"
	"github.com/unifi-tools/threatwatch/pkg/twconfig"
	"github.com/unifi-tools/threatwatch/pkg/unifi"
	"github.com/unifi-tools/threatwatch/pkg/webhooks"
)

var (
	configFile   = flag.String("c", "/etc/threatwatch/config.yaml", "configuration file")
	printVersion = flag.Bool("version", false, "print version and exit")
)

func runService(cfg *twconfig.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := database.NewClient(ctx, cfg.DbConfig)
	if err != nil {
		return fmt.Errorf("unable to create database client: %w", err)
	}
	defer dbClient.Close()

	if cfg.DbConfig.Flush != nil {
		flushScheduler, err := dbClient.StartFlushScheduler(ctx, cfg.DbConfig.Flush)
		if err != nil {
			return err
		}
		defer flushScheduler.Stop()
	}

	sealer, err := secrets.NewSealer(cfg.SecretKey)
	if err != nil {
		return fmt.Errorf("unable to create secret sealer: %w", err)
	}

	metrics.RegisterMetrics()

	broadcaster := broadcast.NewManager()
	dispatcher := webhooks.NewDispatcher(dbClient)

	newSource := func(ctx context.Context) (fetcher.Source, error) {
		stored, err := dbClient.GetControllerConfig(ctx)
		if err != nil {
			return nil, err
		}

		return unifi.NewClientFromStored(stored, sealer)
	}

	fetchService := fetcher.New(cfg.Fetch, dbClient, broadcaster, dispatcher, newSource)

	if cfg.Fetch.Enabled != nil && *cfg.Fetch.Enabled {
		if err := fetchService.Start(ctx); err != nil {
			return fmt.Errorf("unable to start fetcher: %w", err)
		}
		defer fetchService.Stop()
	} else {
		log.Info("event fetching is disabled, serving stored events only")
	}

	server, err := apiserver.NewServer(cfg, dbClient, broadcaster, fetchService, sealer)
	if err != nil {
		return fmt.Errorf("unable to create api server: %w", err)
	}

	serverErr := make(chan error, 1)

	go func() {
		serverErr <- server.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")

		if err := server.Shutdown(); err != nil {
			log.Errorf("while shutting down api server: %s", err)
		}
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	return nil
}

func main() {
	defer trace.CatchPanic("threatwatch/main")

	flag.Parse()

	if *printVersion {
		fmt.Print(version.FullString())
		os.Exit(0)
	}

	cfg, err := twconfig.NewConfig(*configFile)
	if err != nil {
		log.Fatalf("while loading configuration: %s", err)
	}

	if err := cfg.SetupLogging(); err != nil {
		log.Fatalf("while configuring logging: %s", err)
	}

	log.Infof("starting threatwatch %s", version.String())

	if err := runService(cfg); err != nil {
		log.Fatal(err)
	}
}
