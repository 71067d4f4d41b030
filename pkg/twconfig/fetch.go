package twconfig

import (
	"fmt"
	"time"

	"github.com/crowdsecurity/go-cs-lib/ptr"
)

// FetchCfg drives the scheduled ingestion from the upstream controller.
type FetchCfg struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Interval string `yaml:"interval,omitempty"`
	// BatchSize is how many IPS events are requested per fetch.
	BatchSize int `yaml:"batch_size,omitempty"`

	IntervalDuration time.Duration `yaml:"-"`
}

const (
	defaultFetchInterval  = 5 * time.Minute
	defaultFetchBatchSize = 500
)

func (c *Config) LoadFetch() error {
	if c.Fetch == nil {
		c.Fetch = &FetchCfg{}
	}

	cfg := c.Fetch

	if cfg.Enabled == nil {
		cfg.Enabled = ptr.Of(true)
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultFetchBatchSize
	}

	if cfg.Interval == "" {
		cfg.IntervalDuration = defaultFetchInterval
		return nil
	}

	duration, err := time.ParseDuration(cfg.Interval)
	if err != nil {
		return fmt.Errorf("invalid fetch.interval: %w", err)
	}

	if duration < time.Second {
		return fmt.Errorf("fetch.interval must be at least 1s")
	}

	cfg.IntervalDuration = duration

	return nil
}
