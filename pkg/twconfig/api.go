package twconfig

import (
	"fmt"
	"time"
)

type APICfg struct {
	ListenURI    string `yaml:"listen_uri,omitempty"`
	LogMaxSize   int    `yaml:"log_max_size,omitempty"`
	LogMaxFiles  int    `yaml:"log_max_files,omitempty"`
	LogMaxAge    int    `yaml:"log_max_age,omitempty"`
	CompressLogs *bool  `yaml:"compress_logs,omitempty"`

	// WriteTimeout bounds a single broadcast delivery to one observer.
	WriteTimeout string `yaml:"ws_write_timeout,omitempty"`

	WriteTimeoutDuration time.Duration `yaml:"-"`
}

const defaultWriteTimeout = 10 * time.Second

func (c *Config) LoadAPI() error {
	if c.API == nil {
		c.API = &APICfg{}
	}

	if c.API.ListenURI == "" {
		c.API.ListenURI = "127.0.0.1:8080"
	}

	if c.API.WriteTimeout == "" {
		c.API.WriteTimeoutDuration = defaultWriteTimeout
		return nil
	}

	duration, err := time.ParseDuration(c.API.WriteTimeout)
	if err != nil {
		return fmt.Errorf("invalid api.ws_write_timeout: %w", err)
	}

	if duration <= 0 {
		return fmt.Errorf("api.ws_write_timeout must be positive")
	}

	c.API.WriteTimeoutDuration = duration

	return nil
}
