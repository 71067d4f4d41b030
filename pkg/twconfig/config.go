package twconfig

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"
)

// Config is the top-level threatwatch configuration, loaded from a single
// yaml file.
type Config struct {
	LogLevel   log.Level      `yaml:"log_level,omitempty"`
	LogDir     string         `yaml:"log_dir,omitempty"`
	LogMedia   string         `yaml:"log_media,omitempty"` // stdout or file
	API        *APICfg        `yaml:"api,omitempty"`
	DbConfig   *DatabaseCfg   `yaml:"db_config,omitempty"`
	Fetch      *FetchCfg      `yaml:"fetch,omitempty"`
	SecretKey  string         `yaml:"secret_key,omitempty"`
	Prometheus *PrometheusCfg `yaml:"prometheus,omitempty"`
}

type PrometheusCfg struct {
	Enabled bool `yaml:"enabled"`
}

// NewConfig reads and validates the configuration file at configFile.
func NewConfig(configFile string) (*Config, error) {
	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("while reading '%s': %w", configFile, err)
	}

	cfg := &Config{
		LogLevel: log.InfoLevel,
		LogMedia: "stdout",
	}

	if err := yaml.UnmarshalWithOptions(content, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("while parsing '%s': %w", configFile, err)
	}

	if err := cfg.LoadAPI(); err != nil {
		return nil, err
	}

	if err := cfg.LoadDatabase(); err != nil {
		return nil, err
	}

	if err := cfg.LoadFetch(); err != nil {
		return nil, err
	}

	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("secret_key is required to seal controller credentials")
	}

	return cfg, nil
}
