package twconfig

import (
	"fmt"
	"time"
)

type DatabaseCfg struct {
	Type     string    `yaml:"type"`
	DbPath   string    `yaml:"db_path,omitempty"`
	User     string    `yaml:"user,omitempty"`
	Password string    `yaml:"password,omitempty"`
	DbName   string    `yaml:"db_name,omitempty"`
	Host     string    `yaml:"host,omitempty"`
	Port     int       `yaml:"port,omitempty"`
	Flush    *FlushCfg `yaml:"flush,omitempty"`
}

// FlushCfg bounds event retention; both limits are optional.
type FlushCfg struct {
	MaxItems *int    `yaml:"max_items,omitempty"`
	MaxAge   *string `yaml:"max_age,omitempty"`

	MaxAgeDuration time.Duration `yaml:"-"`
}

func (c *Config) LoadDatabase() error {
	if c.DbConfig == nil {
		c.DbConfig = &DatabaseCfg{}
	}

	cfg := c.DbConfig

	if cfg.Type == "" {
		cfg.Type = "sqlite"
	}

	switch cfg.Type {
	case "sqlite":
		if cfg.DbPath == "" {
			cfg.DbPath = "threatwatch.db"
		}
	case "mysql", "postgresql", "postgres":
		if cfg.Host == "" || cfg.DbName == "" || cfg.User == "" {
			return fmt.Errorf("db_config: host, db_name and user are required for %s", cfg.Type)
		}
	default:
		return fmt.Errorf("unknown database type '%s' (supported: sqlite, mysql, postgresql)", cfg.Type)
	}

	if cfg.Flush != nil {
		if cfg.Flush.MaxItems != nil && *cfg.Flush.MaxItems <= 0 {
			return fmt.Errorf("db_config.flush.max_items can't be zero or negative")
		}

		if cfg.Flush.MaxAge != nil && *cfg.Flush.MaxAge != "" {
			duration, err := time.ParseDuration(*cfg.Flush.MaxAge)
			if err != nil {
				return fmt.Errorf("invalid db_config.flush.max_age: %w", err)
			}

			cfg.Flush.MaxAgeDuration = duration
		}
	}

	return nil
}
