package twconfig

import (
	"fmt"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging configures the standard logger from the loaded configuration.
func (c *Config) SetupLogging() error {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
	})

	switch c.LogMedia {
	case "stdout":
	case "file":
		if c.LogDir == "" {
			return fmt.Errorf("log_dir is required when log_media is 'file'")
		}

		output := &lumberjack.Logger{
			Filename:   filepath.Join(c.LogDir, "threatwatch.log"),
			MaxSize:    500,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}

		if c.API != nil {
			if c.API.LogMaxSize != 0 {
				output.MaxSize = c.API.LogMaxSize
			}

			if c.API.LogMaxFiles != 0 {
				output.MaxBackups = c.API.LogMaxFiles
			}

			if c.API.LogMaxAge != 0 {
				output.MaxAge = c.API.LogMaxAge
			}

			if c.API.CompressLogs != nil {
				output.Compress = *c.API.CompressLogs
			}
		}

		log.SetOutput(output)
	default:
		return fmt.Errorf("log media '%s' unknown", c.LogMedia)
	}

	log.SetLevel(c.LogLevel)

	return nil
}
