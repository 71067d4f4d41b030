package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/unifi-tools/threatwatch/pkg/twconfig"
)

// Client owns the event store connection. All reads are safe to run
// concurrently with each other and with ingestion.
type Client struct {
	DB     *sql.DB
	Type   string
	logger *log.Entry
}

func NewClient(ctx context.Context, config *twconfig.DatabaseCfg) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("no database configuration provided")
	}

	logger := log.StandardLogger().WithField("service", "database")

	driverName, dsn, err := dsnFromConfig(config)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("while opening %s database: %w", config.Type, err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("while connecting to %s database: %w", config.Type, err)
	}

	client := &Client{
		DB:     db,
		Type:   normalizeType(config.Type),
		logger: logger,
	}

	if err := client.initializeSchema(ctx); err != nil {
		return nil, fmt.Errorf("while initializing schema: %w", err)
	}

	return client, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func normalizeType(dbType string) string {
	if dbType == "postgres" {
		return "postgresql"
	}

	return dbType
}

func dsnFromConfig(config *twconfig.DatabaseCfg) (string, string, error) {
	switch normalizeType(config.Type) {
	case "sqlite":
		return "sqlite", buildSQLiteDSN(config.DbPath), nil
	case "mysql":
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			config.User, config.Password, config.Host, config.Port, config.DbName), nil
	case "postgresql":
		return "pgx", fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s",
			config.Host, config.Port, config.User, config.DbName, config.Password), nil
	default:
		return "", "", fmt.Errorf("unknown database type '%s'", config.Type)
	}
}

func buildSQLiteDSN(dbPath string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", dbPath)
}

// rebind converts `?` placeholders to the $N form when talking to postgres.
func (c *Client) rebind(query string) string {
	if c.Type != "postgresql" {
		return query
	}

	var sb strings.Builder

	n := 0

	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))

			continue
		}

		sb.WriteRune(r)
	}

	return sb.String()
}
