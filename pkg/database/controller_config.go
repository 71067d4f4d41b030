package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/unifi-tools/threatwatch/pkg/models"
)

// ControllerConfig is the stored upstream controller configuration. Secrets
// are sealed before they reach this layer; the store never sees clear text.
type ControllerConfig struct {
	ID                       int64
	ControllerURL            string
	Username                 *string
	PasswordSealed           *string
	APIKeySealed             *string
	SiteID                   string
	VerifySSL                bool
	LastSuccessfulConnection *time.Time
}

// There is a single controller configuration row.
const controllerConfigID = 1

func (c *Client) SaveControllerConfig(ctx context.Context, config *ControllerConfig) error {
	res, err := c.DB.ExecContext(ctx, c.rebind(
		`UPDATE controller_config SET controller_url = ?, username = ?, password_sealed = ?,
		api_key_sealed = ?, site_id = ?, verify_ssl = ? WHERE id = ?`),
		config.ControllerURL, config.Username, config.PasswordSealed, config.APIKeySealed,
		config.SiteID, config.VerifySSL, controllerConfigID)
	if err != nil {
		return fmt.Errorf("%w: %v", UpdateFail, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", UpdateFail, err)
	}

	if affected > 0 {
		return nil
	}

	_, err = c.DB.ExecContext(ctx, c.rebind(
		`INSERT INTO controller_config (id, controller_url, username, password_sealed, api_key_sealed, site_id, verify_ssl)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		controllerConfigID, config.ControllerURL, config.Username, config.PasswordSealed,
		config.APIKeySealed, config.SiteID, config.VerifySSL)
	if err != nil {
		return fmt.Errorf("%w: %v", InsertFail, err)
	}

	return nil
}

func (c *Client) GetControllerConfig(ctx context.Context) (*ControllerConfig, error) {
	var (
		config         ControllerConfig
		username       sql.NullString
		passwordSealed sql.NullString
		apiKeySealed   sql.NullString
		lastConn       sql.NullInt64
	)

	err := c.DB.QueryRowContext(ctx, c.rebind(
		`SELECT id, controller_url, username, password_sealed, api_key_sealed, site_id, verify_ssl,
		last_successful_connection FROM controller_config WHERE id = ?`), controllerConfigID).
		Scan(&config.ID, &config.ControllerURL, &username, &passwordSealed, &apiKeySealed,
			&config.SiteID, &config.VerifySSL, &lastConn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ConfigNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}

	config.Username = nullStr(username)
	config.PasswordSealed = nullStr(passwordSealed)
	config.APIKeySealed = nullStr(apiKeySealed)

	if lastConn.Valid {
		t := time.UnixMilli(lastConn.Int64).UTC()
		config.LastSuccessfulConnection = &t
	}

	return &config, nil
}

func (c *Client) TouchControllerConnection(ctx context.Context, when time.Time) error {
	_, err := c.DB.ExecContext(ctx, c.rebind(
		"UPDATE controller_config SET last_successful_connection = ? WHERE id = ?"),
		when.UnixMilli(), controllerConfigID)
	if err != nil {
		return fmt.Errorf("%w: %v", UpdateFail, err)
	}

	return nil
}

// Response converts the stored row to its API shape, which never carries
// secrets.
func (cc *ControllerConfig) Response() *models.ControllerConfigResponse {
	resp := &models.ControllerConfigResponse{
		ID:            cc.ID,
		ControllerURL: cc.ControllerURL,
		Username:      cc.Username,
		HasAPIKey:     cc.APIKeySealed != nil,
		SiteID:        cc.SiteID,
		VerifySSL:     cc.VerifySSL,
	}

	if cc.LastSuccessfulConnection != nil {
		ts := models.NewTimestamp(*cc.LastSuccessfulConnection)
		resp.LastSuccessfulConnection = &ts
	}

	return resp
}
