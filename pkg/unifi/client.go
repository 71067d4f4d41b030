// Package unifi is the client for the upstream network controller, which is
// the source of IPS/IDS events.
package unifi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	BaseURL   string
	Username  string
	Password  string
	APIKey    string
	Site      string
	VerifySSL bool
}

type Client struct {
	baseURL  string
	username string
	password string
	apiKey   string
	site     string
	http     *retryablehttp.Client
	logger   *log.Entry
	loggedIn bool
}

func NewClient(config Config) (*Client, error) {
	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("controller url is required")
	}

	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid controller url '%s': %w", config.BaseURL, err)
	}

	site := config.Site
	if site == "" {
		site = "default"
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.RetryWaitMin = 1 * time.Second
	httpClient.RetryWaitMax = 10 * time.Second
	httpClient.Logger = nil
	httpClient.HTTPClient.Timeout = 30 * time.Second

	if !config.VerifySSL {
		httpClient.HTTPClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}

	// password auth relies on the session cookie set at login
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("while creating cookie jar: %w", err)
	}

	httpClient.HTTPClient.Jar = jar

	return &Client{
		baseURL:  baseURL,
		username: config.Username,
		password: config.Password,
		apiKey:   config.APIKey,
		site:     site,
		http:     httpClient,
		logger:   log.StandardLogger().WithField("service", "unifi"),
	}, nil
}

func (c *Client) Site() string {
	return c.site
}

func (c *Client) login(ctx context.Context) error {
	if c.apiKey != "" || c.loggedIn {
		return nil
	}

	if c.username == "" || c.password == "" {
		return fmt.Errorf("no api key and no username/password configured")
	}

	body, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return fmt.Errorf("while marshaling login request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("while creating login request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("while logging in to controller: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("controller login failed with status %d", resp.StatusCode)
	}

	c.loggedIn = true

	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.login(ctx); err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("while creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("while querying controller: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.loggedIn = false
		return fmt.Errorf("controller rejected credentials (status %d)", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("controller returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("while decoding controller response: %w", err)
	}

	return nil
}
