package unifi

import (
	"context"
	"fmt"
)

// TestResult is the outcome of probing the controller.
type TestResult struct {
	Connected          bool
	ClientCount        *int
	APCount            *int
	Site               *string
	Error              *string
	IPSEventsAvailable *bool
}

type healthResponse struct {
	Data []struct {
		Subsystem string `json:"subsystem"`
		NumUser   *int   `json:"num_user"`
		NumAP     *int   `json:"num_ap"`
	} `json:"data"`
}

// TestConnection probes the controller's health endpoint and checks whether
// IPS events can be fetched.
func (c *Client) TestConnection(ctx context.Context) *TestResult {
	var health healthResponse

	path := fmt.Sprintf("/proxy/network/api/s/%s/stat/health", c.site)

	if err := c.get(ctx, path, &health); err != nil {
		msg := err.Error()
		return &TestResult{Connected: false, Error: &msg}
	}

	result := &TestResult{Connected: true}

	site := c.site
	result.Site = &site

	for _, subsystem := range health.Data {
		switch subsystem.Subsystem {
		case "wlan":
			result.APCount = subsystem.NumAP

			if subsystem.NumUser != nil {
				result.ClientCount = subsystem.NumUser
			}
		case "lan":
			if result.ClientCount == nil {
				result.ClientCount = subsystem.NumUser
			}
		}
	}

	ipsAvailable := true
	if _, err := c.FetchIPSEvents(ctx, 1); err != nil {
		c.logger.Debugf("ips events not available: %s", err)
		ipsAvailable = false
	}

	result.IPSEventsAvailable = &ipsAvailable

	return result
}
