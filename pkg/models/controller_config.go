package models

// ControllerConfigRequest is the save-controller-configuration payload.
// Secrets arrive in clear text and are sealed before storage.
type ControllerConfigRequest struct {
	ControllerURL string  `json:"controller_url"`
	Username      *string `json:"username"`
	Password      *string `json:"password"`
	APIKey        *string `json:"api_key"`
	SiteID        string  `json:"site_id"`
	VerifySSL     bool    `json:"verify_ssl"`
}

// ControllerConfigResponse never carries secrets, only whether they exist.
type ControllerConfigResponse struct {
	ID                       int64      `json:"id"`
	ControllerURL            string     `json:"controller_url"`
	Username                 *string    `json:"username"`
	HasAPIKey                bool       `json:"has_api_key"`
	SiteID                   string     `json:"site_id"`
	VerifySSL                bool       `json:"verify_ssl"`
	LastSuccessfulConnection *Timestamp `json:"last_successful_connection"`
}

// ControllerConnectionTest reports the outcome of probing the upstream
// controller.
type ControllerConnectionTest struct {
	Connected          bool    `json:"connected"`
	ClientCount        *int    `json:"client_count,omitempty"`
	APCount            *int    `json:"ap_count,omitempty"`
	Site               *string `json:"site,omitempty"`
	Error              *string `json:"error,omitempty"`
	IPSEventsAvailable *bool   `json:"ips_events_available,omitempty"`
}
