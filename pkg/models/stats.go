package models

// SeverityCount is the number of events sharing one severity code.
type SeverityCount struct {
	Severity int    `json:"severity"`
	Label    string `json:"label"`
	Count    int64  `json:"count"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type CountryCount struct {
	Country     string  `json:"country"`
	CountryCode *string `json:"country_code"`
	Count       int64   `json:"count"`
}

// TopAttacker is a source IP ranked by event count, annotated with the
// most recently observed country/org for that IP.
type TopAttacker struct {
	IP       string    `json:"ip"`
	Count    int64     `json:"count"`
	Country  *string   `json:"country"`
	Org      *string   `json:"org"`
	LastSeen Timestamp `json:"last_seen"`
}

// ThreatStatsResponse is the full statistics rollup.
type ThreatStatsResponse struct {
	TotalEvents  int64 `json:"total_events"`
	Events24h    int64 `json:"events_24h"`
	Events7d     int64 `json:"events_7d"`
	BlockedCount int64 `json:"blocked_count"`
	AlertCount   int64 `json:"alert_count"`

	BySeverity   []SeverityCount `json:"by_severity"`
	ByCategory   []CategoryCount `json:"by_category"`
	ByCountry    []CountryCount  `json:"by_country"`
	TopAttackers []TopAttacker   `json:"top_attackers"`
}

// TimelinePoint is one non-empty time bucket.
type TimelinePoint struct {
	Timestamp Timestamp `json:"timestamp"`
	Count     int64     `json:"count"`
}

type ThreatTimelineResponse struct {
	Interval string          `json:"interval"`
	Data     []TimelinePoint `json:"data"`
}

// SystemStatus mirrors the payload of the status_update broadcast.
type SystemStatus struct {
	LastRefresh            *Timestamp `json:"last_refresh"`
	TotalEvents            int64      `json:"total_events"`
	Events24h              int64      `json:"events_24h"`
	RefreshIntervalSeconds int        `json:"refresh_interval_seconds"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
