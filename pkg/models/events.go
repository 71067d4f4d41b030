package models

// ThreatEvent is the compact representation used in listings and broadcast
// payloads.
type ThreatEvent struct {
	ID           int64     `json:"id"`
	UnifiEventID string    `json:"unifi_event_id"`
	Timestamp    Timestamp `json:"timestamp"`

	Signature   *string `json:"signature"`
	SignatureID *int64  `json:"signature_id"`
	Severity    *int    `json:"severity"`
	Category    *string `json:"category"`
	Action      *string `json:"action"`
	Message     *string `json:"message"`

	SrcIP       *string `json:"src_ip"`
	SrcPort     *int    `json:"src_port"`
	DestIP      *string `json:"dest_ip"`
	DestPort    *int    `json:"dest_port"`
	Protocol    *string `json:"protocol"`
	AppProtocol *string `json:"app_protocol"`

	SrcCountry  *string `json:"src_country"`
	SrcCity     *string `json:"src_city"`
	SrcOrg      *string `json:"src_org"`
	DestCountry *string `json:"dest_country"`
	DestCity    *string `json:"dest_city"`
	DestOrg     *string `json:"dest_org"`
}

// ThreatEventDetail carries every stored field of a single event.
type ThreatEventDetail struct {
	ID           int64     `json:"id"`
	UnifiEventID string    `json:"unifi_event_id"`
	FlowID       *string   `json:"flow_id"`
	Timestamp    Timestamp `json:"timestamp"`

	Signature   *string `json:"signature"`
	SignatureID *int64  `json:"signature_id"`
	Severity    *int    `json:"severity"`
	Category    *string `json:"category"`
	Action      *string `json:"action"`
	Message     *string `json:"message"`

	SrcIP       *string `json:"src_ip"`
	SrcPort     *int    `json:"src_port"`
	SrcMac      *string `json:"src_mac"`
	DestIP      *string `json:"dest_ip"`
	DestPort    *int    `json:"dest_port"`
	DestMac     *string `json:"dest_mac"`
	Protocol    *string `json:"protocol"`
	AppProtocol *string `json:"app_protocol"`
	Interface   *string `json:"interface"`

	SrcCountry   *string  `json:"src_country"`
	SrcCity      *string  `json:"src_city"`
	SrcLatitude  *float64 `json:"src_latitude"`
	SrcLongitude *float64 `json:"src_longitude"`
	SrcASN       *string  `json:"src_asn"`
	SrcOrg       *string  `json:"src_org"`

	DestCountry   *string  `json:"dest_country"`
	DestCity      *string  `json:"dest_city"`
	DestLatitude  *float64 `json:"dest_latitude"`
	DestLongitude *float64 `json:"dest_longitude"`
	DestASN       *string  `json:"dest_asn"`
	DestOrg       *string  `json:"dest_org"`

	SiteID    *string   `json:"site_id"`
	Archived  bool      `json:"archived"`
	FetchedAt Timestamp `json:"fetched_at"`
}

// Summary strips a detail record down to the listing field set.
func (d *ThreatEventDetail) Summary() ThreatEvent {
	return ThreatEvent{
		ID:           d.ID,
		UnifiEventID: d.UnifiEventID,
		Timestamp:    d.Timestamp,
		Signature:    d.Signature,
		SignatureID:  d.SignatureID,
		Severity:     d.Severity,
		Category:     d.Category,
		Action:       d.Action,
		Message:      d.Message,
		SrcIP:        d.SrcIP,
		SrcPort:      d.SrcPort,
		DestIP:       d.DestIP,
		DestPort:     d.DestPort,
		Protocol:     d.Protocol,
		AppProtocol:  d.AppProtocol,
		SrcCountry:   d.SrcCountry,
		SrcCity:      d.SrcCity,
		SrcOrg:       d.SrcOrg,
		DestCountry:  d.DestCountry,
		DestCity:     d.DestCity,
		DestOrg:      d.DestOrg,
	}
}

// ThreatEventsListResponse is one page of events plus pagination info.
type ThreatEventsListResponse struct {
	Events   []ThreatEvent `json:"events"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	HasMore  bool          `json:"has_more"`
}
