package unifi

import (
	"context"
	"fmt"
	"time"

	"github.com/unifi-tools/threatwatch/pkg/models"
)

// IPSEvent is one raw IPS/IDS alert as the controller reports it.
type IPSEvent struct {
	ID                    string   `json:"_id"`
	Timestamp             int64    `json:"timestamp"` // unix milliseconds
	FlowID                *int64   `json:"flow_id"`
	InnerAlertSignature   *string  `json:"inner_alert_signature"`
	InnerAlertGID         *int64   `json:"inner_alert_gid"`
	InnerAlertSignatureID *int64   `json:"inner_alert_signature_id"`
	InnerAlertSeverity    *int     `json:"inner_alert_severity"`
	InnerAlertCategory    *string  `json:"inner_alert_category"`
	InnerAlertAction      *string  `json:"inner_alert_action"`
	Msg                   *string  `json:"msg"`
	Proto                 *string  `json:"proto"`
	AppProto              *string  `json:"app_proto"`
	InIface               *string  `json:"in_iface"`
	SrcIP                 *string  `json:"src_ip"`
	SrcPort               *int     `json:"src_port"`
	SrcMac                *string  `json:"src_mac"`
	DstIP                 *string  `json:"dst_ip"`
	DstPort               *int     `json:"dst_port"`
	DstMac                *string  `json:"dst_mac"`
	SrcGeo                *GeoInfo `json:"srcipGeo"`
	SrcCountry            *string  `json:"srcipCountry"`
	DstGeo                *GeoInfo `json:"dstipGeo"`
	DstCountry            *string  `json:"dstipCountry"`
	SiteID                *string  `json:"site_id"`
	Archived              bool     `json:"archived"`
}

type GeoInfo struct {
	City         *string  `json:"city"`
	CountryName  *string  `json:"country_name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	ASN          *string  `json:"asn"`
	Organization *string  `json:"organization"`
}

type ipsEventsResponse struct {
	Data []IPSEvent `json:"data"`
}

// FetchIPSEvents returns the most recent IPS events for the configured site.
func (c *Client) FetchIPSEvents(ctx context.Context, limit int) ([]IPSEvent, error) {
	var resp ipsEventsResponse

	path := fmt.Sprintf("/proxy/network/api/s/%s/stat/ips/event?_limit=%d&_sort=-timestamp", c.site, limit)

	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("while fetching ips events: %w", err)
	}

	return resp.Data, nil
}

// FetchEvents fetches IPS events and converts them to the store
// representation. It satisfies the fetcher source contract.
func (c *Client) FetchEvents(ctx context.Context, limit int) ([]*models.ThreatEventDetail, error) {
	raw, err := c.FetchIPSEvents(ctx, limit)
	if err != nil {
		return nil, err
	}

	events := make([]*models.ThreatEventDetail, 0, len(raw))
	for i := range raw {
		events = append(events, raw[i].ToThreatEvent())
	}

	return events, nil
}

// ToThreatEvent maps a controller alert onto the store representation.
func (e *IPSEvent) ToThreatEvent() *models.ThreatEventDetail {
	event := &models.ThreatEventDetail{
		UnifiEventID: e.ID,
		Timestamp:    models.NewTimestamp(time.UnixMilli(e.Timestamp).UTC()),
		Signature:    e.InnerAlertSignature,
		SignatureID:  e.InnerAlertSignatureID,
		Severity:     e.InnerAlertSeverity,
		Category:     e.InnerAlertCategory,
		Action:       e.InnerAlertAction,
		Message:      e.Msg,
		SrcIP:        e.SrcIP,
		SrcPort:      e.SrcPort,
		SrcMac:       e.SrcMac,
		DestIP:       e.DstIP,
		DestPort:     e.DstPort,
		DestMac:      e.DstMac,
		Protocol:     e.Proto,
		AppProtocol:  e.AppProto,
		Interface:    e.InIface,
		SrcCountry:   e.SrcCountry,
		DestCountry:  e.DstCountry,
		SiteID:       e.SiteID,
		Archived:     e.Archived,
	}

	if e.FlowID != nil {
		flowID := fmt.Sprintf("%d", *e.FlowID)
		event.FlowID = &flowID
	}

	if e.SrcGeo != nil {
		event.SrcCity = e.SrcGeo.City
		event.SrcLatitude = e.SrcGeo.Latitude
		event.SrcLongitude = e.SrcGeo.Longitude
		event.SrcASN = e.SrcGeo.ASN
		event.SrcOrg = e.SrcGeo.Organization

		if event.SrcCountry == nil {
			event.SrcCountry = e.SrcGeo.CountryName
		}
	}

	if e.DstGeo != nil {
		event.DestCity = e.DstGeo.City
		event.DestLatitude = e.DstGeo.Latitude
		event.DestLongitude = e.DstGeo.Longitude
		event.DestASN = e.DstGeo.ASN
		event.DestOrg = e.DstGeo.Organization

		if event.DestCountry == nil {
			event.DestCountry = e.DstGeo.CountryName
		}
	}

	return event
}
