package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/unifi-tools/threatwatch/pkg/models"
)

const eventColumns = `id, unifi_event_id, flow_id, ts, fetched_at, signature, signature_id,
	severity, category, action, message,
	src_ip, src_port, src_mac, dest_ip, dest_port, dest_mac, protocol, app_protocol, iface,
	src_country, src_city, src_latitude, src_longitude, src_asn, src_org,
	dest_country, dest_city, dest_latitude, dest_longitude, dest_asn, dest_org,
	site_id, archived`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.ThreatEventDetail, error) {
	var (
		event        models.ThreatEventDetail
		ts           int64
		fetchedAt    int64
		flowID       sql.NullString
		signature    sql.NullString
		signatureID  sql.NullInt64
		severity     sql.NullInt64
		category     sql.NullString
		action       sql.NullString
		message      sql.NullString
		srcIP        sql.NullString
		srcPort      sql.NullInt64
		srcMac       sql.NullString
		destIP       sql.NullString
		destPort     sql.NullInt64
		destMac      sql.NullString
		protocol     sql.NullString
		appProtocol  sql.NullString
		iface        sql.NullString
		srcCountry   sql.NullString
		srcCity      sql.NullString
		srcLat       sql.NullFloat64
		srcLon       sql.NullFloat64
		srcASN       sql.NullString
		srcOrg       sql.NullString
		destCountry  sql.NullString
		destCity     sql.NullString
		destLat      sql.NullFloat64
		destLon      sql.NullFloat64
		destASN      sql.NullString
		destOrg      sql.NullString
		siteID       sql.NullString
	)

	err := row.Scan(&event.ID, &event.UnifiEventID, &flowID, &ts, &fetchedAt,
		&signature, &signatureID, &severity, &category, &action, &message,
		&srcIP, &srcPort, &srcMac, &destIP, &destPort, &destMac, &protocol, &appProtocol, &iface,
		&srcCountry, &srcCity, &srcLat, &srcLon, &srcASN, &srcOrg,
		&destCountry, &destCity, &destLat, &destLon, &destASN, &destOrg,
		&siteID, &event.Archived)
	if err != nil {
		return nil, err
	}

	event.Timestamp = models.NewTimestamp(time.UnixMilli(ts).UTC())
	event.FetchedAt = models.NewTimestamp(time.UnixMilli(fetchedAt).UTC())
	event.FlowID = nullStr(flowID)
	event.Signature = nullStr(signature)
	event.SignatureID = nullInt64(signatureID)
	event.Severity = nullInt(severity)
	event.Category = nullStr(category)
	event.Action = nullStr(action)
	event.Message = nullStr(message)
	event.SrcIP = nullStr(srcIP)
	event.SrcPort = nullInt(srcPort)
	event.SrcMac = nullStr(srcMac)
	event.DestIP = nullStr(destIP)
	event.DestPort = nullInt(destPort)
	event.DestMac = nullStr(destMac)
	event.Protocol = nullStr(protocol)
	event.AppProtocol = nullStr(appProtocol)
	event.Interface = nullStr(iface)
	event.SrcCountry = nullStr(srcCountry)
	event.SrcCity = nullStr(srcCity)
	event.SrcLatitude = nullFloat(srcLat)
	event.SrcLongitude = nullFloat(srcLon)
	event.SrcASN = nullStr(srcASN)
	event.SrcOrg = nullStr(srcOrg)
	event.DestCountry = nullStr(destCountry)
	event.DestCity = nullStr(destCity)
	event.DestLatitude = nullFloat(destLat)
	event.DestLongitude = nullFloat(destLon)
	event.DestASN = nullStr(destASN)
	event.DestOrg = nullStr(destOrg)
	event.SiteID = nullStr(siteID)

	return &event, nil
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}

	return &v.String
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}

	return &v.Int64
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}

	i := int(v.Int64)

	return &i
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}

	return &v.Float64
}

// InsertEvent writes one event, keyed on its upstream identifier. Inserting
// an already-seen unifi_event_id leaves the store unchanged and returns the
// existing row id with created=false.
func (c *Client) InsertEvent(ctx context.Context, event *models.ThreatEventDetail) (int64, bool, error) {
	fetchedAt := event.FetchedAt.Time()
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	query := `INSERT INTO threat_events (unifi_event_id, flow_id, ts, fetched_at, signature, signature_id,
		severity, category, action, message,
		src_ip, src_port, src_mac, dest_ip, dest_port, dest_mac, protocol, app_protocol, iface,
		src_country, src_city, src_latitude, src_longitude, src_asn, src_org,
		dest_country, dest_city, dest_latitude, dest_longitude, dest_asn, dest_org,
		site_id, archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if c.Type == "mysql" {
		query = "INSERT IGNORE" + query[len("INSERT"):]
	} else {
		query += " ON CONFLICT (unifi_event_id) DO NOTHING"
	}

	res, err := c.DB.ExecContext(ctx, c.rebind(query),
		event.UnifiEventID, event.FlowID, event.Timestamp.Time().UnixMilli(), fetchedAt.UnixMilli(),
		event.Signature, event.SignatureID, event.Severity, event.Category, event.Action, event.Message,
		event.SrcIP, event.SrcPort, event.SrcMac, event.DestIP, event.DestPort, event.DestMac,
		event.Protocol, event.AppProtocol, event.Interface,
		event.SrcCountry, event.SrcCity, event.SrcLatitude, event.SrcLongitude, event.SrcASN, event.SrcOrg,
		event.DestCountry, event.DestCity, event.DestLatitude, event.DestLongitude, event.DestASN, event.DestOrg,
		event.SiteID, event.Archived)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", InsertFail, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", InsertFail, err)
	}

	var id int64

	err = c.DB.QueryRowContext(ctx, c.rebind("SELECT id FROM threat_events WHERE unifi_event_id = ?"),
		event.UnifiEventID).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", QueryFail, err)
	}

	return id, affected > 0, nil
}

// ListEvents returns one page of events matching the filter, most recent
// first, plus the total match count over the same predicate.
func (c *Client) ListEvents(ctx context.Context, filter models.EventFilter) (*models.ThreatEventsListResponse, error) {
	if err := ValidateEventFilter(filter); err != nil {
		return nil, err
	}

	where, args := compileEventFilter(filter)

	return c.queryEventsPage(ctx, where, args, filter.Page, filter.PageSize)
}

// ListEventsForIP returns events where the given IP is either endpoint. This
// is the one disjunctive query shape; it bypasses the general filter model.
func (c *Client) ListEventsForIP(ctx context.Context, ip string, page, pageSize int) (*models.ThreatEventsListResponse, error) {
	pagination := models.EventFilter{Page: page, PageSize: pageSize}
	if err := ValidateEventFilter(pagination); err != nil {
		return nil, err
	}

	where := " WHERE (src_ip = ? OR dest_ip = ?)"

	return c.queryEventsPage(ctx, where, []any{ip, ip}, page, pageSize)
}

func (c *Client) queryEventsPage(ctx context.Context, where string, args []any, page, pageSize int) (*models.ThreatEventsListResponse, error) {
	var total int64

	err := c.DB.QueryRowContext(ctx, c.rebind("SELECT COUNT(*) FROM threat_events"+where), args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}

	offset := (page - 1) * pageSize

	query := "SELECT " + eventColumns + " FROM threat_events" + where +
		" ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?"

	pageArgs := append(append([]any{}, args...), pageSize, offset)

	rows, err := c.DB.QueryContext(ctx, c.rebind(query), pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}
	defer rows.Close()

	events := []models.ThreatEvent{}

	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", QueryFail, err)
		}

		events = append(events, event.Summary())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}

	return &models.ThreatEventsListResponse{
		Events:   events,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  int64(offset+len(events)) < total,
	}, nil
}

// GetEventByID is a point lookup; missing rows are a distinct not-found
// outcome, never an empty result.
func (c *Client) GetEventByID(ctx context.Context, id int64) (*models.ThreatEventDetail, error) {
	row := c.DB.QueryRowContext(ctx,
		c.rebind("SELECT "+eventColumns+" FROM threat_events WHERE id = ?"), id)

	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", EventNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}

	return event, nil
}

// SetEventArchived flips the one mutable flag an event has.
func (c *Client) SetEventArchived(ctx context.Context, id int64, archived bool) error {
	res, err := c.DB.ExecContext(ctx,
		c.rebind("UPDATE threat_events SET archived = ? WHERE id = ?"), archived, id)
	if err != nil {
		return fmt.Errorf("%w: %v", UpdateFail, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", UpdateFail, err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: id %d", EventNotFound, id)
	}

	return nil
}

// ListCategories returns the distinct non-null categories, sorted.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := c.DB.QueryContext(ctx,
		"SELECT DISTINCT category FROM threat_events WHERE category IS NOT NULL ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}
	defer rows.Close()

	categories := []string{}

	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("%w: %v", QueryFail, err)
		}

		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", QueryFail, err)
	}

	return categories, nil
}

// CountEvents returns the total number of stored events.
func (c *Client) CountEvents(ctx context.Context) (int64, error) {
	return c.countEventsWhere(ctx, "", nil)
}

// CountEventsSince counts events whose timestamp is at or after the given
// point in time.
func (c *Client) CountEventsSince(ctx context.Context, since time.Time) (int64, error) {
	return c.countEventsWhere(ctx, " WHERE ts >= ?", []any{since.UnixMilli()})
}

func (c *Client) countEventsWhere(ctx context.Context, where string, args []any) (int64, error) {
	var count int64

	err := c.DB.QueryRowContext(ctx, c.rebind("SELECT COUNT(*) FROM threat_events"+where), args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", QueryFail, err)
	}

	return count, nil
}
