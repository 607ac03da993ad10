package repository

import (
	"context"
	"fmt"

	"leadedge_backend/internal/leads/intake"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouseMirror copies lead_events rows into a ClickHouse table of the
// same name for rollups. ClickHouse has no NULL-able columns here, so empty
// strings are stored as-is.
type ClickHouseMirror struct {
	conn clickhouse.Conn
}

// NewClickHouseMirror wraps an open connection.
func NewClickHouseMirror(conn clickhouse.Conn) *ClickHouseMirror {
	return &ClickHouseMirror{conn: conn}
}

// MirrorLeadEvent appends e as a single-row batch.
func (m *ClickHouseMirror) MirrorLeadEvent(ctx context.Context, e intake.EventSubmission) error {
	batch, err := m.conn.PrepareBatch(ctx, `
		INSERT INTO lead_events (
			ts, day, hour, type, page, service, source, device, city, country, zip, area,
			session, scroll_pct, duration_ms, referrer, utm_source, utm_medium, utm_campaign, gclid
		)`)
	if err != nil {
		return fmt.Errorf("prepare clickhouse batch: %w", err)
	}

	if err := batch.Append(
		e.Timestamp, e.Day(), e.Hour(), e.Type, e.Page, e.Service, e.Source, e.Device,
		e.City, e.Country, e.Zip, e.Area, e.Session, e.ScrollPct, e.DurationMs, e.Referrer,
		e.UTMSource, e.UTMMedium, e.UTMCampaign, e.GCLID,
	); err != nil {
		_ = batch.Abort()
		return fmt.Errorf("append clickhouse row: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send clickhouse batch: %w", err)
	}
	return nil
}

// Close releases the connection.
func (m *ClickHouseMirror) Close() error {
	return m.conn.Close()
}
