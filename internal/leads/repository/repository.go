// Package repository holds the SQL for leads and lead_events.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadedge_backend/internal/leads/intake"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("not found")

// Repository reads and writes the leads and lead_events tables.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a repository on pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lead is a row of the leads table.
type Lead struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	City        string    `json:"city"`
	Zip         string    `json:"zip"`
	Service     string    `json:"service"`
	Message     string    `json:"message"`
	Page        string    `json:"page"`
	Session     string    `json:"session"`
	Source      string    `json:"source"`
	UTMSource   string    `json:"utm_source"`
	UTMMedium   string    `json:"utm_medium"`
	UTMCampaign string    `json:"utm_campaign"`
	GCLID       string    `json:"gclid"`
}

// Event is a row of the lead_events table.
type Event struct {
	ID          int64     `json:"id"`
	TS          time.Time `json:"ts"`
	Day         string    `json:"day"`
	Hour        string    `json:"hour"`
	Type        string    `json:"type"`
	Page        string    `json:"page"`
	Service     string    `json:"service"`
	Source      string    `json:"source"`
	Device      string    `json:"device"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Zip         string    `json:"zip"`
	Area        string    `json:"area"`
	Session     string    `json:"session"`
	ScrollPct   float64   `json:"scroll_pct"`
	DurationMs  float64   `json:"duration_ms"`
	Referrer    string    `json:"referrer"`
	UTMSource   string    `json:"utm_source"`
	UTMMedium   string    `json:"utm_medium"`
	UTMCampaign string    `json:"utm_campaign"`
	GCLID       string    `json:"gclid"`
}

// TypeCount is one row of the per-type event rollup.
type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"cnt"`
}

const leadColumns = `id, created_at, COALESCE(name, ''), COALESCE(email, ''), COALESCE(phone, ''),
	COALESCE(city, ''), COALESCE(zip, ''), COALESCE(service, ''), COALESCE(message, ''),
	COALESCE(page, ''), COALESCE(session, ''), COALESCE(source, ''),
	COALESCE(utm_source, ''), COALESCE(utm_medium, ''), COALESCE(utm_campaign, ''), COALESCE(gclid, '')`

const eventColumns = `id, ts, day, hour, type, COALESCE(page, ''), COALESCE(service, ''), COALESCE(source, ''),
	COALESCE(device, ''), COALESCE(city, ''), COALESCE(country, ''), COALESCE(zip, ''), COALESCE(area, ''),
	COALESCE(session, ''), COALESCE(scroll_pct, 0), COALESCE(duration_ms, 0), COALESCE(referrer, ''),
	COALESCE(utm_source, ''), COALESCE(utm_medium, ''), COALESCE(utm_campaign, ''), COALESCE(gclid, '')`

// InsertLead writes a lead row and returns its id.
func (r *Repository) InsertLead(ctx context.Context, s intake.EstimateSubmission) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (name, email, phone, city, zip, service, message, page, session, source,
			utm_source, utm_medium, utm_campaign, gclid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		s.Name, nullIfEmpty(s.Email), s.Phone, nullIfEmpty(s.City), nullIfEmpty(s.Zip),
		nullIfEmpty(s.Service), nullIfEmpty(s.Message), s.Page, nullIfEmpty(s.Session), s.Source,
		nullIfEmpty(s.UTMSource), nullIfEmpty(s.UTMMedium), nullIfEmpty(s.UTMCampaign), nullIfEmpty(s.GCLID),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert lead: %w", err)
	}
	return id, nil
}

// InsertLeadEvent appends a lead_events row and returns its id.
func (r *Repository) InsertLeadEvent(ctx context.Context, e intake.EventSubmission) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_events (ts, day, hour, type, page, service, source, device, city, country, zip, area,
			session, scroll_pct, duration_ms, referrer, utm_source, utm_medium, utm_campaign, gclid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id`,
		e.Timestamp, e.Day(), e.Hour(), e.Type, nullIfEmpty(e.Page), nullIfEmpty(e.Service), nullIfEmpty(e.Source),
		nullIfEmpty(e.Device), nullIfEmpty(e.City), nullIfEmpty(e.Country), nullIfEmpty(e.Zip), nullIfEmpty(e.Area),
		nullIfEmpty(e.Session), e.ScrollPct, e.DurationMs, nullIfEmpty(e.Referrer),
		nullIfEmpty(e.UTMSource), nullIfEmpty(e.UTMMedium), nullIfEmpty(e.UTMCampaign), nullIfEmpty(e.GCLID),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert lead event: %w", err)
	}
	return id, nil
}

// MirrorLeadEvent lets a second Postgres database act as the event mirror.
func (r *Repository) MirrorLeadEvent(ctx context.Context, e intake.EventSubmission) error {
	_, err := r.InsertLeadEvent(ctx, e)
	return err
}

// GetLead fetches a lead by id.
func (r *Repository) GetLead(ctx context.Context, id int64) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// GetLeadEvent fetches a lead_events row by id.
func (r *Repository) GetLeadEvent(ctx context.Context, id int64) (Event, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM lead_events WHERE id = $1`, id)
	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, fmt.Errorf("get lead event: %w", err)
	}
	return event, nil
}

// ListLeads returns leads matching f, newest first.
func (r *Repository) ListLeads(ctx context.Context, f LeadFilter) ([]Lead, error) {
	query, args, limit := listLeadsSQL(f)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	items := make([]Lead, 0, limit)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		items = append(items, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return items, nil
}

// ListLeadEvents returns LeadSubmitted events matching the source and city of
// f, newest first. Free-text search is not applied.
func (r *Repository) ListLeadEvents(ctx context.Context, f LeadFilter) ([]Event, error) {
	query, args, limit := listLeadEventsSQL(f)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lead events: %w", err)
	}
	defer rows.Close()

	items := make([]Event, 0, limit)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead event: %w", err)
		}
		items = append(items, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lead events: %w", err)
	}
	return items, nil
}

// CountEventsByType rolls up lead_events since the given time.
func (r *Repository) CountEventsByType(ctx context.Context, since time.Time) ([]TypeCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT type, COUNT(*) AS cnt
		FROM lead_events
		WHERE ts >= $1
		GROUP BY type
		ORDER BY cnt DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	counts := make([]TypeCount, 0)
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	return counts, nil
}

// CountLeads counts leads created since the given time.
func (r *Repository) CountLeads(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE created_at >= $1`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

// CountEventsOfType counts lead_events of one type since the given time.
func (r *Repository) CountEventsOfType(ctx context.Context, eventType string, since time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lead_events WHERE type = $1 AND ts >= $2`, eventType, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events of type: %w", err)
	}
	return n, nil
}

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.CreatedAt, &l.Name, &l.Email, &l.Phone, &l.City, &l.Zip, &l.Service, &l.Message,
		&l.Page, &l.Session, &l.Source, &l.UTMSource, &l.UTMMedium, &l.UTMCampaign, &l.GCLID)
	return l, err
}

func scanEvent(row pgx.Row) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.TS, &e.Day, &e.Hour, &e.Type, &e.Page, &e.Service, &e.Source, &e.Device,
		&e.City, &e.Country, &e.Zip, &e.Area, &e.Session, &e.ScrollPct, &e.DurationMs, &e.Referrer,
		&e.UTMSource, &e.UTMMedium, &e.UTMCampaign, &e.GCLID)
	return e, err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
