package intake

import (
	"errors"
	"time"

	"leadedge_backend/platform/apperr"
	"leadedge_backend/platform/phone"
)

// Business event names.
const (
	TypeLeadSubmitted = "LeadSubmitted"
	TypeCallClicked   = "CallClicked"
	TypeDefault       = "event"
)

// Field length limits, in runes.
const (
	maxTypeLen  = 50
	maxPageLen  = 300
	maxShortLen = 120
)

const (
	defaultEstimatePage = "/contact-form"
	defaultEventPage    = "/"
	defaultSource       = "web"
)

var (
	// ErrHoneypot marks a bot submission: answer with success, write nothing.
	ErrHoneypot = errors.New("honeypot field populated")
	// ErrInvalidPhone is returned when the digits-only phone has a bad length.
	ErrInvalidPhone = apperr.Validation("Invalid phone number.")
	// ErrMissingRequiredFields is returned when name or phone is empty.
	ErrMissingRequiredFields = apperr.Validation("Name and phone are required.")
)

var legacyTypes = map[string]string{
	"form_submit": TypeLeadSubmitted,
	"click_call":  TypeCallClicked,
}

// Attribution carries campaign parameters shared by leads and events.
type Attribution struct {
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	GCLID       string
}

// EstimateSubmission is a normalized contact-form lead.
type EstimateSubmission struct {
	Name    string
	Email   string
	Phone   string
	City    string
	Zip     string
	Service string
	Message string
	Page    string
	Session string
	Source  string
	Attribution
}

// EventSubmission is a normalized lead_events row. Day and hour are always
// derived from Timestamp.
type EventSubmission struct {
	Timestamp  time.Time
	Type       string
	Page       string
	Service    string
	Source     string
	Device     string
	City       string
	Country    string
	Zip        string
	Area       string
	Session    string
	Referrer   string
	ScrollPct  float64
	DurationMs float64
	Attribution
}

// Day returns the UTC calendar day of the event as YYYY-MM-DD.
func (e EventSubmission) Day() string {
	return e.Timestamp.UTC().Format("2006-01-02")
}

// Hour returns the two-digit UTC hour of the event.
func (e EventSubmission) Hour() string {
	return e.Timestamp.UTC().Format("15")
}

// EventKind selects how the event type and timestamp are resolved.
type EventKind int

const (
	// KindTrack takes type and ts from the body.
	KindTrack EventKind = iota
	// KindForm records a LeadSubmitted event at server time.
	KindForm
	// KindCall records a CallClicked event at server time.
	KindCall
)

func attribution(b Body) Attribution {
	return Attribution{
		UTMSource:   b.String("utm_source"),
		UTMMedium:   b.String("utm_medium"),
		UTMCampaign: b.String("utm_campaign"),
		GCLID:       b.String("gclid"),
	}
}

// NormalizeEstimate validates an estimate request body.
func NormalizeEstimate(b Body) (EstimateSubmission, error) {
	if b.String("company") != "" {
		return EstimateSubmission{}, ErrHoneypot
	}

	digits := phone.Digits(b.String("phone"))
	if digits != "" && !phone.ValidLength(digits) {
		return EstimateSubmission{}, ErrInvalidPhone
	}

	name := b.String("name")
	if name == "" || digits == "" {
		return EstimateSubmission{}, ErrMissingRequiredFields
	}

	return EstimateSubmission{
		Name:        name,
		Email:       b.String("email"),
		Phone:       digits,
		City:        b.String("city"),
		Zip:         b.String("zip"),
		Service:     truncate(b.String("service"), maxShortLen),
		Message:     orDefault(b.String("description"), b.String("message")),
		Page:        truncate(orDefault(b.String("page"), defaultEstimatePage), maxPageLen),
		Session:     truncate(b.String("session"), maxShortLen),
		Source:      truncate(orDefault(b.String("source"), defaultSource), maxShortLen),
		Attribution: attribution(b),
	}, nil
}

// LeadEvent returns the LeadSubmitted analytics row for an accepted estimate.
func (s EstimateSubmission) LeadEvent(now time.Time) EventSubmission {
	return EventSubmission{
		Timestamp:   now.UTC(),
		Type:        TypeLeadSubmitted,
		Page:        s.Page,
		Service:     s.Service,
		Source:      s.Source,
		City:        s.City,
		Zip:         s.Zip,
		Session:     s.Session,
		Attribution: s.Attribution,
	}
}

// NormalizeEvent builds an event row from a form, call or track body.
// now is used whenever the body carries no usable timestamp.
func NormalizeEvent(b Body, kind EventKind, now time.Time) EventSubmission {
	ts := now.UTC()
	var eventType string
	switch kind {
	case KindForm:
		eventType = TypeLeadSubmitted
	case KindCall:
		eventType = TypeCallClicked
	default:
		eventType = CanonicalType(b.String("type"))
		if parsed, ok := parseTimestamp(b.String("ts")); ok {
			ts = parsed
		}
	}

	return EventSubmission{
		Timestamp:   ts,
		Type:        eventType,
		Page:        truncate(orDefault(b.String("page"), defaultEventPage), maxPageLen),
		Service:     truncate(b.String("service"), maxShortLen),
		Source:      truncate(orDefault(b.String("source"), defaultSource), maxShortLen),
		Device:      b.String("device"),
		City:        b.String("city"),
		Country:     b.String("country"),
		Zip:         b.String("zip"),
		Area:        b.String("area"),
		Session:     truncate(b.String("session"), maxShortLen),
		Referrer:    b.String("referrer"),
		ScrollPct:   b.Number("scroll_pct"),
		DurationMs:  b.Number("duration_ms"),
		Attribution: attribution(b),
	}
}

// CanonicalType defaults an empty type, maps legacy short names to business
// names and truncates the result.
func CanonicalType(raw string) string {
	t := orDefault(raw, TypeDefault)
	if mapped, ok := legacyTypes[t]; ok {
		t = mapped
	}
	return truncate(t, maxTypeLen)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
