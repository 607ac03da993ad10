package analytics

import "strconv"

// GA4 event names sent by the service.
const (
	EventEstimateRequested = "EstimateRequested"
	EventLeadSubmitted     = "LeadSubmitted"
	EventCallClicked       = "CallClicked"
)

// Campaign holds the attribution parameters shared by every event.
type Campaign struct {
	Session     string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	GCLID       string
}

func (c Campaign) params(p Params) Params {
	p["session_id"] = c.Session
	p["utm_source"] = c.UTMSource
	p["utm_medium"] = c.UTMMedium
	p["utm_campaign"] = c.UTMCampaign
	p["gclid"] = c.GCLID
	return p
}

// Estimate is an accepted contact-form lead.
type Estimate struct {
	Page    string
	Service string
	City    string
	Zip     string
	Source  string
	Campaign
}

// EstimateEvents returns the EstimateRequested and LeadSubmitted pair sent
// for an estimate. Both carry a zero USD value.
func EstimateEvents(e Estimate) []Event {
	build := func() Params {
		return e.Campaign.params(Params{
			"page_location": e.Page,
			"service":       e.Service,
			"city":          e.City,
			"zip":           e.Zip,
			"source":        e.Source,
			"value":         0,
			"currency":      "USD",
		})
	}
	return []Event{
		{Name: EventEstimateRequested, Params: build()},
		{Name: EventLeadSubmitted, Params: build()},
	}
}

// EngagementEvent builds the event for a form submit or call click. Empty
// service and attribution values are left out of the payload.
func EngagementEvent(name, page, service string, c Campaign) Event {
	return Event{
		Name: name,
		Params: Params{
			"page_location": page,
			"service":       optional(service),
			"session_id":    optional(c.Session),
			"utm_source":    optional(c.UTMSource),
			"utm_medium":    optional(c.UTMMedium),
			"utm_campaign":  optional(c.UTMCampaign),
			"gclid":         optional(c.GCLID),
		},
	}
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// PageActivity is a raw tracking beacon from the site script.
type PageActivity struct {
	Page       string
	Referrer   string
	Session    string
	City       string
	Zip        string
	Area       string
	ScrollPct  float64
	DurationMs float64
}

// TrackEvent builds the event forwarded for /api/track.
func TrackEvent(name string, a PageActivity) Event {
	p := Params{
		"page_location": a.Page,
		"page_referrer": a.Referrer,
		"session_id":    a.Session,
		"scroll_pct":    a.ScrollPct,
		"city":          a.City,
		"zip":           a.Zip,
		"area":          a.Area,
	}
	if a.DurationMs != 0 {
		p["engagement_time_msec"] = strconv.FormatFloat(a.DurationMs, 'f', -1, 64)
	}
	return Event{Name: name, Params: p}
}
