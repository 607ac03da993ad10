// Package transport holds the request and response shapes of the lead
// endpoints.
package transport

import (
	"unicode/utf8"

	"leadedge_backend/internal/leads/repository"
)

// EstimateResponse answers POST /api/estimate. LeadID is omitted when no
// lead row was written.
type EstimateResponse struct {
	OK       bool   `json:"ok"`
	Success  bool   `json:"success"`
	LeadID   string `json:"lead_id,omitempty"`
	Redirect string `json:"redirect"`
}

// OKResponse is the bare acknowledgement for event writes.
type OKResponse struct {
	OK bool `json:"ok"`
}

// StatsResponse answers GET /api/stats.
type StatsResponse struct {
	OK          bool                   `json:"ok"`
	EventCounts []repository.TypeCount `json:"event_counts"`
	TotalLeads  int64                  `json:"total_leads"`
}

const (
	maxSearchLen = 200
	maxFacetLen  = 120
)

// ListLeadsRequest is the query string of GET /api/leads. Limit and offset
// stay raw so the repository can apply its truncate-and-clamp rules.
type ListLeadsRequest struct {
	Q      string `form:"q"`
	Source string `form:"source"`
	City   string `form:"city"`
	Limit  string `form:"limit"`
	Offset string `form:"offset"`
}

// Filter converts the request to a repository filter. Oversized text filters
// are cut rather than rejected.
func (r ListLeadsRequest) Filter() repository.LeadFilter {
	return repository.LeadFilter{
		Q:      truncate(r.Q, maxSearchLen),
		Source: truncate(r.Source, maxFacetLen),
		City:   truncate(r.City, maxFacetLen),
		Limit:  r.Limit,
		Offset: r.Offset,
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// LeadListResponse answers GET /api/leads.
type LeadListResponse struct {
	OK    bool `json:"ok"`
	Items any  `json:"items"`
}

// LeadIDParam is the path of GET /api/lead/:id.
type LeadIDParam struct {
	ID string `uri:"id" validate:"required,numeric"`
}

// LeadResponse answers GET /api/lead/:id.
type LeadResponse struct {
	OK   bool `json:"ok"`
	Lead any  `json:"lead"`
}

// NotFoundResponse is the 404 body of the lead lookup.
type NotFoundResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
