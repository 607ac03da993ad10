// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadedge_backend/platform/events"
	"leadedge_backend/platform/logger"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// InMemoryBus is the platform bus used by the composition root.
type InMemoryBus = events.InMemoryBus

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates the process-local event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadSubmitted is published after an estimate request has been stored.
// LeadID is zero when the leads table was unavailable.
type LeadSubmitted struct {
	BaseEvent
	LeadID      int64  `json:"leadId,omitempty"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone"`
	City        string `json:"city,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Service     string `json:"service,omitempty"`
	Message     string `json:"message,omitempty"`
	Page        string `json:"page"`
	Session     string `json:"session,omitempty"`
	Source      string `json:"source"`
	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`
	GCLID       string `json:"gclid,omitempty"`
	IP          string `json:"ip,omitempty"`
	UserAgent   string `json:"userAgent,omitempty"`
}

func (e LeadSubmitted) EventName() string { return "leads.lead.submitted" }

// EngagementRecorded is published after a form or call-click event has been
// stored, so the analytics beacon can be notified out of band.
type EngagementRecorded struct {
	BaseEvent
	Type        string `json:"type"`
	Page        string `json:"page"`
	Service     string `json:"service,omitempty"`
	Source      string `json:"source,omitempty"`
	City        string `json:"city,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Session     string `json:"session,omitempty"`
	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`
	GCLID       string `json:"gclid,omitempty"`
}

func (e EngagementRecorded) EventName() string { return "leads.engagement.recorded" }
