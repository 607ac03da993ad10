// Package notification reacts to lead events by emailing the site owner,
// sending the customer auto-reply and forwarding conversions to analytics.
// Every delivery is best-effort: failures are logged and counted, never
// returned to the request that published the event.
package notification

import (
	"context"

	"leadedge_backend/internal/analytics"
	"leadedge_backend/internal/email"
	"leadedge_backend/internal/events"
	"leadedge_backend/platform/besteffort"
	"leadedge_backend/platform/config"
	"leadedge_backend/platform/logger"
	"leadedge_backend/platform/phone"
)

// Beacon forwards events to the analytics collector.
type Beacon interface {
	Send(ctx context.Context, clientID string, events ...analytics.Event) error
}

// LeadQueue hands lead notifications to a background worker.
type LeadQueue interface {
	EnqueueLeadNotification(ctx context.Context, e events.LeadSubmitted) error
}

// Module handles the notification event subscriptions.
type Module struct {
	sender email.Sender
	beacon Beacon
	cfg    config.NotificationConfig
	log    *logger.Logger
	queue  LeadQueue
}

// New creates the notification module. beacon may be nil.
func New(sender email.Sender, beacon Beacon, cfg config.NotificationConfig, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{sender: sender, beacon: beacon, cfg: cfg, log: log}
}

// SetLeadQueue routes lead notifications through q instead of delivering
// them in the bus goroutine.
func (m *Module) SetLeadQueue(q LeadQueue) {
	m.queue = q
}

// RegisterHandlers subscribes the module to lead events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadSubmitted{}.EventName(), m)
	bus.Subscribe(events.EngagementRecorded{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadSubmitted:
		return m.handleLeadSubmitted(ctx, e)
	case events.EngagementRecorded:
		return m.handleEngagementRecorded(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleLeadSubmitted(ctx context.Context, e events.LeadSubmitted) error {
	if m.queue != nil {
		queued := besteffort.Do(ctx, m.log, "enqueue lead notification", func(ctx context.Context) error {
			return m.queue.EnqueueLeadNotification(ctx, e)
		})
		if queued {
			return nil
		}
	}
	return m.DeliverLeadNotifications(ctx, e)
}

// DeliverLeadNotifications sends the admin email, the auto-reply and the
// estimate conversion for one lead. It always returns nil; each failed step
// is recorded by besteffort.
func (m *Module) DeliverLeadNotifications(ctx context.Context, e events.LeadSubmitted) error {
	log := m.log.WithContext(ctx)
	site := m.cfg.GetSiteProfile()

	besteffort.Do(ctx, m.log, "admin lead email", func(ctx context.Context) error {
		return m.sender.SendAdminLeadEmail(ctx, m.cfg.GetAdminEmail(), email.LeadSummary{
			Name:      e.Name,
			Email:     e.Email,
			Phone:     phone.FormatDisplay(e.Phone),
			City:      e.City,
			Service:   e.Service,
			Message:   e.Message,
			Page:      e.Page,
			UTMSource: e.UTMSource,
			Session:   e.Session,
			IP:        e.IP,
			UserAgent: e.UserAgent,
		})
	})

	if e.Email != "" {
		besteffort.Do(ctx, m.log, "lead auto-reply email", func(ctx context.Context) error {
			return m.sender.SendAutoReplyEmail(ctx, e.Email, email.AutoReply{
				Name:     e.Name,
				SiteName: site.Name,
				Phone:    site.Phone,
			})
		})
	}

	if m.beacon != nil {
		besteffort.Do(ctx, m.log, "ga4 estimate", func(ctx context.Context) error {
			return m.beacon.Send(ctx, analytics.ClientID(e.Session), analytics.EstimateEvents(analytics.Estimate{
				Page:    e.Page,
				Service: e.Service,
				City:    e.City,
				Zip:     e.Zip,
				Source:  e.Source,
				Campaign: analytics.Campaign{
					Session:     e.Session,
					UTMSource:   e.UTMSource,
					UTMMedium:   e.UTMMedium,
					UTMCampaign: e.UTMCampaign,
					GCLID:       e.GCLID,
				},
			})...)
		})
	}

	log.Info("lead notifications processed", "leadId", e.LeadID, "autoReply", e.Email != "")
	return nil
}

func (m *Module) handleEngagementRecorded(ctx context.Context, e events.EngagementRecorded) error {
	if m.beacon == nil {
		return nil
	}
	besteffort.Do(ctx, m.log, "ga4 engagement", func(ctx context.Context) error {
		return m.beacon.Send(ctx, analytics.ClientID(e.Session), analytics.EngagementEvent(e.Type, e.Page, e.Service, analytics.Campaign{
			Session:     e.Session,
			UTMSource:   e.UTMSource,
			UTMMedium:   e.UTMMedium,
			UTMCampaign: e.UTMCampaign,
			GCLID:       e.GCLID,
		}))
	})
	return nil
}
