// Package service records leads and site events and answers the read
// endpoints over them.
package service

import (
	"context"
	"errors"
	"time"

	"leadedge_backend/internal/analytics"
	"leadedge_backend/internal/events"
	"leadedge_backend/internal/leads/intake"
	"leadedge_backend/internal/leads/repository"
	"leadedge_backend/platform/apperr"
	"leadedge_backend/platform/besteffort"
	"leadedge_backend/platform/db"
	"leadedge_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

const statsWindow = 30 * 24 * time.Hour

const (
	msgPersistence = "Database operation failed."
	msgDBError     = "db error"
	msgNotFound    = "not found"
)

// Store is the primary storage for leads and lead_events.
type Store interface {
	InsertLead(ctx context.Context, s intake.EstimateSubmission) (int64, error)
	InsertLeadEvent(ctx context.Context, e intake.EventSubmission) (int64, error)
	GetLead(ctx context.Context, id int64) (repository.Lead, error)
	GetLeadEvent(ctx context.Context, id int64) (repository.Event, error)
	ListLeads(ctx context.Context, f repository.LeadFilter) ([]repository.Lead, error)
	ListLeadEvents(ctx context.Context, f repository.LeadFilter) ([]repository.Event, error)
	CountEventsByType(ctx context.Context, since time.Time) ([]repository.TypeCount, error)
	CountLeads(ctx context.Context, since time.Time) (int64, error)
	CountEventsOfType(ctx context.Context, eventType string, since time.Time) (int64, error)
}

// EventSink receives a best-effort copy of every lead_events row.
type EventSink interface {
	MirrorLeadEvent(ctx context.Context, e intake.EventSubmission) error
}

// Beacon forwards events to the analytics collector.
type Beacon interface {
	Send(ctx context.Context, clientID string, events ...analytics.Event) error
}

// RequestMeta describes the HTTP client behind a submission.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// EstimateResult is the outcome of SubmitEstimate. LeadID is zero when no
// lead row was written.
type EstimateResult struct {
	LeadID int64
}

// Stats is the trailing-window rollup.
type Stats struct {
	EventCounts []repository.TypeCount
	TotalLeads  int64
}

// LeadList holds either lead rows or, when the leads table is missing,
// LeadSubmitted event rows.
type LeadList struct {
	Leads  []repository.Lead
	Events []repository.Event
}

// Items returns whichever row set was read.
func (l LeadList) Items() any {
	if l.Events != nil {
		return l.Events
	}
	if l.Leads == nil {
		return []repository.Lead{}
	}
	return l.Leads
}

// LeadRecord is a single lead, or the lead_events row with the same id.
type LeadRecord struct {
	Lead  *repository.Lead
	Event *repository.Event
}

// Value returns the populated record.
func (r LeadRecord) Value() any {
	if r.Lead != nil {
		return r.Lead
	}
	return r.Event
}

// Service implements the lead capture and read operations.
type Service struct {
	store    Store
	sink     EventSink
	beacon   Beacon
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates a lead service. beacon may be nil.
func New(store Store, eventBus events.Bus, beacon Beacon, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		beacon:   beacon,
		eventBus: eventBus,
		log:      log,
		now:      time.Now,
	}
}

// SetEventSink attaches a mirror store.
func (s *Service) SetEventSink(sink EventSink) {
	s.sink = sink
}

// SubmitEstimate stores a contact-form lead. A missing leads table is
// tolerated; the lead_events write decides success.
func (s *Service) SubmitEstimate(ctx context.Context, body intake.Body, meta RequestMeta) (EstimateResult, error) {
	sub, err := intake.NormalizeEstimate(body)
	if errors.Is(err, intake.ErrHoneypot) {
		s.log.WithContext(ctx).Info("honeypot submission discarded", "ip", meta.IP)
		return EstimateResult{}, nil
	}
	if err != nil {
		return EstimateResult{}, err
	}

	leadID, err := s.store.InsertLead(ctx, sub)
	if err != nil {
		if !db.IsUndefinedTable(err) {
			s.log.DatabaseError("insert lead", err)
			return EstimateResult{}, apperr.Wrap(apperr.KindInternal, msgPersistence, err)
		}
		s.log.WithContext(ctx).Warn("leads table missing, recording event only")
	}

	event := sub.LeadEvent(s.now())
	if _, err := s.store.InsertLeadEvent(ctx, event); err != nil {
		s.log.DatabaseError("insert lead event", err)
		return EstimateResult{}, apperr.Wrap(apperr.KindInternal, msgPersistence, err)
	}
	s.mirror(ctx, event)

	s.eventBus.Publish(ctx, events.LeadSubmitted{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      leadID,
		Name:        sub.Name,
		Email:       sub.Email,
		Phone:       sub.Phone,
		City:        sub.City,
		Zip:         sub.Zip,
		Service:     sub.Service,
		Message:     sub.Message,
		Page:        sub.Page,
		Session:     sub.Session,
		Source:      sub.Source,
		UTMSource:   sub.UTMSource,
		UTMMedium:   sub.UTMMedium,
		UTMCampaign: sub.UTMCampaign,
		GCLID:       sub.GCLID,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
	})

	return EstimateResult{LeadID: leadID}, nil
}

// RecordEvent stores a form submit or call click and schedules the beacon
// forward in the background.
func (s *Service) RecordEvent(ctx context.Context, body intake.Body, kind intake.EventKind) error {
	event := intake.NormalizeEvent(body, kind, s.now())
	if _, err := s.store.InsertLeadEvent(ctx, event); err != nil {
		s.log.DatabaseError("insert lead event", err)
		return apperr.Wrap(apperr.KindInternal, msgDBError, err)
	}
	s.mirror(ctx, event)

	s.eventBus.Publish(ctx, events.EngagementRecorded{
		BaseEvent:   events.NewBaseEvent(),
		Type:        event.Type,
		Page:        event.Page,
		Service:     event.Service,
		Source:      event.Source,
		City:        event.City,
		Zip:         event.Zip,
		Session:     event.Session,
		UTMSource:   event.UTMSource,
		UTMMedium:   event.UTMMedium,
		UTMCampaign: event.UTMCampaign,
		GCLID:       event.GCLID,
	})
	return nil
}

// Track stores a tracking beacon and forwards it to analytics before
// returning. A rejected forward is reported after the row is stored.
func (s *Service) Track(ctx context.Context, body intake.Body) error {
	event := intake.NormalizeEvent(body, intake.KindTrack, s.now())
	if _, err := s.store.InsertLeadEvent(ctx, event); err != nil {
		s.log.DatabaseError("insert lead event", err)
		return apperr.Wrap(apperr.KindInternal, msgPersistence, err)
	}
	s.mirror(ctx, event)

	if s.beacon == nil {
		return nil
	}

	err := s.beacon.Send(ctx, analytics.ClientID(event.Session), analytics.TrackEvent(event.Type, analytics.PageActivity{
		Page:       event.Page,
		Referrer:   event.Referrer,
		Session:    event.Session,
		City:       event.City,
		Zip:        event.Zip,
		Area:       event.Area,
		ScrollPct:  event.ScrollPct,
		DurationMs: event.DurationMs,
	}))

	var upstream *analytics.UpstreamError
	if errors.As(err, &upstream) {
		return apperr.Upstream(upstream.Error(), err)
	}
	if err != nil {
		s.log.WithContext(ctx).BestEffortFailure("ga4 track", err)
	}
	return nil
}

// Stats counts events by type and leads over the last 30 days.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	since := s.now().Add(-statsWindow)

	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.store.CountEventsByType(gctx, since)
		if err != nil {
			return err
		}
		stats.EventCounts = counts
		return nil
	})

	g.Go(func() error {
		total, err := s.store.CountLeads(gctx, since)
		if db.IsUndefinedTable(err) {
			total, err = s.store.CountEventsOfType(gctx, intake.TypeLeadSubmitted, since)
		}
		if err != nil {
			return err
		}
		stats.TotalLeads = total
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.DatabaseError("stats", err)
		return Stats{}, apperr.Wrap(apperr.KindInternal, msgDBError, err)
	}
	return stats, nil
}

// List returns leads matching f, falling back to LeadSubmitted events when
// the leads table does not exist.
func (s *Service) List(ctx context.Context, f repository.LeadFilter) (LeadList, error) {
	leads, err := s.store.ListLeads(ctx, f)
	if err == nil {
		return LeadList{Leads: leads}, nil
	}
	if !db.IsUndefinedTable(err) {
		s.log.DatabaseError("list leads", err)
		return LeadList{}, apperr.Wrap(apperr.KindInternal, msgDBError, err)
	}

	evts, err := s.store.ListLeadEvents(ctx, f)
	if err != nil {
		s.log.DatabaseError("list lead events", err)
		return LeadList{}, apperr.Wrap(apperr.KindInternal, msgDBError, err)
	}
	if evts == nil {
		evts = []repository.Event{}
	}
	return LeadList{Events: evts}, nil
}

// Get fetches a lead by id, then the lead_events row with that id.
func (s *Service) Get(ctx context.Context, id int64) (LeadRecord, error) {
	lead, err := s.store.GetLead(ctx, id)
	if err == nil {
		return LeadRecord{Lead: &lead}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) && !db.IsUndefinedTable(err) {
		s.log.DatabaseError("get lead", err)
		return LeadRecord{}, apperr.Wrap(apperr.KindInternal, msgDBError, err)
	}

	event, err := s.store.GetLeadEvent(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || db.IsUndefinedTable(err) {
		return LeadRecord{}, apperr.NotFound(msgNotFound)
	}
	if err != nil {
		s.log.DatabaseError("get lead event", err)
		return LeadRecord{}, apperr.Wrap(apperr.KindInternal, msgDBError, err)
	}
	return LeadRecord{Event: &event}, nil
}

func (s *Service) mirror(ctx context.Context, e intake.EventSubmission) {
	if s.sink == nil {
		return
	}
	besteffort.Do(ctx, s.log, "mirror lead event", func(ctx context.Context) error {
		return s.sink.MirrorLeadEvent(ctx, e)
	})
}
