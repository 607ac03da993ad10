package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"leadedge_backend/internal/analytics"
	"leadedge_backend/internal/events"
	"leadedge_backend/internal/leads/intake"
	"leadedge_backend/internal/leads/repository"
	"leadedge_backend/platform/apperr"
	"leadedge_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgconn"
)

var errUndefinedTable = &pgconn.PgError{Code: "42P01", Message: `relation "leads" does not exist`}

type fakeStore struct {
	leadErr      error
	eventErr     error
	getLeadErr   error
	getEventErr  error
	listLeadsErr error
	countErr     error

	leads        []intake.EstimateSubmission
	events       []intake.EventSubmission
	lead         repository.Lead
	event        repository.Event
	typeCounts   []repository.TypeCount
	leadCount    int64
	eventsOfType int64
	listedEvents bool
}

func (f *fakeStore) InsertLead(_ context.Context, s intake.EstimateSubmission) (int64, error) {
	if f.leadErr != nil {
		return 0, f.leadErr
	}
	f.leads = append(f.leads, s)
	return int64(len(f.leads)), nil
}

func (f *fakeStore) InsertLeadEvent(_ context.Context, e intake.EventSubmission) (int64, error) {
	if f.eventErr != nil {
		return 0, f.eventErr
	}
	f.events = append(f.events, e)
	return int64(len(f.events)), nil
}

func (f *fakeStore) GetLead(context.Context, int64) (repository.Lead, error) {
	return f.lead, f.getLeadErr
}

func (f *fakeStore) GetLeadEvent(context.Context, int64) (repository.Event, error) {
	return f.event, f.getEventErr
}

func (f *fakeStore) ListLeads(context.Context, repository.LeadFilter) ([]repository.Lead, error) {
	if f.listLeadsErr != nil {
		return nil, f.listLeadsErr
	}
	return []repository.Lead{f.lead}, nil
}

func (f *fakeStore) ListLeadEvents(context.Context, repository.LeadFilter) ([]repository.Event, error) {
	f.listedEvents = true
	return []repository.Event{f.event}, nil
}

func (f *fakeStore) CountEventsByType(context.Context, time.Time) ([]repository.TypeCount, error) {
	return f.typeCounts, nil
}

func (f *fakeStore) CountLeads(context.Context, time.Time) (int64, error) {
	return f.leadCount, f.countErr
}

func (f *fakeStore) CountEventsOfType(context.Context, string, time.Time) (int64, error) {
	return f.eventsOfType, nil
}

type fakeSink struct {
	err   error
	calls int
}

func (f *fakeSink) MirrorLeadEvent(context.Context, intake.EventSubmission) error {
	f.calls++
	return f.err
}

type fakeBeacon struct {
	err    error
	events []analytics.Event
}

func (f *fakeBeacon) Send(_ context.Context, _ string, evs ...analytics.Event) error {
	f.events = append(f.events, evs...)
	return f.err
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newTestService(store *fakeStore, beacon Beacon) (*Service, *recordingBus) {
	bus := &recordingBus{}
	svc := New(store, bus, beacon, logger.NewDiscard())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC) }
	return svc, bus
}

func estimateBody() intake.Body {
	return intake.Body{"name": "Jane Doe", "phone": "(251) 555-0100", "email": "jane@example.com", "service": "interior"}
}

func TestSubmitEstimate_StoresLeadAndEvent(t *testing.T) {
	store := &fakeStore{}
	svc, bus := newTestService(store, nil)

	res, err := svc.SubmitEstimate(context.Background(), estimateBody(), RequestMeta{IP: "1.2.3.4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.LeadID != 1 {
		t.Fatalf("expected lead id 1, got %d", res.LeadID)
	}
	if len(store.leads) != 1 || store.leads[0].Phone != "2515550100" {
		t.Fatalf("expected normalized lead row, got %+v", store.leads)
	}
	if len(store.events) != 1 || store.events[0].Type != intake.TypeLeadSubmitted {
		t.Fatalf("expected LeadSubmitted event row, got %+v", store.events)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	ev, ok := bus.published[0].(events.LeadSubmitted)
	if !ok || ev.LeadID != 1 || ev.IP != "1.2.3.4" {
		t.Fatalf("unexpected published event %+v", bus.published[0])
	}
}

func TestSubmitEstimate_HoneypotWritesNothing(t *testing.T) {
	store := &fakeStore{}
	svc, bus := newTestService(store, nil)

	body := estimateBody()
	body["company"] = "Spam LLC"

	res, err := svc.SubmitEstimate(context.Background(), body, RequestMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.LeadID != 0 {
		t.Fatalf("expected no lead id, got %d", res.LeadID)
	}
	if len(store.leads) != 0 || len(store.events) != 0 || len(bus.published) != 0 {
		t.Fatalf("expected no writes, got leads=%d events=%d published=%d", len(store.leads), len(store.events), len(bus.published))
	}
}

func TestSubmitEstimate_MissingLeadsTableIsTolerated(t *testing.T) {
	store := &fakeStore{leadErr: errUndefinedTable}
	svc, _ := newTestService(store, nil)

	res, err := svc.SubmitEstimate(context.Background(), estimateBody(), RequestMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.LeadID != 0 {
		t.Fatalf("expected no lead id, got %d", res.LeadID)
	}
	if len(store.events) != 1 {
		t.Fatalf("expected event row to be written, got %d", len(store.events))
	}
}

func TestSubmitEstimate_LeadInsertFailure(t *testing.T) {
	store := &fakeStore{leadErr: errors.New("connection reset")}
	svc, _ := newTestService(store, nil)

	_, err := svc.SubmitEstimate(context.Background(), estimateBody(), RequestMeta{})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if err.Error() != msgPersistence {
		t.Fatalf("expected %q, got %q", msgPersistence, err.Error())
	}
}

func TestSubmitEstimate_EventInsertFailure(t *testing.T) {
	store := &fakeStore{eventErr: errors.New("disk full")}
	svc, bus := newTestService(store, nil)

	_, err := svc.SubmitEstimate(context.Background(), estimateBody(), RequestMeta{})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(bus.published) != 0 {
		t.Fatalf("expected nothing published, got %d", len(bus.published))
	}
}

func TestSubmitEstimate_ValidationErrors(t *testing.T) {
	svc, _ := newTestService(&fakeStore{}, nil)

	_, err := svc.SubmitEstimate(context.Background(), intake.Body{"name": "", "phone": ""}, RequestMeta{})
	if !errors.Is(err, intake.ErrMissingRequiredFields) {
		t.Fatalf("expected missing fields error, got %v", err)
	}

	_, err = svc.SubmitEstimate(context.Background(), intake.Body{"name": "A", "phone": "12"}, RequestMeta{})
	if !errors.Is(err, intake.ErrInvalidPhone) {
		t.Fatalf("expected invalid phone error, got %v", err)
	}
}

func TestSubmitEstimate_MirrorFailureDoesNotFail(t *testing.T) {
	store := &fakeStore{}
	sink := &fakeSink{err: errors.New("mirror down")}
	svc, _ := newTestService(store, nil)
	svc.SetEventSink(sink)

	if _, err := svc.SubmitEstimate(context.Background(), estimateBody(), RequestMeta{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.calls != 1 {
		t.Fatalf("expected 1 mirror call, got %d", sink.calls)
	}
}

func TestRecordEvent_CallPublishesEngagement(t *testing.T) {
	store := &fakeStore{}
	svc, bus := newTestService(store, nil)

	err := svc.RecordEvent(context.Background(), intake.Body{"page": "/services", "session": "s1"}, intake.KindCall)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.events[0].Type != intake.TypeCallClicked {
		t.Fatalf("expected CallClicked, got %q", store.events[0].Type)
	}
	ev, ok := bus.published[0].(events.EngagementRecorded)
	if !ok || ev.Type != intake.TypeCallClicked || ev.Session != "s1" {
		t.Fatalf("unexpected published event %+v", bus.published[0])
	}
}

func TestRecordEvent_DBError(t *testing.T) {
	svc, _ := newTestService(&fakeStore{eventErr: errors.New("boom")}, nil)

	err := svc.RecordEvent(context.Background(), intake.Body{}, intake.KindForm)
	if err == nil || err.Error() != msgDBError {
		t.Fatalf("expected %q, got %v", msgDBError, err)
	}
}

func TestTrack_ServerTimeDerivesDayAndHour(t *testing.T) {
	store := &fakeStore{}
	svc, _ := newTestService(store, nil)

	if err := svc.Track(context.Background(), intake.Body{"type": "click_call", "page": "/services"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ev := store.events[0]
	if ev.Type != intake.TypeCallClicked || ev.Day() != "2024-05-01" || ev.Hour() != "14" {
		t.Fatalf("unexpected event %+v day=%s hour=%s", ev, ev.Day(), ev.Hour())
	}
}

func TestTrack_UpstreamRejection(t *testing.T) {
	store := &fakeStore{}
	beacon := &fakeBeacon{err: &analytics.UpstreamError{Status: 400, Body: "bad"}}
	svc, _ := newTestService(store, beacon)

	err := svc.Track(context.Background(), intake.Body{"type": "PageView"})
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "GA4 error: 400") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if len(store.events) != 1 {
		t.Fatalf("expected the event to be stored first, got %d", len(store.events))
	}
}

func TestTrack_TransportErrorSwallowed(t *testing.T) {
	beacon := &fakeBeacon{err: errors.New("dial tcp: timeout")}
	svc, _ := newTestService(&fakeStore{}, beacon)

	if err := svc.Track(context.Background(), intake.Body{"type": "PageView", "duration_ms": 1200.0}); err != nil {
		t.Fatalf("expected transport error to be swallowed, got %v", err)
	}
	if len(beacon.events) != 1 || beacon.events[0].Name != "PageView" {
		t.Fatalf("unexpected forwarded events %+v", beacon.events)
	}
}

func TestTrack_DBError(t *testing.T) {
	svc, _ := newTestService(&fakeStore{eventErr: errors.New("boom")}, nil)

	err := svc.Track(context.Background(), intake.Body{"type": "PageView"})
	if err == nil || err.Error() != msgPersistence {
		t.Fatalf("expected %q, got %v", msgPersistence, err)
	}
}

func TestStats_FallsBackToEventCount(t *testing.T) {
	store := &fakeStore{
		countErr:     errUndefinedTable,
		eventsOfType: 7,
		typeCounts:   []repository.TypeCount{{Type: "PageView", Count: 12}},
	}
	svc, _ := newTestService(store, nil)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalLeads != 7 {
		t.Fatalf("expected 7 leads, got %d", stats.TotalLeads)
	}
	if len(stats.EventCounts) != 1 || stats.EventCounts[0].Count != 12 {
		t.Fatalf("unexpected counts %+v", stats.EventCounts)
	}
}

func TestStats_ReadFailure(t *testing.T) {
	svc, _ := newTestService(&fakeStore{countErr: errors.New("boom")}, nil)

	if _, err := svc.Stats(context.Background()); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestList_FallsBackToEvents(t *testing.T) {
	store := &fakeStore{listLeadsErr: errUndefinedTable, event: repository.Event{ID: 9}}
	svc, _ := newTestService(store, nil)

	list, err := svc.List(context.Background(), repository.LeadFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.listedEvents {
		t.Fatalf("expected lead_events fallback")
	}
	items, ok := list.Items().([]repository.Event)
	if !ok || len(items) != 1 || items[0].ID != 9 {
		t.Fatalf("unexpected items %+v", list.Items())
	}
}

func TestGet_FallsBackToEventRow(t *testing.T) {
	store := &fakeStore{getLeadErr: repository.ErrNotFound, event: repository.Event{ID: 5, Type: "CallClicked"}}
	svc, _ := newTestService(store, nil)

	rec, err := svc.Get(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Event == nil || rec.Event.ID != 5 {
		t.Fatalf("expected event record, got %+v", rec)
	}
}

func TestGet_NotFound(t *testing.T) {
	store := &fakeStore{getLeadErr: repository.ErrNotFound, getEventErr: repository.ErrNotFound}
	svc, _ := newTestService(store, nil)

	_, err := svc.Get(context.Background(), 5)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
