package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"leadedge_backend/internal/leads/intake"
	"leadedge_backend/internal/leads/repository"
	"leadedge_backend/internal/leads/service"
	"leadedge_backend/platform/apperr"
	"leadedge_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLeadService struct {
	estimate    service.EstimateResult
	estimateErr error
	eventErr    error
	trackErr    error
	list        service.LeadList
	record      service.LeadRecord
	getErr      error

	lastBody   intake.Body
	lastKind   intake.EventKind
	lastMeta   service.RequestMeta
	lastFilter repository.LeadFilter
	lastID     int64
}

func (f *fakeLeadService) SubmitEstimate(_ context.Context, body intake.Body, meta service.RequestMeta) (service.EstimateResult, error) {
	f.lastBody = body
	f.lastMeta = meta
	return f.estimate, f.estimateErr
}

func (f *fakeLeadService) RecordEvent(_ context.Context, body intake.Body, kind intake.EventKind) error {
	f.lastBody = body
	f.lastKind = kind
	return f.eventErr
}

func (f *fakeLeadService) Track(_ context.Context, body intake.Body) error {
	f.lastBody = body
	return f.trackErr
}

func (f *fakeLeadService) Stats(context.Context) (service.Stats, error) {
	return service.Stats{TotalLeads: 3}, nil
}

func (f *fakeLeadService) List(_ context.Context, filter repository.LeadFilter) (service.LeadList, error) {
	f.lastFilter = filter
	return f.list, nil
}

func (f *fakeLeadService) Get(_ context.Context, id int64) (service.LeadRecord, error) {
	f.lastID = id
	return f.record, f.getErr
}

func setupRouter(svc LeadService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(svc, validator.New(), "/thank-you").RegisterRoutes(r.Group("/api"))
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSubmitEstimate_ReturnsLeadID(t *testing.T) {
	svc := &fakeLeadService{estimate: service.EstimateResult{LeadID: 42}}
	r := setupRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(`{"name":"Jane","phone":"2515550100"}`))
	req.Header.Set(headerCFConnectingIP, "203.0.113.9")
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "42", body["lead_id"])
	assert.Equal(t, "/thank-you", body["redirect"])
	assert.Equal(t, "203.0.113.9", svc.lastMeta.IP)
	assert.Equal(t, "test-agent", svc.lastMeta.UserAgent)
}

func TestSubmitEstimate_OmitsLeadIDWhenAbsent(t *testing.T) {
	r := setupRouter(&fakeLeadService{})

	w := do(r, http.MethodPost, "/api/estimate", `{"company":"bot"}`)

	require.Equal(t, http.StatusOK, w.Code)
	_, ok := decode(t, w)["lead_id"]
	assert.False(t, ok)
}

func TestSubmitEstimate_ValidationError(t *testing.T) {
	r := setupRouter(&fakeLeadService{estimateErr: intake.ErrMissingRequiredFields})

	w := do(r, http.MethodPost, "/api/estimate", `{"name":"","phone":""}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name and phone are required.", decode(t, w)["error"])
}

func TestSubmitEstimate_MalformedBody(t *testing.T) {
	r := setupRouter(&fakeLeadService{})

	w := do(r, http.MethodPost, "/api/estimate", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", decode(t, w)["error"])
}

func TestRecordCall_UsesCallKind(t *testing.T) {
	svc := &fakeLeadService{}
	r := setupRouter(svc)

	w := do(r, http.MethodPost, "/api/call", `{"page":"/services"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, intake.KindCall, svc.lastKind)
	assert.Equal(t, "/services", svc.lastBody.String("page"))
}

func TestSubmitForm_DBError(t *testing.T) {
	r := setupRouter(&fakeLeadService{eventErr: apperr.Internal("db error")})

	w := do(r, http.MethodPost, "/api/form", `{}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "db error", decode(t, w)["error"])
}

func TestTrack_EventAliasAndUpstreamError(t *testing.T) {
	r := setupRouter(&fakeLeadService{trackErr: apperr.Upstream("GA4 error: 400 bad", nil)})

	w := do(r, http.MethodPost, "/api/event", `{"type":"PageView"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "GA4 error: 400 bad", decode(t, w)["error"])
}

func TestTrack_EmptyBodyAccepted(t *testing.T) {
	r := setupRouter(&fakeLeadService{})

	w := do(r, http.MethodPost, "/api/track", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["ok"])
}

func TestStats_EmptyCountsIsArray(t *testing.T) {
	r := setupRouter(&fakeLeadService{})

	w := do(r, http.MethodGet, "/api/stats", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{}, body["event_counts"])
	assert.Equal(t, float64(3), body["total_leads"])
}

func TestList_PassesFilters(t *testing.T) {
	svc := &fakeLeadService{list: service.LeadList{Leads: []repository.Lead{{ID: 2, Source: "google"}}}}
	r := setupRouter(svc)

	w := do(r, http.MethodGet, "/api/leads?source=google&limit=5", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "google", svc.lastFilter.Source)
	assert.Equal(t, "5", svc.lastFilter.Limit)
	items, ok := decode(t, w)["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestList_OversizedFiltersAreTruncated(t *testing.T) {
	svc := &fakeLeadService{}
	r := setupRouter(svc)

	q := strings.Repeat("a", 250)
	source := strings.Repeat("é", 130)
	w := do(r, http.MethodGet, "/api/leads?q="+q+"&source="+url.QueryEscape(source), "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, strings.Repeat("a", 200), svc.lastFilter.Q)
	assert.Equal(t, strings.Repeat("é", 120), svc.lastFilter.Source)
}

func TestGet_NonNumericIDIsNotFound(t *testing.T) {
	r := setupRouter(&fakeLeadService{})

	w := do(r, http.MethodGet, "/api/lead/abc", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "not found", body["error"])
}

func TestGet_ReturnsLead(t *testing.T) {
	svc := &fakeLeadService{record: service.LeadRecord{Lead: &repository.Lead{ID: 7, Phone: "2515550100"}}}
	r := setupRouter(svc)

	w := do(r, http.MethodGet, "/api/lead/7", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), svc.lastID)
	lead, ok := decode(t, w)["lead"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2515550100", lead["phone"])
}

func TestGet_MissingRowIsNotFound(t *testing.T) {
	r := setupRouter(&fakeLeadService{getErr: apperr.NotFound("not found")})

	w := do(r, http.MethodGet, "/api/lead/9", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, decode(t, w)["ok"])
}
