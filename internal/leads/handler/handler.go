package handler

import (
	"context"
	"net/http"
	"strconv"

	"leadedge_backend/internal/leads/intake"
	"leadedge_backend/internal/leads/repository"
	"leadedge_backend/internal/leads/service"
	"leadedge_backend/internal/leads/transport"
	"leadedge_backend/platform/apperr"
	"leadedge_backend/platform/httpkit"
	"leadedge_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const headerCFConnectingIP = "CF-Connecting-IP"

// LeadService is the behavior the handler needs from the lead service.
type LeadService interface {
	SubmitEstimate(ctx context.Context, body intake.Body, meta service.RequestMeta) (service.EstimateResult, error)
	RecordEvent(ctx context.Context, body intake.Body, kind intake.EventKind) error
	Track(ctx context.Context, body intake.Body) error
	Stats(ctx context.Context) (service.Stats, error)
	List(ctx context.Context, f repository.LeadFilter) (service.LeadList, error)
	Get(ctx context.Context, id int64) (service.LeadRecord, error)
}

// Handler serves the lead capture and lead read endpoints.
type Handler struct {
	svc         LeadService
	val         *validator.Validator
	thankYouURL string
}

// New creates a lead handler. thankYouURL is returned as the estimate redirect.
func New(svc LeadService, val *validator.Validator, thankYouURL string) *Handler {
	return &Handler{svc: svc, val: val, thankYouURL: thankYouURL}
}

// RegisterRoutes mounts the lead routes on the /api group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/estimate", h.SubmitEstimate)
	rg.POST("/form", h.SubmitForm)
	rg.POST("/call", h.RecordCall)
	rg.POST("/track", h.Track)
	rg.POST("/event", h.Track)
	rg.GET("/stats", h.Stats)
	rg.GET("/leads", h.List)
	rg.GET("/lead/:id", h.Get)
}

func (h *Handler) SubmitEstimate(c *gin.Context) {
	body, err := intake.Decode(c.Request.Body)
	if httpkit.HandleError(c, err) {
		return
	}

	res, err := h.svc.SubmitEstimate(c.Request.Context(), body, service.RequestMeta{
		IP:        clientIP(c),
		UserAgent: c.Request.UserAgent(),
	})
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.EstimateResponse{OK: true, Success: true, Redirect: h.thankYouURL}
	if res.LeadID != 0 {
		resp.LeadID = strconv.FormatInt(res.LeadID, 10)
	}
	httpkit.OK(c, resp)
}

func (h *Handler) SubmitForm(c *gin.Context) {
	h.recordEvent(c, intake.KindForm)
}

func (h *Handler) RecordCall(c *gin.Context) {
	h.recordEvent(c, intake.KindCall)
}

func (h *Handler) recordEvent(c *gin.Context, kind intake.EventKind) {
	body, err := intake.Decode(c.Request.Body)
	if httpkit.HandleError(c, err) {
		return
	}
	if httpkit.HandleError(c, h.svc.RecordEvent(c.Request.Context(), body, kind)) {
		return
	}
	httpkit.OK(c, transport.OKResponse{OK: true})
}

func (h *Handler) Track(c *gin.Context) {
	body, err := intake.Decode(c.Request.Body)
	if httpkit.HandleError(c, err) {
		return
	}
	if httpkit.HandleError(c, h.svc.Track(c.Request.Context(), body)) {
		return
	}
	httpkit.OK(c, transport.OKResponse{OK: true})
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	counts := stats.EventCounts
	if counts == nil {
		counts = []repository.TypeCount{}
	}
	httpkit.OK(c, transport.StatsResponse{OK: true, EventCounts: counts, TotalLeads: stats.TotalLeads})
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query", nil)
		return
	}

	list, err := h.svc.List(c.Request.Context(), req.Filter())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadListResponse{OK: true, Items: list.Items()})
}

func (h *Handler) Get(c *gin.Context) {
	var req transport.LeadIDParam
	if err := c.ShouldBindUri(&req); err != nil {
		notFound(c)
		return
	}
	if err := h.val.Struct(req); err != nil {
		notFound(c)
		return
	}
	id, err := strconv.ParseInt(req.ID, 10, 64)
	if err != nil {
		notFound(c)
		return
	}

	rec, err := h.svc.Get(c.Request.Context(), id)
	if apperr.Is(err, apperr.KindNotFound) {
		notFound(c)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadResponse{OK: true, Lead: rec.Value()})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, transport.NotFoundResponse{OK: false, Error: "not found"})
}

func clientIP(c *gin.Context) string {
	if ip := c.GetHeader(headerCFConnectingIP); ip != "" {
		return ip
	}
	return c.ClientIP()
}
