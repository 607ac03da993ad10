package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"leadedge_backend/platform/apperr"
	"leadedge_backend/platform/httpkit"
	"leadedge_backend/platform/logger"
	"leadedge_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message looseString `json:"message"`
	Session string      `json:"session" validate:"max=200"`
	Page    string      `json:"page" validate:"max=2048"`
}

// looseString accepts a JSON string, number or boolean. Numbers keep their
// literal text; zero, false and null decode to "".
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*s = ""
		return nil
	case bytes.Equal(data, []byte("true")):
		*s = "true"
		return nil
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if f, err := strconv.ParseFloat(n.String(), 64); err == nil && f == 0 {
		*s = ""
		return nil
	}
	*s = looseString(n.String())
	return nil
}

// ChatResponse answers POST /api/chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// HistoryRequest is the query of GET /api/chat/history.
type HistoryRequest struct {
	Session string `form:"session" validate:"required"`
	Limit   string `form:"limit"`
}

// HistoryResponse answers GET /api/chat/history.
type HistoryResponse struct {
	OK    bool       `json:"ok"`
	Items []LogEntry `json:"items"`
}

// Handler serves the chat endpoints.
type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.Chat)
	rg.GET("/chat/history", h.History)
}

func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body").WithDetails(validator.FirstFailure(err)))
		return
	}

	ctx := withSession(c.Request.Context(), req.Session)
	reply, err := h.svc.Reply(ctx, Request{
		Message:   string(req.Message),
		Session:   req.Session,
		Page:      req.Page,
		UserAgent: c.Request.UserAgent(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, ChatResponse{Reply: reply})
}

func (h *Handler) History(c *gin.Context) {
	var req HistoryRequest
	_ = c.ShouldBindQuery(&req)
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, ErrMissingSession)
		return
	}

	items, err := h.svc.History(withSession(c.Request.Context(), req.Session), req.Session, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, HistoryResponse{OK: true, Items: items})
}

// withSession tags ctx so log lines written for this request carry the
// visitor session.
func withSession(ctx context.Context, session string) context.Context {
	if session == "" {
		return ctx
	}
	return context.WithValue(ctx, logger.SessionKey, session)
}
