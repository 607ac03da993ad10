// Package chat relays site-chat questions to an AI completion provider and
// keeps a log of answered exchanges.
package chat

import (
	"context"
	"errors"

	"leadedge_backend/platform/ai/gemini"
	"leadedge_backend/platform/ai/openai"
	"leadedge_backend/platform/apperr"
	"leadedge_backend/platform/besteffort"
	"leadedge_backend/platform/config"
	"leadedge_backend/platform/httpkit"
	"leadedge_backend/platform/logger"
)

const (
	maxMessageRunes     = 8000
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

var (
	ErrMissingMessage = apperr.Validation("message required")
	ErrMissingSession = apperr.Validation("session required")
	ErrNoProvider     = apperr.Internal("No AI provider configured")
)

// LogStore persists chat exchanges.
type LogStore interface {
	InsertLog(ctx context.Context, e NewLogEntry) error
	History(ctx context.Context, session string, limit int) ([]LogEntry, error)
}

// Request is one inbound chat message.
type Request struct {
	Message   string
	Session   string
	Page      string
	UserAgent string
}

// Service answers chat messages.
type Service struct {
	provider Provider
	store    LogStore
	prompt   string
	log      *logger.Logger
}

// NewService renders the system prompt for site. provider may be nil, in
// which case every Reply fails with ErrNoProvider.
func NewService(provider Provider, store LogStore, site config.SiteProfile, log *logger.Logger) (*Service, error) {
	prompt, err := SystemPrompt(site)
	if err != nil {
		return nil, err
	}
	return &Service{provider: provider, store: store, prompt: prompt, log: log}, nil
}

// Reply completes req.Message and logs the exchange.
func (s *Service) Reply(ctx context.Context, req Request) (string, error) {
	message := truncateRunes(req.Message, maxMessageRunes)
	if message == "" {
		return "", ErrMissingMessage
	}
	if s.provider == nil {
		return "", ErrNoProvider
	}

	reply, err := s.provider.Complete(ctx, s.prompt, message)
	if err != nil {
		s.log.WithContext(ctx).Warn("chat completion failed", "provider", s.provider.Name(), "error", err)
		return "", upstreamError(err)
	}

	besteffort.Do(ctx, s.log, "chat log insert", func(ctx context.Context) error {
		return s.store.InsertLog(ctx, NewLogEntry{
			Session:    req.Session,
			Question:   message,
			Answer:     reply,
			AIProvider: s.provider.Name(),
			UserAgent:  req.UserAgent,
			Page:       req.Page,
		})
	})

	return reply, nil
}

// History lists the latest exchanges of session, newest first.
func (s *Service) History(ctx context.Context, session, rawLimit string) ([]LogEntry, error) {
	if session == "" {
		return nil, ErrMissingSession
	}

	items, err := s.store.History(ctx, session, httpkit.ParseLimitOrDefault(rawLimit, defaultHistoryLimit, maxHistoryLimit))
	if err != nil {
		s.log.DatabaseError("chat history", err)
		return nil, apperr.Wrap(apperr.KindInternal, "db error", err)
	}
	if items == nil {
		items = []LogEntry{}
	}
	return items, nil
}

func upstreamError(err error) error {
	var statusErr *openai.StatusError
	var geminiErr *gemini.APIError
	if errors.As(err, &statusErr) || errors.As(err, &geminiErr) {
		return apperr.Upstream(err.Error(), err)
	}
	return apperr.Upstream("ai_fail:"+err.Error(), err)
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
