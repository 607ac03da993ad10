// Package analytics forwards site events to the GA4 Measurement Protocol.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"leadedge_backend/platform/config"

	"github.com/google/uuid"
)

const maxErrorBody = 300

// Params are GA4 event parameters.
type Params map[string]any

// Compact drops parameters whose value is nil. Empty strings are sent as is.
func (p Params) Compact() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

// Event is a single GA4 event.
type Event struct {
	Name   string `json:"name"`
	Params Params `json:"params"`
}

type payload struct {
	ClientID        string  `json:"client_id"`
	TimestampMicros int64   `json:"timestamp_micros"`
	Events          []Event `json:"events"`
}

// UpstreamError reports a non-success answer from the collect endpoint.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("GA4 error: %d %s", e.Status, e.Body)
}

// Client posts events to the Measurement Protocol endpoint. A nil or
// unconfigured client skips every send.
type Client struct {
	endpoint      string
	measurementID string
	apiSecret     string
	http          *http.Client
	now           func() time.Time
}

// NewClient creates a client from configuration.
func NewClient(cfg config.AnalyticsConfig) *Client {
	return &Client{
		endpoint:      cfg.GetGA4Endpoint(),
		measurementID: cfg.GetGA4MeasurementID(),
		apiSecret:     cfg.GetGA4APISecret(),
		http:          &http.Client{Timeout: 10 * time.Second},
		now:           time.Now,
	}
}

// Enabled reports whether credentials are configured. The measurement id
// has a built-in default, so in practice the api secret decides.
func (c *Client) Enabled() bool {
	return c != nil && c.measurementID != "" && c.apiSecret != ""
}

// ClientID returns session when set, else a fresh random id.
func ClientID(session string) string {
	if session != "" {
		return session
	}
	return uuid.NewString()
}

// Send posts events for clientID. It returns nil without sending when the
// client is not configured, and *UpstreamError on a non-2xx response.
func (c *Client) Send(ctx context.Context, clientID string, events ...Event) error {
	if !c.Enabled() || len(events) == 0 {
		return nil
	}

	for i := range events {
		events[i].Params = events[i].Params.Compact()
	}

	body, err := json.Marshal(payload{
		ClientID:        clientID,
		TimestampMicros: c.now().UnixMicro(),
		Events:          events,
	})
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("measurement_id", c.measurementID)
	q.Set("api_secret", c.apiSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ga4 request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &UpstreamError{Status: resp.StatusCode, Body: truncate(string(data), maxErrorBody)}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
