package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestComplete_SendsSystemAndUser(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Use a bonding primer."}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/", Temperature: 0.3, MaxTokens: 512})
	reply, err := c.Complete(context.Background(), "system prompt", "how do I paint cabinets?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Use a bonding primer." {
		t.Fatalf("unexpected reply %q", reply)
	}
	if got.Model != "gpt-4o" || len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.MaxTokens != 512 {
		t.Fatalf("expected max_tokens 512, got %d", got.MaxTokens)
	}
}

func TestComplete_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(strings.Repeat("x", 500)))
	}))
	defer srv.Close()

	_, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL}).Complete(context.Background(), "s", "u")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Status != http.StatusTooManyRequests || len(statusErr.Body) != 300 {
		t.Fatalf("unexpected status error %d body len %d", statusErr.Status, len(statusErr.Body))
	}
	if !strings.HasPrefix(err.Error(), "openai_error:429 ") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	reply, err := NewClient(Config{BaseURL: srv.URL}).Complete(context.Background(), "s", "u")
	if err != nil || reply != "" {
		t.Fatalf("expected empty reply, got %q err %v", reply, err)
	}
}
