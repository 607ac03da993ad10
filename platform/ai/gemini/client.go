// Package gemini wraps the Gemini API for single-turn completions.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const maxErrorMessage = 300

// Config for the Gemini API.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
}

// Client generates text with a Gemini model.
type Client struct {
	config Config
	client *genai.Client
}

// APIError is a failed Gemini API call.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini_error:%d %s", e.Code, e.Message)
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{config: cfg, client: client}, nil
}

// Complete runs user against the model with system as the system
// instruction.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(c.config.Temperature),
		MaxOutputTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return "", translateError(err)
	}
	return resp.Text(), nil
}

func translateError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Code: apiErr.Code, Message: truncate(apiErr.Message, maxErrorMessage)}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &APIError{Code: apiErrPtr.Code, Message: truncate(apiErrPtr.Message, maxErrorMessage)}
	}
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
