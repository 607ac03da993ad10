package gemini

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func TestTranslateError_APIError(t *testing.T) {
	err := translateError(fmt.Errorf("generate: %w", genai.APIError{Code: 429, Message: strings.Repeat("m", 400)}))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Code != 429 || len(apiErr.Message) != maxErrorMessage {
		t.Fatalf("unexpected api error code=%d len=%d", apiErr.Code, len(apiErr.Message))
	}
	if !strings.HasPrefix(err.Error(), "gemini_error:429 ") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestTranslateError_PassThrough(t *testing.T) {
	orig := errors.New("dial tcp: timeout")
	if err := translateError(orig); err != orig {
		t.Fatalf("expected original error, got %v", err)
	}
}
