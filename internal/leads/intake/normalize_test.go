package intake

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func mustDecode(t *testing.T, raw string) Body {
	t.Helper()
	b, err := Decode(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return b
}

func TestDecode_EmptyAndNullBodies(t *testing.T) {
	for _, raw := range []string{"", "   ", "null"} {
		b, err := Decode(strings.NewReader(raw))
		if err != nil {
			t.Fatalf("expected %q to decode, got %v", raw, err)
		}
		if len(b) != 0 {
			t.Fatalf("expected empty body for %q, got %v", raw, b)
		}
	}
}

func TestDecode_RejectsMalformedAndNonObjects(t *testing.T) {
	for _, raw := range []string{"{", "[1,2]", `"text"`, "42"} {
		if _, err := Decode(strings.NewReader(raw)); !errors.Is(err, ErrInvalidBody) {
			t.Fatalf("expected ErrInvalidBody for %q, got %v", raw, err)
		}
	}
}

func TestNormalizeEstimate_Defaults(t *testing.T) {
	b := mustDecode(t, `{"name":"  Jane Doe ","phone":"(251) 555-0100","email":"jane@example.com","service":"interior"}`)

	got, err := NormalizeEstimate(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Jane Doe" {
		t.Fatalf("expected trimmed name, got %q", got.Name)
	}
	if got.Phone != "2515550100" {
		t.Fatalf("expected digits-only phone, got %q", got.Phone)
	}
	if got.Page != "/contact-form" {
		t.Fatalf("expected default page /contact-form, got %q", got.Page)
	}
	if got.Source != "web" {
		t.Fatalf("expected default source web, got %q", got.Source)
	}
}

func TestNormalizeEstimate_DescriptionWinsOverMessage(t *testing.T) {
	b := mustDecode(t, `{"name":"A","phone":"2515550100","description":"repaint deck","message":"ignored"}`)
	got, err := NormalizeEstimate(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Message != "repaint deck" {
		t.Fatalf("expected description as message, got %q", got.Message)
	}

	b = mustDecode(t, `{"name":"A","phone":"2515550100","description":"  ","message":"fallback"}`)
	got, _ = NormalizeEstimate(b)
	if got.Message != "fallback" {
		t.Fatalf("expected message fallback, got %q", got.Message)
	}
}

func TestNormalizeEstimate_Honeypot(t *testing.T) {
	b := mustDecode(t, `{"company":"Acme Bots","name":"","phone":"1"}`)
	if _, err := NormalizeEstimate(b); !errors.Is(err, ErrHoneypot) {
		t.Fatalf("expected ErrHoneypot, got %v", err)
	}
}

func TestNormalizeEstimate_PhoneLength(t *testing.T) {
	cases := []struct {
		phone string
		want  error
	}{
		{"123-4567", nil},
		{"12-3456", ErrInvalidPhone},
		{"+1 (234) 567-8901-2345", nil},
		{"1234567890123456", ErrInvalidPhone},
		{"no digits here", ErrMissingRequiredFields},
	}
	for _, tc := range cases {
		b := Body{"name": "Jane", "phone": tc.phone}
		_, err := NormalizeEstimate(b)
		if !errors.Is(err, tc.want) {
			t.Fatalf("phone %q: expected %v, got %v", tc.phone, tc.want, err)
		}
	}
}

func TestNormalizeEstimate_MissingFields(t *testing.T) {
	b := mustDecode(t, `{"name":"","phone":""}`)
	if _, err := NormalizeEstimate(b); !errors.Is(err, ErrMissingRequiredFields) {
		t.Fatalf("expected ErrMissingRequiredFields, got %v", err)
	}
}

func TestNormalizeEstimate_NumericPhone(t *testing.T) {
	b := mustDecode(t, `{"name":"Jane","phone":2515550100}`)
	got, err := NormalizeEstimate(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Phone != "2515550100" {
		t.Fatalf("expected stringified numeric phone, got %q", got.Phone)
	}
}

func TestNormalizeEvent_TrackDerivesDayHourFromTS(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := mustDecode(t, `{"type":"click_call","ts":"2025-06-30T23:59:00-02:00","day":"1999-01-01","hour":"07"}`)

	got := NormalizeEvent(b, KindTrack, now)

	if got.Type != TypeCallClicked {
		t.Fatalf("expected legacy type mapped to CallClicked, got %q", got.Type)
	}
	if got.Day() != "2025-07-01" || got.Hour() != "01" {
		t.Fatalf("expected day/hour from ts in UTC, got %s %s", got.Day(), got.Hour())
	}
}

func TestNormalizeEvent_TrackWithoutTSUsesNow(t *testing.T) {
	now := time.Date(2026, 3, 9, 17, 30, 0, 0, time.UTC)
	got := NormalizeEvent(Body{"type": "click_call", "page": "/services"}, KindTrack, now)

	if got.Day() != "2026-03-09" || got.Hour() != "17" {
		t.Fatalf("expected server day/hour, got %s %s", got.Day(), got.Hour())
	}
	if got.Page != "/services" {
		t.Fatalf("expected page /services, got %q", got.Page)
	}
}

func TestNormalizeEvent_UnparseableTSFallsBackToNow(t *testing.T) {
	now := time.Date(2026, 3, 9, 17, 30, 0, 0, time.UTC)
	got := NormalizeEvent(Body{"ts": "yesterday"}, KindTrack, now)
	if !got.Timestamp.Equal(now) {
		t.Fatalf("expected now, got %v", got.Timestamp)
	}
	if got.Type != TypeDefault {
		t.Fatalf("expected default type, got %q", got.Type)
	}
}

func TestNormalizeEvent_FormAndCallFixType(t *testing.T) {
	now := time.Now()
	if got := NormalizeEvent(Body{"type": "whatever"}, KindForm, now); got.Type != TypeLeadSubmitted {
		t.Fatalf("expected LeadSubmitted, got %q", got.Type)
	}
	if got := NormalizeEvent(Body{}, KindCall, now); got.Type != TypeCallClicked {
		t.Fatalf("expected CallClicked, got %q", got.Type)
	}
	if got := NormalizeEvent(Body{}, KindCall, now); got.Page != "/" {
		t.Fatalf("expected default page /, got %q", got.Page)
	}
}

func TestNormalizeEvent_Truncation(t *testing.T) {
	long := strings.Repeat("é", 400)
	got := NormalizeEvent(Body{"type": long, "page": long, "session": long, "service": long, "source": long}, KindTrack, time.Now())

	if n := len([]rune(got.Type)); n != 50 {
		t.Fatalf("expected type truncated to 50 runes, got %d", n)
	}
	if n := len([]rune(got.Page)); n != 300 {
		t.Fatalf("expected page truncated to 300 runes, got %d", n)
	}
	for name, v := range map[string]string{"session": got.Session, "service": got.Service, "source": got.Source} {
		if n := len([]rune(v)); n != 120 {
			t.Fatalf("expected %s truncated to 120 runes, got %d", name, n)
		}
	}
}

func TestNormalizeEvent_NumericCoercion(t *testing.T) {
	b := mustDecode(t, `{"scroll_pct":"250","duration_ms":"abc"}`)
	got := NormalizeEvent(b, KindTrack, time.Now())
	if got.ScrollPct != 250 {
		t.Fatalf("expected unclamped scroll_pct 250, got %v", got.ScrollPct)
	}
	if got.DurationMs != 0 {
		t.Fatalf("expected unparseable duration to default to 0, got %v", got.DurationMs)
	}

	b = mustDecode(t, `{"scroll_pct":42.5,"duration_ms":"NaN"}`)
	got = NormalizeEvent(b, KindTrack, time.Now())
	if got.ScrollPct != 42.5 || got.DurationMs != 0 {
		t.Fatalf("expected 42.5 and 0, got %v and %v", got.ScrollPct, got.DurationMs)
	}
}
