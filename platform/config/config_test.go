package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is empty")
	}
}

func TestLoad_AdminEmailFallbackOrder(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("OWNER_EMAIL", "owner@example.com")
	t.Setenv("TO_ADDR", "to@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetAdminEmail() != "owner@example.com" {
		t.Fatalf("expected owner@example.com, got %q", cfg.GetAdminEmail())
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("OWNER_EMAIL", "")
	t.Setenv("TO_ADDR", "")
	t.Setenv("FROM_ADDR", "")
	t.Setenv("EMAIL_FROM_ADDRESS", "")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("THANK_YOU_URL", "/thank-you")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetAdminEmail() != defaultAdminEmail {
		t.Fatalf("expected default admin email, got %q", cfg.GetAdminEmail())
	}
	if cfg.GetEmailFromAddress() != defaultFromAddress {
		t.Fatalf("expected default from address, got %q", cfg.GetEmailFromAddress())
	}
	if !cfg.GetCORSAllowAll() {
		t.Fatalf("expected wildcard origins to enable allow-all")
	}
	if cfg.GetThankYouURL() != "/thank-you" {
		t.Fatalf("expected /thank-you, got %q", cfg.GetThankYouURL())
	}
}

func TestLoad_GA4MeasurementIDDefault(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("GA4_MEASUREMENT_ID", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetGA4MeasurementID() != "G-CLK9PTRD5N" {
		t.Fatalf("expected built-in measurement id, got %q", cfg.GetGA4MeasurementID())
	}

	t.Setenv("GA4_MEASUREMENT_ID", "G-OTHER")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetGA4MeasurementID() != "G-OTHER" {
		t.Fatalf("expected G-OTHER, got %q", cfg.GetGA4MeasurementID())
	}
}

func TestLoadSiteProfile_OverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	content := "name: Gulf Coast Painters\nphone: \"(251) 000-0000\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	profile, err := LoadSiteProfile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Name != "Gulf Coast Painters" {
		t.Fatalf("expected overridden name, got %q", profile.Name)
	}
	if profile.Phone != "(251) 000-0000" {
		t.Fatalf("expected overridden phone, got %q", profile.Phone)
	}
	if profile.ServiceArea != DefaultSiteProfile().ServiceArea {
		t.Fatalf("expected default service area to survive, got %q", profile.ServiceArea)
	}
}

func TestLoadSiteProfile_MissingFile(t *testing.T) {
	if _, err := LoadSiteProfile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing profile file")
	}
}
