package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SiteProfile describes the business behind the marketing site. It feeds the
// chat persona and the outbound email copy.
type SiteProfile struct {
	Name        string `yaml:"name"`
	Phone       string `yaml:"phone"`
	ServiceArea string `yaml:"service_area"`
	SiteURL     string `yaml:"site_url"`
	Assistant   string `yaml:"assistant"`
}

// DefaultSiteProfile returns the built-in profile.
func DefaultSiteProfile() SiteProfile {
	return SiteProfile{
		Name:        "Dependable Painting",
		Phone:       "(251) 525-4405",
		ServiceArea: "Baldwin & Mobile County, AL",
		SiteURL:     "https://dependablepainting.work",
		Assistant:   "Paint Guru",
	}
}

// LoadSiteProfile reads a YAML profile from path and overlays it on the
// defaults. An empty path returns the defaults.
func LoadSiteProfile(path string) (SiteProfile, error) {
	profile := DefaultSiteProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return SiteProfile{}, fmt.Errorf("read site profile: %w", err)
	}

	var override SiteProfile
	if err := yaml.Unmarshal(data, &override); err != nil {
		return SiteProfile{}, fmt.Errorf("parse site profile: %w", err)
	}

	profile.merge(override)
	return profile, nil
}

func (p *SiteProfile) merge(o SiteProfile) {
	if o.Name != "" {
		p.Name = o.Name
	}
	if o.Phone != "" {
		p.Phone = o.Phone
	}
	if o.ServiceArea != "" {
		p.ServiceArea = o.ServiceArea
	}
	if o.SiteURL != "" {
		p.SiteURL = o.SiteURL
	}
	if o.Assistant != "" {
		p.Assistant = o.Assistant
	}
}
