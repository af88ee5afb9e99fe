package scraper

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL   = "https://www.helsinkigse.fi"
	DefaultUserAgent = "HelsinkiGSE-EventCalendar-Bot/0.1 (weekly digest service)"

	defaultEventsPath   = "/events"
	defaultSitemapPath  = "/sitemap.xml"
	defaultRequestDelay = 1500 * time.Millisecond
	defaultTimeout      = 30 * time.Second
	defaultHeading      = "h1"
	defaultChipSelector = "span.chip"
)

// Profile collects the site-layout knobs the scraper depends on. The page
// heuristics are pattern matches against one site's markup, so a layout
// change should be a profile edit rather than a code change.
type Profile struct {
	BaseURL         string        `yaml:"base_url"`
	EventsPath      string        `yaml:"events_path"`
	SitemapPath     string        `yaml:"sitemap_path"`
	UserAgent       string        `yaml:"user_agent"`
	RequestDelay    time.Duration `yaml:"request_delay"`
	Timeout         time.Duration `yaml:"timeout"`
	HeadingSelector string        `yaml:"heading_selector"`
	ChipSelector    string        `yaml:"chip_selector"`
}

// DefaultProfile returns the helsinkigse.fi profile.
func DefaultProfile() Profile {
	return Profile{
		BaseURL:         DefaultBaseURL,
		EventsPath:      defaultEventsPath,
		SitemapPath:     defaultSitemapPath,
		UserAgent:       DefaultUserAgent,
		RequestDelay:    defaultRequestDelay,
		Timeout:         defaultTimeout,
		HeadingSelector: defaultHeading,
		ChipSelector:    defaultChipSelector,
	}
}

// UnmarshalYAML decodes the profile, reading durations from strings like
// "1.5s" or "500ms".
func (p *Profile) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		BaseURL         string `yaml:"base_url"`
		EventsPath      string `yaml:"events_path"`
		SitemapPath     string `yaml:"sitemap_path"`
		UserAgent       string `yaml:"user_agent"`
		RequestDelay    string `yaml:"request_delay"`
		Timeout         string `yaml:"timeout"`
		HeadingSelector string `yaml:"heading_selector"`
		ChipSelector    string `yaml:"chip_selector"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.BaseURL != "" {
		p.BaseURL = raw.BaseURL
	}
	if raw.EventsPath != "" {
		p.EventsPath = raw.EventsPath
	}
	if raw.SitemapPath != "" {
		p.SitemapPath = raw.SitemapPath
	}
	if raw.UserAgent != "" {
		p.UserAgent = raw.UserAgent
	}
	if raw.HeadingSelector != "" {
		p.HeadingSelector = raw.HeadingSelector
	}
	if raw.ChipSelector != "" {
		p.ChipSelector = raw.ChipSelector
	}
	if raw.RequestDelay != "" {
		d, err := time.ParseDuration(raw.RequestDelay)
		if err != nil {
			return fmt.Errorf("parsing request_delay: %w", err)
		}
		p.RequestDelay = d
	}
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("parsing timeout: %w", err)
		}
		p.Timeout = d
	}
	return nil
}

// LoadProfile reads a YAML profile. Fields absent from the file keep their
// default values, so a profile only needs to spell out what differs.
func LoadProfile(path string) (Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile: %w", err)
	}
	p := DefaultProfile()
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing profile: %w", err)
	}
	return p, nil
}

// withDefaults fills unset structural fields. RequestDelay is left alone so
// a zero delay stays an explicit choice.
func (p Profile) withDefaults() Profile {
	if p.BaseURL == "" {
		p.BaseURL = DefaultBaseURL
	}
	if p.EventsPath == "" {
		p.EventsPath = defaultEventsPath
	}
	if p.SitemapPath == "" {
		p.SitemapPath = defaultSitemapPath
	}
	if p.UserAgent == "" {
		p.UserAgent = DefaultUserAgent
	}
	if p.Timeout == 0 {
		p.Timeout = defaultTimeout
	}
	if p.HeadingSelector == "" {
		p.HeadingSelector = defaultHeading
	}
	if p.ChipSelector == "" {
		p.ChipSelector = defaultChipSelector
	}
	return p
}
