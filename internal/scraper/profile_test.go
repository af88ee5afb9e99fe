package scraper

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()

	if p.BaseURL != "https://www.helsinkigse.fi" {
		t.Errorf("base URL = %q", p.BaseURL)
	}
	if p.RequestDelay != 1500*time.Millisecond {
		t.Errorf("request delay = %v, want 1.5s", p.RequestDelay)
	}
	if p.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", p.Timeout)
	}
	if p.UserAgent == "" {
		t.Error("user agent must be set")
	}
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `base_url: https://staging.helsinkigse.fi
chip_selector: span.tag
request_delay: 500ms
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing profile: %v", err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if p.BaseURL != "https://staging.helsinkigse.fi" {
		t.Errorf("base URL = %q", p.BaseURL)
	}
	if p.ChipSelector != "span.tag" {
		t.Errorf("chip selector = %q", p.ChipSelector)
	}
	if p.RequestDelay != 500*time.Millisecond {
		t.Errorf("request delay = %v, want 500ms", p.RequestDelay)
	}
	// Fields absent from the file keep their defaults.
	if p.EventsPath != "/events" {
		t.Errorf("events path = %q, want default", p.EventsPath)
	}
	if p.UserAgent != DefaultUserAgent {
		t.Errorf("user agent = %q, want default", p.UserAgent)
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing profile file")
	}
}
