package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "API_BASE_URL", "FETCH_CONCURRENCY", "RECENT_WINDOW_DAYS", "REQUEST_TIMEOUT", "UPSTREAM_RPS", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8081" {
		t.Errorf("port: got %q", cfg.Port)
	}
	if cfg.FetchConcurrency != 5 {
		t.Errorf("fetch concurrency: got %d, want 5", cfg.FetchConcurrency)
	}
	if cfg.RecentWindowDays != 30 {
		t.Errorf("recent window: got %d, want 30", cfg.RecentWindowDays)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("request timeout: got %v", cfg.RequestTimeout)
	}
	if cfg.UpstreamRPS != 0 {
		t.Errorf("upstream rps: got %v", cfg.UpstreamRPS)
	}
	if cfg.BillsEndpoint != "/bills" || cfg.DetailsEndpoint != "/bill-details" {
		t.Errorf("endpoints: got %q %q", cfg.BillsEndpoint, cfg.DetailsEndpoint)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://billing.internal:3800/api/")
	t.Setenv("FETCH_CONCURRENCY", "8")
	t.Setenv("RECENT_WINDOW_DAYS", "not-a-number")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("UPSTREAM_RPS", "2.5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()

	if cfg.APIBaseURL != "http://billing.internal:3800/api" {
		t.Errorf("base url should lose trailing slash: got %q", cfg.APIBaseURL)
	}
	if cfg.FetchConcurrency != 8 {
		t.Errorf("fetch concurrency: got %d", cfg.FetchConcurrency)
	}
	if cfg.RecentWindowDays != 30 {
		t.Errorf("invalid value should fall back: got %d", cfg.RecentWindowDays)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("request timeout: got %v", cfg.RequestTimeout)
	}
	if cfg.UpstreamRPS != 2.5 {
		t.Errorf("upstream rps: got %v", cfg.UpstreamRPS)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("allowed origins: got %v", cfg.AllowedOrigins)
	}
}

func TestLocationFallback(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	if _, offset := time.Now().In(cfg.Location()).Zone(); offset != 6*60*60 {
		t.Errorf("fallback offset: got %d", offset)
	}
}
