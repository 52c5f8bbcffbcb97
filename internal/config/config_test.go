package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Upstream: UpstreamConfig{BaseURL: "http://books:8000"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Upstream: UpstreamConfig{BaseURL: "http://books:8000/"}}
	cfg.ApplyDefaults()

	if cfg.Upstream.BaseURL != "http://books:8000" {
		t.Errorf("trailing slash not trimmed: %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.TimeoutSec != 15 {
		t.Errorf("expected upstream timeout 15, got %d", cfg.Upstream.TimeoutSec)
	}
	if cfg.Cache.Driver != CacheNone {
		t.Errorf("expected cache driver none, got %q", cfg.Cache.Driver)
	}
	if cfg.Projection.CandidateSource != "vector" {
		t.Errorf("expected vector candidate source, got %q", cfg.Projection.CandidateSource)
	}
	if !cfg.Projection.QueryAnchor() {
		t.Error("query anchor should default to true")
	}
	if cfg.Cache.KeyPrefix != "vecvstext:" {
		t.Errorf("unexpected key prefix %q", cfg.Cache.KeyPrefix)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingUpstream(t *testing.T) {
	cfg := validConfig()
	cfg.Upstream.BaseURL = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing upstream.base_url")
	}
	if err.Error() != "upstream.base_url is required" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_CacheDrivers(t *testing.T) {
	tests := []struct {
		driver  string
		addrs   []string
		wantErr bool
	}{
		{CacheNone, nil, false},
		{CacheBadger, nil, false},
		{CacheRedis, []string{"localhost:6379"}, false},
		{CacheRedis, nil, true},
		{"memcached", nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.Cache.Driver = tc.driver
			cfg.Cache.Addrs = tc.addrs

			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_NegativeLocalTTL(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.LocalTTLSec = -1
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "local_ttl_sec") {
		t.Fatalf("expected local_ttl_sec error, got %v", err)
	}
}

func TestValidate_CandidateSource(t *testing.T) {
	for _, src := range []string{"vector", "text", "union"} {
		cfg := validConfig()
		cfg.Projection.CandidateSource = src
		if err := cfg.Validate(); err != nil {
			t.Errorf("source %q: unexpected error %v", src, err)
		}
	}

	cfg := validConfig()
	cfg.Projection.CandidateSource = "both"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown candidate source")
	}
	want := `projection.candidate_source must be "vector", "text" or "union", got "both"`
	if err.Error() != want {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), want)
	}
}

func TestValidate_SampleRate(t *testing.T) {
	cfg := validConfig()
	cfg.Tracing.SampleRate = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for sample rate above 1")
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("VVT_TEST_UPSTREAM", "http://upstream:9000")

	data := []byte(`
http:
  port: ${VVT_TEST_PORT:-8181}
upstream:
  base_url: ${VVT_TEST_UPSTREAM}
projection:
  include_query_anchor: false
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8181 {
		t.Errorf("expected default port 8181, got %d", cfg.HTTP.Port)
	}
	if cfg.Upstream.BaseURL != "http://upstream:9000" {
		t.Errorf("unexpected base url %q", cfg.Upstream.BaseURL)
	}
	if cfg.Projection.QueryAnchor() {
		t.Error("include_query_anchor: false must disable the anchor")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("http: [unterminated"))
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestUpstreamTimeout(t *testing.T) {
	u := UpstreamConfig{TimeoutSec: 3}
	if u.Timeout().Seconds() != 3 {
		t.Errorf("expected 3s, got %v", u.Timeout())
	}
}
