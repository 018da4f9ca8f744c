package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"modelfolio/pkg/types"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\ndb_path: /tmp/l.db\nrequest_timeout_sec: 30\nhf_token: tok\ndefault_models:\n  text-to-text: my/summarizer\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.DBPath != "/tmp/l.db" || cfg.RequestTimeoutSec != 30 || cfg.HFToken != "tok" || cfg.DefaultModels["text-to-text"] != "my/summarizer" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","db_path":"/m.db","max_body_bytes":42,"cors_enabled":true,"cors_allowed_origins":["https://a.example"]}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.DBPath != "/m.db" || cfg.MaxBodyBytes != 42 || !cfg.CORSEnabled || len(cfg.CORSAllowedOrigins) != 1 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nlog_level=\"debug\"\nseed_file=\"/seed.yaml\"\n\n[default_models]\ndefault=\"gpt2-medium\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.LogLevel != "debug" || cfg.SeedFile != "/seed.yaml" || cfg.DefaultModels["default"] != "gpt2-medium" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := ApplyDefaults(Config{Addr: ":1"})
	if cfg.Addr != ":1" {
		t.Fatalf("addr overwritten: %q", cfg.Addr)
	}
	if cfg.RequestTimeout() != 120*time.Second || cfg.ConnectTimeout() != 10*time.Second {
		t.Fatalf("timeouts: %v %v", cfg.RequestTimeout(), cfg.ConnectTimeout())
	}
	if cfg.MaxBodyBytes != 1<<20 || cfg.MaxImageBytes != 10<<20 || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"MODELFOLIO_ADDR":                ":5555",
		"MODELFOLIO_LOG_LEVEL":           "warn",
		"HF_API_BASE_URL":                "http://fake",
		"MODELFOLIO_REQUEST_TIMEOUT_SEC": "oops",
	}
	cfg := ApplyEnv(Config{RequestTimeoutSec: 7}, func(k string) string { return env[k] })
	if cfg.Addr != ":5555" || cfg.LogLevel != "warn" || cfg.HFBaseURL != "http://fake" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.RequestTimeoutSec != 7 {
		t.Fatalf("invalid timeout should be ignored, got %d", cfg.RequestTimeoutSec)
	}
}

func TestTokenSource_ReadsEachCall(t *testing.T) {
	env := map[string]string{}
	src := Config{HFToken: "from-file"}.TokenSource(func(k string) string { return env[k] })
	if got := src(); got != "from-file" {
		t.Fatalf("expected file token, got %q", got)
	}
	env["HUGGINGFACE_API_TOKEN"] = "  from-env "
	if got := src(); got != "from-env" {
		t.Fatalf("expected env token, got %q", got)
	}
	delete(env, "HUGGINGFACE_API_TOKEN")
	if got := (Config{}).TokenSource(func(k string) string { return env[k] })(); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}

func TestDemoDefaults(t *testing.T) {
	m, err := Config{DefaultModels: map[string]string{"default": "gpt2-large", "sentiment-analysis": "s/m"}}.DemoDefaults()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if m[""] != "gpt2-large" || m[types.DemoSentimentAnalysis] != "s/m" {
		t.Fatalf("unexpected map: %v", m)
	}
	if _, err := (Config{DefaultModels: map[string]string{"speech": "x"}}).DemoDefaults(); err == nil {
		t.Fatalf("expected unknown demo type error")
	}
}

func TestDurations(t *testing.T) {
	c := ApplyDefaults(Config{DemoTimeoutSec: 45})
	if c.DemoTimeout() != 45*time.Second {
		t.Fatalf("demo timeout: %v", c.DemoTimeout())
	}
	if c.QueueWait() != 30*time.Second || c.RequestTimeout() != 120*time.Second {
		t.Fatalf("defaults: wait=%v request=%v", c.QueueWait(), c.RequestTimeout())
	}
	if (Config{}).DemoTimeout() != 0 {
		t.Fatalf("zero demo timeout should disable")
	}
}
