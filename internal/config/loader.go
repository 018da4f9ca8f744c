package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"modelfolio/internal/common/fsutil"
	"modelfolio/pkg/types"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`

	LogLevel      string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat     string `json:"log_format" yaml:"log_format" toml:"log_format"`
	LogFile       string `json:"log_file" yaml:"log_file" toml:"log_file"`
	LogMaxSizeMB  int    `json:"log_max_size_mb" yaml:"log_max_size_mb" toml:"log_max_size_mb"`
	LogMaxBackups int    `json:"log_max_backups" yaml:"log_max_backups" toml:"log_max_backups"`
	LogMaxAgeDays int    `json:"log_max_age_days" yaml:"log_max_age_days" toml:"log_max_age_days"`

	DBPath   string `json:"db_path" yaml:"db_path" toml:"db_path"`
	SeedFile string `json:"seed_file" yaml:"seed_file" toml:"seed_file"`

	HFToken           string `json:"hf_token" yaml:"hf_token" toml:"hf_token"`
	HFBaseURL         string `json:"hf_base_url" yaml:"hf_base_url" toml:"hf_base_url"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec" toml:"request_timeout_sec"`
	ConnectTimeoutSec int    `json:"connect_timeout_sec" yaml:"connect_timeout_sec" toml:"connect_timeout_sec"`
	MaxImageBytes     int64  `json:"max_image_bytes" yaml:"max_image_bytes" toml:"max_image_bytes"`
	// DefaultModels maps a demo type (or "default" for the fallback) to a model id.
	DefaultModels map[string]string `json:"default_models" yaml:"default_models" toml:"default_models"`

	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	// DemoTimeoutSec caps a whole demo request on the server side; 0 disables it.
	DemoTimeoutSec int `json:"demo_timeout_sec" yaml:"demo_timeout_sec" toml:"demo_timeout_sec"`

	// Admission bounds concurrent upstream calls; MaxInflight 0 disables it.
	MaxInflight  int `json:"max_inflight" yaml:"max_inflight" toml:"max_inflight"`
	MaxQueue     int `json:"max_queue" yaml:"max_queue" toml:"max_queue"`
	QueueWaitSec int `json:"queue_wait_sec" yaml:"queue_wait_sec" toml:"queue_wait_sec"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`
}

// Defaults returns a Config populated with built-in values.
func Defaults() Config {
	return Config{
		Addr:               ":8080",
		LogLevel:           "info",
		LogFormat:          "auto",
		LogMaxSizeMB:       100,
		LogMaxBackups:      3,
		LogMaxAgeDays:      28,
		DBPath:             "~/.modelfolio/listings.db",
		RequestTimeoutSec:  120,
		ConnectTimeoutSec:  10,
		MaxImageBytes:      10 << 20,
		MaxBodyBytes:       1 << 20,
		MaxQueue:           64,
		QueueWaitSec:       30,
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "X-User-ID", "X-Log-Level"},
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields of cfg from Defaults.
func ApplyDefaults(cfg Config) Config {
	d := Defaults()
	if cfg.Addr == "" {
		cfg.Addr = d.Addr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = d.LogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = d.LogFormat
	}
	if cfg.LogMaxSizeMB <= 0 {
		cfg.LogMaxSizeMB = d.LogMaxSizeMB
	}
	if cfg.LogMaxBackups <= 0 {
		cfg.LogMaxBackups = d.LogMaxBackups
	}
	if cfg.LogMaxAgeDays <= 0 {
		cfg.LogMaxAgeDays = d.LogMaxAgeDays
	}
	if cfg.DBPath == "" {
		cfg.DBPath = d.DBPath
	}
	if cfg.RequestTimeoutSec <= 0 {
		cfg.RequestTimeoutSec = d.RequestTimeoutSec
	}
	if cfg.ConnectTimeoutSec <= 0 {
		cfg.ConnectTimeoutSec = d.ConnectTimeoutSec
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = d.MaxImageBytes
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = d.MaxBodyBytes
	}
	if cfg.MaxQueue <= 0 {
		cfg.MaxQueue = d.MaxQueue
	}
	if cfg.QueueWaitSec <= 0 {
		cfg.QueueWaitSec = d.QueueWaitSec
	}
	if len(cfg.CORSAllowedMethods) == 0 {
		cfg.CORSAllowedMethods = d.CORSAllowedMethods
	}
	if len(cfg.CORSAllowedHeaders) == 0 {
		cfg.CORSAllowedHeaders = d.CORSAllowedHeaders
	}
	return cfg
}

// ApplyEnv overrides cfg with MODELFOLIO_* and Hugging Face variables read through getenv.
func ApplyEnv(cfg Config, getenv func(string) string) Config {
	if v := getenv("MODELFOLIO_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := getenv("MODELFOLIO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("MODELFOLIO_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := getenv("MODELFOLIO_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("HF_API_BASE_URL"); v != "" {
		cfg.HFBaseURL = v
	}
	if v := getenv("MODELFOLIO_REQUEST_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RequestTimeoutSec = n
		}
	}
	return cfg
}

// RequestTimeout is the upstream per-request deadline.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// ConnectTimeout is the upstream dial timeout.
func (c Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSec) * time.Second
}

// DemoTimeout is the server-side cap on one demo request (0 disables).
func (c Config) DemoTimeout() time.Duration {
	return time.Duration(c.DemoTimeoutSec) * time.Second
}

// QueueWait is the longest a demo request waits for admission.
func (c Config) QueueWait() time.Duration {
	return time.Duration(c.QueueWaitSec) * time.Second
}

// TokenSource returns a function reporting the current upstream credential.
// HUGGINGFACE_API_TOKEN is read on every call and wins over hf_token.
func (c Config) TokenSource(getenv func(string) string) func() string {
	fallback := c.HFToken
	return func() string {
		if v := strings.TrimSpace(getenv("HUGGINGFACE_API_TOKEN")); v != "" {
			return v
		}
		return fallback
	}
}

// DemoDefaults converts DefaultModels into dispatcher keys. Unknown demo
// types are reported as an error; "default" names the fallback model.
func (c Config) DemoDefaults() (map[types.DemoType]string, error) {
	out := make(map[types.DemoType]string, len(c.DefaultModels))
	for k, v := range c.DefaultModels {
		if strings.EqualFold(strings.TrimSpace(k), "default") {
			out[""] = v
			continue
		}
		t, err := types.ParseDemoType(k)
		if err != nil {
			return nil, fmt.Errorf("default_models: %w", err)
		}
		out[t] = v
	}
	return out, nil
}
