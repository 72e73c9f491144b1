package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Provider != "gemini" {
		t.Errorf("Default provider = %q, want %q", cfg.Provider, "gemini")
	}
	if cfg.Format != "text" {
		t.Errorf("Default format = %q, want %q", cfg.Format, "text")
	}
	if cfg.FailOn != "none" {
		t.Errorf("Default failOn = %q, want %q", cfg.FailOn, "none")
	}
	if cfg.ConfidenceThreshold != 70 {
		t.Errorf("Default confidenceThreshold = %d, want 70", cfg.ConfidenceThreshold)
	}
	if cfg.Cache.Capacity != 20 || cfg.CacheTTL() != time.Hour {
		t.Errorf("Default cache = %+v", cfg.Cache)
	}
	if cfg.Gate.Similarity != 0.9 || cfg.Gate.Structural != 0.3 {
		t.Errorf("Default gate = %+v", cfg.Gate)
	}
	if cfg.Debounce() != 900*time.Millisecond {
		t.Errorf("Default debounce = %v", cfg.Debounce())
	}
	if !cfg.Privacy.RedactSecrets || !cfg.Privacy.LocalDetection {
		t.Error("Default privacy options should be on")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Default config is invalid: %v", err)
	}
}

func TestMergeEnv(t *testing.T) {
	t.Setenv("POSTGUARD_PROVIDER", "openai")
	t.Setenv("POSTGUARD_MODEL", "gpt-4o")
	t.Setenv("POSTGUARD_FAIL_ON", "HIGH")
	t.Setenv("POSTGUARD_FORMAT", "json")
	t.Setenv("POSTGUARD_RETRIES", "5")
	t.Setenv("POSTGUARD_DEBOUNCE_MS", "250")

	cfg := Default()
	mergeEnv(&cfg)

	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want %q", cfg.Provider, "openai")
	}
	if cfg.Model != "gpt-4o" {
		t.Errorf("Model = %q, want %q", cfg.Model, "gpt-4o")
	}
	if cfg.FailOn != "high" {
		t.Errorf("FailOn = %q, want %q", cfg.FailOn, "high")
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want %q", cfg.Format, "json")
	}
	if cfg.Retries != 5 {
		t.Errorf("Retries = %d, want 5", cfg.Retries)
	}
	if cfg.DebounceMs != 250 {
		t.Errorf("DebounceMs = %d, want 250", cfg.DebounceMs)
	}
}

func TestMergeEnv_InvalidRetries(t *testing.T) {
	t.Setenv("POSTGUARD_RETRIES", "lots")

	cfg := Default()
	mergeEnv(&cfg)
	if cfg.Retries != 2 {
		t.Errorf("Retries = %d, want default 2 for invalid env", cfg.Retries)
	}
}

func TestMergeOverrides(t *testing.T) {
	cfg := Default()
	err := mergeOverrides(&cfg, map[string]string{
		"provider":        "anthropic",
		"model":           "claude-sonnet-4-20250514",
		"cache.capacity":  "50",
		"gate.similarity": "0.8",
		"format":          "",
	})
	if err != nil {
		t.Fatalf("mergeOverrides error: %v", err)
	}
	if cfg.Provider != "anthropic" || cfg.Model != "claude-sonnet-4-20250514" {
		t.Errorf("provider/model = %q/%q", cfg.Provider, cfg.Model)
	}
	if cfg.Cache.Capacity != 50 {
		t.Errorf("Cache.Capacity = %d, want 50", cfg.Cache.Capacity)
	}
	if cfg.Gate.Similarity != 0.8 {
		t.Errorf("Gate.Similarity = %v, want 0.8", cfg.Gate.Similarity)
	}
	if cfg.Format != "text" {
		t.Errorf("empty override should be ignored, Format = %q", cfg.Format)
	}
}

func TestMergeOverrides_Nil(t *testing.T) {
	cfg := Default()
	if err := mergeOverrides(&cfg, nil); err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Error("nil overrides should not change config")
	}
}

func TestSetField(t *testing.T) {
	cfg := Default()

	tests := []struct {
		key, value string
		check      func() bool
	}{
		{"provider", "ollama", func() bool { return cfg.Provider == "ollama" }},
		{"confidenceThreshold", "80", func() bool { return cfg.ConfidenceThreshold == 80 }},
		{"repair", "false", func() bool { return !cfg.Repair }},
		{"color", "NEVER", func() bool { return cfg.Color == "never" }},
		{"policyFile", "/tmp/p.toml", func() bool { return cfg.PolicyFile == "/tmp/p.toml" }},
		{"cache.ttlSeconds", "60", func() bool { return cfg.CacheTTL() == time.Minute }},
		{"gate.structural", "0.25", func() bool { return cfg.Gate.Structural == 0.25 }},
		{"privacy.redactSecrets", "0", func() bool { return !cfg.Privacy.RedactSecrets }},
		{"privacy.localDetection", "false", func() bool { return !cfg.Privacy.LocalDetection }},
	}
	for _, tt := range tests {
		if err := SetField(&cfg, tt.key, tt.value); err != nil {
			t.Errorf("SetField(%s, %s) error: %v", tt.key, tt.value, err)
			continue
		}
		if !tt.check() {
			t.Errorf("SetField(%s, %s) did not apply", tt.key, tt.value)
		}
	}
}

func TestSetField_Keys(t *testing.T) {
	for _, key := range Keys() {
		cfg := Default()
		err := SetField(&cfg, key, "1")
		if err != nil && strings.Contains(err.Error(), "unknown config key") {
			t.Errorf("Keys() lists %q but SetField rejects it", key)
		}
	}
}

func TestSetField_UnknownKey(t *testing.T) {
	cfg := Default()
	err := SetField(&cfg, "nonexistent", "value")
	if err == nil {
		t.Fatal("Expected error for unknown key")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("no suggestion expected: %v", err)
	}
}

func TestSetField_Suggestion(t *testing.T) {
	cfg := Default()
	tests := map[string]string{
		"provder":      "provider",
		"failon":       "failOn",
		"debounce":     "debounceMs",
		"cachecapacity": "cache.capacity",
	}
	for typo, want := range tests {
		err := SetField(&cfg, typo, "x")
		if err == nil || !strings.Contains(err.Error(), "did you mean "+want+"?") {
			t.Errorf("SetField(%q) = %v, want suggestion %q", typo, err, want)
		}
	}
}

func TestSetField_InvalidValues(t *testing.T) {
	cfg := Default()
	for key, value := range map[string]string{
		"retries":               "abc",
		"gate.similarity":       "high",
		"privacy.redactSecrets": "maybe",
	} {
		if err := SetField(&cfg, key, value); err == nil {
			t.Errorf("SetField(%s, %s) should fail", key, value)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"format", func(c *Config) { c.Format = "sarif" }, "format must be"},
		{"failOn", func(c *Config) { c.FailOn = "critical" }, "failOn must be"},
		{"color", func(c *Config) { c.Color = "rainbow" }, "color must be"},
		{"confidence", func(c *Config) { c.ConfidenceThreshold = 150 }, "confidenceThreshold"},
		{"retries", func(c *Config) { c.Retries = -1 }, "retries"},
		{"capacity", func(c *Config) { c.Cache.Capacity = 0 }, "cache.capacity"},
		{"similarity", func(c *Config) { c.Gate.Similarity = 1.5 }, "gate.similarity"},
		{"model", func(c *Config) { c.Model = "" }, "model must be set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}

	cfg := Default()
	cfg.Provider = "ollama"
	cfg.Model = ""
	if err := Validate(cfg); err != nil {
		t.Errorf("ollama without a model should be valid: %v", err)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath error: %v", err)
	}
	if path != "/tmp/xdg-test/postguard/config.json" {
		t.Errorf("ConfigPath = %q, want %q", path, "/tmp/xdg-test/postguard/config.json")
	}
}

func TestLoadFile_PartialOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"provider":"openai","repair":false,"cache":{"capacity":5}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.Repair {
		t.Error("explicit false in file should win over default true")
	}
	if cfg.Cache.Capacity != 5 || cfg.Cache.TTLSeconds != 3600 {
		t.Errorf("Cache = %+v, want capacity 5 and default TTL", cfg.Cache)
	}
	if !cfg.Privacy.RedactSecrets {
		t.Error("keys absent from the file keep their defaults")
	}
}

func TestLoadFile_NoFile(t *testing.T) {
	cfg := Default()
	if err := LoadFile(filepath.Join(t.TempDir(), "missing.json"), &cfg); err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg != Default() {
		t.Error("missing file should leave config untouched")
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"provider":`), 0o644)

	cfg := Default()
	if err := LoadFile(path, &cfg); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("POSTGUARD_PROVIDER", "")
	t.Setenv("POSTGUARD_FORMAT", "")

	cfg := Default()
	cfg.Provider = "openai"
	cfg.Model = "gpt-4o"
	cfg.DebounceMs = 300
	if err := Save(cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded, err := Load(map[string]string{"format": "markdown"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Provider != "openai" || loaded.Model != "gpt-4o" || loaded.DebounceMs != 300 {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Format != "markdown" {
		t.Errorf("override should win, Format = %q", loaded.Format)
	}
}

func TestConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	os.MkdirAll(filepath.Join(dir, "postguard"), 0o755)
	os.WriteFile(filepath.Join(dir, "postguard", "config.json"), []byte(`{"provider":"anthropic","model":"from-file"}`), 0o644)
	t.Setenv("POSTGUARD_PROVIDER", "openai")
	t.Setenv("POSTGUARD_MODEL", "")

	cfg, err := Load(map[string]string{"provider": "ollama"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Provider != "ollama" {
		t.Errorf("flag should beat env, Provider = %q", cfg.Provider)
	}
	if cfg.Model != "from-file" {
		t.Errorf("file should beat default, Model = %q", cfg.Model)
	}

	cfg, err = Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("env should beat file, Provider = %q", cfg.Provider)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := Load(map[string]string{"format": "sarif"}); err == nil {
		t.Error("expected validation error")
	}
	if _, err := Load(map[string]string{"bogus": "1"}); err == nil {
		t.Error("expected unknown key error")
	}
}
