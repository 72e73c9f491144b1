package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/sahilm/fuzzy"
)

// Config represents the postguard configuration.
type Config struct {
	Provider            string        `json:"provider"`
	Model               string        `json:"model"`
	Format              string        `json:"format"`
	FailOn              string        `json:"failOn"`
	ConfidenceThreshold int           `json:"confidenceThreshold"`
	Retries             int           `json:"retries"`
	Repair              bool          `json:"repair"`
	Color               string        `json:"color"`
	DebounceMs          int           `json:"debounceMs"`
	SettingsFile        string        `json:"settingsFile,omitempty"`
	PolicyFile          string        `json:"policyFile,omitempty"`
	Cache               CacheConfig   `json:"cache"`
	Gate                GateConfig    `json:"gate"`
	Privacy             PrivacyConfig `json:"privacy"`
}

// CacheConfig sizes the analysis cache.
type CacheConfig struct {
	Capacity   int `json:"capacity"`
	TTLSeconds int `json:"ttlSeconds"`
}

// GateConfig holds the change gate thresholds.
type GateConfig struct {
	Similarity float64 `json:"similarity"`
	Structural float64 `json:"structural"`
}

// PrivacyConfig controls what leaves the machine.
type PrivacyConfig struct {
	RedactSecrets  bool `json:"redactSecrets"`
	LocalDetection bool `json:"localDetection"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:            "gemini",
		Model:               "gemini-2.5-flash",
		Format:              "text",
		FailOn:              "none",
		ConfidenceThreshold: 70,
		Retries:             2,
		Repair:              true,
		Color:               "auto",
		DebounceMs:          900,
		Cache: CacheConfig{
			Capacity:   20,
			TTLSeconds: 3600,
		},
		Gate: GateConfig{
			Similarity: 0.9,
			Structural: 0.3,
		},
		Privacy: PrivacyConfig{
			RedactSecrets:  true,
			LocalDetection: true,
		},
	}
}

// CacheTTL returns the cache TTL as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// Debounce returns the watch debounce delay.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ConfigDir returns the platform-appropriate config directory for postguard.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "postguard"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "postguard"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "postguard"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "postguard"), nil
	default:
		return filepath.Join(home, ".config", "postguard"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile overlays the keys present in the file at path onto cfg. A
// missing file leaves cfg untouched.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	if err := LoadFile(path, &cfg); err != nil {
		return Config{}, err
	}
	mergeEnv(&cfg)
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKeys maps environment variables onto config keys.
var envKeys = []struct{ env, key string }{
	{"POSTGUARD_PROVIDER", "provider"},
	{"POSTGUARD_MODEL", "model"},
	{"POSTGUARD_FORMAT", "format"},
	{"POSTGUARD_FAIL_ON", "failOn"},
	{"POSTGUARD_RETRIES", "retries"},
	{"POSTGUARD_COLOR", "color"},
	{"POSTGUARD_DEBOUNCE_MS", "debounceMs"},
	{"POSTGUARD_SETTINGS_FILE", "settingsFile"},
	{"POSTGUARD_POLICY_FILE", "policyFile"},
}

func mergeEnv(cfg *Config) {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			log.WithError(err).Warnf("ignoring %s", e.env)
		}
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return err
		}
	}
	return nil
}

// Keys lists every key SetField accepts.
func Keys() []string {
	return []string{
		"provider", "model", "format", "failOn", "confidenceThreshold",
		"retries", "repair", "color", "debounceMs", "settingsFile", "policyFile",
		"cache.capacity", "cache.ttlSeconds",
		"gate.similarity", "gate.structural",
		"privacy.redactSecrets", "privacy.localDetection",
	}
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = strings.ToLower(value)
	case "confidenceThreshold":
		cfg.ConfidenceThreshold, err = parseInt(key, value)
	case "retries":
		cfg.Retries, err = parseInt(key, value)
	case "repair":
		cfg.Repair, err = parseBool(key, value)
	case "color":
		cfg.Color = strings.ToLower(value)
	case "debounceMs":
		cfg.DebounceMs, err = parseInt(key, value)
	case "settingsFile":
		cfg.SettingsFile = value
	case "policyFile":
		cfg.PolicyFile = value
	case "cache.capacity":
		cfg.Cache.Capacity, err = parseInt(key, value)
	case "cache.ttlSeconds":
		cfg.Cache.TTLSeconds, err = parseInt(key, value)
	case "gate.similarity":
		cfg.Gate.Similarity, err = parseFloat(key, value)
	case "gate.structural":
		cfg.Gate.Structural, err = parseFloat(key, value)
	case "privacy.redactSecrets":
		cfg.Privacy.RedactSecrets, err = parseBool(key, value)
	case "privacy.localDetection":
		cfg.Privacy.LocalDetection, err = parseBool(key, value)
	default:
		if s := suggest(key); s != "" {
			return fmt.Errorf("unknown config key: %s (did you mean %s?)", key, s)
		}
		return fmt.Errorf("unknown config key: %s", key)
	}
	return err
}

func suggest(key string) string {
	keys := Keys()
	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return k
		}
	}
	if matches := fuzzy.Find(key, keys); len(matches) > 0 {
		return matches[0].Str
	}
	return ""
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func parseFloat(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false: %w", key, err)
	}
	return b, nil
}

// Validate checks that every field holds a usable value.
func Validate(cfg Config) error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(cfg.Provider != "", "provider must be set")
	check(cfg.Model != "" || cfg.Provider == "ollama" || cfg.Provider == "lmstudio", "model must be set")
	check(oneOf(cfg.Format, "text", "json", "markdown"), "format must be text, json, or markdown (got %q)", cfg.Format)
	check(oneOf(cfg.FailOn, "none", "low", "medium", "high"), "failOn must be none, low, medium, or high (got %q)", cfg.FailOn)
	check(oneOf(cfg.Color, "auto", "always", "never"), "color must be auto, always, or never (got %q)", cfg.Color)
	check(cfg.ConfidenceThreshold >= 0 && cfg.ConfidenceThreshold <= 100, "confidenceThreshold must be between 0 and 100")
	check(cfg.Retries >= 0, "retries must not be negative")
	check(cfg.DebounceMs >= 0, "debounceMs must not be negative")
	check(cfg.Cache.Capacity >= 1, "cache.capacity must be at least 1")
	check(cfg.Gate.Similarity >= 0 && cfg.Gate.Similarity <= 1, "gate.similarity must be between 0 and 1")
	check(cfg.Gate.Structural >= 0 && cfg.Gate.Structural <= 1, "gate.structural must be between 0 and 1")

	return errors.Join(errs...)
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
