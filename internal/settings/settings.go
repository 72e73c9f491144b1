package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Strictness controls how readily the classifier flags a phrase.
type Strictness string

const (
	StrictnessRelaxed  Strictness = "relaxed"
	StrictnessBalanced Strictness = "balanced"
	StrictnessStrict   Strictness = "strict"
)

// ParseStrictness validates a strictness name.
func ParseStrictness(s string) (Strictness, error) {
	switch v := Strictness(strings.ToLower(strings.TrimSpace(s))); v {
	case StrictnessRelaxed, StrictnessBalanced, StrictnessStrict:
		return v, nil
	default:
		return "", fmt.Errorf("invalid strictness %q (use relaxed, balanced, or strict)", s)
	}
}

// Settings are the values a classifier reads when building a prompt.
type Settings struct {
	Strictness        Strictness `yaml:"strictness"`
	CustomInstruction string     `yaml:"customInstruction,omitempty"`
}

// Default returns balanced strictness and no custom instruction.
func Default() Settings {
	return Settings{Strictness: StrictnessBalanced}
}

// Store is a read-only source of settings.
type Store interface {
	Settings() Settings
}

// Static is a Store that always returns the same values.
type Static Settings

func (s Static) Settings() Settings { return Settings(s) }

// DefaultPath returns the settings file location.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "postguard", "settings.yaml")
}

// File is a Store backed by a YAML file. A missing file yields defaults.
type File struct {
	path string

	mu sync.RWMutex
	s  Settings
}

// Open reads the settings file at path.
func Open(path string) (*File, error) {
	f := &File{path: path, s: Default()}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the backing file location.
func (f *File) Path() string { return f.path }

func (f *File) Settings() Settings {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.s
}

// Reload rereads the file, keeping defaults for absent keys.
func (f *File) Reload() error {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading settings file: %w", err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parsing settings file %s: %w", f.path, err)
	}
	if s.Strictness == "" {
		s.Strictness = StrictnessBalanced
	}
	st, err := ParseStrictness(string(s.Strictness))
	if err != nil {
		return fmt.Errorf("settings file %s: %w", f.path, err)
	}
	s.Strictness = st

	f.mu.Lock()
	f.s = s
	f.mu.Unlock()
	return nil
}

// Set updates a single value by key and writes the file.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.s
	switch key {
	case "strictness":
		st, err := ParseStrictness(value)
		if err != nil {
			return err
		}
		next.Strictness = st
	case "customInstruction":
		next.CustomInstruction = strings.TrimSpace(value)
	default:
		return fmt.Errorf("unknown settings key: %s (use strictness or customInstruction)", key)
	}

	if err := write(f.path, next); err != nil {
		return err
	}
	f.s = next
	return nil
}

func write(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
