package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/dshills/postguard/internal/cache"
	"github.com/dshills/postguard/internal/classify"
	"github.com/dshills/postguard/internal/config"
	"github.com/dshills/postguard/internal/gate"
	"github.com/dshills/postguard/internal/output"
	"github.com/dshills/postguard/internal/pipeline"
	"github.com/dshills/postguard/internal/providers"
	"github.com/dshills/postguard/internal/risk"
	"github.com/dshills/postguard/internal/settings"
)

// Shared flags for commands that classify text
var (
	flagProvider string
	flagModel    string
	flagFormat   string
	flagOut      string
	flagFailOn   string
	flagColor    string
	flagSettings string
	flagPolicy   string
	flagNoRedact bool
)

func addClassifyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider ("+strings.Join(providers.Names(), ", ")+")")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on risk level threshold (none, low, medium, high)")
	cmd.Flags().StringVar(&flagColor, "color", "", "Color output (auto, always, never)")
	cmd.Flags().StringVar(&flagSettings, "settings", "", "Settings file path")
	cmd.Flags().StringVar(&flagPolicy, "policy", "", "Policy file path (TOML)")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Send detected secrets to the provider unmasked")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagColor != "" {
		m["color"] = flagColor
	}
	if flagSettings != "" {
		m["settingsFile"] = flagSettings
	}
	if flagPolicy != "" {
		m["policyFile"] = flagPolicy
	}
	return m
}

// engine is everything a command needs to run pipelines for one config.
type engine struct {
	cfg        config.Config
	classifier pipeline.Classifier
	cache      *pipeline.Cache
	gate       gate.Gate
}

// newEngine builds the classifier stack from cfg. Provider credential
// problems surface here as *providers.ConfigError.
func newEngine(cfg config.Config) (*engine, error) {
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	completer, err := providers.New(cfg.Provider, cfg.Model, providers.Options{Retries: cfg.Retries})
	if err != nil {
		return nil, err
	}

	settingsPath := cfg.SettingsFile
	if settingsPath == "" {
		settingsPath = settings.DefaultPath()
	}
	store, err := settings.Open(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	var policy *classify.Policy
	if cfg.PolicyFile != "" {
		policy, err = classify.LoadPolicy(cfg.PolicyFile)
		if err != nil {
			return nil, fmt.Errorf("loading policy: %w", err)
		}
	}

	c := classify.New(completer,
		classify.WithSettings(store),
		classify.WithPolicy(policy),
		classify.WithRepair(cfg.Repair),
		classify.WithRedaction(cfg.Privacy.RedactSecrets),
		classify.WithLocalDetection(cfg.Privacy.LocalDetection),
		classify.WithLogger(log.WithField("provider", completer.Name())),
	)

	return newEngineWith(cfg, classify.NewDeduped(c)), nil
}

func newEngineWith(cfg config.Config, c pipeline.Classifier) *engine {
	return &engine{
		cfg:        cfg,
		classifier: c,
		cache: pipeline.NewCache(
			cache.WithCapacity(cfg.Cache.Capacity),
			cache.WithTTL(cfg.CacheTTL()),
		),
		gate: gate.Gate{Similarity: cfg.Gate.Similarity, Structural: cfg.Gate.Structural},
	}
}

func (e *engine) pipeline(name string, opts ...pipeline.Option) *pipeline.Pipeline {
	opts = append([]pipeline.Option{
		pipeline.WithCache(e.cache),
		pipeline.WithGate(e.gate),
		pipeline.WithLogger(log.WithField("input", name)),
	}, opts...)
	return pipeline.New(e.classifier, opts...)
}

func (e *engine) writer(out *os.File) (output.Writer, error) {
	return output.GetWriter(e.cfg.Format, output.Options{
		Color:               output.ColorEnabled(e.cfg.Color, out),
		ConfidenceThreshold: e.cfg.ConfidenceThreshold,
	})
}

// openOut returns the --out file or stdout, and a func to close it.
func openOut() (*os.File, func(), error) {
	if flagOut == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(flagOut)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// errorExitCode maps a classification or setup error to an exit code.
func errorExitCode(err error) int {
	if providers.IsConfigError(err) || providers.IsAuthError(err) {
		return ExitConfigError
	}
	return ExitRuntimeError
}

// frameExitCode grades a finished frame: errors first, then the failOn
// threshold against the overall level.
func frameExitCode(f pipeline.Frame, failOn string) int {
	if f.Err != nil {
		return errorExitCode(f.Err)
	}
	if f.Analysis != nil && len(f.Analysis.Elements) > 0 && risk.MeetsThreshold(f.Analysis.Level, failOn) {
		return ExitFindings
	}
	return ExitSuccess
}

// worstExitCode prefers errors over findings over success.
func worstExitCode(a, b int) int {
	rank := func(c int) int {
		switch c {
		case ExitConfigError:
			return 3
		case ExitRuntimeError:
			return 2
		case ExitFindings:
			return 1
		}
		return 0
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
