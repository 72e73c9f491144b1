package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/dshills/postguard/internal/providers"
	"github.com/dshills/postguard/internal/redact"
	"github.com/dshills/postguard/internal/risk"
	"github.com/dshills/postguard/internal/settings"
)

const maxReplyTokens = 2048

// Classifier produces a risk.Analysis for a text using an LLM completer.
type Classifier struct {
	completer      providers.Completer
	settings       settings.Store
	policy         *Policy
	repair         bool
	redactSecrets  bool
	localDetection bool
	logger         log.Interface
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithSettings sets the store consulted on every request.
func WithSettings(s settings.Store) Option {
	return func(c *Classifier) { c.settings = s }
}

// WithPolicy sets the policy pack. A nil policy is allowed.
func WithPolicy(p *Policy) Option {
	return func(c *Classifier) { c.policy = p }
}

// WithRepair enables one repair round-trip after a malformed reply.
func WithRepair(on bool) Option {
	return func(c *Classifier) { c.repair = on }
}

// WithRedaction scrubs detected secrets from the text before it is sent.
func WithRedaction(on bool) Option {
	return func(c *Classifier) { c.redactSecrets = on }
}

// WithLocalDetection merges locally detected secrets into every result.
func WithLocalDetection(on bool) Option {
	return func(c *Classifier) { c.localDetection = on }
}

// WithLogger sets the logger.
func WithLogger(l log.Interface) Option {
	return func(c *Classifier) { c.logger = l }
}

// New creates a Classifier over completer.
func New(completer providers.Completer, opts ...Option) *Classifier {
	c := &Classifier{
		completer: completer,
		settings:  settings.Static(settings.Default()),
		repair:    true,
		logger:    log.Log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify analyzes text. Errors are *providers.ConfigError,
// *providers.TransportError or *ParseError, possibly wrapped.
func (c *Classifier) Classify(ctx context.Context, text string) (risk.Analysis, error) {
	start := time.Now()

	outbound := text
	if c.redactSecrets {
		outbound = redact.Secrets(text)
	}

	req := providers.CompletionRequest{
		SystemPrompt: SystemPrompt(),
		UserPrompt:   BuildUserPrompt(outbound, c.settings.Settings(), c.policy),
		MaxTokens:    maxReplyTokens,
		JSON:         true,
	}

	resp, err := c.completer.Complete(ctx, req)
	if err != nil {
		return risk.Analysis{}, fmt.Errorf("classifying with %s: %w", c.completer.Name(), err)
	}
	tokens := resp.TokensUsed

	a, err := ParseReply(resp.Content)
	if err != nil && c.repair {
		c.logger.WithError(err).Debug("repairing classifier reply")
		repairReq := req
		repairReq.UserPrompt = repairPrompt(err, resp.Content)
		resp2, err2 := c.completer.Complete(ctx, repairReq)
		if err2 != nil {
			return risk.Analysis{}, fmt.Errorf("repair pass failed: %w (original error: %w)", err2, err)
		}
		tokens += resp2.TokensUsed
		a, err = ParseReply(resp2.Content)
	}
	if err != nil {
		return risk.Analysis{}, err
	}

	a = c.policy.Apply(a)
	a = dropRedacted(a)
	if c.localDetection {
		a = mergeLocal(a, text)
	}

	c.logger.WithFields(log.Fields{
		"provider": c.completer.Name(),
		"level":    a.Level,
		"elements": len(a.Elements),
		"tokens":   tokens,
	}).WithDuration(time.Since(start)).Debug("classified")

	return a, nil
}

// dropRedacted removes elements that quote the redaction marker; they can
// never be located in the real buffer.
func dropRedacted(a risk.Analysis) risk.Analysis {
	for _, e := range a.Elements {
		if strings.Contains(e.Text, redact.Marker) {
			out := a
			out.Elements = make([]risk.Element, 0, len(a.Elements))
			for _, e := range a.Elements {
				if !strings.Contains(e.Text, redact.Marker) {
					out.Elements = append(out.Elements, e)
				}
			}
			return out
		}
	}
	return a
}

// mergeLocal appends a CREDENTIALS element for every secret found in text
// that the model did not already report, and raises the level to HIGH.
func mergeLocal(a risk.Analysis, text string) risk.Analysis {
	matches := redact.Detect(text)
	if len(matches) == 0 {
		return a
	}

	seen := make(map[string]bool, len(a.Elements))
	for _, e := range a.Elements {
		seen[strings.ToLower(e.Text)] = true
	}

	out := a
	out.Elements = append([]risk.Element(nil), a.Elements...)
	added := false
	for _, m := range matches {
		key := strings.ToLower(m.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		added = true
		out.Elements = append(out.Elements, risk.Element{
			Text:         m.Text,
			Category:     risk.CategoryCredentials,
			Explanation:  fmt.Sprintf("Looks like a secret (%s). Anyone who reads the post can use it.", m.Kind),
			Alternatives: []string{"Remove it and rotate the secret"},
			Severity:     risk.LevelHigh,
		})
	}
	if !added {
		return a
	}

	out.Level = risk.LevelHigh
	out.OverallConcerns = append(append([]string(nil), a.OverallConcerns...), "Credentials or secrets are visible in the text")
	return out
}
