package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dshills/postguard/internal/risk"
)

// Policy is a pack of classification rules loaded from a TOML file:
//
//	focus = ["LOCATION", "FAMILY"]
//	ignore = ["Springfield"]
//
//	[severity_overrides]
//	DATES = "LOW"
type Policy struct {
	Focus             []string          `toml:"focus"`
	Ignore            []string          `toml:"ignore"`
	SeverityOverrides map[string]string `toml:"severity_overrides"`
}

// LoadPolicy reads a policy file. Returns nil Policy and nil error if path
// is empty.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return nil, nil
	}
	var p Policy
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, fmt.Errorf("parsing policy file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("policy file %s: unknown key %q", path, undecoded[0].String())
	}
	for cat, sev := range p.SeverityOverrides {
		if string(risk.ParseCategory(cat)) != strings.ToUpper(strings.TrimSpace(cat)) {
			return nil, fmt.Errorf("policy file %s: unknown category %q", path, cat)
		}
		if risk.ParseLevel(sev) == risk.LevelUnknown {
			return nil, fmt.Errorf("policy file %s: invalid severity %q for %s", path, sev, cat)
		}
	}
	return &p, nil
}

// PromptSection returns additional prompt instructions derived from the
// policy. A nil policy yields "".
func (p *Policy) PromptSection() string {
	if p == nil {
		return ""
	}

	var b strings.Builder

	if len(p.Focus) > 0 {
		fmt.Fprintf(&b, "\nFocus areas: %s. Prioritize risks in these categories.\n",
			strings.Join(p.Focus, ", "))
	}

	if len(p.Ignore) > 0 {
		fmt.Fprintf(&b, "\nNever flag these phrases: %s.\n", strings.Join(quoteAll(p.Ignore), ", "))
	}

	if len(p.SeverityOverrides) > 0 {
		b.WriteString("\nSeverity policy:\n")
		cats := make([]string, 0, len(p.SeverityOverrides))
		for cat := range p.SeverityOverrides {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			fmt.Fprintf(&b, "- %s elements should be rated as %s severity.\n",
				strings.ToUpper(cat), strings.ToUpper(p.SeverityOverrides[cat]))
		}
	}

	return b.String()
}

// Apply enforces the policy on a: ignored phrases are dropped and severity
// overrides are applied by category. a is not modified.
func (p *Policy) Apply(a risk.Analysis) risk.Analysis {
	if p == nil || (len(p.Ignore) == 0 && len(p.SeverityOverrides) == 0) {
		return a
	}

	out := a
	out.Elements = make([]risk.Element, 0, len(a.Elements))
	for _, e := range a.Elements {
		if p.ignores(e.Text) {
			continue
		}
		for cat, sev := range p.SeverityOverrides {
			if risk.ParseCategory(cat) == e.Category {
				e.Severity = risk.ParseLevel(sev)
			}
		}
		out.Elements = append(out.Elements, e)
	}
	return out
}

func (p *Policy) ignores(text string) bool {
	for _, ig := range p.Ignore {
		if strings.EqualFold(strings.TrimSpace(ig), strings.TrimSpace(text)) {
			return true
		}
	}
	return false
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
