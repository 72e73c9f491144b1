package redact

import (
	"regexp"
	"sort"
	"unicode/utf8"
)

// Marker replaces every redacted secret.
const Marker = "[REDACTED]"

// pattern is a secret heuristic with a human name for the kind it finds.
type pattern struct {
	kind string
	re   *regexp.Regexp
}

// secretPatterns are regex heuristics for common secret types. Order
// matters for Detect: the first pattern to claim a region wins.
var secretPatterns = []pattern{
	{"private key", regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`)},
	{"JSON web token", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"Anthropic API key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	{"OpenAI API key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{"Google API key", regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`)},
	{"GitHub token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"Slack token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"AWS access key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"AWS secret key", regexp.MustCompile(`(?i)aws[_-]?secret[_-]?access[_-]?key\s*[:=]\s*["']?[A-Za-z0-9/+=]{40}["']?`)},
	{"bearer token", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	{"API key", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?[A-Za-z0-9/+=_-]{20,}["']?`)},
	{"password", regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["'][^"']{8,}["']`)},
	{"password", regexp.MustCompile(`(?i)\b(password|passwd|pwd)\s*(is|:|=)\s*\S{6,}`)},
	{"hex secret", regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`)},
}

// Match is a secret found by Detect. Start and End are rune offsets.
type Match struct {
	Kind  string
	Text  string
	Start int
	End   int
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, p := range secretPatterns {
		result = p.re.ReplaceAllString(result, Marker)
	}
	return result
}

// Detect returns the secrets found in text, ordered by position and
// without overlaps.
func Detect(text string) []Match {
	type region struct {
		kind       string
		start, end int
	}
	var regions []region
	for _, p := range secretPatterns {
	next:
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			for _, r := range regions {
				if loc[0] < r.end && r.start < loc[1] {
					continue next
				}
			}
			regions = append(regions, region{kind: p.kind, start: loc[0], end: loc[1]})
		}
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].start < regions[j].start })

	matches := make([]Match, 0, len(regions))
	for _, r := range regions {
		start := utf8.RuneCountInString(text[:r.start])
		matches = append(matches, Match{
			Kind:  r.kind,
			Text:  text[r.start:r.end],
			Start: start,
			End:   start + utf8.RuneCountInString(text[r.start:r.end]),
		})
	}
	return matches
}

// Excerpt redacts text and shortens it to at most max runes, for logging.
func Excerpt(text string, max int) string {
	s := Secrets(text)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "…"
}
