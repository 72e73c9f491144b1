package spans

import "unicode"

// Range is a half-open [Start, End) interval of rune offsets.
type Range struct {
	Start int
	End   int
}

// Matcher finds a literal phrase in text, ignoring case. It compares rune
// by rune, so offsets are rune positions and a match always covers exactly
// as many runes as the phrase.
type Matcher struct {
	pattern []rune
}

// NewMatcher builds a Matcher for phrase. An empty phrase yields a Matcher
// that never matches.
func NewMatcher(phrase string) Matcher {
	p := []rune(phrase)
	for i, r := range p {
		p[i] = foldRune(r)
	}
	return Matcher{pattern: p}
}

// Empty reports whether the Matcher has no pattern.
func (m Matcher) Empty() bool { return len(m.pattern) == 0 }

// FindAll returns every non-overlapping occurrence of the phrase in text,
// in order. Text must already be folded with foldRunes.
func (m Matcher) FindAll(text []rune) []Range {
	n := len(m.pattern)
	if n == 0 || n > len(text) {
		return nil
	}
	var out []Range
	i := 0
	for i+n <= len(text) {
		if m.matchAt(text, i) {
			out = append(out, Range{Start: i, End: i + n})
			i += n
			continue
		}
		i++
	}
	return out
}

func (m Matcher) matchAt(text []rune, at int) bool {
	for j, r := range m.pattern {
		if text[at+j] != r {
			return false
		}
	}
	return true
}

// foldRunes returns text as runes, each case-folded in place.
func foldRunes(text string) []rune {
	rs := []rune(text)
	for i, r := range rs {
		rs[i] = foldRune(r)
	}
	return rs
}

// foldRune maps a rune to a single canonical case. Multi-rune folds such
// as ß -> ss are deliberately not applied so rune offsets stay aligned with
// the original text.
func foldRune(r rune) rune {
	return unicode.ToLower(unicode.ToUpper(r))
}
