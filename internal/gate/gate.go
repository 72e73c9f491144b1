package gate

import (
	"strings"

	"golang.org/x/text/cases"
)

const (
	// DefaultSimilarity is the Jaccard similarity above which an edit is
	// treated as a near duplicate of the last analyzed text.
	DefaultSimilarity = 0.9
	// DefaultStructural is the structural change ratio at or below which an
	// edit with an identical text key is ignored.
	DefaultStructural = 0.3
)

// Lookup is the part of the result cache the gate consults.
type Lookup interface {
	Has(key string) bool
}

// Stage names the step of the gate that produced a decision.
type Stage string

const (
	StageEmpty      Stage = "empty"
	StageCached     Stage = "cached"
	StageSimilar    Stage = "similar"
	StageStructural Stage = "structural"
	StageChanged    Stage = "changed"
)

// Decision is the gate outcome with the measurements behind it.
type Decision struct {
	Reanalyze  bool
	Stage      Stage
	Similarity float64
	Ratio      float64
}

// Gate decides whether an edited text warrants a new classification.
type Gate struct {
	Similarity float64
	Structural float64
}

// Default returns a Gate with the standard thresholds.
func Default() Gate {
	return Gate{Similarity: DefaultSimilarity, Structural: DefaultStructural}
}

// ShouldReanalyze reports whether newText should be sent to the classifier.
func (g Gate) ShouldReanalyze(newText, lastAnalyzed string, c Lookup) bool {
	return g.Decide(newText, lastAnalyzed, c).Reanalyze
}

// Decide runs the three stages in order: exact cache hit, fuzzy token
// similarity against the last analyzed text, then structural delta.
func (g Gate) Decide(newText, lastAnalyzed string, c Lookup) Decision {
	key := TextKey(newText)
	if key == "" {
		return Decision{Stage: StageEmpty}
	}
	if c != nil && c.Has(key) {
		return Decision{Stage: StageCached}
	}

	d := Decision{Reanalyze: true, Stage: StageChanged}
	if strings.TrimSpace(lastAnalyzed) == "" {
		return d
	}

	newTokens, lastTokens := Tokens(newText), Tokens(lastAnalyzed)
	d.Similarity = jaccard(newTokens, lastTokens)
	if d.Similarity > g.Similarity {
		return Decision{Stage: StageSimilar, Similarity: d.Similarity}
	}

	d.Ratio = structuralRatio(newTokens, lastTokens)
	if d.Ratio <= g.Structural && key == TextKey(lastAnalyzed) {
		return Decision{Stage: StageStructural, Similarity: d.Similarity, Ratio: d.Ratio}
	}
	return d
}

// TextKey canonicalises text for cache equality: case-folded, runs of
// whitespace collapsed to one space, trimmed. It is not a digest.
func TextKey(text string) string {
	return strings.Join(strings.Fields(fold(text)), " ")
}

// Tokens returns the set of case-folded, whitespace-separated words in text.
func Tokens(text string) map[string]struct{} {
	fields := strings.Fields(fold(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Jaccard returns |A ∩ B| / |A ∪ B| over the token sets of a and b.
func Jaccard(a, b string) float64 {
	return jaccard(Tokens(a), Tokens(b))
}

// StructuralRatio measures how much newText departs from last: the change
// in distinct word count plus the number of new words, over the size of the
// combined vocabulary.
func StructuralRatio(newText, last string) float64 {
	return structuralRatio(Tokens(newText), Tokens(last))
}

func jaccard(a, b map[string]struct{}) float64 {
	union := unionSize(a, b)
	if union == 0 {
		return 1
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	return float64(inter) / float64(union)
}

func structuralRatio(newTokens, lastTokens map[string]struct{}) float64 {
	union := unionSize(newTokens, lastTokens)
	if union == 0 {
		return 0
	}
	changed := len(newTokens) - len(lastTokens)
	if changed < 0 {
		changed = -changed
	}
	for t := range newTokens {
		if _, ok := lastTokens[t]; !ok {
			changed++
		}
	}
	return float64(changed) / float64(union)
}

func unionSize(a, b map[string]struct{}) int {
	n := len(a)
	for t := range b {
		if _, ok := a[t]; !ok {
			n++
		}
	}
	return n
}

// fold applies Unicode case folding. A Caser keeps state, so each call
// gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
