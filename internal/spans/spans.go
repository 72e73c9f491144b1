package spans

import (
	"sort"

	"github.com/dshills/postguard/internal/risk"
)

// Span is a highlight over the analyzed text. Start and End are rune
// offsets; Text is the buffer substring they cover.
type Span struct {
	Start        int           `json:"start"`
	End          int           `json:"end"`
	Text         string        `json:"text"`
	Category     risk.Category `json:"category"`
	Explanation  string        `json:"explanation"`
	Alternatives []string      `json:"alternatives,omitempty"`
	Severity     risk.Level    `json:"severity"`
}

// Resolve finds every occurrence of every element's text in text and
// returns the non-overlapping subset to highlight, ordered by Start.
//
// Overlaps are settled by a single left-to-right sweep: a match is kept
// only if it starts at or after the end of the last kept match, so the
// earliest-starting match wins. Matches with the same start keep element
// order. Longer or more severe matches get no preference.
func Resolve(text string, elements []risk.Element) []Span {
	if text == "" || len(elements) == 0 {
		return nil
	}
	runes := []rune(text)
	folded := foldRunes(text)

	type hit struct {
		Range
		elem int
	}
	var hits []hit
	for i, e := range elements {
		m := NewMatcher(e.Text)
		if m.Empty() {
			continue
		}
		for _, r := range m.FindAll(folded) {
			hits = append(hits, hit{Range: r, elem: i})
		}
	}
	if len(hits) == 0 {
		return nil
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Start < hits[j].Start
	})

	out := make([]Span, 0, len(hits))
	lastEnd := 0
	for _, h := range hits {
		if h.Start < lastEnd {
			continue
		}
		e := elements[h.elem]
		out = append(out, Span{
			Start:        h.Start,
			End:          h.End,
			Text:         string(runes[h.Start:h.End]),
			Category:     e.Category,
			Explanation:  e.Explanation,
			Alternatives: e.Alternatives,
			Severity:     e.Severity,
		})
		lastEnd = h.End
	}
	return out
}

// Segment is a piece of the buffer, either plain or covered by a span.
type Segment struct {
	Text string
	Span *Span
}

// Segments splits text into alternating plain and highlighted pieces
// according to spans, which must come from Resolve on the same text.
// Renderers walk the result in order.
func Segments(text string, spans []Span) []Segment {
	runes := []rune(text)
	var out []Segment
	cursor := 0
	for i := range spans {
		s := &spans[i]
		if s.Start < cursor || s.End > len(runes) {
			continue
		}
		if s.Start > cursor {
			out = append(out, Segment{Text: string(runes[cursor:s.Start])})
		}
		out = append(out, Segment{Text: string(runes[s.Start:s.End]), Span: s})
		cursor = s.End
	}
	if cursor < len(runes) {
		out = append(out, Segment{Text: string(runes[cursor:])})
	}
	return out
}
