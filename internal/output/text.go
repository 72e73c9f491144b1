package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"

	"github.com/dshills/postguard/internal/risk"
	"github.com/dshills/postguard/internal/spans"
)

// TextWriter outputs a human-readable annotation of the buffer.
type TextWriter struct {
	Color               bool
	ConfidenceThreshold int

	now func() time.Time
}

type textStyles struct {
	levels map[risk.Level]lipgloss.Style
	dim    lipgloss.Style
	bold   lipgloss.Style
}

func newTextStyles(w io.Writer) textStyles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI256)
	return textStyles{
		levels: map[risk.Level]lipgloss.Style{
			risk.LevelHigh:    r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true).Underline(true),
			risk.LevelMedium:  r.NewStyle().Foreground(lipgloss.Color("3")).Underline(true),
			risk.LevelLow:     r.NewStyle().Foreground(lipgloss.Color("6")).Underline(true),
			risk.LevelUnknown: r.NewStyle().Underline(true),
		},
		dim:  r.NewStyle().Foreground(lipgloss.Color("240")),
		bold: r.NewStyle().Bold(true),
	}
}

func (t *TextWriter) Write(w io.Writer, r Report) error {
	ew := &errWriter{w: w}
	f := r.Frame

	var st *textStyles
	if t.Color {
		s := newTextStyles(w)
		st = &s
	}
	level := func(l risk.Level, s string) string {
		if st == nil {
			return s
		}
		return st.levels[l].Render(s)
	}
	dim := func(s string) string {
		if st == nil {
			return s
		}
		return st.dim.Render(s)
	}

	ew.printf("postguard: %s\n", r.Name)
	ew.println(strings.Repeat("─", 60))

	if f.Err != nil {
		ew.printf("Classification unavailable: %v\n", f.Err)
		ew.println("The text was not annotated.")
		return ew.err
	}
	if f.Analysis == nil {
		if strings.TrimSpace(f.Text) == "" {
			ew.println("Nothing to check.")
		} else {
			ew.println("No analysis available yet.")
		}
		return ew.err
	}

	a := *f.Analysis
	if risk.ShowBanner(a) {
		ew.printf("%s\n", level(a.Level, t.banner(a)))
	} else {
		ew.println("No privacy risks found. Looks good to post!")
	}

	if len(f.Spans) > 0 {
		ew.println("")
		var b strings.Builder
		for _, seg := range spans.Segments(f.Text, f.Spans) {
			switch {
			case seg.Span == nil:
				b.WriteString(seg.Text)
			case st == nil:
				b.WriteString("[[" + seg.Text + "]]")
			default:
				b.WriteString(level(seg.Span.Severity, seg.Text))
			}
		}
		ew.println(b.String())
		ew.println("")

		for i, s := range f.Spans {
			ew.printf("%d. %q %s\n", i+1, s.Text, level(s.Severity, fmt.Sprintf("%s %s", severityIcon(s.Severity), s.Category)))
			for _, line := range wrapText(s.Explanation, 70) {
				if line != "" {
					ew.printf("   %s\n", line)
				}
			}
			if len(s.Alternatives) > 0 {
				ew.printf("   Try: %s\n", strings.Join(s.Alternatives, " | "))
			}
		}
	}

	if len(a.OverallConcerns) > 0 {
		ew.println("\nConcerns:")
		for _, c := range a.OverallConcerns {
			ew.printf("  - %s\n", c)
		}
	}
	if len(a.Recommendations) > 0 {
		ew.println("\nRecommendations:")
		for _, c := range a.Recommendations {
			ew.printf("  - %s\n", c)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.println(dim(t.footer(f.At, string(f.Source))))

	return ew.err
}

func (t *TextWriter) banner(a risk.Analysis) string {
	n := len(a.Elements)
	noun := "risky element"
	if n != 1 {
		noun += "s"
	}
	s := fmt.Sprintf("%s RISK: %d %s", a.Level, n, noun)
	if a.Confidence >= t.ConfidenceThreshold && a.Confidence > 0 {
		s += fmt.Sprintf(" (%d%% confidence)", a.Confidence)
	}
	return s
}

func (t *TextWriter) footer(at time.Time, source string) string {
	if at.IsZero() {
		return fmt.Sprintf("Source: %s", source)
	}
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	return fmt.Sprintf("Analyzed %s (source: %s)", humanize.RelTime(at, now(), "ago", "from now"), source)
}

func severityIcon(l risk.Level) string {
	switch l {
	case risk.LevelHigh:
		return "[!!]"
	case risk.LevelMedium:
		return "[!]"
	case risk.LevelLow:
		return "[-]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
