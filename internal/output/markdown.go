package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/postguard/internal/risk"
	"github.com/dshills/postguard/internal/spans"
)

// MarkdownWriter outputs a markdown report with risky phrases in bold.
type MarkdownWriter struct {
	ConfidenceThreshold int
}

func (m *MarkdownWriter) Write(w io.Writer, r Report) error {
	ew := &errWriter{w: w}
	f := r.Frame

	ew.printf("## postguard: %s\n\n", r.Name)

	if f.Err != nil {
		ew.printf("> Classification unavailable: `%v`\n", f.Err)
		return ew.err
	}
	if f.Analysis == nil {
		ew.println("No analysis available.")
		return ew.err
	}

	a := *f.Analysis
	s := risk.Summarize(a)

	ew.println("| Severity | Count |")
	ew.println("|----------|-------|")
	ew.printf("| High     | %d    |\n", s.Counts.High)
	ew.printf("| Medium   | %d    |\n", s.Counts.Medium)
	ew.printf("| Low      | %d    |\n", s.Counts.Low)
	ew.printf("| **Total** | **%d** |\n\n", s.Elements)

	if !risk.ShowBanner(a) {
		ew.println("No privacy risks found. :white_check_mark:")
		return ew.err
	}

	ew.printf("**%s risk**", a.Level)
	if a.Confidence > 0 && a.Confidence >= m.ConfidenceThreshold {
		ew.printf(" (%d%% confidence)", a.Confidence)
	}
	ew.println("\n")

	var b strings.Builder
	for _, seg := range spans.Segments(f.Text, f.Spans) {
		if seg.Span == nil {
			b.WriteString(escapeMarkdown(seg.Text))
			continue
		}
		fmt.Fprintf(&b, "**%s**", escapeMarkdown(seg.Text))
	}
	for _, line := range strings.Split(b.String(), "\n") {
		ew.printf("> %s\n", line)
	}
	ew.println("")

	for _, sp := range f.Spans {
		ew.printf("<details>\n<summary>%s <code>%s</code> (%s)</summary>\n\n", mdSeverityIcon(sp.Severity), escapeHTML(sp.Text), sp.Category)
		if sp.Explanation != "" {
			ew.printf("%s\n\n", sp.Explanation)
		}
		if len(sp.Alternatives) > 0 {
			ew.println("**Alternatives:**\n")
			for _, alt := range sp.Alternatives {
				ew.printf("- %s\n", alt)
			}
			ew.println("")
		}
		ew.println("</details>\n")
	}

	if len(a.Recommendations) > 0 {
		ew.println("### Recommendations\n")
		for _, rec := range a.Recommendations {
			ew.printf("- %s\n", rec)
		}
	}

	return ew.err
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;",
)

func escapeMarkdown(s string) string { return mdEscaper.Replace(s) }

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeHTML(s string) string { return htmlEscaper.Replace(s) }

func mdSeverityIcon(l risk.Level) string {
	switch l {
	case risk.LevelHigh:
		return ":red_circle:"
	case risk.LevelMedium:
		return ":orange_circle:"
	case risk.LevelLow:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}
